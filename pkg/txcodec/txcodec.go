// Package txcodec converts transactions to and from their text wire forms.
package txcodec

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Encoding is a text encoding of a serialized transaction.
type Encoding string

const (
	Base64 Encoding = "base64"
	Base58 Encoding = "base58"
)

// Encode serializes tx, signatures included, into enc.
func Encode(tx *solana.Transaction, enc Encoding) (string, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("serialize transaction: %w", err)
	}
	switch enc {
	case Base58:
		return base58.Encode(raw), nil
	case Base64, "":
		return base64.StdEncoding.EncodeToString(raw), nil
	default:
		return "", fmt.Errorf("unsupported encoding %q", enc)
	}
}

// Decode parses a transaction from enc. Whitespace is ignored.
func Decode(s string, enc Encoding) (*solana.Transaction, error) {
	s = StripSpace(s)
	var (
		raw []byte
		err error
	)
	switch enc {
	case Base58:
		raw, err = base58.Decode(s)
	case Base64, "":
		raw, err = base64.StdEncoding.DecodeString(s)
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s transaction: %w", enc, err)
	}
	return FromBytes(raw)
}

// DecodeAuto tries base58 first, then base64.
func DecodeAuto(s string) (*solana.Transaction, Encoding, error) {
	tx, err58 := Decode(s, Base58)
	if err58 == nil {
		return tx, Base58, nil
	}
	tx, err64 := Decode(s, Base64)
	if err64 == nil {
		return tx, Base64, nil
	}
	return nil, "", fmt.Errorf("transaction is neither base58 (%v) nor base64 (%v)", err58, err64)
}

// FromBytes decodes a wire-format transaction and rejects trailing bytes.
func FromBytes(raw []byte) (*solana.Transaction, error) {
	dec := bin.NewBinDecoder(raw)
	tx, err := solana.TransactionFromDecoder(dec)
	if err != nil {
		return nil, fmt.Errorf("parse transaction: %w", err)
	}
	if dec.Remaining() != 0 {
		return nil, fmt.Errorf("parse transaction: %d trailing bytes", dec.Remaining())
	}
	return tx, nil
}

// StripSpace removes every whitespace rune from s.
func StripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
