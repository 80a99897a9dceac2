package types

import (
	"strings"
	"unicode/utf8"

	"github.com/gagliardetto/solana-go"
)

// ParsePublicKey decodes a base58 address supplied by a caller.
func ParsePublicKey(field, value string) (solana.PublicKey, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return solana.PublicKey{}, &InvalidAddressError{Field: field, Value: value, Err: ErrInvalidPublicKey}
	}
	pk, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, &InvalidAddressError{Field: field, Value: value, Err: err}
	}
	return pk, nil
}

// ValidateBuyParams validates common buy parameters.
func ValidateBuyParams(amount, maxCost uint64) error {
	if amount == 0 {
		return NewValidationError("amount", "must be greater than 0")
	}
	if maxCost == 0 {
		return NewValidationError("maxCost", "must be greater than 0")
	}
	return nil
}

// ValidateSlippage validates slippage basis points.
func ValidateSlippage(slippageBps uint64) error {
	if slippageBps > 10000 {
		return ValidationError{Field: "slippageBps", Message: "must be <= 10000 (100%)", Err: ErrInvalidSlippage}
	}
	return nil
}

// ValidatePublicKey validates a public key is not zero.
func ValidatePublicKey(name string, key solana.PublicKey) error {
	if key.IsZero() {
		return NewValidationError(name, "cannot be zero")
	}
	return nil
}

// ValidatePublicKeys validates multiple public keys.
func ValidatePublicKeys(keys map[string]solana.PublicKey) error {
	for name, key := range keys {
		if err := ValidatePublicKey(name, key); err != nil {
			return err
		}
	}
	return nil
}

// Limits enforced by the token-metadata program on the create instruction.
const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200
)

// ValidateTokenFields checks name, symbol and uri against the metadata limits.
// An empty uri is allowed so the check can run before upload.
func ValidateTokenFields(name, symbol, uri string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return NewValidationError("name", "is required")
	case utf8.RuneCountInString(name) > MaxNameLength:
		return NewValidationError("name", "must be at most 32 characters")
	case strings.TrimSpace(symbol) == "":
		return NewValidationError("symbol", "is required")
	case utf8.RuneCountInString(symbol) > MaxSymbolLength:
		return NewValidationError("symbol", "must be at most 10 characters")
	case len(uri) > MaxURILength:
		return NewValidationError("uri", "must be at most 200 bytes")
	}
	return nil
}
