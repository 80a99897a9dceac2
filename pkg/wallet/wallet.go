package wallet

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Signer produces detached signatures over transaction message bytes.
// Local keys and remote custodians both satisfy it.
type Signer interface {
	PublicKey() solana.PublicKey
	SignMessage(ctx context.Context, message []byte) (solana.Signature, error)
}

// Local wraps a local private key.
type Local struct {
	key solana.PrivateKey
}

// NewLocalFromKeygen loads a solana-keygen JSON file.
func NewLocalFromKeygen(path string) (Local, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return Local{}, fmt.Errorf("load keypair: %w", err)
	}
	return Local{key: key}, nil
}

// NewLocalFromBase58 constructs a local signer from base58-encoded key.
func NewLocalFromBase58(privateKey string) (Local, error) {
	key, err := DecodeSecretKey(privateKey)
	if err != nil {
		return Local{}, err
	}
	return Local{key: key}, nil
}

// NewLocalFromPrivateKey constructs a local signer from existing private key.
func NewLocalFromPrivateKey(key solana.PrivateKey) Local {
	return Local{key: key}
}

// PublicKey returns the associated public key.
func (l Local) PublicKey() solana.PublicKey {
	return l.key.PublicKey()
}

// PrivateKey exposes the key, e.g. to export a generated mint.
func (l Local) PrivateKey() solana.PrivateKey {
	return l.key
}

// SignMessage signs the provided message bytes.
func (l Local) SignMessage(ctx context.Context, message []byte) (solana.Signature, error) {
	select {
	case <-ctx.Done():
		return solana.Signature{}, ctx.Err()
	default:
		sig, err := l.key.Sign(message)
		if err != nil {
			return solana.Signature{}, fmt.Errorf("sign message: %w", err)
		}
		return sig, nil
	}
}

// RemoteSigner signs by delegating raw message bytes to an external function.
type RemoteSigner struct {
	pub      solana.PublicKey
	SignFunc func(ctx context.Context, message []byte) ([]byte, error)
}

// NewRemoteSigner constructs a remote signer.
func NewRemoteSigner(pub solana.PublicKey, fn func(ctx context.Context, message []byte) ([]byte, error)) RemoteSigner {
	return RemoteSigner{
		pub:      pub,
		SignFunc: fn,
	}
}

// PublicKey returns the attached public key.
func (r RemoteSigner) PublicKey() solana.PublicKey {
	return r.pub
}

// SignMessage obtains a signature from the remote function and verifies it.
func (r RemoteSigner) SignMessage(ctx context.Context, message []byte) (solana.Signature, error) {
	if r.SignFunc == nil {
		return solana.Signature{}, fmt.Errorf("sign func not set")
	}
	raw, err := r.SignFunc(ctx, message)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("remote sign: %w", err)
	}
	if len(raw) != solana.SignatureLength {
		return solana.Signature{}, fmt.Errorf("invalid signature length: got %d", len(raw))
	}
	sig := solana.SignatureFromBytes(raw)
	if !sig.Verify(r.pub, message) {
		return solana.Signature{}, fmt.Errorf("remote signature does not verify for %s", r.pub)
	}
	return sig, nil
}

// EncodeSecretKey renders a 64-byte secret key as base58.
func EncodeSecretKey(key solana.PrivateKey) string {
	return base58.Encode(key)
}

// DecodeSecretKey parses a base58 64-byte secret key and checks that its
// embedded public half matches the seed.
func DecodeSecretKey(s string) (solana.PrivateKey, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode base58 key: %w", err)
	}
	if len(raw) != 64 {
		return nil, fmt.Errorf("decode base58 key: want 64 bytes, got %d", len(raw))
	}
	derived := ed25519.NewKeyFromSeed(raw[:32])
	if !bytes.Equal(derived[32:], raw[32:]) {
		return nil, fmt.Errorf("decode base58 key: public key does not match seed")
	}
	return solana.PrivateKey(raw), nil
}
