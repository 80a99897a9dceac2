package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/ninja0404/pump-launch-go/pkg/txcodec"
	"github.com/ninja0404/pump-launch-go/pkg/types"
)

// Custodian signs whole encoded transactions on behalf of a key it never reveals.
// It returns the same transaction, re-encoded, with its signature slot filled.
type Custodian interface {
	SignTransaction(ctx context.Context, encoded string) (string, error)
}

// CustodianFunc adapts a function to Custodian.
type CustodianFunc func(ctx context.Context, encoded string) (string, error)

func (f CustodianFunc) SignTransaction(ctx context.Context, encoded string) (string, error) {
	return f(ctx, encoded)
}

// CustodialSigner is a Signer backed by a Custodian. It rebuilds the unsigned
// transaction around the message, has the custodian sign it, and only accepts
// the reply if the message bytes are unchanged and the signature verifies.
type CustodialSigner struct {
	pub       solana.PublicKey
	custodian Custodian
	encoding  txcodec.Encoding
	log       zerolog.Logger
}

// CustodialOption configures a CustodialSigner.
type CustodialOption func(*CustodialSigner)

// WithEncoding selects the text encoding exchanged with the custodian (default base64).
func WithEncoding(enc txcodec.Encoding) CustodialOption {
	return func(s *CustodialSigner) { s.encoding = enc }
}

// WithCustodialLogger sets the logger.
func WithCustodialLogger(log zerolog.Logger) CustodialOption {
	return func(s *CustodialSigner) { s.log = log }
}

// NewCustodialSigner builds a signer for pub that delegates to custodian.
func NewCustodialSigner(pub solana.PublicKey, custodian Custodian, opts ...CustodialOption) *CustodialSigner {
	s := &CustodialSigner{
		pub:       pub,
		custodian: custodian,
		encoding:  txcodec.Base64,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PublicKey returns the custodied public key.
func (s *CustodialSigner) PublicKey() solana.PublicKey {
	return s.pub
}

// SignMessage implements Signer.
func (s *CustodialSigner) SignMessage(ctx context.Context, message []byte) (solana.Signature, error) {
	if s.custodian == nil {
		return solana.Signature{}, fmt.Errorf("custodian not set")
	}

	var msg solana.Message
	if err := msg.UnmarshalWithDecoder(bin.NewBinDecoder(message)); err != nil {
		return solana.Signature{}, fmt.Errorf("decode message: %w", err)
	}
	idx, err := signerIndex(msg, s.pub)
	if err != nil {
		return solana.Signature{}, err
	}

	unsigned := &solana.Transaction{
		Signatures: make([]solana.Signature, msg.Header.NumRequiredSignatures),
		Message:    msg,
	}
	encoded, err := txcodec.Encode(unsigned, s.encoding)
	if err != nil {
		return solana.Signature{}, err
	}

	s.log.Debug().Str("signer", s.pub.String()).Int("slot", idx).Msg("requesting custodial signature")
	reply, err := s.custodian.SignTransaction(ctx, encoded)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("custodian sign: %w", err)
	}

	signed, err := txcodec.Decode(reply, s.encoding)
	if err != nil {
		return solana.Signature{}, &types.SignerTamperedMessageError{Signer: s.pub, Reason: fmt.Sprintf("undecodable reply: %v", err)}
	}
	got, err := signed.Message.MarshalBinary()
	if err != nil {
		return solana.Signature{}, &types.SignerTamperedMessageError{Signer: s.pub, Reason: fmt.Sprintf("unserializable message: %v", err)}
	}
	if !bytes.Equal(got, message) {
		return solana.Signature{}, &types.SignerTamperedMessageError{Signer: s.pub, Reason: "message bytes changed"}
	}
	if idx >= len(signed.Signatures) {
		return solana.Signature{}, &types.SignerTamperedMessageError{Signer: s.pub, Reason: "signature slot missing"}
	}
	sig := signed.Signatures[idx]
	if !sig.Verify(s.pub, message) {
		return solana.Signature{}, &types.SignerTamperedMessageError{Signer: s.pub, Reason: "signature does not verify"}
	}
	return sig, nil
}

func signerIndex(msg solana.Message, pub solana.PublicKey) (int, error) {
	n := int(msg.Header.NumRequiredSignatures)
	for i := 0; i < n && i < len(msg.AccountKeys); i++ {
		if msg.AccountKeys[i].Equals(pub) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%s is not a required signer of the message", pub)
}

// HTTPCustodian talks to a remote signing service over JSON.
//
// Request:  {"address": "<base58>", "encodedTransaction": "<encoded>"}
// Response: {"signedTransaction": "<encoded>"}
type HTTPCustodian struct {
	endpoint string
	address  solana.PublicKey
	token    string
	appID    string
	client   *http.Client
}

// HTTPCustodianOption configures an HTTPCustodian.
type HTTPCustodianOption func(*HTTPCustodian)

// WithBearerToken authenticates requests with a bearer token.
func WithBearerToken(token string) HTTPCustodianOption {
	return func(c *HTTPCustodian) { c.token = token }
}

// WithAppID sends the auth provider application id.
func WithAppID(appID string) HTTPCustodianOption {
	return func(c *HTTPCustodian) { c.appID = appID }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) HTTPCustodianOption {
	return func(c *HTTPCustodian) { c.client = client }
}

// NewHTTPCustodian builds a custodian client for the wallet address.
func NewHTTPCustodian(endpoint string, address solana.PublicKey, opts ...HTTPCustodianOption) *HTTPCustodian {
	c := &HTTPCustodian{
		endpoint: endpoint,
		address:  address,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type signRequest struct {
	Address            string `json:"address"`
	EncodedTransaction string `json:"encodedTransaction"`
}

type signResponse struct {
	SignedTransaction string `json:"signedTransaction"`
	Error             string `json:"error,omitempty"`
}

// SignTransaction implements Custodian.
func (c *HTTPCustodian) SignTransaction(ctx context.Context, encoded string) (string, error) {
	body, err := json.Marshal(signRequest{Address: c.address.String(), EncodedTransaction: encoded})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.appID != "" {
		req.Header.Set("X-App-Id", c.appID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sign request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read sign response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("sign request: status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	var out signResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode sign response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("custodian: %s", out.Error)
	}
	if out.SignedTransaction == "" {
		return "", fmt.Errorf("custodian returned no transaction")
	}
	return out.SignedTransaction, nil
}
