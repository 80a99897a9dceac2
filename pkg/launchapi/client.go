// Package launchapi calls the hosted launch endpoint that builds an unsigned
// create transaction server-side.
package launchapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/ninja0404/pump-launch-go/pkg/txcodec"
	"github.com/ninja0404/pump-launch-go/pkg/types"
)

// Params is the form the launch endpoint expects.
type Params struct {
	Name        string
	Symbol      string
	Description string
	// Dev is the creator wallet.
	Dev  solana.PublicKey
	Mint solana.PublicKey
	// Image is optional; it is sent as a data URL.
	Image []byte
}

// Response is a decoded launch transaction.
type Response struct {
	Encoded     string
	Encoding    txcodec.Encoding
	Transaction *solana.Transaction
}

// Client posts to {baseURL}{path}.
type Client struct {
	endpoint string
	client   *http.Client
	log      zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.client = c }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(cl *Client) { cl.log = log }
}

// NewClient targets endpoint, the full launch URL.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DataURL renders data as data:<mime>;base64,<payload>.
func DataURL(data []byte) string {
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Form encodes p as the endpoint's url-encoded body.
func (p Params) Form() url.Values {
	form := url.Values{}
	form.Set("name", p.Name)
	form.Set("symbol", p.Symbol)
	form.Set("description", p.Description)
	form.Set("dev", p.Dev.String())
	form.Set("mint", p.Mint.String())
	if len(p.Image) > 0 {
		form.Set("file", DataURL(p.Image))
	}
	return form
}

// Launch requests a launch transaction for p and decodes it.
func (c *Client) Launch(ctx context.Context, p Params) (Response, error) {
	if c.endpoint == "" {
		return Response{}, fmt.Errorf("launch api endpoint not configured")
	}
	if err := types.ValidateTokenFields(p.Name, p.Symbol, ""); err != nil {
		return Response{}, err
	}
	if err := types.ValidatePublicKeys(map[string]solana.PublicKey{"dev": p.Dev, "mint": p.Mint}); err != nil {
		return Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(p.Form().Encode()))
	if err != nil {
		return Response{}, fmt.Errorf("build launch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("launch request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Response{}, fmt.Errorf("read launch response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, &types.LaunchAPIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	encoded, err := extractTransaction(resp.Header.Get("Content-Type"), raw)
	if err != nil {
		return Response{}, err
	}
	tx, enc, err := txcodec.DecodeAuto(encoded)
	if err != nil {
		return Response{}, fmt.Errorf("decode launch transaction: %w", err)
	}
	c.log.Debug().Str("encoding", string(enc)).Int("length", len(encoded)).Msg("launch transaction received")
	return Response{Encoded: encoded, Encoding: enc, Transaction: tx}, nil
}

// txFields is the lookup order for the encoded transaction in a JSON reply.
var txFields = []string{"tx", "encodedTransaction", "transaction", "data", "result"}

// extractTransaction pulls the encoded transaction out of a JSON or plain-text
// reply. The documented shape is {"result":"success","tx":"..."}; the other
// field names are accepted for older deployments.
func extractTransaction(contentType string, raw []byte) (string, error) {
	var encoded string
	if strings.Contains(contentType, "application/json") {
		var obj map[string]interface{}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return "", &types.LaunchAPIError{Result: "malformed json", Body: string(raw)}
		}
		result, _ := obj["result"].(string)
		if result != "success" {
			return "", &types.LaunchAPIError{Result: result, Body: string(raw)}
		}
		for _, field := range txFields {
			s, ok := obj[field].(string)
			if !ok || s == "" {
				continue
			}
			if field == "result" && s == "success" {
				continue
			}
			encoded = s
			break
		}
	} else {
		encoded = string(raw)
	}

	encoded = txcodec.StripSpace(encoded)
	if encoded == "" || encoded == "undefined" || encoded == "null" {
		return "", types.ErrEmptyTransaction
	}
	return encoded, nil
}
