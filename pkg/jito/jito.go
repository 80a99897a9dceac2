// Package jito submits launch transactions through the Jito Block Engine as
// single-transaction bundles, optionally carrying a validator tip.
//
// See https://github.com/jito-labs/jito-go-rpc.
package jito

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	jitorpc "github.com/jito-labs/jito-go-rpc"
	"github.com/rs/zerolog"

	"github.com/ninja0404/pump-launch-go/pkg/txcodec"
	"github.com/ninja0404/pump-launch-go/pkg/types"
)

const (
	MainnetBlockEngine = "https://mainnet.block-engine.jito.wtf/api/v1"
	TestnetBlockEngine = "https://testnet.block-engine.jito.wtf/api/v1"
)

// MainnetBlockEngines lists the regional mainnet endpoints.
var MainnetBlockEngines = []string{
	"https://mainnet.block-engine.jito.wtf/api/v1",
	"https://amsterdam.mainnet.block-engine.jito.wtf/api/v1",
	"https://frankfurt.mainnet.block-engine.jito.wtf/api/v1",
	"https://ny.mainnet.block-engine.jito.wtf/api/v1",
	"https://tokyo.mainnet.block-engine.jito.wtf/api/v1",
}

// MainnetTipAccounts are the published tip accounts.
var MainnetTipAccounts = []solana.PublicKey{
	solana.MustPublicKeyFromBase58("96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5"),
	solana.MustPublicKeyFromBase58("HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe"),
	solana.MustPublicKeyFromBase58("Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY"),
	solana.MustPublicKeyFromBase58("ADaUMid9yfUytqMBgopwjb2DTLSokTSzL1zt6iGPaS49"),
	solana.MustPublicKeyFromBase58("DfXygSm4jCyNCybVYYK6DwvWqjKee8pbDmJGcLWNDXjh"),
	solana.MustPublicKeyFromBase58("ADuUkR4vqLUMWXxW9gh6D6L8pMSawimctcNZ5pGwDcEt"),
	solana.MustPublicKeyFromBase58("DttWaMuVvTiduZRnguLF7jNxTgiMBZ1hyAumKUiL2KRL"),
	solana.MustPublicKeyFromBase58("3AVi9Tg9Uo68tJfuvoKvqKNWKkC5wPdSSdeBnizKZ6jT"),
}

// RandomTipAccount picks one of MainnetTipAccounts without a network call.
func RandomTipAccount() solana.PublicKey {
	return MainnetTipAccounts[rand.Intn(len(MainnetTipAccounts))]
}

// NewTipInstruction transfers lamports from payer to a random tip account.
// It belongs in the same transaction as the launch instructions.
func NewTipInstruction(payer solana.PublicKey, lamports uint64) (solana.Instruction, error) {
	if lamports == 0 {
		return nil, fmt.Errorf("jito tip: %w", types.ErrZeroAmount)
	}
	return system.NewTransferInstruction(lamports, payer, RandomTipAccount()).ValidateAndBuild()
}

// bundleAPI is the subset of the Jito JSON-RPC client used here.
type bundleAPI interface {
	SendBundle(bundleTransactions [][]string) (json.RawMessage, error)
	GetBundleStatuses(bundleIds []string) (*jitorpc.BundleStatusResponse, error)
}

// Client rotates over block engine endpoints. Only rate-limit rejections move
// on to the next endpoint; any other error is returned as is.
type Client struct {
	endpoints    []string
	uuid         string
	currentIndex uint32
	maxRetries   int
	retryDelay   time.Duration
	log          zerolog.Logger
	dial         func(endpoint, uuid string) bundleAPI
}

// NewClient creates a client for one endpoint. uuid may be empty.
func NewClient(endpoint string, uuid string) *Client {
	if endpoint == "" {
		endpoint = MainnetBlockEngine
	}
	return newClient([]string{endpoint}, uuid, 3, 200*time.Millisecond)
}

// NewClientWithEndpoints creates a client that rotates over endpoints.
func NewClientWithEndpoints(endpoints []string, uuid string) *Client {
	if len(endpoints) == 0 {
		endpoints = MainnetBlockEngines
	}
	return newClient(endpoints, uuid, len(endpoints)+2, 100*time.Millisecond)
}

func newClient(endpoints []string, uuid string, retries int, delay time.Duration) *Client {
	return &Client{
		endpoints:  endpoints,
		uuid:       uuid,
		maxRetries: retries,
		retryDelay: delay,
		log:        zerolog.Nop(),
		dial: func(endpoint, uuid string) bundleAPI {
			return jitorpc.NewJitoJsonRpcClient(endpoint, uuid)
		},
	}
}

// WithRetries sets the rate-limit retry budget.
func (c *Client) WithRetries(maxRetries int, retryDelay time.Duration) *Client {
	c.maxRetries = maxRetries
	c.retryDelay = retryDelay
	return c
}

// WithLogger sets the logger.
func (c *Client) WithLogger(log zerolog.Logger) *Client {
	c.log = log
	return c
}

func (c *Client) next() (string, bundleAPI) {
	idx := atomic.AddUint32(&c.currentIndex, 1)
	endpoint := c.endpoints[int(idx)%len(c.endpoints)]
	return endpoint, c.dial(endpoint, c.uuid)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "rate limit") ||
		strings.Contains(s, "congested") ||
		strings.Contains(s, "429")
}

// withRotation runs fn against successive endpoints while it is rate limited.
func (c *Client) withRotation(ctx context.Context, op string, fn func(api bundleAPI) error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		endpoint, api := c.next()
		err := fn(api)
		if err == nil {
			return nil
		}
		if !isRateLimitError(err) {
			return fmt.Errorf("jito %s: %w", op, err)
		}
		lastErr = err
		c.log.Debug().Str("endpoint", endpoint).Str("op", op).Msg("jito rate limited, rotating")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
	return fmt.Errorf("jito %s failed after %d attempts: %w", op, c.maxRetries, lastErr)
}

// SendResult is the outcome of a bundle submission.
type SendResult struct {
	Signature solana.Signature
	BundleID  string
}

// Send submits tx as a single-transaction bundle and returns its first
// signature, which is what the confirmation loop polls for.
func (c *Client) Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	res, err := c.SendWithBundleID(ctx, tx)
	if err != nil {
		return solana.Signature{}, err
	}
	return res.Signature, nil
}

// SendWithBundleID is Send but also returns the bundle id.
func (c *Client) SendWithBundleID(ctx context.Context, tx *solana.Transaction) (SendResult, error) {
	if len(tx.Signatures) == 0 {
		return SendResult{}, fmt.Errorf("transaction is not signed")
	}
	encoded, err := txcodec.Encode(tx, txcodec.Base64)
	if err != nil {
		return SendResult{}, err
	}
	var bundleID string
	err = c.withRotation(ctx, "sendBundle", func(api bundleAPI) error {
		raw, err := api.SendBundle([][]string{{encoded}})
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, &bundleID)
	})
	if err != nil {
		return SendResult{}, err
	}
	c.log.Info().Str("bundle", bundleID).Str("signature", tx.Signatures[0].String()).Msg("bundle submitted")
	return SendResult{Signature: tx.Signatures[0], BundleID: bundleID}, nil
}

// BundleStatuses returns the landed statuses of bundles.
func (c *Client) BundleStatuses(ctx context.Context, bundleIDs []string) (*jitorpc.BundleStatusResponse, error) {
	var out *jitorpc.BundleStatusResponse
	err := c.withRotation(ctx, "getBundleStatuses", func(api bundleAPI) error {
		var err error
		out, err = api.GetBundleStatuses(bundleIDs)
		return err
	})
	return out, err
}
