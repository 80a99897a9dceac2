package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ninja0404/pump-launch-go/pkg/config"
	"github.com/ninja0404/pump-launch-go/pkg/metrics"
	"github.com/ninja0404/pump-launch-go/pkg/types"
)

// Client wraps solana-go rpc.Client with retry, timeout, and rate limiting.
// Only read calls are retried; sendTransaction is attempted exactly once.
type Client struct {
	raw     *solanarpc.Client
	cfg     config.RPCConfig
	limiter *rate.Limiter
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewClient builds a configured Client.
func NewClient(cfg config.RPCConfig) *Client {
	return NewClientWithRaw(solanarpc.New(cfg.ResolveRPCURL()), cfg)
}

// NewClientWithRaw wraps an existing solana-go client, e.g. one pointed at a test server.
func NewClientWithRaw(raw *solanarpc.Client, cfg config.RPCConfig) *Client {
	var limiter *rate.Limiter
	if cfg.RateLimit.RPS > 0 {
		burst := cfg.RateLimit.Burst
		if burst == 0 {
			burst = int(cfg.RateLimit.RPS * 2)
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), burst)
	}

	log := cfg.Logger
	if log.GetLevel() == zerolog.NoLevel {
		log = zerolog.Nop()
	}

	return &Client{
		raw:     raw,
		cfg:     cfg,
		limiter: limiter,
		log:     log,
	}
}

// WithMetrics records per-call outcomes into m.
func (c *Client) WithMetrics(m *metrics.Metrics) *Client {
	c.metrics = m
	return c
}

// Raw exposes the underlying solana-go client.
func (c *Client) Raw() *solanarpc.Client {
	return c.raw
}

// Commitment returns the configured commitment level.
func (c *Client) Commitment() solanarpc.CommitmentType {
	return solanarpc.CommitmentType(c.cfg.Commitment)
}

// GetLatestBlockhash fetches the latest blockhash at the configured commitment.
func (c *Client) GetLatestBlockhash(ctx context.Context) (*solanarpc.GetLatestBlockhashResult, error) {
	var out *solanarpc.GetLatestBlockhashResult
	err := c.call(ctx, "getLatestBlockhash", func(ctx context.Context) error {
		var err error
		out, err = c.raw.GetLatestBlockhash(ctx, c.Commitment())
		return err
	})
	return out, err
}

// LatestBlockhash returns just the blockhash of GetLatestBlockhash.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	res, err := c.GetLatestBlockhash(ctx)
	if err != nil {
		return solana.Hash{}, err
	}
	if res == nil || res.Value == nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash: empty response")
	}
	return res.Value.Blockhash, nil
}

// SendTransaction submits a signed transaction once. A rejected blockhash is
// reported as *types.StaleCheckpointError.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction, opts solanarpc.TransactionOpts) (solana.Signature, error) {
	var sig solana.Signature
	err := c.once(ctx, "sendTransaction", func(ctx context.Context) error {
		var err error
		sig, err = c.raw.SendTransactionWithOpts(ctx, tx, opts)
		return err
	})
	if err != nil && IsBlockhashNotFound(err) {
		return solana.Signature{}, &types.StaleCheckpointError{Blockhash: tx.Message.RecentBlockhash, Err: err}
	}
	return sig, err
}

// SimulateTransaction simulates a transaction for debugging.
func (c *Client) SimulateTransaction(ctx context.Context, tx *solana.Transaction, opts *solanarpc.SimulateTransactionOpts) (*solanarpc.SimulateTransactionResponse, error) {
	var res *solanarpc.SimulateTransactionResponse
	err := c.call(ctx, "simulateTransaction", func(ctx context.Context) error {
		var err error
		res, err = c.raw.SimulateTransactionWithOpts(ctx, tx, opts)
		return err
	})
	return res, err
}

// SignatureStatus returns the status of sig, or nil when the ledger has not seen it.
func (c *Client) SignatureStatus(ctx context.Context, sig solana.Signature, searchHistory bool) (*solanarpc.SignatureStatusesResult, error) {
	var out *solanarpc.GetSignatureStatusesResult
	err := c.call(ctx, "getSignatureStatuses", func(ctx context.Context) error {
		var err error
		out, err = c.raw.GetSignatureStatuses(ctx, searchHistory, sig)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil || len(out.Value) == 0 {
		return nil, nil
	}
	return out.Value[0], nil
}

// AccountData returns the raw data of account, or types.ErrAccountNotFound.
func (c *Client) AccountData(ctx context.Context, account solana.PublicKey) ([]byte, error) {
	var out *solanarpc.GetAccountInfoResult
	err := c.call(ctx, "getAccountInfo", func(ctx context.Context) error {
		var err error
		out, err = c.raw.GetAccountInfoWithOpts(ctx, account, &solanarpc.GetAccountInfoOpts{
			Commitment: c.Commitment(),
		})
		if errors.Is(err, solanarpc.ErrNotFound) {
			return backoff.Permanent(types.ErrAccountNotFound)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil || out.Value == nil || out.Value.Data == nil {
		return nil, types.ErrAccountNotFound
	}
	return out.Value.Data.GetBinary(), nil
}

// Balance returns the lamport balance of account.
func (c *Client) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	var out *solanarpc.GetBalanceResult
	err := c.call(ctx, "getBalance", func(ctx context.Context) error {
		var err error
		out, err = c.raw.GetBalance(ctx, account, c.Commitment())
		return err
	})
	if err != nil {
		return 0, err
	}
	if out == nil {
		return 0, nil
	}
	return out.Value, nil
}

// SignaturesForAddress lists the most recent signatures touching account.
func (c *Client) SignaturesForAddress(ctx context.Context, account solana.PublicKey, limit int) ([]*solanarpc.TransactionSignature, error) {
	var out []*solanarpc.TransactionSignature
	err := c.call(ctx, "getSignaturesForAddress", func(ctx context.Context) error {
		var err error
		out, err = c.raw.GetSignaturesForAddressWithOpts(ctx, account, &solanarpc.GetSignaturesForAddressOpts{
			Limit:      &limit,
			Commitment: c.Commitment(),
		})
		return err
	})
	return out, err
}

// Transaction fetches and decodes a confirmed transaction.
func (c *Client) Transaction(ctx context.Context, sig solana.Signature) (*solana.Transaction, error) {
	maxVersion := uint64(0)
	var out *solanarpc.GetTransactionResult
	err := c.call(ctx, "getTransaction", func(ctx context.Context) error {
		var err error
		out, err = c.raw.GetTransaction(ctx, sig, &solanarpc.GetTransactionOpts{
			Encoding:                       solana.EncodingBase64,
			Commitment:                     c.Commitment(),
			MaxSupportedTransactionVersion: &maxVersion,
		})
		if errors.Is(err, solanarpc.ErrNotFound) {
			return backoff.Permanent(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil || out.Transaction == nil {
		return nil, fmt.Errorf("getTransaction %s: empty response", sig)
	}
	return out.Transaction.GetTransaction()
}

// once runs fn with timeout and rate limiting but never retries it.
func (c *Client) once(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	start := time.Now()
	err := fn(ctx)
	c.metrics.ObserveRPC(op, err, time.Since(start))
	if err != nil {
		return types.RPCError{Op: op, Err: err}
	}
	return nil
}

func (c *Client) call(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	attempts := c.cfg.Retry.MaxAttempts
	if !c.cfg.Retry.Enabled || attempts <= 0 {
		attempts = 1
	}

	start := time.Now()
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := fn(ctx)
		if err != nil && !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(c.backoff()),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.log.Debug().
				Str("op", op).
				Dur("backoff", next).
				Err(err).
				Msg("rpc retry")
		}),
	)
	c.metrics.ObserveRPC(op, err, time.Since(start))
	if err != nil {
		if errors.Is(err, types.ErrAccountNotFound) {
			return err
		}
		return types.RPCError{Op: op, Err: err}
	}
	return nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

func (c *Client) backoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.Retry.InitialBackoff
	if b.InitialInterval <= 0 {
		b.InitialInterval = 100 * time.Millisecond
	}
	if c.cfg.Retry.MaxBackoff > 0 {
		b.MaxInterval = c.cfg.Retry.MaxBackoff
	}
	if !c.cfg.Retry.Jitter {
		b.RandomizationFactor = 0
	}
	return b
}

func retryable(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// JSON-RPC errors are answers from the node, not transport failures.
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code == 429 || rpcErr.Code == -32005
	}
	return true
}

// IsBlockhashNotFound reports whether err is the node rejecting an expired blockhash.
func IsBlockhashNotFound(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "blockhash not found")
}
