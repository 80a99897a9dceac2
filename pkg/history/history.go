// Package history lists the tokens a wallet has launched by scanning its
// recent transactions for pump create instructions.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ninja0404/pump-launch-go/pkg/constants"
	"github.com/ninja0404/pump-launch-go/pkg/pump"
)

// Ledger is the read side of the RPC client used by the scanner.
type Ledger interface {
	SignaturesForAddress(ctx context.Context, account solana.PublicKey, limit int) ([]*solanarpc.TransactionSignature, error)
	Transaction(ctx context.Context, sig solana.Signature) (*solana.Transaction, error)
}

// CreatedToken is one launch found in the wallet's history.
type CreatedToken struct {
	Name      string
	Symbol    string
	URI       string
	Mint      solana.PublicKey
	Signature solana.Signature
	// BlockTime is zero when the node did not report one.
	BlockTime time.Time
}

// Scanner walks signatures newest first.
type Scanner struct {
	ledger      Ledger
	limit       int
	scan        int
	concurrency int
	log         zerolog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLimit sets how many signatures are listed.
func WithLimit(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithScan sets how many successful transactions are fetched and decoded.
func WithScan(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.scan = n
		}
	}
}

// WithConcurrency bounds parallel transaction fetches.
func WithConcurrency(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Scanner) { s.log = log }
}

// NewScanner lists 100 signatures and inspects the first 20.
func NewScanner(ledger Ledger, opts ...Option) *Scanner {
	s := &Scanner{
		ledger:      ledger,
		limit:       100,
		scan:        20,
		concurrency: 4,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatedTokens returns the launches signed by wallet, newest first.
// Transactions that cannot be fetched or decoded are skipped.
func (s *Scanner) CreatedTokens(ctx context.Context, wallet solana.PublicKey) ([]CreatedToken, error) {
	sigs, err := s.ledger.SignaturesForAddress(ctx, wallet, s.limit)
	if err != nil {
		return nil, fmt.Errorf("list signatures: %w", err)
	}

	candidates := make([]*solanarpc.TransactionSignature, 0, s.scan)
	for _, sig := range sigs {
		if sig == nil || sig.Err != nil {
			continue
		}
		candidates = append(candidates, sig)
		if len(candidates) == s.scan {
			break
		}
	}

	found := make([]*CreatedToken, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, sig := range candidates {
		g.Go(func() error {
			tx, err := s.ledger.Transaction(gctx, sig.Signature)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.log.Debug().Err(err).Str("signature", sig.Signature.String()).Msg("skipping transaction")
				return nil
			}
			tok, ok := findCreate(tx)
			if !ok {
				return nil
			}
			tok.Signature = sig.Signature
			if sig.BlockTime != nil {
				tok.BlockTime = sig.BlockTime.Time()
			}
			found[i] = &tok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]CreatedToken, 0, len(found))
	for _, tok := range found {
		if tok != nil {
			out = append(out, *tok)
		}
	}
	return out, nil
}

// findCreate returns the token from the first pump create instruction in tx.
func findCreate(tx *solana.Transaction) (CreatedToken, bool) {
	if tx == nil {
		return CreatedToken{}, false
	}
	keys := tx.Message.AccountKeys
	for _, ix := range tx.Message.Instructions {
		if int(ix.ProgramIDIndex) >= len(keys) || !keys[ix.ProgramIDIndex].Equals(constants.PumpProgramID) {
			continue
		}
		if !pump.IsCreate(ix.Data) || len(ix.Accounts) == 0 || int(ix.Accounts[0]) >= len(keys) {
			continue
		}
		args, err := pump.DecodeCreateArgs(ix.Data)
		if err != nil {
			continue
		}
		return CreatedToken{
			Name:   args.Name,
			Symbol: args.Symbol,
			URI:    args.URI,
			Mint:   keys[ix.Accounts[0]],
		}, true
	}
	return CreatedToken{}, false
}
