// Package mintkey generates the fresh mint keypair each launch needs,
// optionally searching for a vanity prefix or suffix.
package mintkey

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/sync/errgroup"

	"github.com/ninja0404/pump-launch-go/pkg/wallet"
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// Result is a generated mint key.
type Result struct {
	PrivateKey solana.PrivateKey
	PublicKey  solana.PublicKey
	Attempts   uint64
	Duration   time.Duration
}

// Signer wraps the key for transaction signing.
func (r *Result) Signer() wallet.Local {
	return wallet.NewLocalFromPrivateKey(r.PrivateKey)
}

// Options configures generation. With no prefix and no suffix a single
// random key is returned.
type Options struct {
	Prefix          string
	Suffix          string
	Workers         int           // default: NumCPU
	Timeout         time.Duration // 0 = bounded only by ctx
	CaseInsensitive bool
}

func (o Options) vanity() bool {
	return o.Prefix != "" || o.Suffix != ""
}

func checkPattern(field, s string) error {
	for _, r := range s {
		if !strings.ContainsRune(base58Alphabet, r) {
			return fmt.Errorf("%s %q contains %q, which never appears in a base58 address", field, s, r)
		}
	}
	return nil
}

// Random returns a fresh random mint key.
func Random() (*Result, error) {
	start := time.Now()
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate mint key: %w", err)
	}
	return &Result{PrivateKey: key, PublicKey: key.PublicKey(), Attempts: 1, Duration: time.Since(start)}, nil
}

// Generate returns a mint key matching opts.
func Generate(ctx context.Context, opts Options) (*Result, error) {
	if !opts.vanity() {
		return Random()
	}
	if !opts.CaseInsensitive {
		if err := checkPattern("prefix", opts.Prefix); err != nil {
			return nil, err
		}
		if err := checkPattern("suffix", opts.Suffix); err != nil {
			return nil, err
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	prefix, suffix := opts.Prefix, opts.Suffix
	if opts.CaseInsensitive {
		prefix = strings.ToLower(prefix)
		suffix = strings.ToLower(suffix)
	}

	searchCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var (
		found    atomic.Bool
		attempts atomic.Uint64
		result   *Result
		once     sync.Once
	)
	start := time.Now()

	g, gctx := errgroup.WithContext(searchCtx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for !found.Load() {
				if gctx.Err() != nil {
					return nil
				}
				key, err := solana.NewRandomPrivateKey()
				if err != nil {
					return fmt.Errorf("generate mint key: %w", err)
				}
				n := attempts.Add(1)
				addr := key.PublicKey().String()
				if opts.CaseInsensitive {
					addr = strings.ToLower(addr)
				}
				if strings.HasPrefix(addr, prefix) && strings.HasSuffix(addr, suffix) {
					once.Do(func() {
						found.Store(true)
						result = &Result{
							PrivateKey: key,
							PublicKey:  key.PublicKey(),
							Attempts:   n,
							Duration:   time.Since(start),
						}
					})
					return nil
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}
	if searchCtx.Err() != nil {
		return nil, fmt.Errorf("vanity search cancelled after %d attempts: %w", attempts.Load(), searchCtx.Err())
	}
	return nil, fmt.Errorf("vanity search failed after %d attempts", attempts.Load())
}

// EstimateDifficulty is the expected number of attempts for a case-sensitive
// pattern of prefixLen+suffixLen characters.
func EstimateDifficulty(prefixLen, suffixLen int) uint64 {
	result := uint64(1)
	for i := 0; i < prefixLen+suffixLen; i++ {
		result *= 58
	}
	return result
}
