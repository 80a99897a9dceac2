// Package confirm submits a signed transaction once and polls the ledger
// until it is confirmed, fails on chain, or the poll budget runs out.
//
// The lifecycle is Built -> Sent -> {Confirmed, Failed, Expired}. A
// transport error during submission leaves the transaction Built: submission
// is never retried, so a second copy cannot land. Only "not yet observed"
// poll results are retried.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"github.com/ninja0404/pump-launch-go/pkg/constants"
	"github.com/ninja0404/pump-launch-go/pkg/metrics"
	"github.com/ninja0404/pump-launch-go/pkg/txbuilder"
	"github.com/ninja0404/pump-launch-go/pkg/types"
)

// State is a stage of the submission lifecycle.
type State string

const (
	StateBuilt     State = "built"
	StateSent      State = "sent"
	StateConfirmed State = "confirmed"
	StateFailed    State = "failed"
	StateExpired   State = "expired"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateFailed || s == StateExpired
}

// Sender submits a signed transaction exactly once.
type Sender interface {
	Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// StatusChecker reports the ledger's view of a signature. A nil status with a
// nil error means the ledger has not seen it yet.
type StatusChecker interface {
	SignatureStatus(ctx context.Context, sig solana.Signature, searchHistory bool) (*solanarpc.SignatureStatusesResult, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Result is the terminal outcome of Run.
type Result struct {
	State State
	// Signature is set once the transaction was sent.
	Signature solana.Signature
	Err       error
	Detail    string
	// InspectorURL is set for Failed and Expired outcomes.
	InspectorURL string
	Attempts     int
}

// Success reports whether the transaction is confirmed.
func (r Result) Success() bool {
	return r.State == StateConfirmed
}

// Pipeline runs the submission state machine.
type Pipeline struct {
	sender        Sender
	checker       StatusChecker
	maxAttempts   int
	delay         time.Duration
	sleep         Sleeper
	commitment    solanarpc.CommitmentType
	inspectorBase string
	log           zerolog.Logger
	metrics       *metrics.Metrics
	onSent        func(solana.Signature)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMaxAttempts bounds the number of status polls.
func WithMaxAttempts(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithDelay sets the wait between polls.
func WithDelay(d time.Duration) Option {
	return func(p *Pipeline) {
		if d >= 0 {
			p.delay = d
		}
	}
}

// WithSleeper replaces the inter-poll wait, e.g. with a fake clock.
func WithSleeper(s Sleeper) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.sleep = s
		}
	}
}

// WithCommitment sets the level that counts as confirmed.
func WithCommitment(c solanarpc.CommitmentType) Option {
	return func(p *Pipeline) {
		if c != "" {
			p.commitment = c
		}
	}
}

// WithInspectorBase overrides the explorer inspector URL.
func WithInspectorBase(base string) Option {
	return func(p *Pipeline) { p.inspectorBase = base }
}

// WithSentHook calls fn once the transaction is accepted for submission,
// before the first poll.
func WithSentHook(fn func(solana.Signature)) Option {
	return func(p *Pipeline) { p.onSent = fn }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithMetrics records outcomes into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New builds a pipeline with 10 attempts 3s apart at confirmed commitment.
func New(sender Sender, checker StatusChecker, opts ...Option) *Pipeline {
	p := &Pipeline{
		sender:      sender,
		checker:     checker,
		maxAttempts: constants.DefaultConfirmAttempts,
		delay:       constants.DefaultConfirmDelay,
		sleep:       sleepContext,
		commitment:  solanarpc.CommitmentConfirmed,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run sends tx and waits for a terminal state.
func (p *Pipeline) Run(ctx context.Context, tx *solana.Transaction) Result {
	start := time.Now()
	res := p.run(ctx, tx)
	p.metrics.ObserveSubmission(string(res.State), res.Attempts, time.Since(start))

	ev := p.log.Info()
	if !res.Success() {
		ev = p.log.Warn().Err(res.Err).Str("inspector", res.InspectorURL)
	}
	ev.Str("state", string(res.State)).
		Str("signature", res.Signature.String()).
		Int("attempts", res.Attempts).
		Dur("elapsed", time.Since(start)).
		Msg("submission finished")
	return res
}

func (p *Pipeline) run(ctx context.Context, tx *solana.Transaction) Result {
	if tx == nil {
		return Result{State: StateBuilt, Err: fmt.Errorf("transaction is nil")}
	}
	if p.sender == nil || p.checker == nil {
		return Result{State: StateBuilt, Err: types.ErrNilRPC}
	}

	sig, err := p.sender.Send(ctx, tx)
	if err != nil {
		var stale *types.StaleCheckpointError
		if !errors.As(err, &stale) {
			err = &types.SubmissionError{Err: err}
		}
		return Result{State: StateBuilt, Err: err, Detail: err.Error(), InspectorURL: p.inspector(tx)}
	}
	p.log.Debug().Str("signature", sig.String()).Msg("transaction sent")
	if p.onSent != nil {
		p.onSent(sig)
	}

	res := Result{State: StateSent, Signature: sig}
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := p.sleep(ctx, p.delay); err != nil {
				return p.expired(tx, res, err)
			}
		}
		res.Attempts = attempt

		st, err := p.checker.SignatureStatus(ctx, sig, false)
		if err != nil {
			if ctx.Err() != nil {
				return p.expired(tx, res, ctx.Err())
			}
			p.log.Debug().Err(err).Int("attempt", attempt).Msg("status check failed, treating as pending")
		}
		if next, ok := p.evaluate(st, err); ok {
			return p.finish(tx, res, next, st)
		}

		if attempt == p.maxAttempts {
			st, err = p.checker.SignatureStatus(ctx, sig, true)
			if next, ok := p.evaluate(st, err); ok {
				p.log.Debug().Str("signature", sig.String()).Msg("last-chance status check was conclusive")
				return p.finish(tx, res, next, st)
			}
		}
	}
	return p.expired(tx, res, nil)
}

// evaluate maps one poll to a terminal state; ok is false while pending.
func (p *Pipeline) evaluate(st *solanarpc.SignatureStatusesResult, err error) (State, bool) {
	if err != nil || st == nil {
		return "", false
	}
	if st.Err != nil {
		return StateFailed, true
	}
	if reached(st.ConfirmationStatus, p.commitment) {
		return StateConfirmed, true
	}
	return "", false
}

func reached(status solanarpc.ConfirmationStatusType, want solanarpc.CommitmentType) bool {
	switch want {
	case solanarpc.CommitmentProcessed:
		return status != ""
	case solanarpc.CommitmentFinalized:
		return status == solanarpc.ConfirmationStatusFinalized
	default:
		return status == solanarpc.ConfirmationStatusConfirmed ||
			status == solanarpc.ConfirmationStatusFinalized
	}
}

func (p *Pipeline) finish(tx *solana.Transaction, res Result, state State, st *solanarpc.SignatureStatusesResult) Result {
	res.State = state
	if state == StateFailed {
		failed := &types.TransactionFailedError{Signature: res.Signature, Err: st.Err}
		res.Err = failed
		res.Detail = fmt.Sprintf("%v", st.Err)
		res.InspectorURL = p.inspector(tx)
	}
	return res
}

func (p *Pipeline) expired(tx *solana.Transaction, res Result, cause error) Result {
	res.State = StateExpired
	res.Err = &types.ConfirmationExpiredError{Signature: res.Signature, Attempts: res.Attempts, Err: cause}
	res.Detail = res.Err.Error()
	res.InspectorURL = p.inspector(tx)
	return res
}

func (p *Pipeline) inspector(tx *solana.Transaction) string {
	link, err := txbuilder.InspectorURL(tx, p.inspectorBase)
	if err != nil {
		p.log.Debug().Err(err).Msg("inspector url unavailable")
		return ""
	}
	return link
}
