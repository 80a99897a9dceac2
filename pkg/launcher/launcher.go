// Package launcher ties the launch together: it uploads metadata, encodes the
// create and initial-buy instructions, assembles and signs one transaction,
// and hands it to the confirmation pipeline.
package launcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/rs/zerolog"

	"github.com/ninja0404/pump-launch-go/pkg/confirm"
	"github.com/ninja0404/pump-launch-go/pkg/constants"
	"github.com/ninja0404/pump-launch-go/pkg/curve"
	"github.com/ninja0404/pump-launch-go/pkg/jito"
	"github.com/ninja0404/pump-launch-go/pkg/launchapi"
	"github.com/ninja0404/pump-launch-go/pkg/metadata"
	"github.com/ninja0404/pump-launch-go/pkg/mintkey"
	"github.com/ninja0404/pump-launch-go/pkg/pump"
	"github.com/ninja0404/pump-launch-go/pkg/txbuilder"
	"github.com/ninja0404/pump-launch-go/pkg/types"
	"github.com/ninja0404/pump-launch-go/pkg/wallet"
)

// Step names a launch stage reported to ProgressFunc.
type Step string

const (
	StepUploading  Step = "uploading"
	StepEncoding   Step = "encoding"
	StepSigning    Step = "signing"
	StepSending    Step = "sending"
	StepConfirming Step = "confirming"
)

// ProgressFunc observes launch progress. detail is free text for display.
type ProgressFunc func(step Step, detail string)

// MetadataUploader stores token metadata and returns its URI.
type MetadataUploader interface {
	Upload(ctx context.Context, m metadata.TokenMetadata) (string, error)
}

// Chain is the read side the launcher needs: the global account and a
// recent blockhash.
type Chain interface {
	pump.AccountReader
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
}

// LaunchAPI builds a launch transaction server side.
type LaunchAPI interface {
	Launch(ctx context.Context, p launchapi.Params) (launchapi.Response, error)
}

// Request describes one launch.
type Request struct {
	Metadata metadata.TokenMetadata
	// MetadataURI skips the upload and uses an already stored document.
	MetadataURI string
	// BuyLamports is the creator's initial buy. Zero launches without buying.
	BuyLamports uint64
	// SlippageBps overrides the launcher default when non-zero.
	SlippageBps uint64
	MintOptions mintkey.Options
	// UseOnChainReserves quotes against the global account's initial
	// reserves instead of the built-in constants.
	UseOnChainReserves bool

	// Optional priority fee and tip. Zero values add no instruction.
	ComputeUnitLimit uint32
	ComputeUnitPrice uint64
	JitoTipLamports  uint64
}

// Result is the outcome of a launch. Mint and MetadataURI are set as soon as
// they are known so a failed launch can still be inspected.
type Result struct {
	Success      bool
	State        confirm.State
	Signature    solana.Signature
	Err          error
	ErrorDetail  string
	Mint         solana.PublicKey
	MintKey      solana.PrivateKey
	MetadataURI  string
	InspectorURL string
	Quote        *curve.Quote
	Attempts     int
}

// Launcher runs launches against one set of collaborators.
type Launcher struct {
	uploader      MetadataUploader
	chain         Chain
	sender        confirm.Sender
	checker       confirm.StatusChecker
	api           LaunchAPI
	pipelineOpts  []confirm.Option
	slippageBps   uint64
	inspectorBase string
	progress      ProgressFunc
	log           zerolog.Logger
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithLaunchAPI enables LaunchViaAPI.
func WithLaunchAPI(api LaunchAPI) Option {
	return func(l *Launcher) { l.api = api }
}

// WithProgress registers a progress observer.
func WithProgress(fn ProgressFunc) Option {
	return func(l *Launcher) { l.progress = fn }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Launcher) { l.log = log }
}

// WithSlippageBps sets the default slippage for the initial buy.
func WithSlippageBps(bps uint64) Option {
	return func(l *Launcher) { l.slippageBps = bps }
}

// WithInspectorBase overrides the explorer inspector URL.
func WithInspectorBase(base string) Option {
	return func(l *Launcher) { l.inspectorBase = base }
}

// WithPipelineOptions forwards options to every confirmation pipeline.
func WithPipelineOptions(opts ...confirm.Option) Option {
	return func(l *Launcher) { l.pipelineOpts = append(l.pipelineOpts, opts...) }
}

// New creates a launcher. The rpc.Client satisfies both chain and checker;
// sender is usually a txbuilder.Builder.
func New(uploader MetadataUploader, chain Chain, sender confirm.Sender, checker confirm.StatusChecker, opts ...Option) *Launcher {
	l := &Launcher{
		uploader:    uploader,
		chain:       chain,
		sender:      sender,
		checker:     checker,
		slippageBps: constants.DefaultSlippageBps,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Launcher) step(s Step, detail string) {
	l.log.Info().Str("step", string(s)).Str("detail", detail).Msg("launch progress")
	if l.progress != nil {
		l.progress(s, detail)
	}
}

func (l *Launcher) slippage(req Request) uint64 {
	if req.SlippageBps != 0 {
		return req.SlippageBps
	}
	return l.slippageBps
}

func fail(res Result, err error) Result {
	res.Success = false
	res.Err = err
	res.ErrorDetail = err.Error()
	return res
}

// CreateAndLaunch uploads metadata, creates the token and optionally buys
// into it in a single transaction signed by creator and a fresh mint key.
func (l *Launcher) CreateAndLaunch(ctx context.Context, creator wallet.Signer, req Request) Result {
	res := Result{State: confirm.StateBuilt}
	if creator == nil {
		return fail(res, types.ErrNilSigner)
	}
	if err := validate(req); err != nil {
		return fail(res, err)
	}
	if err := types.ValidateSlippage(l.slippage(req)); err != nil {
		return fail(res, err)
	}
	if l.uploader == nil && req.MetadataURI == "" {
		return fail(res, errors.New("metadata uploader is nil"))
	}

	mint, err := mintkey.Generate(ctx, req.MintOptions)
	if err != nil {
		return fail(res, fmt.Errorf("mint key: %w", err))
	}
	res.Mint, res.MintKey = mint.PublicKey, mint.PrivateKey

	uri := req.MetadataURI
	if uri == "" {
		l.step(StepUploading, req.Metadata.Name)
		if uri, err = l.uploader.Upload(ctx, req.Metadata); err != nil {
			return fail(res, err)
		}
	}
	res.MetadataURI = uri

	l.step(StepEncoding, mint.PublicKey.String())
	tx, quote, err := l.BuildLaunchTransaction(ctx, creator.PublicKey(), mint.PublicKey, uri, req)
	if err != nil {
		return fail(res, err)
	}
	res.Quote = quote

	l.step(StepSigning, creator.PublicKey().String())
	if err := txbuilder.SignTransaction(ctx, tx, creator, mint.Signer()); err != nil {
		res.InspectorURL = l.inspector(tx)
		return fail(res, err)
	}
	return l.submit(ctx, tx, res)
}

func validate(req Request) error {
	if req.MetadataURI != "" {
		return types.ValidateTokenFields(req.Metadata.Name, req.Metadata.Symbol, req.MetadataURI)
	}
	return req.Metadata.Validate()
}

// BuildLaunchTransaction returns the unsigned launch transaction:
// [compute budget], create, [create ATA, buy], [tip].
func (l *Launcher) BuildLaunchTransaction(ctx context.Context, creator, mint solana.PublicKey, uri string, req Request) (*solana.Transaction, *curve.Quote, error) {
	if l.chain == nil {
		return nil, nil, types.ErrNilRPC
	}
	ixs := computeBudget(req)

	createIx, _, err := pump.EncodeCreate(creator, mint, req.Metadata.Name, req.Metadata.Symbol, uri)
	if err != nil {
		return nil, nil, err
	}
	ixs = append(ixs, createIx)

	var quote *curve.Quote
	if req.BuyLamports > 0 {
		buyIxs, q, err := l.initialBuy(ctx, creator, mint, req)
		if err != nil {
			return nil, nil, err
		}
		ixs = append(ixs, buyIxs...)
		quote = &q
	}

	if req.JitoTipLamports > 0 {
		tip, err := jito.NewTipInstruction(creator, req.JitoTipLamports)
		if err != nil {
			return nil, nil, err
		}
		ixs = append(ixs, tip)
	}

	blockhash, err := l.chain.LatestBlockhash(ctx)
	if err != nil {
		return nil, nil, err
	}
	tx, err := txbuilder.Assemble(creator, blockhash, ixs...)
	if err != nil {
		return nil, nil, err
	}
	return tx, quote, nil
}

func (l *Launcher) initialBuy(ctx context.Context, creator, mint solana.PublicKey, req Request) ([]solana.Instruction, curve.Quote, error) {
	c := curve.Default()
	var feeRecipient solana.PublicKey
	if req.UseOnChainReserves {
		global, err := pump.FetchGlobal(ctx, l.chain)
		if err != nil {
			return nil, curve.Quote{}, err
		}
		if global.FeeRecipient.IsZero() {
			return nil, curve.Quote{}, types.ErrFeeRecipientNotFound
		}
		feeRecipient = global.FeeRecipient
		c = curve.New(global.InitialVirtualTokenReserves, global.InitialVirtualSolReserves)
	} else {
		var err error
		if feeRecipient, err = pump.FetchFeeRecipient(ctx, l.chain); err != nil {
			return nil, curve.Quote{}, err
		}
	}

	q, err := c.ComputeBuy(req.BuyLamports, l.slippage(req))
	if err != nil {
		return nil, curve.Quote{}, err
	}
	l.log.Debug().
		Uint64("sol_input", q.SolInput).
		Uint64("token_out", q.TokenOut).
		Uint64("max_sol_cost", q.MaxSolCost).
		Msg("initial buy quoted")

	ataIx, _, err := pump.NewCreateIdempotentATAInstruction(creator, creator, mint, constants.TokenProgramID)
	if err != nil {
		return nil, curve.Quote{}, err
	}
	buyIx, _, err := pump.EncodeBuy(creator, mint, feeRecipient, q.TokenOut, q.MaxSolCost)
	if err != nil {
		return nil, curve.Quote{}, err
	}
	return []solana.Instruction{ataIx, buyIx}, q, nil
}

func computeBudget(req Request) []solana.Instruction {
	var ixs []solana.Instruction
	if req.ComputeUnitLimit > 0 {
		ixs = append(ixs, computebudget.NewSetComputeUnitLimitInstruction(req.ComputeUnitLimit).Build())
	}
	if req.ComputeUnitPrice > 0 {
		ixs = append(ixs, computebudget.NewSetComputeUnitPriceInstruction(req.ComputeUnitPrice).Build())
	}
	return ixs
}

// LaunchViaAPI asks the hosted launch API to build the transaction, then
// signs it with creator (often a wallet.CustodialSigner) and a fresh local
// mint key before submitting it.
func (l *Launcher) LaunchViaAPI(ctx context.Context, creator wallet.Signer, req Request) Result {
	res := Result{State: confirm.StateBuilt}
	if l.api == nil {
		return fail(res, errors.New("launch api is not configured"))
	}
	if creator == nil {
		return fail(res, types.ErrNilSigner)
	}
	if err := types.ValidateTokenFields(req.Metadata.Name, req.Metadata.Symbol, ""); err != nil {
		return fail(res, err)
	}

	mint, err := mintkey.Generate(ctx, req.MintOptions)
	if err != nil {
		return fail(res, fmt.Errorf("mint key: %w", err))
	}
	res.Mint, res.MintKey = mint.PublicKey, mint.PrivateKey

	l.step(StepEncoding, "requesting transaction from launch api")
	resp, err := l.api.Launch(ctx, launchapi.Params{
		Name:        req.Metadata.Name,
		Symbol:      req.Metadata.Symbol,
		Description: req.Metadata.Description,
		Dev:         creator.PublicKey(),
		Mint:        mint.PublicKey,
		Image:       req.Metadata.Image,
	})
	if err != nil {
		return fail(res, err)
	}

	l.step(StepSigning, creator.PublicKey().String())
	if err := txbuilder.SignTransaction(ctx, resp.Transaction, creator, mint.Signer()); err != nil {
		res.InspectorURL = l.inspector(resp.Transaction)
		return fail(res, err)
	}
	return l.submit(ctx, resp.Transaction, res)
}

func (l *Launcher) submit(ctx context.Context, tx *solana.Transaction, res Result) Result {
	if err := txbuilder.VerifyComplete(tx); err != nil {
		res.State = confirm.StateBuilt
		res.Err = fmt.Errorf("verify signatures: %w", err)
		res.ErrorDetail = res.Err.Error()
		res.InspectorURL = l.inspector(tx)
		return res
	}
	l.step(StepSending, "")
	opts := append([]confirm.Option{
		confirm.WithInspectorBase(l.inspectorBase),
		confirm.WithLogger(l.log),
	}, l.pipelineOpts...)
	opts = append(opts, confirm.WithSentHook(func(sig solana.Signature) {
		l.step(StepConfirming, sig.String())
	}))

	cr := confirm.New(l.sender, l.checker, opts...).Run(ctx, tx)
	res.State = cr.State
	res.Signature = cr.Signature
	res.Attempts = cr.Attempts
	res.InspectorURL = cr.InspectorURL
	res.Success = cr.Success()
	if !res.Success {
		res.Err = cr.Err
		res.ErrorDetail = cr.Detail
		if res.ErrorDetail == "" && cr.Err != nil {
			res.ErrorDetail = cr.Err.Error()
		}
	}
	return res
}

func (l *Launcher) inspector(tx *solana.Transaction) string {
	link, err := txbuilder.InspectorURL(tx, l.inspectorBase)
	if err != nil {
		return ""
	}
	return link
}
