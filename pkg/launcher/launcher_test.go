package launcher

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/pump-launch-go/pkg/confirm"
	"github.com/ninja0404/pump-launch-go/pkg/constants"
	"github.com/ninja0404/pump-launch-go/pkg/curve"
	"github.com/ninja0404/pump-launch-go/pkg/launchapi"
	"github.com/ninja0404/pump-launch-go/pkg/metadata"
	"github.com/ninja0404/pump-launch-go/pkg/pump"
	"github.com/ninja0404/pump-launch-go/pkg/txbuilder"
	"github.com/ninja0404/pump-launch-go/pkg/txcodec"
	"github.com/ninja0404/pump-launch-go/pkg/types"
	"github.com/ninja0404/pump-launch-go/pkg/wallet"
)

type fakeUploader struct {
	uri   string
	err   error
	calls int
}

func (f *fakeUploader) Upload(_ context.Context, _ metadata.TokenMetadata) (string, error) {
	f.calls++
	return f.uri, f.err
}

type fakeChain struct {
	global      []byte
	globalReads int
}

func (f *fakeChain) AccountData(_ context.Context, account solana.PublicKey) ([]byte, error) {
	if !account.Equals(constants.PumpGlobal) || f.global == nil {
		return nil, types.ErrAccountNotFound
	}
	f.globalReads++
	return f.global, nil
}

func (f *fakeChain) LatestBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{7}, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []*solana.Transaction
	err  error
}

func (f *fakeSender) Send(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return solana.Signature{}, f.err
	}
	f.sent = append(f.sent, tx)
	return tx.Signatures[0], nil
}

type fakeChecker struct {
	txErr interface{}
}

func (f *fakeChecker) SignatureStatus(context.Context, solana.Signature, bool) (*solanarpc.SignatureStatusesResult, error) {
	return &solanarpc.SignatureStatusesResult{
		ConfirmationStatus: solanarpc.ConfirmationStatusConfirmed,
		Err:                f.txErr,
	}, nil
}

func globalAccount(feeRecipient solana.PublicKey, vTok, vSol uint64) []byte {
	data := make([]byte, 8+1+32+32+5*8)
	data[8] = 1
	copy(data[constants.GlobalFeeRecipientOffset:], feeRecipient[:])
	binary.LittleEndian.PutUint64(data[73:], vTok)
	binary.LittleEndian.PutUint64(data[81:], vSol)
	return data
}

func token() metadata.TokenMetadata {
	return metadata.TokenMetadata{
		Name:        "Test Token",
		Symbol:      "TEST",
		Description: "a test",
		Image:       []byte{0x89, 'P', 'N', 'G'},
	}
}

func noWait(context.Context, time.Duration) error { return nil }

type harness struct {
	uploader *fakeUploader
	chain    *fakeChain
	sender   *fakeSender
	checker  *fakeChecker
	creator  wallet.Local
	fee      solana.PublicKey
	steps    []Step
}

func newHarness() *harness {
	fee := solana.NewWallet().PublicKey()
	return &harness{
		uploader: &fakeUploader{uri: "https://ipfs.io/ipfs/QmTest"},
		chain:    &fakeChain{global: globalAccount(fee, constants.InitialVirtualTokenReserves, constants.InitialVirtualSolReserves)},
		sender:   &fakeSender{},
		checker:  &fakeChecker{},
		creator:  wallet.NewLocalFromPrivateKey(solana.NewWallet().PrivateKey),
		fee:      fee,
	}
}

func (h *harness) launcher(opts ...Option) *Launcher {
	opts = append([]Option{
		WithProgress(func(s Step, _ string) { h.steps = append(h.steps, s) }),
		WithPipelineOptions(confirm.WithSleeper(noWait)),
	}, opts...)
	return New(h.uploader, h.chain, h.sender, h.checker, opts...)
}

func programs(tx *solana.Transaction) []solana.PublicKey {
	out := make([]solana.PublicKey, len(tx.Message.Instructions))
	for i, ix := range tx.Message.Instructions {
		out[i] = tx.Message.AccountKeys[ix.ProgramIDIndex]
	}
	return out
}

func TestCreateAndLaunchWithInitialBuy(t *testing.T) {
	h := newHarness()
	res := h.launcher().CreateAndLaunch(context.Background(), h.creator, Request{
		Metadata:    token(),
		BuyLamports: constants.LamportsPerSOL,
	})

	require.NoError(t, res.Err)
	assert.True(t, res.Success)
	assert.Equal(t, confirm.StateConfirmed, res.State)
	assert.Equal(t, "https://ipfs.io/ipfs/QmTest", res.MetadataURI)
	assert.Empty(t, res.InspectorURL)
	assert.Equal(t, []Step{StepUploading, StepEncoding, StepSigning, StepSending, StepConfirming}, h.steps)

	want, err := curve.ComputeBuy(constants.LamportsPerSOL, constants.DefaultSlippageBps)
	require.NoError(t, err)
	require.NotNil(t, res.Quote)
	assert.Equal(t, want, *res.Quote)

	require.Len(t, h.sender.sent, 1)
	tx := h.sender.sent[0]
	require.NoError(t, txbuilder.VerifyComplete(tx))
	assert.Equal(t, res.Signature, tx.Signatures[0])
	assert.Equal(t, h.creator.PublicKey(), tx.Message.AccountKeys[0], "creator pays fees")
	assert.Equal(t, res.Mint, res.MintKey.PublicKey())

	assert.Equal(t, []solana.PublicKey{
		constants.PumpProgramID,
		constants.AssociatedTokenProgramID,
		constants.PumpProgramID,
	}, programs(tx))

	create := tx.Message.Instructions[0]
	assert.Equal(t, res.Mint, tx.Message.AccountKeys[create.Accounts[0]])
	args, err := pump.DecodeCreateArgs(create.Data)
	require.NoError(t, err)
	assert.Equal(t, "Test Token", args.Name)
	assert.Equal(t, "https://ipfs.io/ipfs/QmTest", args.URI)

	buy := tx.Message.Instructions[2]
	buyArgs, err := pump.DecodeBuyArgs(buy.Data)
	require.NoError(t, err)
	assert.Equal(t, want.TokenOut, buyArgs.Amount)
	assert.Equal(t, want.MaxSolCost, buyArgs.MaxSolCost)
	assert.Equal(t, h.fee, tx.Message.AccountKeys[buy.Accounts[1]])
}

func TestCreateOnlyLaunchSkipsGlobal(t *testing.T) {
	h := newHarness()
	h.chain.global = nil

	res := h.launcher().CreateAndLaunch(context.Background(), h.creator, Request{Metadata: token()})

	require.NoError(t, res.Err)
	assert.True(t, res.Success)
	assert.Nil(t, res.Quote)
	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, []solana.PublicKey{constants.PumpProgramID}, programs(h.sender.sent[0]))
}

func TestPriorityFeeAndTip(t *testing.T) {
	h := newHarness()
	res := h.launcher().CreateAndLaunch(context.Background(), h.creator, Request{
		Metadata:         token(),
		BuyLamports:      100_000_000,
		ComputeUnitLimit: 250_000,
		ComputeUnitPrice: 50_000,
		JitoTipLamports:  10_000,
	})
	require.NoError(t, res.Err)

	assert.Equal(t, []solana.PublicKey{
		solana.ComputeBudget,
		solana.ComputeBudget,
		constants.PumpProgramID,
		constants.AssociatedTokenProgramID,
		constants.PumpProgramID,
		solana.SystemProgramID,
	}, programs(h.sender.sent[0]))
}

func TestOnChainReserves(t *testing.T) {
	h := newHarness()
	h.chain.global = globalAccount(h.fee, 2*constants.InitialVirtualTokenReserves, constants.InitialVirtualSolReserves)

	res := h.launcher().CreateAndLaunch(context.Background(), h.creator, Request{
		Metadata:           token(),
		BuyLamports:        constants.LamportsPerSOL,
		SlippageBps:        100,
		UseOnChainReserves: true,
	})
	require.NoError(t, res.Err)

	want, err := curve.New(2*constants.InitialVirtualTokenReserves, constants.InitialVirtualSolReserves).
		ComputeBuy(constants.LamportsPerSOL, 100)
	require.NoError(t, err)
	assert.Equal(t, want, *res.Quote)
	assert.Equal(t, 1, h.chain.globalReads)
}

func TestUploadFailureStopsLaunch(t *testing.T) {
	h := newHarness()
	h.uploader.err = &types.UploadError{StatusCode: 500, Body: "boom"}

	res := h.launcher().CreateAndLaunch(context.Background(), h.creator, Request{Metadata: token(), BuyLamports: 1})

	var uploadErr *types.UploadError
	require.ErrorAs(t, res.Err, &uploadErr)
	assert.False(t, res.Success)
	assert.Equal(t, confirm.StateBuilt, res.State)
	assert.False(t, res.Mint.IsZero(), "mint is reported even when the launch fails")
	assert.Empty(t, res.MetadataURI)
	assert.Empty(t, h.sender.sent)
	assert.Contains(t, res.ErrorDetail, "boom")
}

func TestMissingFeeRecipient(t *testing.T) {
	h := newHarness()
	h.chain.global = globalAccount(solana.PublicKey{}, 1, 1)

	res := h.launcher().CreateAndLaunch(context.Background(), h.creator, Request{Metadata: token(), BuyLamports: 1_000_000})

	assert.ErrorIs(t, res.Err, types.ErrFeeRecipientNotFound)
	assert.Equal(t, "https://ipfs.io/ipfs/QmTest", res.MetadataURI)
	assert.Empty(t, h.sender.sent)
}

func TestFailedOnChainCarriesInspector(t *testing.T) {
	h := newHarness()
	h.checker.txErr = map[string]interface{}{"InstructionError": []interface{}{2, map[string]interface{}{"Custom": 6002}}}

	res := h.launcher(WithInspectorBase("https://inspect.local/tx")).
		CreateAndLaunch(context.Background(), h.creator, Request{Metadata: token(), BuyLamports: 1_000_000})

	assert.False(t, res.Success)
	assert.Equal(t, confirm.StateFailed, res.State)
	assert.ErrorIs(t, res.Err, types.ErrTransactionFailed)
	assert.Contains(t, res.ErrorDetail, "6002")
	var progErr *types.ProgramError
	require.ErrorAs(t, res.Err, &progErr)
	assert.Equal(t, 6002, progErr.Code)
	assert.Contains(t, res.InspectorURL, "https://inspect.local/tx?message=")
	assert.NotEmpty(t, res.MetadataURI)
	assert.False(t, res.Signature.IsZero())
}

func TestSubmissionErrorIsNotRetried(t *testing.T) {
	h := newHarness()
	h.sender.err = errors.New("connection reset")

	res := h.launcher().CreateAndLaunch(context.Background(), h.creator, Request{Metadata: token()})

	var subErr *types.SubmissionError
	require.ErrorAs(t, res.Err, &subErr)
	assert.Equal(t, confirm.StateBuilt, res.State)
	assert.True(t, res.Signature.IsZero())
	assert.NotContains(t, h.steps, StepConfirming)
	assert.Contains(t, res.InspectorURL, "?message=")
	assert.False(t, res.Mint.IsZero())
}

// forgedSigner returns a signature that does not verify.
type forgedSigner struct {
	pub solana.PublicKey
}

func (f forgedSigner) PublicKey() solana.PublicKey { return f.pub }

func (f forgedSigner) SignMessage(context.Context, []byte) (solana.Signature, error) {
	return solana.Signature{7}, nil
}

func TestInvalidSignatureIsNotSent(t *testing.T) {
	h := newHarness()
	creator := forgedSigner{pub: h.creator.PublicKey()}

	res := h.launcher(WithInspectorBase("https://inspect.local/tx")).
		CreateAndLaunch(context.Background(), creator, Request{Metadata: token()})

	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "invalid signature")
	assert.Equal(t, confirm.StateBuilt, res.State)
	assert.Empty(t, h.sender.sent)
	assert.NotContains(t, h.steps, StepSending)
	assert.Contains(t, res.InspectorURL, "https://inspect.local/tx?message=")
}

func TestValidationHappensBeforeUpload(t *testing.T) {
	h := newHarness()
	l := h.launcher()

	res := l.CreateAndLaunch(context.Background(), h.creator, Request{Metadata: token(), SlippageBps: 20_000})
	assert.ErrorIs(t, res.Err, types.ErrInvalidSlippage)

	bad := token()
	bad.Symbol = "WAYTOOLONGSYMBOL"
	res = l.CreateAndLaunch(context.Background(), h.creator, Request{Metadata: bad})
	require.Error(t, res.Err)

	res = l.CreateAndLaunch(context.Background(), nil, Request{Metadata: token()})
	assert.ErrorIs(t, res.Err, types.ErrNilSigner)

	assert.Zero(t, h.uploader.calls)
}

type fakeAPI struct {
	params launchapi.Params
}

func (f *fakeAPI) Launch(_ context.Context, p launchapi.Params) (launchapi.Response, error) {
	f.params = p
	ix, _, err := pump.EncodeCreate(p.Dev, p.Mint, p.Name, p.Symbol, "https://ipfs.io/ipfs/api")
	if err != nil {
		return launchapi.Response{}, err
	}
	tx, err := txbuilder.Assemble(p.Dev, solana.Hash{9}, ix)
	if err != nil {
		return launchapi.Response{}, err
	}
	return launchapi.Response{Transaction: tx}, nil
}

func TestLaunchViaAPIHybridSigning(t *testing.T) {
	h := newHarness()
	api := &fakeAPI{}

	// The creator key lives with a custodian; only the mint is signed locally.
	custodyKey := h.creator
	custodian := wallet.CustodianFunc(func(ctx context.Context, encoded string) (string, error) {
		return signEncoded(ctx, encoded, custodyKey)
	})
	creator := wallet.NewCustodialSigner(custodyKey.PublicKey(), custodian)

	res := h.launcher(WithLaunchAPI(api)).LaunchViaAPI(context.Background(), creator, Request{Metadata: token()})

	require.NoError(t, res.Err)
	assert.True(t, res.Success)
	assert.Equal(t, creator.PublicKey(), api.params.Dev)
	assert.Equal(t, res.Mint, api.params.Mint)
	assert.Equal(t, token().Image, api.params.Image)
	assert.Zero(t, h.uploader.calls)

	require.Len(t, h.sender.sent, 1)
	require.NoError(t, txbuilder.VerifyComplete(h.sender.sent[0]))
}

func TestLaunchViaAPINotConfigured(t *testing.T) {
	h := newHarness()
	res := h.launcher().LaunchViaAPI(context.Background(), h.creator, Request{Metadata: token()})
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "launch api")
}

func signEncoded(ctx context.Context, encoded string, key wallet.Local) (string, error) {
	tx, err := txcodec.Decode(encoded, txcodec.Base64)
	if err != nil {
		return "", err
	}
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return "", err
	}
	sig, err := key.SignMessage(ctx, msg)
	if err != nil {
		return "", err
	}
	for i, k := range tx.Message.AccountKeys[:tx.Message.Header.NumRequiredSignatures] {
		if k.Equals(key.PublicKey()) {
			tx.Signatures[i] = sig
		}
	}
	return txcodec.Encode(tx, txcodec.Base64)
}

func TestPreUploadedMetadataSkipsUpload(t *testing.T) {
	h := newHarness()
	meta := token()
	meta.Image = nil

	res := h.launcher().CreateAndLaunch(context.Background(), h.creator, Request{
		Metadata:    meta,
		MetadataURI: "https://ipfs.io/ipfs/QmExisting",
	})

	require.NoError(t, res.Err)
	assert.Zero(t, h.uploader.calls)
	assert.Equal(t, "https://ipfs.io/ipfs/QmExisting", res.MetadataURI)
	assert.NotContains(t, h.steps, StepUploading)
}
