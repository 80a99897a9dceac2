package txbuilder

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/ninja0404/pump-launch-go/pkg/constants"
	"github.com/ninja0404/pump-launch-go/pkg/jito"
	wraprpc "github.com/ninja0404/pump-launch-go/pkg/rpc"
	"github.com/ninja0404/pump-launch-go/pkg/types"
	"github.com/ninja0404/pump-launch-go/pkg/wallet"
)

// Builder ties together RPC, submission options, and an optional Jito channel.
type Builder struct {
	client        *wraprpc.Client
	commitment    solanarpc.CommitmentType
	skipPreflight bool
	jitoClient    *jito.Client
}

// NewBuilder constructs a builder with the provided client and commitment.
func NewBuilder(client *wraprpc.Client, commitment solanarpc.CommitmentType) *Builder {
	if commitment == "" {
		commitment = solanarpc.CommitmentConfirmed
	}
	return &Builder{client: client, commitment: commitment}
}

// WithSkipPreflight configures whether to skip preflight.
func (b *Builder) WithSkipPreflight(skip bool) *Builder {
	b.skipPreflight = skip
	return b
}

// WithJito routes Send through the Jito Block Engine. Pass nil for plain RPC.
func (b *Builder) WithJito(jitoClient *jito.Client) *Builder {
	b.jitoClient = jitoClient
	return b
}

// HasJito returns true if Jito client is configured.
func (b *Builder) HasJito() bool {
	return b.jitoClient != nil
}

// Assemble lays out a legacy transaction: fee payer first, then every other
// signer, then the remaining accounts.
func Assemble(feePayer solana.PublicKey, blockhash solana.Hash, instructions ...solana.Instruction) (*solana.Transaction, error) {
	if len(instructions) == 0 {
		return nil, types.ErrNoInstructions
	}
	if feePayer.IsZero() {
		return nil, types.ErrNilFeePayer
	}
	builder := solana.NewTransactionBuilder().
		SetRecentBlockHash(blockhash).
		SetFeePayer(feePayer)
	for _, ix := range instructions {
		builder.AddInstruction(ix)
	}
	tx, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	return tx, nil
}

// BuildTransaction assembles instructions around a fresh blockhash.
func (b *Builder) BuildTransaction(ctx context.Context, feePayer solana.PublicKey, instructions ...solana.Instruction) (*solana.Transaction, error) {
	if b.client == nil {
		return nil, types.ErrNilRPC
	}
	if len(instructions) == 0 {
		return nil, types.ErrNoInstructions
	}
	blockhash, err := b.client.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("get latest blockhash: %w", err)
	}
	return Assemble(feePayer, blockhash, instructions...)
}

// SignTransaction fills every required signature slot from signers, in
// account-key order. Extra signers are ignored; a missing one is a
// *types.MissingSignerError and leaves tx unsigned.
func SignTransaction(ctx context.Context, tx *solana.Transaction, signers ...wallet.Signer) error {
	if tx == nil {
		return fmt.Errorf("transaction is nil")
	}
	required := int(tx.Message.Header.NumRequiredSignatures)
	if required == 0 {
		return nil
	}
	if len(tx.Message.AccountKeys) < required {
		return fmt.Errorf("not enough account keys for required signatures")
	}

	signerMap := make(map[solana.PublicKey]wallet.Signer, len(signers))
	for _, s := range signers {
		if s == nil {
			continue
		}
		signerMap[s.PublicKey()] = s
	}
	for _, pk := range tx.Message.AccountKeys[:required] {
		if _, ok := signerMap[pk]; !ok {
			return &types.MissingSignerError{PublicKey: pk}
		}
	}

	messageBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	sigs := make([]solana.Signature, required)
	for i, pk := range tx.Message.AccountKeys[:required] {
		sig, err := signerMap[pk].SignMessage(ctx, messageBytes)
		if err != nil {
			return fmt.Errorf("sign message for %s: %w", pk, err)
		}
		sigs[i] = sig
	}
	tx.Signatures = sigs
	return nil
}

// VerifyComplete checks that every required signature is present and valid.
func VerifyComplete(tx *solana.Transaction) error {
	required := int(tx.Message.Header.NumRequiredSignatures)
	if len(tx.Signatures) < required {
		return fmt.Errorf("transaction has %d of %d signatures", len(tx.Signatures), required)
	}
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	for i := 0; i < required; i++ {
		pk := tx.Message.AccountKeys[i]
		if tx.Signatures[i].IsZero() {
			return &types.MissingSignerError{PublicKey: pk}
		}
		if !tx.Signatures[i].Verify(pk, msg) {
			return fmt.Errorf("invalid signature for %s", pk)
		}
	}
	return nil
}

// InspectorURL links to an explorer view of the transaction message, which
// works even when the transaction never landed. An empty base uses the
// public Solana explorer.
func InspectorURL(tx *solana.Transaction, base string) (string, error) {
	if base == "" {
		base = constants.DefaultInspectorBaseURL
	}
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}
	return base + "?message=" + url.QueryEscape(base64.StdEncoding.EncodeToString(msg)), nil
}

// Send submits a signed transaction exactly once, via Jito when configured.
func (b *Builder) Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if b.jitoClient != nil {
		return b.jitoClient.Send(ctx, tx)
	}
	return b.SendViaRPC(ctx, tx)
}

// SendViaRPC sends a signed transaction via standard RPC.
func (b *Builder) SendViaRPC(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if b.client == nil {
		return solana.Signature{}, types.ErrNilRPC
	}
	opts := solanarpc.TransactionOpts{
		SkipPreflight:       b.skipPreflight,
		PreflightCommitment: b.commitment,
	}
	return b.client.SendTransaction(ctx, tx, opts)
}

// Simulate runs tx through the node and maps a failure to a typed error.
// The response is returned even on failure so callers can print logs.
func (b *Builder) Simulate(ctx context.Context, tx *solana.Transaction) (*solanarpc.SimulateTransactionResponse, error) {
	if b.client == nil {
		return nil, types.ErrNilRPC
	}
	res, err := b.client.SimulateTransaction(ctx, tx, &solanarpc.SimulateTransactionOpts{
		SigVerify:  true,
		Commitment: b.commitment,
	})
	if err != nil {
		return nil, err
	}
	if res != nil && res.Value != nil && res.Value.Err != nil {
		return res, types.ParseSimulationError(res.Value.Err, res.Value.Logs)
	}
	return res, nil
}
