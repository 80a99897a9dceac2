package pump

import (
	"context"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/ninja0404/pump-launch-go/pkg/constants"
	"github.com/ninja0404/pump-launch-go/pkg/types"
)

// Global is the leading, stable part of the pump global config account.
// Later fields vary between program versions and are not decoded.
type Global struct {
	Initialized                 bool             `json:"initialized"`
	Authority                   solana.PublicKey `json:"authority"`
	FeeRecipient                solana.PublicKey `json:"feeRecipient"`
	InitialVirtualTokenReserves uint64           `json:"initialVirtualTokenReserves"`
	InitialVirtualSolReserves   uint64           `json:"initialVirtualSolReserves"`
	InitialRealTokenReserves    uint64           `json:"initialRealTokenReserves"`
	TokenTotalSupply            uint64           `json:"tokenTotalSupply"`
	FeeBasisPoints              uint64           `json:"feeBasisPoints"`
}

// globalMinLen covers discriminator through feeBasisPoints.
const globalMinLen = 8 + 1 + 32 + 32 + 5*8

// DecodeGlobal parses raw global account data.
func DecodeGlobal(data []byte) (Global, error) {
	if len(data) < globalMinLen {
		return Global{}, types.NewValidationError("global", fmt.Sprintf("account data too short: %d bytes", len(data)))
	}
	dec := bin.NewBorshDecoder(data[8:])
	var g Global
	fields := []interface{}{
		&g.Initialized,
		&g.Authority,
		&g.FeeRecipient,
		&g.InitialVirtualTokenReserves,
		&g.InitialVirtualSolReserves,
		&g.InitialRealTokenReserves,
		&g.TokenTotalSupply,
		&g.FeeBasisPoints,
	}
	for _, f := range fields {
		if err := dec.Decode(f); err != nil {
			return Global{}, fmt.Errorf("decode global: %w", err)
		}
	}
	return g, nil
}

// FeeRecipientFromGlobal reads the fee recipient straight from its byte range.
func FeeRecipientFromGlobal(data []byte) (solana.PublicKey, error) {
	if len(data) < constants.GlobalFeeRecipientEnd {
		return solana.PublicKey{}, types.ErrFeeRecipientNotFound
	}
	pk := solana.PublicKeyFromBytes(data[constants.GlobalFeeRecipientOffset:constants.GlobalFeeRecipientEnd])
	if pk.IsZero() {
		return solana.PublicKey{}, types.ErrFeeRecipientNotFound
	}
	return pk, nil
}

// AccountReader fetches raw account data.
type AccountReader interface {
	AccountData(ctx context.Context, account solana.PublicKey) ([]byte, error)
}

// FetchGlobal loads and decodes the global config account.
func FetchGlobal(ctx context.Context, reader AccountReader) (Global, error) {
	data, err := reader.AccountData(ctx, constants.PumpGlobal)
	if err != nil {
		return Global{}, fmt.Errorf("fetch global: %w", err)
	}
	return DecodeGlobal(data)
}

// FetchFeeRecipient resolves the current protocol fee recipient.
func FetchFeeRecipient(ctx context.Context, reader AccountReader) (solana.PublicKey, error) {
	data, err := reader.AccountData(ctx, constants.PumpGlobal)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("fetch global: %w", err)
	}
	return FeeRecipientFromGlobal(data)
}
