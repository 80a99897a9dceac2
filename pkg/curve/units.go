package curve

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ninja0404/pump-launch-go/pkg/constants"
)

var (
	lamportsPerSOL = decimal.NewFromInt(int64(constants.LamportsPerSOL))
	tokenUnit      = decimal.New(1, constants.TokenDecimals)
)

// LamportsFromSOL converts a SOL amount to lamports, rejecting negative or sub-lamport values.
func LamportsFromSOL(sol decimal.Decimal) (uint64, error) {
	if sol.IsNegative() {
		return 0, fmt.Errorf("sol amount must not be negative: %s", sol)
	}
	lamports := sol.Mul(lamportsPerSOL)
	if !lamports.Equal(lamports.Truncate(0)) {
		return 0, fmt.Errorf("sol amount %s has more than 9 decimals", sol)
	}
	bi := lamports.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("sol amount %s overflows u64 lamports", sol)
	}
	return bi.Uint64(), nil
}

// ParseSOL parses a decimal SOL string like "0.5" into lamports.
func ParseSOL(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse sol amount %q: %w", s, err)
	}
	return LamportsFromSOL(d)
}

// SOLFromLamports renders lamports as SOL.
func SOLFromLamports(lamports uint64) decimal.Decimal {
	return decimal.NewFromUint64(lamports).Div(lamportsPerSOL)
}

// TokensFromBaseUnits renders token base units as whole tokens.
func TokensFromBaseUnits(amount uint64) decimal.Decimal {
	return decimal.NewFromUint64(amount).Div(tokenUnit)
}
