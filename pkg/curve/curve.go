// Package curve implements the constant-product bonding curve math of the pump program.
//
// All arithmetic is done on big.Int with truncating division so results match
// the on-chain program bit for bit. Nothing here touches the network.
//
// Example usage:
//
//	q, err := curve.ComputeBuy(1_000_000_000, 2500) // 1 SOL, 25% slippage
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("tokens: %d max cost: %d\n", q.TokenOut, q.MaxSolCost)
package curve

import (
	"fmt"
	"math/big"

	"github.com/ninja0404/pump-launch-go/pkg/constants"
	"github.com/ninja0404/pump-launch-go/pkg/types"
)

// Curve is a virtual reserve pair. Its product is the invariant k.
type Curve struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
}

// Default returns the reserves every fresh pump mint starts from.
func Default() Curve {
	return Curve{
		VirtualTokenReserves: constants.InitialVirtualTokenReserves,
		VirtualSolReserves:   constants.InitialVirtualSolReserves,
	}
}

// New builds a curve from explicit reserves, e.g. the global account's initial values.
func New(virtualTokenReserves, virtualSolReserves uint64) Curve {
	return Curve{VirtualTokenReserves: virtualTokenReserves, VirtualSolReserves: virtualSolReserves}
}

// K returns virtualTokenReserves * virtualSolReserves.
func (c Curve) K() *big.Int {
	return new(big.Int).Mul(
		new(big.Int).SetUint64(c.VirtualTokenReserves),
		new(big.Int).SetUint64(c.VirtualSolReserves),
	)
}

// Quote is the outcome of a buy against the curve.
type Quote struct {
	// SolInput is the lamports the buyer intends to spend.
	SolInput uint64

	// TokenOut is the token amount (base units) the input buys.
	TokenOut uint64

	// MaxSolCost is SolInput widened by the slippage tolerance.
	MaxSolCost uint64

	// SlippageBps is the tolerance used for MaxSolCost.
	SlippageBps uint64
}

// ComputeBuy prices a buy of solInput lamports against the default curve.
func ComputeBuy(solInput, slippageBps uint64) (Quote, error) {
	return Default().ComputeBuy(solInput, slippageBps)
}

// ComputeBuy calculates the tokens bought for solInput lamports and the
// maximum SOL cost accepted under slippageBps.
//
// Parameters:
//   - solInput: lamports to spend
//   - slippageBps: tolerance in basis points (0..10000)
//
// Formula:
//
//	tokenOut   = vTok - k / (vSol + solInput)
//	maxSolCost = solInput * (10000 + slippageBps) / 10000
//
// Returns *types.InsufficientInputError when tokenOut is not positive.
func (c Curve) ComputeBuy(solInput, slippageBps uint64) (Quote, error) {
	if err := types.ValidateSlippage(slippageBps); err != nil {
		return Quote{}, err
	}
	if c.VirtualTokenReserves == 0 || c.VirtualSolReserves == 0 {
		return Quote{}, types.NewValidationError("reserves", "must be greater than 0")
	}

	solIn := new(big.Int).SetUint64(solInput)
	denominator := new(big.Int).Add(new(big.Int).SetUint64(c.VirtualSolReserves), solIn)
	remaining := new(big.Int).Quo(c.K(), denominator)
	tokenOut := new(big.Int).Sub(new(big.Int).SetUint64(c.VirtualTokenReserves), remaining)
	if tokenOut.Sign() <= 0 {
		return Quote{}, &types.InsufficientInputError{SolInput: solInput}
	}

	maxCost, err := applySlippage(solInput, slippageBps)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		SolInput:    solInput,
		TokenOut:    tokenOut.Uint64(),
		MaxSolCost:  maxCost,
		SlippageBps: slippageBps,
	}, nil
}

// SpotPrice returns lamports per whole token (10^6 base units), scaled by 1e9.
func (c Curve) SpotPrice() uint64 {
	if c.VirtualTokenReserves == 0 {
		return 0
	}
	price := new(big.Int).SetUint64(c.VirtualSolReserves)
	price.Mul(price, big.NewInt(1e9))
	price.Mul(price, big.NewInt(1e6))
	price.Div(price, new(big.Int).SetUint64(c.VirtualTokenReserves))
	if !price.IsUint64() {
		return 0
	}
	return price.Uint64()
}

// PriceImpactBps is how far the execution price of q sits above the spot price.
func (c Curve) PriceImpactBps(q Quote) uint64 {
	if q.TokenOut == 0 || c.VirtualSolReserves == 0 {
		return 0
	}
	// exec/spot = (solIn/tokenOut) / (vSol/vTok)
	num := new(big.Int).Mul(new(big.Int).SetUint64(q.SolInput), new(big.Int).SetUint64(c.VirtualTokenReserves))
	den := new(big.Int).Mul(new(big.Int).SetUint64(q.TokenOut), new(big.Int).SetUint64(c.VirtualSolReserves))
	ratio := new(big.Int).Mul(num, big.NewInt(int64(constants.BasisPointsDenominator)))
	ratio.Quo(ratio, den)
	bps := ratio.Int64() - int64(constants.BasisPointsDenominator)
	if bps < 0 {
		return 0
	}
	return uint64(bps)
}

// After returns the curve state once q has executed.
func (c Curve) After(q Quote) Curve {
	return Curve{
		VirtualTokenReserves: c.VirtualTokenReserves - q.TokenOut,
		VirtualSolReserves:   c.VirtualSolReserves + q.SolInput,
	}
}

func applySlippage(amount, slippageBps uint64) (uint64, error) {
	v := new(big.Int).SetUint64(amount)
	v.Mul(v, new(big.Int).SetUint64(constants.BasisPointsDenominator+slippageBps))
	v.Quo(v, new(big.Int).SetUint64(constants.BasisPointsDenominator))
	if !v.IsUint64() {
		return 0, fmt.Errorf("max sol cost overflows u64 for input %d", amount)
	}
	return v.Uint64(), nil
}
