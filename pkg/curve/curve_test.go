package curve

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/pump-launch-go/pkg/types"
)

func TestComputeBuyOneSOL(t *testing.T) {
	q, err := Curve{VirtualTokenReserves: 1_073_000_000_000_000, VirtualSolReserves: 30_000_000_000}.ComputeBuy(1_000_000_000, 2500)
	require.NoError(t, err)

	// k / (vSol + in) = 32190000000000000000000000 / 31000000000 = 1038387096774193 (truncated)
	assert.Equal(t, uint64(34_612_903_225_807), q.TokenOut)
	assert.Equal(t, uint64(1_250_000_000), q.MaxSolCost)
	assert.Equal(t, uint64(1_000_000_000), q.SolInput)
}

func TestComputeBuyMatchesFormula(t *testing.T) {
	c := Default()
	for _, in := range []uint64{1, 7, 999, 1_000_000, 123_456_789, 5_000_000_000, 85_000_000_000} {
		for _, bps := range []uint64{0, 1, 50, 2500, 10000} {
			q, err := c.ComputeBuy(in, bps)
			require.NoError(t, err)

			k := c.K()
			den := new(big.Int).Add(new(big.Int).SetUint64(c.VirtualSolReserves), new(big.Int).SetUint64(in))
			want := new(big.Int).Sub(new(big.Int).SetUint64(c.VirtualTokenReserves), new(big.Int).Quo(k, den))
			assert.Equal(t, want.Uint64(), q.TokenOut, "in=%d", in)

			maxCost := new(big.Int).SetUint64(in)
			maxCost.Mul(maxCost, big.NewInt(int64(10000+bps)))
			maxCost.Quo(maxCost, big.NewInt(10000))
			assert.Equal(t, maxCost.Uint64(), q.MaxSolCost)

			assert.Greater(t, q.TokenOut, uint64(0))
			assert.GreaterOrEqual(t, q.MaxSolCost, q.SolInput)
		}
	}
}

func TestComputeBuyInsufficientInput(t *testing.T) {
	_, err := ComputeBuy(0, 2500)
	var insufficient *types.InsufficientInputError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, uint64(0), insufficient.SolInput)
}

func TestComputeBuyRejectsBadParams(t *testing.T) {
	_, err := ComputeBuy(1_000, 10_001)
	var verr types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "slippageBps", verr.Field)

	_, err = Curve{}.ComputeBuy(1_000, 0)
	require.ErrorAs(t, err, &verr)
}

func TestComputeBuyTruncatesSlippage(t *testing.T) {
	q, err := ComputeBuy(3, 3333)
	require.NoError(t, err)
	// 3 * 13333 / 10000 = 3.9999 -> 3
	assert.Equal(t, uint64(3), q.MaxSolCost)
}

func TestAfterAndPriceImpact(t *testing.T) {
	c := Default()
	q, err := c.ComputeBuy(1_000_000_000, 0)
	require.NoError(t, err)

	next := c.After(q)
	assert.Equal(t, c.VirtualSolReserves+1_000_000_000, next.VirtualSolReserves)
	assert.Equal(t, c.VirtualTokenReserves-q.TokenOut, next.VirtualTokenReserves)
	assert.Greater(t, next.SpotPrice(), c.SpotPrice())
	// 1 SOL on a 30 SOL virtual pool moves execution ~3.3% above spot.
	impact := c.PriceImpactBps(q)
	assert.InDelta(t, 333, float64(impact), 2)

	// Truncating tokenOut keeps k within one denominator unit of the original.
	k, newK := c.K(), next.K()
	assert.True(t, newK.Cmp(k) <= 0)
	lost := new(big.Int).Sub(k, newK)
	den := new(big.Int).SetUint64(next.VirtualSolReserves)
	assert.True(t, lost.Cmp(den) < 0, "k shrank by %s, bound %s", lost, den)
}

func TestSOLConversions(t *testing.T) {
	lamports, err := ParseSOL("1.5")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), lamports)

	lamports, err = LamportsFromSOL(decimal.RequireFromString("0.000000001"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), lamports)

	_, err = ParseSOL("0.0000000001")
	assert.Error(t, err)
	_, err = ParseSOL("-1")
	assert.Error(t, err)
	_, err = ParseSOL("abc")
	assert.Error(t, err)

	assert.Equal(t, "2.5", SOLFromLamports(2_500_000_000).String())
	assert.Equal(t, "34612903.225807", TokensFromBaseUnits(34_612_903_225_807).String())
}
