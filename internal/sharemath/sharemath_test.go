package sharemath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/groupfund/internal/domain"
)

func TestMulDiv(t *testing.T) {
	t.Parallel()

	v, err := MulDiv(300, 100, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(300), v)

	// Floor behaviour.
	v, err = MulDiv(10, 3, 4)
	require.NoError(t, err)
	require.Equal(t, uint64(7), v)

	// Wide intermediate: a*b overflows 64 bits but the quotient fits.
	v, err = MulDiv(math.MaxUint64/2, 4, 8)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64/4), v)

	// Division by zero.
	_, err = MulDiv(1, 1, 0)
	require.ErrorIs(t, err, domain.ErrArithmeticOverflow)

	// Quotient overflows 64 bits.
	_, err = MulDiv(math.MaxUint64, 3, 2)
	require.ErrorIs(t, err, domain.ErrArithmeticOverflow)
}

func TestCheckedAddSub(t *testing.T) {
	t.Parallel()

	v, err := CheckedAdd(1, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(3), v)

	_, err = CheckedAdd(math.MaxUint64, 1)
	require.ErrorIs(t, err, domain.ErrArithmeticOverflow)

	v, err = CheckedSub(5, 3)
	require.NoError(t, err)
	require.Equal(t, uint64(2), v)

	_, err = CheckedSub(3, 5)
	require.ErrorIs(t, err, domain.ErrArithmeticOverflow)

	require.Equal(t, uint64(0), SaturatingSub(3, 5))
	require.Equal(t, uint64(2), SaturatingSub(5, 3))
}

func TestSharesToMint(t *testing.T) {
	t.Parallel()

	// First contribution mints 1:1.
	v, err := SharesToMint(100, 0, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(100), v)

	// Later contributions at the prevailing price.
	v, err = SharesToMint(300, 100, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(300), v)

	// Appreciated fund: 100 shares worth 200, a 100 deposit mints 50.
	v, err = SharesToMint(100, 100, 200)
	require.NoError(t, err)
	require.Equal(t, uint64(50), v)
}

func TestPnLAmount(t *testing.T) {
	t.Parallel()

	v, loss, err := PnLAmount(1000, 500)
	require.NoError(t, err)
	require.False(t, loss)
	require.Equal(t, uint64(50), v)

	v, loss, err = PnLAmount(1000, -500)
	require.NoError(t, err)
	require.True(t, loss)
	require.Equal(t, uint64(50), v)

	// Truncation toward zero: 1000 * -7 / 10000 -> 0.
	v, loss, err = PnLAmount(1000, -7)
	require.NoError(t, err)
	require.True(t, loss)
	require.Equal(t, uint64(0), v)
}

func TestFeeOnProfit(t *testing.T) {
	t.Parallel()

	v, err := FeeOnProfit(50, 1000)
	require.NoError(t, err)
	require.Equal(t, uint64(5), v)

	v, err = FeeOnProfit(50, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(0), v)

	// Full skim.
	v, err = FeeOnProfit(50, 10000)
	require.NoError(t, err)
	require.Equal(t, uint64(50), v)
}

func TestReputationDelta(t *testing.T) {
	t.Parallel()

	require.Equal(t, uint64(50), ReputationDelta(500))
	require.Equal(t, uint64(100), ReputationDelta(-500))
	require.Equal(t, uint64(0), ReputationDelta(0))
	require.Equal(t, uint64(0), ReputationDelta(9))
	require.Equal(t, uint64(1), ReputationDelta(-9))
}
