package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckedAdd(t *testing.T) {
	got, err := CheckedAdd("t", 40, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	_, err = CheckedAdd("t", math.MaxInt64, 1)
	require.Error(t, err)
	assert.True(t, IsOverflow(err))
}

func TestCheckedSub(t *testing.T) {
	got, err := CheckedSub("t", 40, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(38), got)

	_, err = CheckedSub("t", math.MinInt64, 1)
	require.Error(t, err)
	assert.True(t, IsUnderflow(err))
}

func TestCheckedMul(t *testing.T) {
	got, err := CheckedMul("t", 6, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	got, err = CheckedMul("t", 0, math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)

	_, err = CheckedMul("t", math.MaxInt64, 2)
	require.Error(t, err)
	assert.True(t, IsOverflow(err))
}

func TestCheckedMul_MinInt64NegativeOne(t *testing.T) {
	// -MinInt64 is not representable; both operand orders must report
	// overflow instead of panicking in the division probe.
	_, err := CheckedMul("t", math.MinInt64, -1)
	require.Error(t, err)
	assert.True(t, IsOverflow(err))

	_, err = CheckedMul("t", -1, math.MinInt64)
	require.Error(t, err)
	assert.True(t, IsOverflow(err))

	got, err := CheckedMul("t", math.MinInt64, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), got)
}

func TestPercentOf_Floors(t *testing.T) {
	tests := []struct {
		total   int64
		percent uint32
		want    int64
	}{
		{total: 999, percent: 40, want: 399},
		{total: 999, percent: 30, want: 299},
		{total: 999, percent: 20, want: 199},
		{total: 100, percent: 100, want: 100},
		{total: 1, percent: 50, want: 0},
	}

	for _, tt := range tests {
		got, err := PercentOf("t", tt.total, tt.percent)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "floor(%d*%d/100)", tt.total, tt.percent)
	}
}

func TestPercentOf_Overflow(t *testing.T) {
	_, err := PercentOf("t", math.MaxInt64, 40)
	require.Error(t, err)
	assert.True(t, IsOverflow(err))
}
