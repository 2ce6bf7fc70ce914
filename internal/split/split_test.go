package split_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsavo-labs/remit/internal/core"
	"github.com/tsavo-labs/remit/internal/split"
	"github.com/tsavo-labs/remit/internal/testutil"
)

func newService(t *testing.T) *split.Service {
	t.Helper()
	return split.New(testutil.NewMemStore(), testutil.NewAuth("alice", "bob", "spend", "save", "bill", "insure"))
}

func TestInitialize(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	err := svc.Initialize(ctx, "alice", 0, split.Percentages{Spending: 40, Savings: 30, Bills: 20, Insurance: 10})
	require.NoError(t, err)

	cfg, ok, err := svc.Config(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, core.Principal("alice"), cfg.Owner)
	assert.Equal(t, uint32(40), cfg.SpendingPercent)

	// Second initialization is rejected.
	err = svc.Initialize(ctx, "alice", 1, split.Percentages{Spending: 25, Savings: 25, Bills: 25, Insurance: 25})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
}

func TestInitialize_PercentagesMustSumTo100(t *testing.T) {
	svc := newService(t)

	err := svc.Initialize(context.Background(), "alice", 0, split.Percentages{Spending: 40, Savings: 30, Bills: 20, Insurance: 9})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
}

func TestInitialize_RejectsWrappingPercentages(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	// These tuples sum to 100 modulo 2^32; a 32-bit sum accepts them
	// and Calculate then produces shares far beyond the total.
	tests := []split.Percentages{
		{Spending: math.MaxUint32, Savings: 0, Bills: 0, Insurance: 101},
		{Spending: 1 << 31, Savings: 1 << 31, Bills: 0, Insurance: 100},
		{Spending: 25, Savings: 25, Bills: math.MaxUint32 - 49, Insurance: 100},
	}
	for _, p := range tests {
		err := svc.Initialize(ctx, "alice", 0, p)
		require.Error(t, err)
		assert.True(t, core.IsValidation(err))
	}

	_, ok, err := svc.Config(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// Same guard on the update path.
	require.NoError(t, svc.Initialize(ctx, "alice", 0, split.Percentages{Spending: 40, Savings: 30, Bills: 20, Insurance: 10}))
	err = svc.Update(ctx, "alice", 1, split.Percentages{Spending: math.MaxUint32, Savings: 0, Bills: 0, Insurance: 101})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
}

func TestUpdate_OwnerOnly(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Initialize(ctx, "alice", 0, split.Percentages{Spending: 40, Savings: 30, Bills: 20, Insurance: 10}))

	err := svc.Update(ctx, "bob", 0, split.Percentages{Spending: 25, Savings: 25, Bills: 25, Insurance: 25})
	require.Error(t, err)
	assert.True(t, core.IsNotOwner(err))

	require.NoError(t, svc.Update(ctx, "alice", 1, split.Percentages{Spending: 25, Savings: 25, Bills: 25, Insurance: 25}))

	p, err := svc.Percentages(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(25), p.Insurance)
}

func TestUpdate_RequiresInitialization(t *testing.T) {
	svc := newService(t)

	err := svc.Update(context.Background(), "alice", 0, split.Percentages{Spending: 25, Savings: 25, Bills: 25, Insurance: 25})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
}

func TestPercentages_DefaultWhenUninitialized(t *testing.T) {
	svc := newService(t)

	p, err := svc.Percentages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, split.Percentages{Spending: 50, Savings: 30, Bills: 15, Insurance: 5}, p)
}

func TestCalculate_RemainderGoesToInsurance(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Initialize(ctx, "alice", 0, split.Percentages{Spending: 40, Savings: 30, Bills: 20, Insurance: 10}))

	shares, err := svc.Calculate(ctx, 999)
	require.NoError(t, err)
	assert.Equal(t, split.Shares{Spending: 399, Savings: 299, Bills: 199, Insurance: 102}, shares)
	assert.Equal(t, int64(999), shares.Spending+shares.Savings+shares.Bills+shares.Insurance)
}

func TestCalculate_SharesAlwaysSumToTotal(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Initialize(ctx, "alice", 0, split.Percentages{Spending: 33, Savings: 33, Bills: 33, Insurance: 1}))

	for _, total := range []int64{1, 2, 3, 7, 99, 100, 101, 999, 1_000_000_007} {
		shares, err := svc.Calculate(ctx, total)
		require.NoError(t, err)
		assert.Equal(t, total, shares.Spending+shares.Savings+shares.Bills+shares.Insurance, "total %d", total)
	}
}

func TestCalculate_RejectsNonPositiveTotal(t *testing.T) {
	svc := newService(t)

	_, err := svc.Calculate(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
}

func TestAllocations(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	allocs, err := svc.Allocations(ctx, 2000)
	require.NoError(t, err)
	require.Len(t, allocs, 4)
	// Default split 50/30/15/5.
	assert.Equal(t, split.Allocation{Category: "spending", Amount: 1000}, allocs[0])
	assert.Equal(t, split.Allocation{Category: "savings", Amount: 600}, allocs[1])
	assert.Equal(t, split.Allocation{Category: "bills", Amount: 300}, allocs[2])
	assert.Equal(t, split.Allocation{Category: "insurance", Amount: 100}, allocs[3])
}

func TestDistribute(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Initialize(ctx, "alice", 0, split.Percentages{Spending: 40, Savings: 30, Bills: 20, Insurance: 10}))

	bank := testutil.NewTokenBank()
	bank.Mint("alice", 1_000)

	accounts := split.Accounts{Spending: "spend", Savings: "save", Bills: "bill", Insurance: "insure"}
	shares, err := svc.Distribute(ctx, bank, "alice", 1, accounts, 1_000)
	require.NoError(t, err)
	assert.Equal(t, split.Shares{Spending: 400, Savings: 300, Bills: 200, Insurance: 100}, shares)

	for p, want := range map[core.Principal]int64{"spend": 400, "save": 300, "bill": 200, "insure": 100, "alice": 0} {
		got, err := svc.Balance(ctx, bank, p)
		require.NoError(t, err)
		assert.Equal(t, want, got, "balance of %s", p)
	}
}

func TestDistribute_NestedAbortLeavesNonceUnchanged(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Initialize(ctx, "alice", 0, split.Percentages{Spending: 40, Savings: 30, Bills: 20, Insurance: 10}))

	bank := testutil.NewTokenBank()
	bank.Mint("alice", 10) // not enough for the first transfer

	accounts := split.Accounts{Spending: "spend", Savings: "save", Bills: "bill", Insurance: "insure"}
	_, err := svc.Distribute(ctx, bank, "alice", 1, accounts, 1_000)
	require.Error(t, err)

	n, err := svc.Nonce(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n, "aborted distribute must not advance the nonce")

	// The failed attempt is still audited.
	entries, err := svc.Audit(ctx, 0, 100)
	require.NoError(t, err)
	last := entries[len(entries)-1]
	assert.Equal(t, "distribute", last.Operation)
	assert.False(t, last.Success)
}

func TestSnapshot_OwnerGated(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Initialize(ctx, "alice", 0, split.Percentages{Spending: 40, Savings: 30, Bills: 20, Insurance: 10}))

	// Export is restricted to the configured owner.
	_, err := svc.Export(ctx, "bob")
	require.Error(t, err)
	assert.True(t, core.IsNotOwner(err))

	snap, err := svc.Export(ctx, "alice")
	require.NoError(t, err)

	// Restore replaces the configuration wholesale.
	require.NoError(t, svc.Update(ctx, "alice", 1, split.Percentages{Spending: 25, Savings: 25, Bills: 25, Insurance: 25}))
	require.NoError(t, svc.Import(ctx, "alice", 2, snap))

	p, err := svc.Percentages(ctx)
	require.NoError(t, err)
	assert.Equal(t, split.Percentages{Spending: 40, Savings: 30, Bills: 20, Insurance: 10}, p)

	// A non-owner cannot import over alice's state.
	err = svc.Import(ctx, "bob", 0, snap)
	require.Error(t, err)
	assert.True(t, core.IsNotOwner(err))
}
