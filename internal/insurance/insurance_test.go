package insurance_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsavo-labs/remit/internal/core"
	"github.com/tsavo-labs/remit/internal/insurance"
	"github.com/tsavo-labs/remit/internal/testutil"
)

var epoch = time.Unix(1_700_000_000, 0)

func newService(t *testing.T) (*insurance.Service, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(epoch)
	svc := insurance.New(testutil.NewMemStore(), testutil.NewAuth("alice", "bob"),
		core.WithClock[insurance.Policy](clock))
	return svc, clock
}

func TestCreate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, "alice", 0, "Family Health", "health", 45, 50_000)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), id)

	policy, ok, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, policy.Active)
	assert.Equal(t, epoch.Unix()+30*86_400, policy.NextPaymentDate)
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", 0, "Health", "health", 0, 50_000)
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))

	_, err = svc.Create(ctx, "alice", 0, "Health", "health", 45, -1)
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
}

func TestPayPremium_AdvancesDueDate(t *testing.T) {
	svc, clock := newService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, "alice", 0, "Family Health", "health", 45, 50_000)
	require.NoError(t, err)

	clock.Advance(29 * 24 * time.Hour)
	due, err := svc.PayPremium(ctx, "alice", 1, id)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Unix()+30*86_400, due)
}

func TestPayPremium_Gates(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, "alice", 0, "Family Health", "health", 45, 50_000)
	require.NoError(t, err)

	_, err = svc.PayPremium(ctx, "bob", 0, id)
	require.Error(t, err)
	assert.True(t, core.IsNotOwner(err))

	_, err = svc.PayPremium(ctx, "alice", 1, 77)
	require.Error(t, err)
	assert.True(t, core.IsNotFound(err))

	require.NoError(t, svc.Deactivate(ctx, "alice", 1, id))

	_, err = svc.PayPremium(ctx, "alice", 2, id)
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
}

func TestActiveAndTotals(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "alice", 0, "Health", "health", 45, 50_000)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "alice", 1, "Emergency", "emergency", 15, 10_000)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "bob", 0, "Health", "health", 60, 40_000)
	require.NoError(t, err)

	total, err := svc.TotalMonthlyPremium(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(60), total)

	require.NoError(t, svc.Deactivate(ctx, "alice", 2, a))

	active, err := svc.Active(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Emergency", active[0].Name)

	total, err = svc.TotalMonthlyPremium(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(15), total)

	// The deactivated policy's record remains.
	policy, ok, err := svc.Get(ctx, a)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, policy.Active)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	src, _ := newService(t)
	dst, _ := newService(t)
	ctx := context.Background()

	_, err := src.Create(ctx, "alice", 0, "Health", "health", 45, 50_000)
	require.NoError(t, err)

	snap, err := src.Export(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, dst.Import(ctx, "alice", 0, snap))

	policy, ok, err := dst.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(50_000), policy.CoverageAmount)
}
