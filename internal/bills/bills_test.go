package bills_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsavo-labs/remit/internal/bills"
	"github.com/tsavo-labs/remit/internal/core"
	"github.com/tsavo-labs/remit/internal/testutil"
)

func newService(t *testing.T) *bills.Service {
	t.Helper()
	return bills.New(testutil.NewMemStore(), testutil.NewAuth("alice", "bob"))
}

func TestCreate_Validation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		amount    int64
		recurring bool
		freq      uint32
		wantErr   bool
	}{
		{name: "ok one-shot", amount: 120, wantErr: false},
		{name: "ok recurring", amount: 120, recurring: true, freq: 30, wantErr: false},
		{name: "zero amount", amount: 0, wantErr: true},
		{name: "negative amount", amount: -5, wantErr: true},
		{name: "recurring without frequency", amount: 120, recurring: true, freq: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := svc.Nonce(ctx, "alice")
			require.NoError(t, err)
			_, err = svc.Create(ctx, "alice", n, "Electricity", tt.amount, 1_700_000_000, tt.recurring, tt.freq)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, core.IsValidation(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestPay_OneShot(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, "alice", 0, "Electricity", 120, 1_700_000_000, false, 0)
	require.NoError(t, err)

	next, err := svc.Pay(ctx, "alice", 1, id)
	require.NoError(t, err)
	assert.Zero(t, next, "non-recurring bills have no successor")

	bill, ok, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, bill.Paid)

	// Already paid: rejected, state unchanged.
	_, err = svc.Pay(ctx, "alice", 2, id)
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
}

func TestPay_RecurringSpawnsSuccessor(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	due := int64(1_700_000_000)
	id, err := svc.Create(ctx, "alice", 0, "School Fees", 300, due, true, 30)
	require.NoError(t, err)

	next, err := svc.Pay(ctx, "alice", 1, id)
	require.NoError(t, err)
	require.Equal(t, uint32(2), next)

	successor, ok, err := svc.Get(ctx, next)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, successor.Paid)
	assert.True(t, successor.Recurring)
	assert.Equal(t, due+30*86_400, successor.DueDate)
	assert.Equal(t, int64(300), successor.Amount)
	assert.Equal(t, core.Principal("alice"), successor.Owner)
}

func TestPay_OwnerOnly(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, "alice", 0, "Electricity", 120, 0, false, 0)
	require.NoError(t, err)

	_, err = svc.Pay(ctx, "bob", 0, id)
	require.Error(t, err)
	assert.True(t, core.IsNotOwner(err))

	_, err = svc.Pay(ctx, "alice", 1, 42)
	require.Error(t, err)
	assert.True(t, core.IsNotFound(err))
}

func TestUnpaidAndTotal(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "alice", 0, "Electricity", 120, 0, false, 0)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "alice", 1, "Water", 80, 0, false, 0)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "bob", 0, "Rent", 900, 0, false, 0)
	require.NoError(t, err)

	total, err := svc.TotalUnpaid(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(200), total)

	_, err = svc.Pay(ctx, "alice", 2, a)
	require.NoError(t, err)

	unpaid, err := svc.Unpaid(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, unpaid, 1)
	assert.Equal(t, "Water", unpaid[0].Name)

	total, err = svc.TotalUnpaid(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(80), total)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	src := newService(t)
	dst := newService(t)
	ctx := context.Background()

	_, err := src.Create(ctx, "alice", 0, "Electricity", 120, 1_700_000_000, true, 30)
	require.NoError(t, err)

	snap, err := src.Export(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, dst.Import(ctx, "alice", 0, snap))

	bill, ok, err := dst.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Electricity", bill.Name)

	// Tampering with any field breaks the checksum.
	snap.Payload.Records[0].Amount = 121
	err = dst.Import(ctx, "alice", 1, snap)
	require.Error(t, err)
	assert.True(t, core.IsChecksumMismatch(err))
}
