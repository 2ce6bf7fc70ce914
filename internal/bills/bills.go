// Package bills implements the bill-payments ledger: owner-gated bills
// with one-shot and recurring payment tracking.
package bills

import (
	"context"

	"github.com/tsavo-labs/remit/internal/core"
)

// Event kinds published on the "bills" topic.
const (
	EventCreated = "bill_created"
	EventPaid    = "bill_paid"
)

const secondsPerDay = 86_400

// Bill is one tracked bill. Paying a recurring bill spawns its
// successor, due frequencyDays later.
type Bill struct {
	ID            uint32         `json:"id"`
	Owner         core.Principal `json:"owner"`
	Name          string         `json:"name"`
	Amount        int64          `json:"amount"`
	DueDate       int64          `json:"due_date"`
	Recurring     bool           `json:"recurring"`
	FrequencyDays uint32         `json:"frequency_days"`
	Paid          bool           `json:"paid"`
}

// RecordID implements core.Record.
func (b Bill) RecordID() uint32 { return b.ID }

// RecordOwner implements core.Record.
func (b Bill) RecordOwner() core.Principal { return b.Owner }

// ChecksumTerms implements core.Record: id, amount, due date, frequency.
func (b Bill) ChecksumTerms() []uint64 {
	return []uint64{uint64(b.ID), uint64(b.Amount), uint64(b.DueDate), uint64(b.FrequencyDays)}
}

// Service exposes the bill-payments operations over one ledger instance.
type Service struct {
	ledger *core.Ledger[Bill]
}

// New creates a bills service over the given store and authorization
// capability.
func New(store core.Store, auth core.Authorizer, opts ...core.Option[Bill]) *Service {
	return &Service{ledger: core.New[Bill]("bills", store, auth, opts...)}
}

// Create adds a new bill owned by owner and returns its id. The amount
// must be strictly positive; recurring bills need a non-zero frequency.
func (s *Service) Create(ctx context.Context, owner core.Principal, nonce uint64, name string, amount, dueDate int64, recurring bool, frequencyDays uint32) (uint32, error) {
	const op = "create"
	var id uint32
	err := s.ledger.Mutate(ctx, op, owner, nonce, func(tx *core.Tx[Bill]) error {
		if amount <= 0 {
			return core.NewValidationError(op, owner, "amount must be positive")
		}
		if recurring && frequencyDays == 0 {
			return core.NewValidationError(op, owner, "frequency days must be greater than 0 for recurring bills")
		}
		id = tx.State.AllocateID()
		tx.State.Set(id, Bill{
			ID:            id,
			Owner:         owner,
			Name:          name,
			Amount:        amount,
			DueDate:       dueDate,
			Recurring:     recurring,
			FrequencyDays: frequencyDays,
		})
		tx.Emit(EventCreated, id, owner, amount)
		return nil
	})
	return id, err
}

// Pay marks the bill paid. For recurring bills the successor is created
// in the same call, due frequencyDays after the paid bill's due date.
// Returns the successor's id, or 0 for non-recurring bills.
func (s *Service) Pay(ctx context.Context, caller core.Principal, nonce uint64, id uint32) (uint32, error) {
	const op = "pay"
	var nextID uint32
	err := s.ledger.Mutate(ctx, op, caller, nonce, func(tx *core.Tx[Bill]) error {
		bill, ok := tx.State.Get(id)
		if !ok {
			return core.NewNotFoundError(op, caller, id)
		}
		if bill.Owner != caller {
			return core.NewNotOwnerError(op, caller, id)
		}
		if bill.Paid {
			return core.NewValidationError(op, caller, "bill is already paid")
		}

		bill.Paid = true

		if bill.Recurring {
			step, err := core.CheckedMul(op, int64(bill.FrequencyDays), secondsPerDay)
			if err != nil {
				return err
			}
			nextDue, err := core.CheckedAdd(op, bill.DueDate, step)
			if err != nil {
				return err
			}
			nextID = tx.State.AllocateID()
			tx.State.Set(nextID, Bill{
				ID:            nextID,
				Owner:         bill.Owner,
				Name:          bill.Name,
				Amount:        bill.Amount,
				DueDate:       nextDue,
				Recurring:     true,
				FrequencyDays: bill.FrequencyDays,
			})
		}

		tx.State.Set(id, bill)
		tx.Emit(EventPaid, id, caller, bill.Amount)
		return nil
	})
	return nextID, err
}

// Get returns the bill with the given id.
func (s *Service) Get(ctx context.Context, id uint32) (Bill, bool, error) {
	var bill Bill
	var ok bool
	err := s.ledger.View(ctx, func(st *core.State[Bill]) error {
		bill, ok = st.Get(id)
		return nil
	})
	return bill, ok, err
}

// Unpaid returns owner's unpaid bills, in id order.
func (s *Service) Unpaid(ctx context.Context, owner core.Principal) ([]Bill, error) {
	var out []Bill
	err := s.ledger.View(ctx, func(st *core.State[Bill]) error {
		out = st.OwnedBy(owner, func(b Bill) bool { return !b.Paid })
		return nil
	})
	return out, err
}

// TotalUnpaid returns the checked sum of owner's unpaid bill amounts.
func (s *Service) TotalUnpaid(ctx context.Context, owner core.Principal) (int64, error) {
	unpaid, err := s.Unpaid(ctx, owner)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, b := range unpaid {
		total, err = core.CheckedAdd("total_unpaid", total, b.Amount)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

// Nonce returns the next nonce expected from principal.
func (s *Service) Nonce(ctx context.Context, principal core.Principal) (uint64, error) {
	return s.ledger.Nonce(ctx, principal)
}

// Audit returns audit entries starting at from, at most
// min(limit, core.AuditCapacity).
func (s *Service) Audit(ctx context.Context, from, limit uint32) ([]core.AuditEntry, error) {
	return s.ledger.Audit(ctx, from, limit)
}

// Export returns a checksummed snapshot of all bills.
func (s *Service) Export(ctx context.Context, caller core.Principal) (core.Snapshot[core.RecordSet[Bill]], error) {
	return s.ledger.Export(ctx, caller)
}

// Import restores a snapshot, fully replacing the bill store.
func (s *Service) Import(ctx context.Context, caller core.Principal, nonce uint64, snap core.Snapshot[core.RecordSet[Bill]]) error {
	return s.ledger.Import(ctx, caller, nonce, snap)
}
