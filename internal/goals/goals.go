// Package goals implements the savings-goals ledger: owner-gated goals
// with deposits, lock-controlled withdrawals, and completion tracking.
package goals

import (
	"context"

	"github.com/tsavo-labs/remit/internal/core"
)

// Event kinds published on the "goals" topic.
const (
	EventCreated   = "goal_created"
	EventAdded     = "funds_added"
	EventWithdrawn = "funds_withdrawn"
	EventCompleted = "goal_completed"
	EventLocked    = "goal_locked"
	EventUnlocked  = "goal_unlocked"
)

// Goal is one savings goal. Goals are created locked: funds can always
// be added, but withdrawal requires an explicit unlock by the owner.
type Goal struct {
	ID            uint32         `json:"id"`
	Owner         core.Principal `json:"owner"`
	Name          string         `json:"name"`
	TargetAmount  int64          `json:"target_amount"`
	CurrentAmount int64          `json:"current_amount"`
	TargetDate    int64          `json:"target_date"`
	Locked        bool           `json:"locked"`
}

// RecordID implements core.Record.
func (g Goal) RecordID() uint32 { return g.ID }

// RecordOwner implements core.Record.
func (g Goal) RecordOwner() core.Principal { return g.Owner }

// ChecksumTerms implements core.Record: id, target, current.
func (g Goal) ChecksumTerms() []uint64 {
	return []uint64{uint64(g.ID), uint64(g.TargetAmount), uint64(g.CurrentAmount)}
}

// Completed reports whether the goal has reached its target.
func (g Goal) Completed() bool { return g.CurrentAmount >= g.TargetAmount }

// Service exposes the savings-goals operations over one ledger instance.
type Service struct {
	ledger *core.Ledger[Goal]
}

// New creates a goals service over the given store and authorization
// capability.
func New(store core.Store, auth core.Authorizer, opts ...core.Option[Goal]) *Service {
	return &Service{ledger: core.New[Goal]("goals", store, auth, opts...)}
}

// Create adds a new goal owned by owner and returns its id. The target
// amount must be strictly positive. New goals start locked with a zero
// balance.
func (s *Service) Create(ctx context.Context, owner core.Principal, nonce uint64, name string, targetAmount, targetDate int64) (uint32, error) {
	const op = "create"
	var id uint32
	err := s.ledger.Mutate(ctx, op, owner, nonce, func(tx *core.Tx[Goal]) error {
		if targetAmount <= 0 {
			return core.NewValidationError(op, owner, "target amount must be positive")
		}
		id = tx.State.AllocateID()
		tx.State.Set(id, Goal{
			ID:           id,
			Owner:        owner,
			Name:         name,
			TargetAmount: targetAmount,
			TargetDate:   targetDate,
			Locked:       true,
		})
		tx.Emit(EventCreated, id, owner, targetAmount)
		return nil
	})
	return id, err
}

// Add deposits amount into the goal and returns the new balance. Emits
// a completion event when the deposit brings the balance to or past the
// target.
func (s *Service) Add(ctx context.Context, caller core.Principal, nonce uint64, id uint32, amount int64) (int64, error) {
	const op = "add"
	var balance int64
	err := s.ledger.Mutate(ctx, op, caller, nonce, func(tx *core.Tx[Goal]) error {
		if amount <= 0 {
			return core.NewValidationError(op, caller, "amount must be positive")
		}
		goal, ok := tx.State.Get(id)
		if !ok {
			return core.NewNotFoundError(op, caller, id)
		}
		if goal.Owner != caller {
			return core.NewNotOwnerError(op, caller, id)
		}
		next, err := core.CheckedAdd(op, goal.CurrentAmount, amount)
		if err != nil {
			return err
		}
		goal.CurrentAmount = next
		tx.State.Set(id, goal)
		balance = next

		tx.Emit(EventAdded, id, goal.Owner, amount)
		if goal.Completed() {
			tx.Emit(EventCompleted, id, goal.Owner, goal.CurrentAmount)
		}
		return nil
	})
	return balance, err
}

// Withdraw removes amount from an unlocked goal and returns the new
// balance.
func (s *Service) Withdraw(ctx context.Context, caller core.Principal, nonce uint64, id uint32, amount int64) (int64, error) {
	const op = "withdraw"
	var balance int64
	err := s.ledger.Mutate(ctx, op, caller, nonce, func(tx *core.Tx[Goal]) error {
		if amount <= 0 {
			return core.NewValidationError(op, caller, "amount must be positive")
		}
		goal, ok := tx.State.Get(id)
		if !ok {
			return core.NewNotFoundError(op, caller, id)
		}
		if goal.Owner != caller {
			return core.NewNotOwnerError(op, caller, id)
		}
		if goal.Locked {
			return core.NewValidationError(op, caller, "cannot withdraw from a locked goal")
		}
		if amount > goal.CurrentAmount {
			return core.NewValidationError(op, caller, "insufficient balance")
		}
		next, err := core.CheckedSub(op, goal.CurrentAmount, amount)
		if err != nil {
			return err
		}
		goal.CurrentAmount = next
		tx.State.Set(id, goal)
		balance = next

		tx.Emit(EventWithdrawn, id, caller, amount)
		return nil
	})
	return balance, err
}

// Lock prevents withdrawals from the goal.
func (s *Service) Lock(ctx context.Context, caller core.Principal, nonce uint64, id uint32) error {
	return s.setLocked(ctx, "lock", caller, nonce, id, true, EventLocked)
}

// Unlock allows withdrawals from the goal.
func (s *Service) Unlock(ctx context.Context, caller core.Principal, nonce uint64, id uint32) error {
	return s.setLocked(ctx, "unlock", caller, nonce, id, false, EventUnlocked)
}

func (s *Service) setLocked(ctx context.Context, op string, caller core.Principal, nonce uint64, id uint32, locked bool, kind string) error {
	return s.ledger.Mutate(ctx, op, caller, nonce, func(tx *core.Tx[Goal]) error {
		goal, ok := tx.State.Get(id)
		if !ok {
			return core.NewNotFoundError(op, caller, id)
		}
		if goal.Owner != caller {
			return core.NewNotOwnerError(op, caller, id)
		}
		goal.Locked = locked
		tx.State.Set(id, goal)
		tx.Emit(kind, id, caller, 0)
		return nil
	})
}

// Get returns the goal with the given id.
func (s *Service) Get(ctx context.Context, id uint32) (Goal, bool, error) {
	var goal Goal
	var ok bool
	err := s.ledger.View(ctx, func(st *core.State[Goal]) error {
		goal, ok = st.Get(id)
		return nil
	})
	return goal, ok, err
}

// ByOwner returns all goals belonging to owner, in id order.
func (s *Service) ByOwner(ctx context.Context, owner core.Principal) ([]Goal, error) {
	var out []Goal
	err := s.ledger.View(ctx, func(st *core.State[Goal]) error {
		out = st.OwnedBy(owner, nil)
		return nil
	})
	return out, err
}

// IsCompleted reports whether the goal exists and has reached its
// target.
func (s *Service) IsCompleted(ctx context.Context, id uint32) (bool, error) {
	var completed bool
	err := s.ledger.View(ctx, func(st *core.State[Goal]) error {
		if goal, ok := st.Get(id); ok {
			completed = goal.Completed()
		}
		return nil
	})
	return completed, err
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

// Export returns a checksummed snapshot of all goals.
func (s *Service) Export(ctx context.Context, caller core.Principal) (core.Snapshot[core.RecordSet[Goal]], error) {
	return s.ledger.Export(ctx, caller)
}

// Import restores a snapshot, fully replacing the goal store.
func (s *Service) Import(ctx context.Context, caller core.Principal, nonce uint64, snap core.Snapshot[core.RecordSet[Goal]]) error {
	return s.ledger.Import(ctx, caller, nonce, snap)
}
