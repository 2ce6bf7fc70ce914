// Package insurance implements the insurance-policy ledger: owner-gated
// policies with monthly premium tracking.
package insurance

import (
	"context"

	"github.com/tsavo-labs/remit/internal/core"
)

// Event kinds published on the "insurance" topic.
const (
	EventCreated     = "policy_created"
	EventPremiumPaid = "premium_paid"
	EventDeactivated = "policy_deactivated"
)

// premiumPeriod is the seconds between premium payments (30 days).
const premiumPeriod = 30 * 86_400

// Policy is one insurance policy.
type Policy struct {
	ID              uint32         `json:"id"`
	Owner           core.Principal `json:"owner"`
	Name            string         `json:"name"`
	CoverageType    string         `json:"coverage_type"`
	MonthlyPremium  int64          `json:"monthly_premium"`
	CoverageAmount  int64          `json:"coverage_amount"`
	Active          bool           `json:"active"`
	NextPaymentDate int64          `json:"next_payment_date"`
}

// RecordID implements core.Record.
func (p Policy) RecordID() uint32 { return p.ID }

// RecordOwner implements core.Record.
func (p Policy) RecordOwner() core.Principal { return p.Owner }

// ChecksumTerms implements core.Record: id, premium, coverage, next
// payment date.
func (p Policy) ChecksumTerms() []uint64 {
	return []uint64{uint64(p.ID), uint64(p.MonthlyPremium), uint64(p.CoverageAmount), uint64(p.NextPaymentDate)}
}

// Service exposes the insurance operations over one ledger instance.
type Service struct {
	ledger *core.Ledger[Policy]
}

// New creates an insurance service over the given store and
// authorization capability.
func New(store core.Store, auth core.Authorizer, opts ...core.Option[Policy]) *Service {
	return &Service{ledger: core.New[Policy]("insurance", store, auth, opts...)}
}

// Create adds a new active policy owned by owner and returns its id.
// Premium and coverage must be strictly positive. The first payment
// falls due one period from now.
func (s *Service) Create(ctx context.Context, owner core.Principal, nonce uint64, name, coverageType string, monthlyPremium, coverageAmount int64) (uint32, error) {
	const op = "create"
	var id uint32
	err := s.ledger.Mutate(ctx, op, owner, nonce, func(tx *core.Tx[Policy]) error {
		if monthlyPremium <= 0 {
			return core.NewValidationError(op, owner, "monthly premium must be positive")
		}
		if coverageAmount <= 0 {
			return core.NewValidationError(op, owner, "coverage amount must be positive")
		}
		id = tx.State.AllocateID()
		tx.State.Set(id, Policy{
			ID:              id,
			Owner:           owner,
			Name:            name,
			CoverageType:    coverageType,
			MonthlyPremium:  monthlyPremium,
			CoverageAmount:  coverageAmount,
			Active:          true,
			NextPaymentDate: tx.Now.Unix() + premiumPeriod,
		})
		tx.Emit(EventCreated, id, owner, coverageAmount)
		return nil
	})
	return id, err
}

// PayPremium records a premium payment for an active policy and pushes
// the next payment date one period out from now. Returns the new due
// date.
func (s *Service) PayPremium(ctx context.Context, caller core.Principal, nonce uint64, id uint32) (int64, error) {
	const op = "pay_premium"
	var due int64
	err := s.ledger.Mutate(ctx, op, caller, nonce, func(tx *core.Tx[Policy]) error {
		policy, ok := tx.State.Get(id)
		if !ok {
			return core.NewNotFoundError(op, caller, id)
		}
		if policy.Owner != caller {
			return core.NewNotOwnerError(op, caller, id)
		}
		if !policy.Active {
			return core.NewValidationError(op, caller, "policy is not active")
		}
		policy.NextPaymentDate = tx.Now.Unix() + premiumPeriod
		tx.State.Set(id, policy)
		due = policy.NextPaymentDate

		tx.Emit(EventPremiumPaid, id, caller, policy.MonthlyPremium)
		return nil
	})
	return due, err
}

// Deactivate marks the policy inactive. Inactive policies keep their
// record (ids are never reused) but reject premium payments and drop
// out of Active listings.
func (s *Service) Deactivate(ctx context.Context, caller core.Principal, nonce uint64, id uint32) error {
	const op = "deactivate"
	return s.ledger.Mutate(ctx, op, caller, nonce, func(tx *core.Tx[Policy]) error {
		policy, ok := tx.State.Get(id)
		if !ok {
			return core.NewNotFoundError(op, caller, id)
		}
		if policy.Owner != caller {
			return core.NewNotOwnerError(op, caller, id)
		}
		policy.Active = false
		tx.State.Set(id, policy)

		tx.Emit(EventDeactivated, id, caller, 0)
		return nil
	})
}

// Get returns the policy with the given id.
func (s *Service) Get(ctx context.Context, id uint32) (Policy, bool, error) {
	var policy Policy
	var ok bool
	err := s.ledger.View(ctx, func(st *core.State[Policy]) error {
		policy, ok = st.Get(id)
		return nil
	})
	return policy, ok, err
}

// Active returns owner's active policies, in id order.
func (s *Service) Active(ctx context.Context, owner core.Principal) ([]Policy, error) {
	var out []Policy
	err := s.ledger.View(ctx, func(st *core.State[Policy]) error {
		out = st.OwnedBy(owner, func(p Policy) bool { return p.Active })
		return nil
	})
	return out, err
}

// TotalMonthlyPremium returns the checked sum of owner's active
// premiums.
func (s *Service) TotalMonthlyPremium(ctx context.Context, owner core.Principal) (int64, error) {
	active, err := s.Active(ctx, owner)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, p := range active {
		total, err = core.CheckedAdd("total_premium", total, p.MonthlyPremium)
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

// Export returns a checksummed snapshot of all policies.
func (s *Service) Export(ctx context.Context, caller core.Principal) (core.Snapshot[core.RecordSet[Policy]], error) {
	return s.ledger.Export(ctx, caller)
}

// Import restores a snapshot, fully replacing the policy store.
func (s *Service) Import(ctx context.Context, caller core.Principal, nonce uint64, snap core.Snapshot[core.RecordSet[Policy]]) error {
	return s.ledger.Import(ctx, caller, nonce, snap)
}
