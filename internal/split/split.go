// Package split implements the remittance-split ledger: a single
// owner-gated percentage configuration, share calculation, and
// distribution through an external token ledger.
package split

import (
	"context"

	"github.com/tsavo-labs/remit/internal/core"
)

// Event kinds published on the "split" topic.
const (
	EventInitialized = "split_initialized"
	EventUpdated     = "split_updated"
	EventDistributed = "split_distributed"
)

// configID is the single configuration record's id. The split ledger
// holds at most one record.
const configID = 1

// Default percentages reported before the split is initialized.
const (
	DefaultSpendingPercent  = 50
	DefaultSavingsPercent   = 30
	DefaultBillsPercent     = 15
	DefaultInsurancePercent = 5
)

// TokenLedger is the external token contract the distribute operation
// moves funds through. Each transfer is a nested atomic sub-call: if it
// aborts, the whole enclosing operation aborts with none of its effects
// committed.
type TokenLedger interface {
	Transfer(ctx context.Context, from, to core.Principal, amount int64) error
	Balance(ctx context.Context, principal core.Principal) (int64, error)
}

// Config is the split configuration: four percentages summing to
// exactly 100.
type Config struct {
	ID               uint32         `json:"id"`
	Owner            core.Principal `json:"owner"`
	SpendingPercent  uint32         `json:"spending_percent"`
	SavingsPercent   uint32         `json:"savings_percent"`
	BillsPercent     uint32         `json:"bills_percent"`
	InsurancePercent uint32         `json:"insurance_percent"`
}

// RecordID implements core.Record.
func (c Config) RecordID() uint32 { return c.ID }

// RecordOwner implements core.Record.
func (c Config) RecordOwner() core.Principal { return c.Owner }

// ChecksumTerms implements core.Record: the four percentages.
func (c Config) ChecksumTerms() []uint64 {
	return []uint64{
		uint64(c.SpendingPercent),
		uint64(c.SavingsPercent),
		uint64(c.BillsPercent),
		uint64(c.InsurancePercent),
	}
}

// Percentages is the four-way split, in category order.
type Percentages struct {
	Spending  uint32 `json:"spending"`
	Savings   uint32 `json:"savings"`
	Bills     uint32 `json:"bills"`
	Insurance uint32 `json:"insurance"`
}

// Shares is the result of applying Percentages to a total amount. The
// first three shares are floored; insurance absorbs the rounding
// remainder so the four always sum exactly to the total.
type Shares struct {
	Spending  int64 `json:"spending"`
	Savings   int64 `json:"savings"`
	Bills     int64 `json:"bills"`
	Insurance int64 `json:"insurance"`
}

// Allocation is one category's share, for reporting.
type Allocation struct {
	Category string `json:"category"`
	Amount   int64  `json:"amount"`
}

// Accounts names the destination principal for each category.
type Accounts struct {
	Spending  core.Principal `json:"spending"`
	Savings   core.Principal `json:"savings"`
	Bills     core.Principal `json:"bills"`
	Insurance core.Principal `json:"insurance"`
}

// Service exposes the remittance-split operations over one ledger
// instance.
type Service struct {
	ledger *core.Ledger[Config]
}

// New creates a split service over the given store and authorization
// capability. Snapshot export and import are restricted to the
// configuration's owner.
func New(store core.Store, auth core.Authorizer, opts ...core.Option[Config]) *Service {
	opts = append([]core.Option[Config]{core.WithOwnerGuard[Config](ownerGuard)}, opts...)
	return &Service{ledger: core.New[Config]("split", store, auth, opts...)}
}

// ownerGuard restricts snapshot operations to the configured owner. An
// uninitialized split has no owner and admits any authorized caller.
func ownerGuard(st *core.State[Config], caller core.Principal) error {
	cfg, ok := st.Get(configID)
	if ok && cfg.Owner != caller {
		return core.NewNotOwnerError("snapshot", caller, configID)
	}
	return nil
}

// Initialize creates the split configuration. Fails if one already
// exists or if the percentages do not sum to exactly 100.
func (s *Service) Initialize(ctx context.Context, owner core.Principal, nonce uint64, p Percentages) error {
	const op = "initialize"
	return s.ledger.Mutate(ctx, op, owner, nonce, func(tx *core.Tx[Config]) error {
		if _, ok := tx.State.Get(configID); ok {
			return core.NewValidationError(op, owner, "split already initialized; use update instead")
		}
		if err := validatePercentages(op, owner, p); err != nil {
			return err
		}
		id := tx.State.AllocateID()
		tx.State.Set(id, Config{
			ID:               id,
			Owner:            owner,
			SpendingPercent:  p.Spending,
			SavingsPercent:   p.Savings,
			BillsPercent:     p.Bills,
			InsurancePercent: p.Insurance,
		})
		tx.Emit(EventInitialized, id, owner, 0)
		return nil
	})
}

// Update replaces the percentages of an existing configuration. Only
// the owner may update; the owner itself is immutable.
func (s *Service) Update(ctx context.Context, caller core.Principal, nonce uint64, p Percentages) error {
	const op = "update"
	return s.ledger.Mutate(ctx, op, caller, nonce, func(tx *core.Tx[Config]) error {
		cfg, ok := tx.State.Get(configID)
		if !ok {
			return core.NewValidationError(op, caller, "split not initialized")
		}
		if cfg.Owner != caller {
			return core.NewNotOwnerError(op, caller, configID)
		}
		if err := validatePercentages(op, caller, p); err != nil {
			return err
		}
		cfg.SpendingPercent = p.Spending
		cfg.SavingsPercent = p.Savings
		cfg.BillsPercent = p.Bills
		cfg.InsurancePercent = p.Insurance
		tx.State.Set(configID, cfg)
		tx.Emit(EventUpdated, configID, caller, 0)
		return nil
	})
}

func validatePercentages(op string, caller core.Principal, p Percentages) error {
	// Summed in uint64: a uint32 sum wraps, letting tuples that sum to
	// 100 mod 2^32 slip through.
	sum := uint64(p.Spending) + uint64(p.Savings) + uint64(p.Bills) + uint64(p.Insurance)
	if sum != 100 {
		return core.NewValidationError(op, caller, "percentages must sum to 100")
	}
	return nil
}

// Config returns the current configuration, if initialized.
func (s *Service) Config(ctx context.Context) (Config, bool, error) {
	var cfg Config
	var ok bool
	err := s.ledger.View(ctx, func(st *core.State[Config]) error {
		cfg, ok = st.Get(configID)
		return nil
	})
	return cfg, ok, err
}

// Percentages returns the configured split, or the default
// 50/30/15/5 when uninitialized.
func (s *Service) Percentages(ctx context.Context) (Percentages, error) {
	var p Percentages
	err := s.ledger.View(ctx, func(st *core.State[Config]) error {
		p = percentagesFrom(st)
		return nil
	})
	return p, err
}

func percentagesFrom(st *core.State[Config]) Percentages {
	cfg, ok := st.Get(configID)
	if !ok {
		return Percentages{
			Spending:  DefaultSpendingPercent,
			Savings:   DefaultSavingsPercent,
			Bills:     DefaultBillsPercent,
			Insurance: DefaultInsurancePercent,
		}
	}
	return Percentages{
		Spending:  cfg.SpendingPercent,
		Savings:   cfg.SavingsPercent,
		Bills:     cfg.BillsPercent,
		Insurance: cfg.InsurancePercent,
	}
}

// Calculate splits total across the four categories. Spending, savings,
// and bills are floor(total*percent/100) under checked arithmetic;
// insurance receives total minus the other three, so the shares always
// sum exactly to total.
func (s *Service) Calculate(ctx context.Context, total int64) (Shares, error) {
	const op = "calculate"
	if total <= 0 {
		return Shares{}, core.NewValidationError(op, "", "total amount must be positive")
	}
	p, err := s.Percentages(ctx)
	if err != nil {
		return Shares{}, err
	}
	return calculate(op, total, p)
}

func calculate(op string, total int64, p Percentages) (Shares, error) {
	spending, err := core.PercentOf(op, total, p.Spending)
	if err != nil {
		return Shares{}, err
	}
	savings, err := core.PercentOf(op, total, p.Savings)
	if err != nil {
		return Shares{}, err
	}
	bills, err := core.PercentOf(op, total, p.Bills)
	if err != nil {
		return Shares{}, err
	}
	return Shares{
		Spending:  spending,
		Savings:   savings,
		Bills:     bills,
		Insurance: total - spending - savings - bills,
	}, nil
}

// Allocations reports the split of total by category name.
func (s *Service) Allocations(ctx context.Context, total int64) ([]Allocation, error) {
	shares, err := s.Calculate(ctx, total)
	if err != nil {
		return nil, err
	}
	return []Allocation{
		{Category: "spending", Amount: shares.Spending},
		{Category: "savings", Amount: shares.Savings},
		{Category: "bills", Amount: shares.Bills},
		{Category: "insurance", Amount: shares.Insurance},
	}, nil
}

// Distribute moves total from the caller through the token ledger
// according to the configured split. Zero shares are skipped. Transfers
// are nested atomic sub-calls: any abort fails the whole operation, and
// neither the nonce advance nor a successful audit entry is committed.
func (s *Service) Distribute(ctx context.Context, token TokenLedger, caller core.Principal, nonce uint64, accounts Accounts, total int64) (Shares, error) {
	const op = "distribute"
	var shares Shares
	err := s.ledger.Mutate(ctx, op, caller, nonce, func(tx *core.Tx[Config]) error {
		if total <= 0 {
			return core.NewValidationError(op, caller, "total amount must be positive")
		}
		var err error
		shares, err = calculate(op, total, percentagesFrom(tx.State))
		if err != nil {
			return err
		}
		transfers := []struct {
			to     core.Principal
			amount int64
		}{
			{accounts.Spending, shares.Spending},
			{accounts.Savings, shares.Savings},
			{accounts.Bills, shares.Bills},
			{accounts.Insurance, shares.Insurance},
		}
		for _, tr := range transfers {
			if tr.amount == 0 {
				continue
			}
			if err := token.Transfer(ctx, caller, tr.to, tr.amount); err != nil {
				return &core.Error{
					Code:      core.ErrCodeValidation,
					Message:   "token transfer aborted",
					Op:        op,
					Principal: caller,
					Err:       err,
				}
			}
		}
		tx.Emit(EventDistributed, configID, caller, total)
		return nil
	})
	return shares, err
}

// Balance reports a principal's balance on the token ledger.
func (s *Service) Balance(ctx context.Context, token TokenLedger, principal core.Principal) (int64, error) {
	return token.Balance(ctx, principal)
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

// Export returns a checksummed snapshot of the configuration. Only the
// configured owner may export.
func (s *Service) Export(ctx context.Context, caller core.Principal) (core.Snapshot[core.RecordSet[Config]], error) {
	return s.ledger.Export(ctx, caller)
}

// Import restores a snapshot, fully replacing the configuration. Only
// the configured owner may import over existing state.
func (s *Service) Import(ctx context.Context, caller core.Principal, nonce uint64, snap core.Snapshot[core.RecordSet[Config]]) error {
	return s.ledger.Import(ctx, caller, nonce, snap)
}
