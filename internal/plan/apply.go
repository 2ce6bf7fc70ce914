package plan

import (
	"context"
	"fmt"

	"github.com/tsavo-labs/remit/internal/bills"
	"github.com/tsavo-labs/remit/internal/goals"
	"github.com/tsavo-labs/remit/internal/insurance"
	"github.com/tsavo-labs/remit/internal/split"
)

// Services bundles the ledgers a plan can seed.
type Services struct {
	Split     *split.Service
	Goals     *goals.Service
	Bills     *bills.Service
	Insurance *insurance.Service
}

// Summary reports what an apply created or changed.
type Summary struct {
	SplitConfigured bool     `json:"split_configured"`
	GoalIDs         []uint32 `json:"goal_ids,omitempty"`
	BillIDs         []uint32 `json:"bill_ids,omitempty"`
	PolicyIDs       []uint32 `json:"policy_ids,omitempty"`
}

// Apply seeds the ledgers from a plan. Each record is created through
// the owning service's normal mutation path, fetching the owner's
// current nonce per ledger before every call. Apply is not atomic
// across ledgers: a failure leaves earlier sections applied.
func Apply(ctx context.Context, svc Services, p *Plan) (Summary, error) {
	var sum Summary

	if p.Split != nil {
		pct := split.Percentages{
			Spending:  p.Split.Spending,
			Savings:   p.Split.Savings,
			Bills:     p.Split.Bills,
			Insurance: p.Split.Insurance,
		}
		nonce, err := svc.Split.Nonce(ctx, p.Owner)
		if err != nil {
			return sum, fmt.Errorf("plan split: %w", err)
		}
		if _, ok, err := svc.Split.Config(ctx); err != nil {
			return sum, fmt.Errorf("plan split: %w", err)
		} else if ok {
			err = svc.Split.Update(ctx, p.Owner, nonce, pct)
			if err != nil {
				return sum, fmt.Errorf("plan split: %w", err)
			}
		} else if err := svc.Split.Initialize(ctx, p.Owner, nonce, pct); err != nil {
			return sum, fmt.Errorf("plan split: %w", err)
		}
		sum.SplitConfigured = true
	}

	for _, g := range p.Goals {
		nonce, err := svc.Goals.Nonce(ctx, p.Owner)
		if err != nil {
			return sum, fmt.Errorf("plan goal %q: %w", g.Name, err)
		}
		id, err := svc.Goals.Create(ctx, p.Owner, nonce, g.Name, g.TargetAmount, g.TargetDate)
		if err != nil {
			return sum, fmt.Errorf("plan goal %q: %w", g.Name, err)
		}
		sum.GoalIDs = append(sum.GoalIDs, id)
	}

	for _, b := range p.Bills {
		nonce, err := svc.Bills.Nonce(ctx, p.Owner)
		if err != nil {
			return sum, fmt.Errorf("plan bill %q: %w", b.Name, err)
		}
		id, err := svc.Bills.Create(ctx, p.Owner, nonce, b.Name, b.Amount, b.DueDate, b.Recurring, uint32(b.FrequencyDays))
		if err != nil {
			return sum, fmt.Errorf("plan bill %q: %w", b.Name, err)
		}
		sum.BillIDs = append(sum.BillIDs, id)
	}

	for _, pol := range p.Policies {
		nonce, err := svc.Insurance.Nonce(ctx, p.Owner)
		if err != nil {
			return sum, fmt.Errorf("plan policy %q: %w", pol.Name, err)
		}
		id, err := svc.Insurance.Create(ctx, p.Owner, nonce, pol.Name, pol.CoverageType, pol.MonthlyPremium, pol.CoverageAmount)
		if err != nil {
			return sum, fmt.Errorf("plan policy %q: %w", pol.Name, err)
		}
		sum.PolicyIDs = append(sum.PolicyIDs, id)
	}

	return sum, nil
}
