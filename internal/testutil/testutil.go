// Package testutil provides in-memory collaborator implementations for
// ledger tests: a map-backed store, a static authorizer, an event
// recorder, and a fake token ledger.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tsavo-labs/remit/internal/core"
)

// MemStore is a map-backed core.Store. It also counts lifetime
// extensions so tests can assert the lifecycle hook fired.
type MemStore struct {
	mu       sync.Mutex
	values   map[string][]byte
	Extended int
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string][]byte)}
}

// Get implements core.Store.
func (s *MemStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

// Set implements core.Store.
func (s *MemStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.values[key] = cp
	return nil
}

// SetAll implements core.BatchStore: all keys land or none do.
func (s *MemStore) SetAll(_ context.Context, kv map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range kv {
		cp := make([]byte, len(value))
		copy(cp, value)
		s.values[key] = cp
	}
	return nil
}

// ExtendLifetime implements core.Store.
func (s *MemStore) ExtendLifetime(context.Context, time.Duration, time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Extended++
	return nil
}

// Auth is a core.Authorizer that admits a fixed set of principals.
type Auth struct {
	allowed map[core.Principal]bool
}

// NewAuth returns an authorizer admitting exactly the given principals.
func NewAuth(principals ...core.Principal) *Auth {
	a := &Auth{allowed: make(map[core.Principal]bool, len(principals))}
	for _, p := range principals {
		a.allowed[p] = true
	}
	return a
}

// RequireAuth implements core.Authorizer.
func (a *Auth) RequireAuth(_ context.Context, principal core.Principal) error {
	if !a.allowed[principal] {
		return fmt.Errorf("principal %s not authorized", principal)
	}
	return nil
}

// AllowAll is a core.Authorizer that admits every principal.
type AllowAll struct{}

// RequireAuth implements core.Authorizer.
func (AllowAll) RequireAuth(context.Context, core.Principal) error { return nil }

// Recorder is a core.EventSink that retains every published event.
type Recorder struct {
	mu     sync.Mutex
	events []core.Event
}

// Publish implements core.EventSink.
func (r *Recorder) Publish(ev core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events in publish order.
func (r *Recorder) Events() []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the recorded event kinds in publish order.
func (r *Recorder) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]string, len(r.events))
	for i, ev := range r.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

// TokenBank is a fake external token ledger with per-principal
// balances. Transfers abort on insufficient funds, which lets tests
// exercise nested sub-call aborts.
type TokenBank struct {
	mu       sync.Mutex
	balances map[core.Principal]int64
}

// NewTokenBank returns an empty bank.
func NewTokenBank() *TokenBank {
	return &TokenBank{balances: make(map[core.Principal]int64)}
}

// Mint credits amount to principal.
func (b *TokenBank) Mint(principal core.Principal, amount int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[principal] += amount
}

// Transfer moves amount from one principal to another.
func (b *TokenBank) Transfer(_ context.Context, from, to core.Principal, amount int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.balances[from] < amount {
		return fmt.Errorf("insufficient balance: %s has %d, needs %d", from, b.balances[from], amount)
	}
	b.balances[from] -= amount
	b.balances[to] += amount
	return nil
}

// Balance returns principal's current balance.
func (b *TokenBank) Balance(_ context.Context, principal core.Principal) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[principal], nil
}
