package core

import (
	"context"
	"time"
)

// Principal is an opaque, equality-comparable account identifier. It is
// used both as an access-control subject and as a nonce-table key.
type Principal string

// Authorizer is the external authorization capability. Given a
// principal, it either confirms the current call was authorized by that
// principal or returns an error, which aborts the whole call.
//
// Signature verification itself is out of scope for the core; callers
// plug in whatever capability their host environment provides.
type Authorizer interface {
	RequireAuth(ctx context.Context, principal Principal) error
}

// Store is the external ledger store collaborator: atomic key -> value
// persistence scoped to one contract instance. Get and Set each
// complete or fail as a whole; the store is assumed to serialize calls
// against one instance.
type Store interface {
	// Get returns the value stored under key, and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set upserts the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// ExtendLifetime bumps the instance's storage lifetime to at least
	// extension from now, if the remaining lifetime is below threshold.
	// Lifecycle mechanics belong to the store, not the core.
	ExtendLifetime(ctx context.Context, threshold, extension time.Duration) error
}

// BatchStore is an optional Store extension: SetAll upserts several
// keys as one atomic write. When the store supports it, the orchestrator
// commits records, id counter, nonce table, and audit log together, so
// a storage failure can never leave a mutation half-persisted.
type BatchStore interface {
	Store

	// SetAll upserts every key in kv, all or nothing.
	SetAll(ctx context.Context, kv map[string][]byte) error
}

// Storage lifetime parameters applied after every successful mutation.
// Roughly one day and thirty days respectively.
const (
	LifetimeThreshold = 24 * time.Hour
	LifetimeExtension = 30 * 24 * time.Hour
)
