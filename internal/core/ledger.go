package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Storage keys within one ledger instance. The nonce table, audit log,
// record store, and id counter are exclusively owned by the instance;
// nothing is shared across instances.
const (
	keyRecords = "records"
	keyNextID  = "next_id"
	keyNonces  = "nonces"
	keyAudit   = "audit"
)

// EventImported is the event kind published after a snapshot import.
const EventImported = "imported"

// OwnerGuard validates the caller against existing state before a
// snapshot export or import. Returning a non-nil error (normally
// NOT_OWNER) rejects the call.
type OwnerGuard[R Record] func(st *State[R], caller Principal) error

// Ledger is the mutation orchestrator for one contract instance. It is
// generic over the domain record type; domain packages supply the record
// shape and per-operation validation, and the ledger supplies ownership
// gating, replay protection, the audit trail, and snapshot migration.
//
// Calls are assumed to be serialized per instance by the host
// environment (see Store); the ledger performs no internal locking.
type Ledger[R Record] struct {
	name  string
	store Store
	auth  Authorizer
	clock clockwork.Clock
	sink  EventSink
	log   *slog.Logger
	guard OwnerGuard[R]
}

// Option configures a Ledger.
type Option[R Record] func(*Ledger[R])

// WithClock supplies the time source. Defaults to the real clock; tests
// use clockwork.NewFakeClock.
func WithClock[R Record](clock clockwork.Clock) Option[R] {
	return func(l *Ledger[R]) { l.clock = clock }
}

// WithSink supplies the event sink. Defaults to NopSink.
func WithSink[R Record](sink EventSink) Option[R] {
	return func(l *Ledger[R]) { l.sink = sink }
}

// WithLogger supplies the logger. Defaults to slog.Default().
func WithLogger[R Record](log *slog.Logger) Option[R] {
	return func(l *Ledger[R]) { l.log = log }
}

// WithOwnerGuard replaces the default snapshot ownership rule. The
// default permits export to any authorized caller and rejects import
// with NOT_OWNER when any stored record belongs to someone else;
// single-owner ledgers (split configuration) restrict both to the owner.
func WithOwnerGuard[R Record](guard OwnerGuard[R]) Option[R] {
	return func(l *Ledger[R]) { l.guard = guard }
}

// New creates a ledger named name over the given store and
// authorization capability. The name doubles as the event topic.
func New[R Record](name string, store Store, auth Authorizer, opts ...Option[R]) *Ledger[R] {
	l := &Ledger[R]{
		name:  name,
		store: store,
		auth:  auth,
		clock: clockwork.NewRealClock(),
		sink:  NopSink{},
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the ledger's instance name (also its event topic).
func (l *Ledger[R]) Name() string {
	return l.name
}

// Tx is the in-memory view handed to a mutating operation's domain
// function. The function validates its invariants against State, applies
// its change, and queues events; nothing is persisted until it returns
// nil.
type Tx[R Record] struct {
	State  *State[R]
	Caller Principal
	Now    time.Time

	events []Event
}

// Emit queues an event to be published if and only if the enclosing
// mutation commits. Topic, id, and timestamp are filled at publish time.
func (tx *Tx[R]) Emit(kind string, recordID uint32, principal Principal, amount int64) {
	tx.events = append(tx.events, Event{
		Kind:      kind,
		RecordID:  recordID,
		Principal: principal,
		Amount:    amount,
	})
}

// Mutate runs one state-changing operation under the fixed protocol:
//
//  1. caller authorization (failure aborts unaudited)
//  2. replay check against the caller's expected nonce
//  3. fn: domain validation and in-memory mutation
//  4. nonce advance
//  5. persistence of records, id counter, nonce table, and the success
//     audit entry — one atomic write when the store supports batching
//  6. event emission
//
// Failures in steps 2-4 record a failed audit entry and leave the record
// store and nonce table unchanged.
func (l *Ledger[R]) Mutate(ctx context.Context, op string, caller Principal, nonce uint64, fn func(tx *Tx[R]) error) error {
	if err := l.auth.RequireAuth(ctx, caller); err != nil {
		return &Error{Code: ErrCodeUnauthorized, Message: "authorization rejected", Op: op, Principal: caller, Err: err}
	}

	nonces, err := l.loadNonces(ctx, op)
	if err != nil {
		return err
	}
	if err := nonces.require(op, caller, nonce); err != nil {
		l.auditAttempt(ctx, op, caller, false)
		return err
	}

	st, err := l.loadState(ctx, op)
	if err != nil {
		return err
	}

	tx := &Tx[R]{State: st, Caller: caller, Now: l.clock.Now()}
	if err := fn(tx); err != nil {
		l.auditAttempt(ctx, op, caller, false)
		l.log.Debug("mutation rejected", "ledger", l.name, "op", op, "principal", string(caller), "err", err)
		return err
	}

	if err := nonces.advance(op, caller); err != nil {
		l.auditAttempt(ctx, op, caller, false)
		return err
	}

	if err := l.commit(ctx, op, caller, st, nonces); err != nil {
		return err
	}
	l.extendLifetime(ctx)
	l.publish(tx.events)

	l.log.Debug("mutation committed", "ledger", l.name, "op", op, "principal", string(caller))
	return nil
}

// View runs a read-only function against the current state. Reads
// bypass the nonce guard and the audit log.
func (l *Ledger[R]) View(ctx context.Context, fn func(st *State[R]) error) error {
	st, err := l.loadState(ctx, "view")
	if err != nil {
		return err
	}
	return fn(st)
}

// Nonce returns the next nonce expected from principal; 0 for unseen
// principals. Clients query this before constructing a nonce-bearing
// call.
func (l *Ledger[R]) Nonce(ctx context.Context, principal Principal) (uint64, error) {
	nonces, err := l.loadNonces(ctx, "nonce")
	if err != nil {
		return 0, err
	}
	return nonces.expected(principal), nil
}

// Audit returns audit entries in insertion order starting at from, for
// at most min(limit, AuditCapacity) entries.
func (l *Ledger[R]) Audit(ctx context.Context, from, limit uint32) ([]AuditEntry, error) {
	log, err := l.loadAudit(ctx, "audit")
	if err != nil {
		return nil, err
	}
	return readAudit(log, from, limit), nil
}

// Export serializes the full record store as a checksummed snapshot.
// Requires authorization; single-owner ledgers additionally require the
// caller to equal the owner (see WithOwnerGuard).
func (l *Ledger[R]) Export(ctx context.Context, caller Principal) (Snapshot[RecordSet[R]], error) {
	var snap Snapshot[RecordSet[R]]
	if err := l.auth.RequireAuth(ctx, caller); err != nil {
		return snap, &Error{Code: ErrCodeUnauthorized, Message: "authorization rejected", Op: "export", Principal: caller, Err: err}
	}
	st, err := l.loadState(ctx, "export")
	if err != nil {
		return snap, err
	}
	if l.guard != nil {
		if err := l.guard(st, caller); err != nil {
			return snap, err
		}
	}
	payload := st.Export()
	snap = Snapshot[RecordSet[R]]{
		Version:  SnapshotVersion,
		Checksum: ChecksumOf(SnapshotVersion, payload),
		Payload:  payload,
	}
	return snap, nil
}

// Import validates and installs a snapshot, fully replacing the record
// store and id counter. All-or-nothing: no partial replacement is ever
// observable. Runs under the standard mutation protocol, so it is
// replay-protected and audited like any other mutating call.
func (l *Ledger[R]) Import(ctx context.Context, caller Principal, nonce uint64, snap Snapshot[RecordSet[R]]) error {
	return l.Mutate(ctx, "import", caller, nonce, func(tx *Tx[R]) error {
		if err := snap.Verify("import", caller); err != nil {
			return err
		}
		if err := l.ownerGuard(tx.State, caller); err != nil {
			return err
		}
		tx.State.Replace(snap.Payload)
		tx.Emit(EventImported, 0, caller, 0)
		return nil
	})
}

func (l *Ledger[R]) ownerGuard(st *State[R], caller Principal) error {
	if l.guard != nil {
		return l.guard(st, caller)
	}
	for id := uint32(1); id <= st.nextID; id++ {
		r, ok := st.records[id]
		if ok && r.RecordOwner() != caller {
			return &Error{
				Code:      ErrCodeNotOwner,
				Message:   "existing state belongs to another principal",
				Op:        "import",
				Principal: caller,
			}
		}
	}
	return nil
}

// commit persists the mutation's full effect: records, id counter,
// nonce table, and the success audit entry. Stores supporting SetAll
// get all four keys in one atomic write. Over a plain per-key store the
// audit entry goes last, so a partial failure can leave state written
// without its nonce advance but never a success entry for an
// uncommitted mutation.
func (l *Ledger[R]) commit(ctx context.Context, op string, caller Principal, st *State[R], nonces nonceTable) error {
	log, err := l.loadAudit(ctx, op)
	if err != nil {
		return err
	}
	log = appendAudit(log, AuditEntry{
		Operation: op,
		Caller:    caller,
		Timestamp: l.clock.Now().Unix(),
		Success:   true,
	})

	keys := []string{keyRecords, keyNextID, keyNonces, keyAudit}
	kv := make(map[string][]byte, len(keys))
	for key, in := range map[string]any{
		keyRecords: st.records,
		keyNextID:  st.nextID,
		keyNonces:  nonces,
		keyAudit:   log,
	} {
		raw, err := json.Marshal(in)
		if err != nil {
			return storageError(op, fmt.Errorf("encode %s: %w", key, err))
		}
		kv[key] = raw
	}

	if batch, ok := l.store.(BatchStore); ok {
		if err := batch.SetAll(ctx, kv); err != nil {
			return storageError(op, fmt.Errorf("commit: %w", err))
		}
		return nil
	}
	for _, key := range keys {
		if err := l.store.Set(ctx, key, kv[key]); err != nil {
			return storageError(op, fmt.Errorf("set %s: %w", key, err))
		}
	}
	return nil
}

// auditAttempt records a failed attempt, best-effort: an audit write
// failure must not mask the domain error being returned.
func (l *Ledger[R]) auditAttempt(ctx context.Context, op string, caller Principal, success bool) {
	if err := l.recordAudit(ctx, op, caller, success); err != nil {
		l.log.Warn("audit append failed", "ledger", l.name, "op", op, "err", err)
	}
}

func (l *Ledger[R]) recordAudit(ctx context.Context, op string, caller Principal, success bool) error {
	log, err := l.loadAudit(ctx, op)
	if err != nil {
		return err
	}
	log = appendAudit(log, AuditEntry{
		Operation: op,
		Caller:    caller,
		Timestamp: l.clock.Now().Unix(),
		Success:   success,
	})
	return l.saveAudit(ctx, op, log)
}

func (l *Ledger[R]) extendLifetime(ctx context.Context) {
	if err := l.store.ExtendLifetime(ctx, LifetimeThreshold, LifetimeExtension); err != nil {
		l.log.Warn("lifetime extension failed", "ledger", l.name, "err", err)
	}
}

func (l *Ledger[R]) publish(events []Event) {
	now := l.clock.Now().Unix()
	for _, ev := range events {
		ev.ID = newEventID()
		ev.Topic = l.name
		ev.At = now
		l.sink.Publish(ev)
	}
}

func (l *Ledger[R]) loadState(ctx context.Context, op string) (*State[R], error) {
	st := NewState[R]()
	if err := l.loadJSON(ctx, op, keyRecords, &st.records); err != nil {
		return nil, err
	}
	if err := l.loadJSON(ctx, op, keyNextID, &st.nextID); err != nil {
		return nil, err
	}
	if st.records == nil {
		st.records = make(map[uint32]R)
	}
	return st, nil
}

func (l *Ledger[R]) loadNonces(ctx context.Context, op string) (nonceTable, error) {
	nonces := make(nonceTable)
	if err := l.loadJSON(ctx, op, keyNonces, &nonces); err != nil {
		return nil, err
	}
	return nonces, nil
}

func (l *Ledger[R]) loadAudit(ctx context.Context, op string) ([]AuditEntry, error) {
	var log []AuditEntry
	if err := l.loadJSON(ctx, op, keyAudit, &log); err != nil {
		return nil, err
	}
	return log, nil
}

func (l *Ledger[R]) saveAudit(ctx context.Context, op string, log []AuditEntry) error {
	return l.saveJSON(ctx, op, keyAudit, log)
}

func (l *Ledger[R]) loadJSON(ctx context.Context, op, key string, out any) error {
	raw, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return storageError(op, fmt.Errorf("get %s: %w", key, err))
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return storageError(op, fmt.Errorf("decode %s: %w", key, err))
	}
	return nil
}

func (l *Ledger[R]) saveJSON(ctx context.Context, op, key string, in any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return storageError(op, fmt.Errorf("encode %s: %w", key, err))
	}
	if err := l.store.Set(ctx, key, raw); err != nil {
		return storageError(op, fmt.Errorf("set %s: %w", key, err))
	}
	return nil
}
