package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Bucket is the key/value view of one ledger instance. It implements
// core.Store: atomic get/set plus the storage-lifetime hook.
type Bucket struct {
	store    *Store
	instance string
}

// Get returns the value stored under key within this instance.
func (b *Bucket) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := b.store.db.QueryRowContext(ctx, `
		SELECT value FROM kv WHERE instance = ? AND key = ?
	`, b.instance, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%s: %w", b.instance, key, err)
	}
	return value, true, nil
}

// Set upserts the value stored under key within this instance.
func (b *Bucket) Set(ctx context.Context, key string, value []byte) error {
	_, err := b.store.db.ExecContext(ctx, `
		INSERT INTO kv (instance, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT(instance, key) DO UPDATE SET value = excluded.value
	`, b.instance, key, value)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", b.instance, key, err)
	}
	return nil
}

// SetAll upserts every key in kv within one transaction, implementing
// core.BatchStore. Either all keys are written or none are.
func (b *Bucket) SetAll(ctx context.Context, kv map[string][]byte) error {
	tx, err := b.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set all %s: begin: %w", b.instance, err)
	}
	defer tx.Rollback()

	for key, value := range kv {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO kv (instance, key, value)
			VALUES (?, ?, ?)
			ON CONFLICT(instance, key) DO UPDATE SET value = excluded.value
		`, b.instance, key, value); err != nil {
			return fmt.Errorf("set all %s/%s: %w", b.instance, key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set all %s: commit: %w", b.instance, err)
	}
	return nil
}

// ExtendLifetime bumps the instance's expiry to now+extension when the
// remaining lifetime is below threshold. Unknown instances get an entry
// on first call.
func (b *Bucket) ExtendLifetime(ctx context.Context, threshold, extension time.Duration) error {
	now := b.store.clock.Now()

	var expiresAt int64
	err := b.store.db.QueryRowContext(ctx, `
		SELECT expires_at FROM lifetimes WHERE instance = ?
	`, b.instance).Scan(&expiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		expiresAt = 0
	case err != nil:
		return fmt.Errorf("lifetime %s: %w", b.instance, err)
	}

	if remaining := expiresAt - now.Unix(); remaining >= int64(threshold/time.Second) {
		return nil
	}

	_, err = b.store.db.ExecContext(ctx, `
		INSERT INTO lifetimes (instance, expires_at)
		VALUES (?, ?)
		ON CONFLICT(instance) DO UPDATE SET expires_at = excluded.expires_at
	`, b.instance, now.Add(extension).Unix())
	if err != nil {
		return fmt.Errorf("extend lifetime %s: %w", b.instance, err)
	}
	return nil
}

// ExpiresAt returns the instance's current expiry, or zero time when no
// lifetime has been recorded yet.
func (b *Bucket) ExpiresAt(ctx context.Context) (time.Time, error) {
	var expiresAt int64
	err := b.store.db.QueryRowContext(ctx, `
		SELECT expires_at FROM lifetimes WHERE instance = ?
	`, b.instance).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("lifetime %s: %w", b.instance, err)
	}
	return time.Unix(expiresAt, 0), nil
}
