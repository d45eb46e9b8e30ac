package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"
)

const lockKey = "saudemental_lock"

// lockDocument marks a maintenance window during which writes are refused.
type lockDocument struct {
	Locked    bool      `json:"locked"`
	LockedAt  time.Time `json:"lockedAt"`
	LockedBy  string    `json:"lockedBy"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Locker provides store-wide locking for maintenance operations such as
// seeding default collections.
type Locker struct {
	bucket *gocb.Bucket
	locked bool
}

// NewLocker creates a new locker for the given bucket
func NewLocker(bucket *gocb.Bucket) *Locker {
	return &Locker{
		bucket: bucket,
		locked: false,
	}
}

// Lock locks the store for exclusive access
func (l *Locker) Lock(ctx context.Context, holder string) error {
	if l.locked {
		return fmt.Errorf("store is already locked")
	}

	lockDoc := lockDocument{
		Locked:    true,
		LockedAt:  time.Now().UTC(),
		LockedBy:  holder,
		ExpiresAt: time.Now().UTC().Add(1 * time.Hour), // Lock expires in 1 hour
	}

	col := l.bucket.DefaultCollection()

	_, err := col.Upsert(lockKey, lockDoc, &gocb.UpsertOptions{})
	if err != nil {
		return fmt.Errorf("failed to create lock document: %w", err)
	}

	l.locked = true
	log.Info().Str("holder", holder).Msg("Store locked successfully")
	return nil
}

// Holds reports whether this process is the lock holder
func (l *Locker) Holds() bool {
	return l.locked
}

// Unlock unlocks the store
func (l *Locker) Unlock(ctx context.Context) error {
	if !l.locked {
		return fmt.Errorf("store is not locked")
	}

	col := l.bucket.DefaultCollection()

	_, err := col.Remove(lockKey, &gocb.RemoveOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove lock document: %w", err)
	}

	l.locked = false
	log.Info().Msg("Store unlocked successfully")
	return nil
}

// CheckLock checks the actual lock status in the store, clearing the
// lock document if it has expired.
func (l *Locker) CheckLock(ctx context.Context) (bool, error) {
	col := l.bucket.DefaultCollection()

	res, err := col.Get(lockKey, &gocb.GetOptions{})
	if err != nil {
		if errors.Is(err, gocb.ErrDocumentNotFound) {
			return false, nil // No lock document found
		}
		return false, fmt.Errorf("failed to check lock status: %w", err)
	}

	var lockDoc lockDocument
	if err := res.Content(&lockDoc); err != nil {
		return false, fmt.Errorf("failed to parse lock document: %w", err)
	}

	// Check if lock has expired
	if time.Now().UTC().After(lockDoc.ExpiresAt) {
		col.Remove(lockKey, &gocb.RemoveOptions{})
		return false, nil
	}

	return lockDoc.Locked, nil
}
