// Package store defines the persistence contracts of the session core: the
// secure token store holding the credential pair, and the local store for
// one-time flags and identity sync records. Concrete drivers live under
// drivers/.
package store

import (
	"context"
	"errors"

	"github.com/stillwaterhq/stillwater/internal/session/domain"
)

var (
	ErrNotFound = errors.New("store: not found")
)

// TokenStore is the secure credential storage contract. Implementations must
// persist the pair atomically: a reader never observes one field of a pair
// without the other, and SetPair followed by Pair returns the new pair or
// the old one, never a mix.
//
// Writers are restricted by convention: login/registration/social-auth write
// a fresh pair, a successful refresh overwrites it, and the logout cascade
// or an unrecoverable auth failure clears it. Nothing else may touch it.
type TokenStore interface {
	// Pair returns the stored pair, or the zero pair when nothing is stored.
	Pair(ctx context.Context) (domain.TokenPair, error)

	// SetPair persists both tokens in one atomic write.
	SetPair(ctx context.Context, pair domain.TokenPair) error

	// Clear deletes the stored pair. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}

// Store is the root local-state access interface. It exposes sub-repositories
// to keep concerns tidy and testable, mirroring how the rest of the app's
// stores are shaped.
type Store interface {
	Flags() Flags
	SyncRecords() SyncRecords

	ApplyMigrations() error

	// WithTx executes fn within a transaction, rolling back when fn errors
	// and committing otherwise. The logout cascade uses it so flag and
	// record cleanup land together.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store scope.
type Tx interface {
	Flags() Flags
	SyncRecords() SyncRecords
	Commit() error
	Rollback() error
}

// Flags holds the one-time markers that must survive process restarts.
type Flags interface {
	// FirstLaunchSeen reports whether the app has launched before on this
	// device. The marker is set once and never cleared.
	FirstLaunchSeen(ctx context.Context) (bool, error)

	// MarkFirstLaunch records that the first launch happened.
	MarkFirstLaunch(ctx context.Context) error

	// ReminderRequested reports whether the one-time day-one reminder was
	// already requested for the account.
	ReminderRequested(ctx context.Context, accountID string) (bool, error)

	// MarkReminderRequested sets the one-time flag for the account. Once set
	// it is cleared only by ClearReminderRequested during the logout cascade.
	MarkReminderRequested(ctx context.Context, accountID string) error

	// ClearReminderRequested removes the flag for the account.
	ClearReminderRequested(ctx context.Context, accountID string) error
}

// SyncRecords tracks which external systems were already told about an
// account from this device.
type SyncRecords interface {
	// Get returns the record for a system+account, or ErrNotFound.
	Get(ctx context.Context, system, accountID string) (domain.SyncRecord, error)

	// MarkIdentified records that the system was identified for the account.
	// Marking an already-marked pair is a no-op.
	MarkIdentified(ctx context.Context, system, accountID string) error

	// ClearAccount removes all records for the account (logout cascade).
	ClearAccount(ctx context.Context, accountID string) error
}
