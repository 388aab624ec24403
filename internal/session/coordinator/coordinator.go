// Package coordinator owns the process-wide session state machine: it
// decides when the app is initialized, which navigation root applies, fans
// the authenticated identity out to the push, billing and analytics systems,
// and runs the logout cascade when credentials die.
package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stillwaterhq/stillwater/internal/session/domain"
	"github.com/stillwaterhq/stillwater/internal/session/gateway"
	"github.com/stillwaterhq/stillwater/internal/session/identity"
	"github.com/stillwaterhq/stillwater/internal/session/store"
	"github.com/stillwaterhq/stillwater/pkg/slogx"
)

const (
	// defaultReminderDelay keeps the permission prompt from competing with
	// the first screen render after login.
	defaultReminderDelay = 5 * time.Second

	// defaultMorningHour is the earliest local hour the day-one reminder
	// permission prompt may fire.
	defaultMorningHour = 9

	// cascadeTimeout bounds the background cleanup work of a logout.
	cascadeTimeout = 30 * time.Second
)

// UserFetcher fetches the principal the stored token belongs to.
type UserFetcher interface {
	CurrentUser(ctx context.Context) (domain.User, error)
}

// ReminderRegistrar issues the one-time day-one reminder registration.
type ReminderRegistrar interface {
	RegisterDayOneReminder(ctx context.Context) error
}

type Config struct {
	Tokens    store.TokenStore
	Local     store.Store
	Users     UserFetcher
	Reminders ReminderRegistrar

	Push      identity.Push
	Billing   identity.Billing
	Analytics identity.Analytics

	Logger *slog.Logger

	// Clock is injectable for the morning-hour gate. Defaults to time.Now.
	Clock func() time.Time

	ReminderDelay time.Duration // defaults to 5s
	MorningHour   int           // defaults to 9
}

// Coordinator is the single writer of session state. Everything the rest of
// the app reads comes out of Snapshot; every transition funnels through the
// derivation in the domain package.
type Coordinator struct {
	tokens    store.TokenStore
	local     store.Store
	users     UserFetcher
	reminders ReminderRegistrar

	push      identity.Push
	billing   identity.Billing
	analytics identity.Analytics

	logger        *slog.Logger
	clock         func() time.Time
	reminderDelay time.Duration
	morningHour   int

	mu            sync.Mutex
	hasToken      *bool
	firstLaunch   bool
	loading       bool
	fetchErr      error
	user          domain.User
	reminderTimer *time.Timer
	subscribers   []func(domain.Snapshot)
}

func New(cfg Config) *Coordinator {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	delay := cfg.ReminderDelay
	if delay <= 0 {
		delay = defaultReminderDelay
	}
	hour := cfg.MorningHour
	if hour <= 0 {
		hour = defaultMorningHour
	}
	return &Coordinator{
		tokens:        cfg.Tokens,
		local:         cfg.Local,
		users:         cfg.Users,
		reminders:     cfg.Reminders,
		push:          cfg.Push,
		billing:       cfg.Billing,
		analytics:     cfg.Analytics,
		logger:        slogx.Component(cfg.Logger, "coordinator"),
		clock:         clock,
		reminderDelay: delay,
		morningHour:   hour,
	}
}

// Boot resolves stored token presence and the first-launch flag
// concurrently, then runs the current-user fetch. The guarantee that the
// fetch never starts before the token check is structural: the fetch is
// gated on the token result.
func (c *Coordinator) Boot(ctx context.Context) error {
	var (
		tokenPresent bool
		firstLaunch  bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pair, err := c.tokens.Pair(gctx)
		if err != nil {
			return err
		}
		tokenPresent = !pair.IsZero()
		return nil
	})
	g.Go(func() error {
		seen, err := c.local.Flags().FirstLaunchSeen(gctx)
		if err != nil {
			return err
		}
		firstLaunch = !seen
		if !seen {
			return c.local.Flags().MarkFirstLaunch(gctx)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	present := tokenPresent
	c.hasToken = &present
	c.firstLaunch = firstLaunch
	c.mu.Unlock()
	c.publish()

	if !tokenPresent {
		return nil
	}
	return c.resolve(ctx)
}

// SetHasToken is the entry point used exclusively by the login flows, after
// they have written a fresh token pair. Passing false drops straight to the
// unauthenticated root without the remote cascade (the tokens were never
// proven bad, merely discarded).
func (c *Coordinator) SetHasToken(ctx context.Context, present bool) error {
	c.mu.Lock()
	p := present
	c.hasToken = &p
	if !present {
		c.user = domain.User{}
		c.fetchErr = nil
		c.loading = false
		c.cancelReminderLocked()
	}
	c.mu.Unlock()
	c.publish()

	if !present {
		return nil
	}
	return c.resolve(ctx)
}

// RetryResolve re-runs a failed current-user fetch, e.g. after a transient
// network failure left the session in the invalid phase.
func (c *Coordinator) RetryResolve(ctx context.Context) error {
	c.mu.Lock()
	ok := c.hasToken != nil && *c.hasToken
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return c.resolve(ctx)
}

// Logout is the explicit, user-initiated logout. It runs the same cascade
// as an authorization failure.
func (c *Coordinator) Logout(ctx context.Context) {
	c.runLogoutCascade(ctx)
}

// HandleAuthFailure is wired as the gateway's OnAuthFailure hook: any
// request proving the token pair unusable drives the logout cascade, exactly
// once. Safe to call from any goroutine.
func (c *Coordinator) HandleAuthFailure() {
	ctx, cancel := context.WithTimeout(context.Background(), cascadeTimeout)
	defer cancel()
	c.runLogoutCascade(ctx)
}

// Snapshot returns the current read-only session view.
func (c *Coordinator) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the derived tagged state, mostly for logging and tests.
func (c *Coordinator) State() domain.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.DeriveState(c.hasToken, c.loading, c.fetchErr, c.user)
}

// Subscribe registers a snapshot listener invoked after every transition.
// Listeners are called synchronously; keep them cheap.
func (c *Coordinator) Subscribe(fn func(domain.Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Close cancels any pending delayed work.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelReminderLocked()
}

// resolve runs the current-user fetch and the follow-up cascade. The fetch
// is only ever entered with hasToken == true.
func (c *Coordinator) resolve(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.fetchErr = nil
	c.mu.Unlock()
	c.publish()

	user, err := c.users.CurrentUser(ctx)
	if err != nil {
		c.mu.Lock()
		c.loading = false
		c.fetchErr = err
		c.mu.Unlock()

		if errors.Is(err, gateway.ErrAuthFailed) {
			// The sole session-ending error. The gateway already cleared the
			// pair; the cascade finishes the local and remote cleanup.
			c.runLogoutCascade(ctx)
			return err
		}
		c.logger.Warn("current-user fetch failed", "error", err)
		c.publish()
		return err
	}

	c.mu.Lock()
	c.loading = false
	c.user = user
	c.mu.Unlock()
	c.publish()

	if !user.IsZero() {
		c.runLoginCascade(ctx, user)
	}
	return nil
}

func (c *Coordinator) snapshotLocked() domain.Snapshot {
	state := domain.DeriveState(c.hasToken, c.loading, c.fetchErr, c.user)
	return domain.SnapshotOf(state, c.firstLaunch)
}

func (c *Coordinator) publish() {
	c.mu.Lock()
	snap := c.snapshotLocked()
	subs := make([]func(domain.Snapshot), len(c.subscribers))
	copy(subs, c.subscribers)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (c *Coordinator) cancelReminderLocked() {
	if c.reminderTimer != nil {
		c.reminderTimer.Stop()
		c.reminderTimer = nil
	}
}
