package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/stillwaterhq/stillwater/internal/session/domain"
	"github.com/stillwaterhq/stillwater/internal/session/identity"
	"github.com/stillwaterhq/stillwater/internal/session/store"
)

// Analytics event names.
const (
	eventLogin  = "session_login"
	eventLogout = "session_logout"
)

// runLoginCascade tells every external system who the session belongs to.
// Each system is guarded by its persisted sync record so re-resolving the
// same account on a later launch does not re-identify it. Collaborator
// failures are logged and swallowed; the record is only written on success
// so the next launch retries. Once all tasks settle, the day-one reminder
// timer is armed.
func (c *Coordinator) runLoginCascade(ctx context.Context, user domain.User) {
	tasks := make([]identity.Task, 0, 3)

	if pending, err := c.syncPending(ctx, domain.SystemPush, user.ID); err == nil && pending {
		tasks = append(tasks, identity.Task{
			Name: domain.SystemPush,
			Run: func(ctx context.Context) error {
				if err := c.push.Login(ctx, user.ID, user.Email); err != nil {
					return err
				}
				return c.markSynced(ctx, domain.SystemPush, user.ID)
			},
		})
	}

	if pending, err := c.syncPending(ctx, domain.SystemBilling, user.ID); err == nil && pending {
		tasks = append(tasks, identity.Task{
			Name: domain.SystemBilling,
			Run: func(ctx context.Context) error {
				if err := c.billing.SetUserID(ctx, user.ID); err != nil {
					return err
				}
				return c.markSynced(ctx, domain.SystemBilling, user.ID)
			},
		})
	}

	if pending, err := c.syncPending(ctx, domain.SystemAnalytics, user.ID); err == nil && pending {
		tasks = append(tasks, identity.Task{
			Name: domain.SystemAnalytics,
			Run: func(ctx context.Context) error {
				if err := c.analytics.Identify(ctx, user.ID); err != nil {
					return err
				}
				if err := c.markSynced(ctx, domain.SystemAnalytics, user.ID); err != nil {
					return err
				}
				return c.analytics.Track(ctx, eventLogin, map[string]any{"user_id": user.ID})
			},
		})
	}

	identity.RunAll(ctx, c.logger, tasks)
	c.armReminder(user)
}

// armReminder schedules the one-shot day-one reminder check. An existing
// timer from a previous identity is cancelled first.
func (c *Coordinator) armReminder(user domain.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelReminderLocked()
	c.reminderTimer = time.AfterFunc(c.reminderDelay, func() {
		c.maybeRequestReminder(user)
	})
}

// maybeRequestReminder evaluates the reminder gates in order and, only if
// all pass and the user grants notification permission, registers the
// day-one reminder and persists the flag. A failed registration leaves the
// flag unset so a later launch can try again.
func (c *Coordinator) maybeRequestReminder(user domain.User) {
	ctx, cancel := context.WithTimeout(context.Background(), cascadeTimeout)
	defer cancel()

	if !c.push.Initialized() {
		c.logger.Debug("reminder skipped, push sdk not initialized")
		return
	}
	if c.clock().Hour() < c.morningHour {
		c.logger.Debug("reminder skipped, before morning hour", "hour", c.clock().Hour())
		return
	}
	requested, err := c.local.Flags().ReminderRequested(ctx, user.ID)
	if err != nil {
		c.logger.Warn("reminder flag read failed", "error", err)
		return
	}
	if requested {
		return
	}

	granted, err := c.push.RequestPermission(ctx, false)
	if err != nil {
		c.logger.Warn("notification permission prompt failed", "error", err)
		return
	}
	if !granted {
		c.logger.Info("notification permission declined")
		return
	}

	if err := c.reminders.RegisterDayOneReminder(ctx); err != nil {
		c.logger.Warn("day-one reminder registration failed", "error", err)
		return
	}
	if err := c.local.Flags().MarkReminderRequested(ctx, user.ID); err != nil {
		c.logger.Warn("reminder flag write failed", "error", err)
		return
	}
	c.logger.Info("day-one reminder registered", "user_id", user.ID)
}

// runLogoutCascade tears the session down: tokens, local per-account state,
// pending timers, and the external systems, in that order. It is idempotent
// so the gateway hook and an explicit logout landing together only run it
// once.
func (c *Coordinator) runLogoutCascade(ctx context.Context) {
	c.mu.Lock()
	if c.hasToken != nil && !*c.hasToken && c.user.IsZero() {
		c.mu.Unlock()
		return
	}
	accountID := c.user.ID
	f := false
	c.hasToken = &f
	c.user = domain.User{}
	c.loading = false
	c.fetchErr = nil
	c.cancelReminderLocked()
	c.mu.Unlock()
	c.publish()

	if err := c.tokens.Clear(ctx); err != nil {
		c.logger.Warn("token clear failed", "error", err)
	}

	if accountID != "" {
		err := c.local.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Flags().ClearReminderRequested(ctx, accountID); err != nil {
				return err
			}
			return tx.SyncRecords().ClearAccount(ctx, accountID)
		})
		if err != nil {
			c.logger.Warn("local session state clear failed", "error", err)
		}
	}

	identity.RunAll(ctx, c.logger, []identity.Task{
		{Name: domain.SystemPush, Run: c.push.Logout},
		{Name: domain.SystemBilling, Run: c.billing.LogOut},
		{Name: domain.SystemAnalytics, Run: func(ctx context.Context) error {
			if err := c.analytics.Track(ctx, eventLogout, nil); err != nil {
				return err
			}
			return c.analytics.Reset(ctx)
		}},
	})

	c.logger.Info("session ended", "account_id", accountID)
}

func (c *Coordinator) syncPending(ctx context.Context, system, accountID string) (bool, error) {
	_, err := c.local.SyncRecords().Get(ctx, system, accountID)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	c.logger.Warn("sync record read failed", "system", system, "error", err)
	return false, err
}

func (c *Coordinator) markSynced(ctx context.Context, system, accountID string) error {
	return c.local.SyncRecords().MarkIdentified(ctx, system, accountID)
}
