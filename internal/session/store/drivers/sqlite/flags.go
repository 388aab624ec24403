package sqlite

import (
	"context"
	"time"
)

const (
	flagFirstLaunch       = "first_launch"
	flagReminderRequested = "reminder_requested"
)

type flagsRepo struct {
	db dbtx
}

func (r *flagsRepo) FirstLaunchSeen(ctx context.Context) (bool, error) {
	return r.exists(ctx, flagFirstLaunch, "")
}

func (r *flagsRepo) MarkFirstLaunch(ctx context.Context) error {
	return r.set(ctx, flagFirstLaunch, "")
}

func (r *flagsRepo) ReminderRequested(ctx context.Context, accountID string) (bool, error) {
	return r.exists(ctx, flagReminderRequested, accountID)
}

func (r *flagsRepo) MarkReminderRequested(ctx context.Context, accountID string) error {
	return r.set(ctx, flagReminderRequested, accountID)
}

func (r *flagsRepo) ClearReminderRequested(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM flags WHERE name = ? AND account_id = ?`,
		flagReminderRequested, accountID,
	)
	return err
}

func (r *flagsRepo) exists(ctx context.Context, name, accountID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM flags WHERE name = ? AND account_id = ?`,
		name, accountID,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *flagsRepo) set(ctx context.Context, name, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO flags (name, account_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (name, account_id) DO NOTHING`,
		name, accountID, time.Now().UTC(),
	)
	return err
}
