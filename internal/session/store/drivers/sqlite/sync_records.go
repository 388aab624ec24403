package sqlite

import (
	"context"
	"time"

	"github.com/stillwaterhq/stillwater/internal/session/domain"
	"github.com/stillwaterhq/stillwater/pkg/idx"
)

type syncRecordsRepo struct {
	db dbtx
}

func (r *syncRecordsRepo) Get(ctx context.Context, system, accountID string) (domain.SyncRecord, error) {
	var rec domain.SyncRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT id, system, account_id, identified_at
		 FROM sync_records WHERE system = ? AND account_id = ?`,
		system, accountID,
	).Scan(&rec.ID, &rec.System, &rec.AccountID, &rec.IdentifiedAt)
	if err != nil {
		return domain.SyncRecord{}, mapNotFound(err)
	}
	return rec, nil
}

func (r *syncRecordsRepo) MarkIdentified(ctx context.Context, system, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_records (id, system, account_id, identified_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (system, account_id) DO NOTHING`,
		idx.New().String(), system, accountID, time.Now().UTC(),
	)
	return err
}

func (r *syncRecordsRepo) ClearAccount(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sync_records WHERE account_id = ?`, accountID,
	)
	return err
}
