package database

import (
	"context"
	"fmt"
	"time"

	"bookery/internal/models"
)

// CreateBlockedTime inserts a merchant-defined no-booking interval.
func (db *DB) CreateBlockedTime(ctx context.Context, bt *models.BlockedTime) error {
	res, err := db.ExecContext(ctx,
		`INSERT INTO blocked_times (merchant_id, start_time, end_time, reason)
		 VALUES (?, ?, ?, ?)`,
		bt.MerchantID, bt.StartTime, bt.EndTime, bt.Reason,
	)
	if err != nil {
		return fmt.Errorf("create blocked time: %w", err)
	}
	bt.ID, _ = res.LastInsertId()
	return nil
}

// ListBlockedTimes returns blocked intervals overlapping [from, to).
func (db *DB) ListBlockedTimes(ctx context.Context, merchantID int64, from, to time.Time) ([]*models.BlockedTime, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, merchant_id, start_time, end_time, COALESCE(reason, ''), created_at
		 FROM blocked_times
		 WHERE merchant_id = ? AND start_time < ? AND end_time > ?
		 ORDER BY start_time`,
		merchantID, to, from,
	)
	if err != nil {
		return nil, fmt.Errorf("list blocked times: %w", err)
	}
	defer rows.Close()

	var blocks []*models.BlockedTime
	for rows.Next() {
		bt := &models.BlockedTime{}
		if err := rows.Scan(&bt.ID, &bt.MerchantID, &bt.StartTime, &bt.EndTime, &bt.Reason, &bt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan blocked time: %w", err)
		}
		blocks = append(blocks, bt)
	}
	return blocks, rows.Err()
}

// DeleteBlockedTime removes a blocked interval.
func (db *DB) DeleteBlockedTime(ctx context.Context, merchantID, id int64) error {
	res, err := db.ExecContext(ctx,
		`DELETE FROM blocked_times WHERE id = ? AND merchant_id = ?`, id, merchantID)
	if err != nil {
		return fmt.Errorf("delete blocked time: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// IsBlocked reports whether [start, end) intersects any blocked interval.
func (db *DB) IsBlocked(ctx context.Context, merchantID int64, start, end time.Time) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blocked_times
		 WHERE merchant_id = ? AND start_time < ? AND end_time > ?`,
		merchantID, end, start,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check blocked time: %w", err)
	}
	return count > 0, nil
}
