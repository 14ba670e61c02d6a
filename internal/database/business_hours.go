package database

import (
	"context"
	"fmt"

	"bookery/internal/hours"
	"bookery/internal/models"
)

// GetWeeklyHours reads a merchant's schedule as the calculator's input shape.
// Days without a row are absent from the map.
func (db *DB) GetWeeklyHours(ctx context.Context, merchantID int64) (hours.WeeklyHours, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT day_of_week, start_time, end_time
		FROM business_hours WHERE merchant_id = ?
		ORDER BY day_of_week`, merchantID,
	)
	if err != nil {
		return nil, fmt.Errorf("get weekly hours: %w", err)
	}
	defer rows.Close()

	wh := hours.WeeklyHours{}
	for rows.Next() {
		var day int
		var start, end string
		if err := rows.Scan(&day, &start, &end); err != nil {
			return nil, err
		}
		wh[day] = &hours.Interval{Start: start, End: end}
	}
	return wh, rows.Err()
}

// ListBusinessHours returns the raw schedule rows for a merchant.
func (db *DB) ListBusinessHours(ctx context.Context, merchantID int64) ([]*models.BusinessHoursRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, merchant_id, day_of_week, start_time, end_time, created_at, updated_at
		FROM business_hours WHERE merchant_id = ?
		ORDER BY day_of_week`, merchantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list business hours: %w", err)
	}
	defer rows.Close()

	var result []*models.BusinessHoursRow
	for rows.Next() {
		var r models.BusinessHoursRow
		if err := rows.Scan(&r.ID, &r.MerchantID, &r.DayOfWeek, &r.StartTime, &r.EndTime,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &r)
	}
	return result, rows.Err()
}

// ReplaceWeeklyHours swaps a merchant's whole weekly schedule inside one
// transaction. The schedule must already be validated.
func (db *DB) ReplaceWeeklyHours(ctx context.Context, merchantID int64, wh hours.WeeklyHours) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace hours: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM business_hours WHERE merchant_id = ?", merchantID); err != nil {
		return fmt.Errorf("clear hours: %w", err)
	}

	for day := 0; day <= 6; day++ {
		interval := wh[day]
		if interval == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO business_hours (merchant_id, day_of_week, start_time, end_time)
			VALUES (?, ?, ?, ?)`,
			merchantID, day, interval.Start, interval.End); err != nil {
			return fmt.Errorf("insert hours for day %d: %w", day, err)
		}
	}

	return tx.Commit()
}
