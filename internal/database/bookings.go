package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bookery/internal/models"
)

// CreateBooking inserts a single booking and fills its ID.
func (db *DB) CreateBooking(ctx context.Context, b *models.Booking) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO bookings (public_id, merchant_id, service_id, customer_id,
			start_time, end_time, status, series_id, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.PublicID, b.MerchantID, b.ServiceID, b.CustomerID,
		b.StartTime, b.EndTime, b.Status, nullString(b.SeriesID), b.Note,
	)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	b.ID, err = res.LastInsertId()
	return err
}

// CreateBookingSeries inserts all bookings of a recurring series in one
// transaction; either the whole series lands or none of it does.
func (db *DB) CreateBookingSeries(ctx context.Context, bookings []*models.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create series: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bookings (public_id, merchant_id, service_id, customer_id,
			start_time, end_time, status, series_id, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare series insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bookings {
		res, err := stmt.ExecContext(ctx,
			b.PublicID, b.MerchantID, b.ServiceID, b.CustomerID,
			b.StartTime, b.EndTime, b.Status, nullString(b.SeriesID), b.Note)
		if err != nil {
			return fmt.Errorf("insert series booking: %w", err)
		}
		if b.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetBookingByPublicID returns a booking by its public uuid.
func (db *DB) GetBookingByPublicID(ctx context.Context, publicID string) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, public_id, merchant_id, service_id, customer_id,
			start_time, end_time, status, series_id, note,
			created_at, updated_at, version
		FROM bookings WHERE public_id = ?`, publicID)
	return scanBooking(row)
}

// ListBookings returns a merchant's bookings whose start falls in [from, to).
func (db *DB) ListBookings(ctx context.Context, merchantID int64, from, to time.Time) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, public_id, merchant_id, service_id, customer_id,
			start_time, end_time, status, series_id, note,
			created_at, updated_at, version
		FROM bookings
		WHERE merchant_id = ? AND start_time >= ? AND start_time < ?
		ORDER BY start_time`, merchantID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// CancelBooking marks a booking cancelled by public ID.
func (db *DB) CancelBooking(ctx context.Context, publicID string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE bookings
		SET status = ?, updated_at = CURRENT_TIMESTAMP, version = version + 1
		WHERE public_id = ? AND status IN (?, ?)`,
		models.BookingCancelled, publicID, models.BookingPending, models.BookingConfirmed,
	)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOldCancelledBookings removes cancelled bookings older than the given
// duration. Used by the export service's retention cleanup.
func (db *DB) DeleteOldCancelledBookings(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := db.ExecContext(ctx, `
		DELETE FROM bookings WHERE status = ? AND start_time < ?`,
		models.BookingCancelled, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete old bookings: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var endTime sql.NullTime
	var seriesID, note sql.NullString
	err := row.Scan(&b.ID, &b.PublicID, &b.MerchantID, &b.ServiceID, &b.CustomerID,
		&b.StartTime, &endTime, &b.Status, &seriesID, &note,
		&b.CreatedAt, &b.UpdatedAt, &b.Version)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan booking: %w", err)
	}
	if endTime.Valid {
		b.EndTime = &endTime.Time
	}
	b.SeriesID = seriesID.String
	b.Note = note.String
	return &b, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
