// Package export renders merchant booking reports as xlsx workbooks and
// prunes old cancelled bookings on a monthly schedule.
package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"bookery/internal/models"
	"bookery/internal/timeutil"
)

// BookingSource supplies the rows to export and the retention cleanup.
type BookingSource interface {
	ListBookings(ctx context.Context, merchantID int64, from, to time.Time) ([]*models.Booking, error)
	DeleteOldCancelledBookings(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Service writes booking exports and runs retention cleanup.
type Service struct {
	source        BookingSource
	writerFactory func() ExcelWriter
	retention     time.Duration
	logger        *zerolog.Logger
	stopCh        chan struct{}
}

// NewService creates an export service. retentionDays <= 0 disables cleanup.
func NewService(source BookingSource, writerFactory func() ExcelWriter, retentionDays int, logger *zerolog.Logger) *Service {
	var retention time.Duration
	if retentionDays > 0 {
		retention = time.Duration(retentionDays) * 24 * time.Hour
	}
	return &Service{
		source:        source,
		writerFactory: writerFactory,
		retention:     retention,
		logger:        logger,
		stopCh:        make(chan struct{}),
	}
}

var bookingColumns = []string{
	"Public ID", "Service ID", "Customer ID", "Start", "End", "Duration", "Status", "Series", "Note",
}

// WriteBookings renders a merchant's bookings in [from, to) to the writer as
// a single-sheet workbook.
func (s *Service) WriteBookings(ctx context.Context, out io.Writer, merchantID int64, from, to time.Time) error {
	bookings, err := s.source.ListBookings(ctx, merchantID, from, to)
	if err != nil {
		return fmt.Errorf("list bookings for export: %w", err)
	}

	excel := s.writerFactory()
	sheet := fmt.Sprintf("Bookings %s", timeutil.FormatDate(from))
	if err := excel.AddSheet(sheet); err != nil {
		return err
	}
	if err := excel.WriteHeader(bookingColumns); err != nil {
		return err
	}

	for _, b := range bookings {
		end := b.EffectiveEndTime()
		row := []any{
			b.PublicID,
			b.ServiceID,
			b.CustomerID,
			b.StartTime.Format(time.RFC3339),
			end.Format(time.RFC3339),
			timeutil.FormatDuration(int(end.Sub(b.StartTime).Minutes())),
			b.Status,
			b.SeriesID,
			b.Note,
		}
		if err := excel.WriteRow(row); err != nil {
			return fmt.Errorf("write booking row: %w", err)
		}
	}

	return excel.Save(out)
}

// Start runs monthly retention cleanup until Stop or ctx cancellation.
func (s *Service) Start(ctx context.Context) {
	if s.retention <= 0 {
		s.logger.Info().Msg("export retention cleanup disabled")
		return
	}

	go func() {
		timer := time.NewTimer(time.Until(nextFirstOfMonth()))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-timer.C:
				s.runCleanup(ctx)
				timer.Reset(time.Until(nextFirstOfMonth()))
			}
		}
	}()
}

// Stop halts the cleanup loop.
func (s *Service) Stop() {
	close(s.stopCh)
}

func (s *Service) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	deleted, err := s.source.DeleteOldCancelledBookings(cleanupCtx, s.retention)
	if err != nil {
		s.logger.Error().Err(err).Msg("retention cleanup failed")
		return
	}
	s.logger.Info().Int64("deleted", deleted).Msg("retention cleanup completed")
}

func nextFirstOfMonth() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month()+1, 1, 0, 1, 0, 0, now.Location())
}
