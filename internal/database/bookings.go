package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

const bookingSelect = `SELECT b.id, b.item_id, b.booker_id, b.start_at, b.end_at, b.status, b.version,
                 b.created_at, b.updated_at, i.name, i.owner_id, u.name
              FROM bookings b
              JOIN items i ON i.id = b.item_id
              JOIN users u ON u.id = b.booker_id`

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID, &b.ItemID, &b.BookerID, &b.Start, &b.End, &b.Status, &b.Version,
		&b.CreatedAt, &b.UpdatedAt, &b.ItemName, &b.OwnerID, &b.BookerName,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (item_id, booker_id, start_at, end_at, status, version, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	if booking.Status == "" {
		booking.Status = models.StatusWaiting
	}
	result, err := db.ExecContext(ctx, query,
		booking.ItemID,
		booking.BookerID,
		booking.Start.UTC(),
		booking.End.UTC(),
		booking.Status,
		1,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.Start = booking.Start.UTC()
	booking.End = booking.End.UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1

	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := scanBooking(db.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", domain.ErrBookingNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// UpdateBookingStatusWithVersion moves a WAITING booking to status. It matches only
// when the stored version still equals fromVersion.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status models.BookingStatus) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ? AND status = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now().UTC(), id, fromVersion, models.StatusWaiting)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) GetBookingsByBooker(ctx context.Context, bookerID int64, filter models.BookingFilter) ([]*models.Booking, error) {
	where, args := filterClause(filter)
	query := bookingSelect + ` WHERE b.booker_id = ?` + where + ` ORDER BY b.start_at DESC, b.id DESC`
	bookings, err := db.queryBookings(ctx, query, append([]interface{}{bookerID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by booker: %w", err)
	}
	return bookings, nil
}

func (db *DB) GetBookingsByOwner(ctx context.Context, ownerID int64, filter models.BookingFilter) ([]*models.Booking, error) {
	where, args := filterClause(filter)
	query := bookingSelect + ` WHERE i.owner_id = ?` + where + ` ORDER BY b.start_at DESC, b.id DESC`
	bookings, err := db.queryBookings(ctx, query, append([]interface{}{ownerID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by owner: %w", err)
	}
	return bookings, nil
}

// GetApprovedBookingsForItems returns APPROVED bookings of all items ordered by start ascending.
func (db *DB) GetApprovedBookingsForItems(ctx context.Context, itemIDs []int64) ([]*models.Booking, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(itemIDs)
	query := bookingSelect + ` WHERE b.status = ? AND b.item_id IN (` + placeholders + `)
              ORDER BY b.start_at ASC, b.id ASC`
	bookings, err := db.queryBookings(ctx, query, append([]interface{}{models.StatusApproved}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get approved bookings for items: %w", err)
	}
	return bookings, nil
}

func (db *DB) GetLastApprovedBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	query := bookingSelect + ` WHERE b.item_id = ? AND b.status = ? AND b.end_at < ?
              ORDER BY b.end_at DESC, b.id DESC LIMIT 1`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, itemID, models.StatusApproved, now.UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last booking: %w", err)
	}
	return booking, nil
}

func (db *DB) GetNextApprovedBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	query := bookingSelect + ` WHERE b.item_id = ? AND b.status = ? AND b.start_at > ?
              ORDER BY b.start_at ASC, b.id ASC LIMIT 1`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, itemID, models.StatusApproved, now.UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next booking: %w", err)
	}
	return booking, nil
}

// ExistsCompletedBooking reports whether bookerID has any booking of itemID that ended before the given instant.
func (db *DB) ExistsCompletedBooking(ctx context.Context, itemID, bookerID int64, before time.Time) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM bookings WHERE item_id = ? AND booker_id = ? AND end_at < ?)`
	var exists bool
	if err := db.QueryRowContext(ctx, query, itemID, bookerID, before.UTC()).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check completed booking: %w", err)
	}
	return exists, nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func filterClause(filter models.BookingFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if filter.Status != "" {
		conds = append(conds, "b.status = ?")
		args = append(args, filter.Status)
	}

	at := filter.At.UTC()
	switch filter.Window {
	case models.WindowCurrent:
		conds = append(conds, "b.start_at <= ? AND b.end_at >= ?")
		args = append(args, at, at)
	case models.WindowPast:
		conds = append(conds, "b.end_at < ?")
		args = append(args, at)
	case models.WindowFuture:
		conds = append(conds, "b.start_at > ?")
		args = append(args, at)
	case models.WindowAny:
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(conds, " AND "), args
}
