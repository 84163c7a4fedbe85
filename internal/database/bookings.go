package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitbook/internal/models"
)

func (db *DB) BookingExists(ctx context.Context, classID int64, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM bookings WHERE class_id = ? AND client_email = ?)`
	if err := db.QueryRowContext(ctx, query, classID, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existing booking: %w", err)
	}
	return exists, nil
}

// ListBookingsByEmail returns every booking made with email, most recent
// first, each carrying its class.
func (db *DB) ListBookingsByEmail(ctx context.Context, email string) ([]*models.Booking, error) {
	query := `SELECT bk.id, bk.class_id, bk.client_name, bk.client_email, bk.booked_at,
                     ` + classColumns + `
              FROM bookings bk
              JOIN fitness_classes c ON c.id = bk.class_id
              WHERE bk.client_email = ?
              ORDER BY bk.booked_at DESC, bk.id DESC`
	rows, err := db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings by email: %w", err)
	}
	defer rows.Close()

	bookings := []*models.Booking{}
	for rows.Next() {
		booking, err := scanBookingWithClass(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

func scanBookingWithClass(row rowScanner) (*models.Booking, error) {
	var (
		booking                  models.Booking
		class                    models.FitnessClass
		bookedStr                string
		scheduledStr, createdStr string
	)
	if err := row.Scan(
		&booking.ID, &booking.ClassID, &booking.ClientName, &booking.ClientEmail, &bookedStr,
		&class.ID, &class.Name, &class.Instructor, &scheduledStr,
		&class.TotalSlots, &createdStr, &class.Booked,
	); err != nil {
		return nil, err
	}

	var err error
	if booking.BookedAt, err = parseTime(bookedStr); err != nil {
		return nil, err
	}
	if class.ScheduledAt, err = parseTime(scheduledStr); err != nil {
		return nil, err
	}
	if class.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, err
	}
	booking.Class = &class
	return &booking, nil
}

// InsertBooking stores a booking without re-checking capacity in Go. The
// capacity trigger and unique index still apply.
func (db *DB) InsertBooking(ctx context.Context, booking *models.Booking) error {
	if booking.BookedAt.IsZero() {
		booking.BookedAt = time.Now()
	}
	booking.BookedAt = booking.BookedAt.UTC()

	id, err := insertBooking(ctx, db.DB, booking)
	if err != nil {
		return err
	}
	booking.ID = id
	return nil
}

// CreateBookingGuarded re-checks capacity and duplicates inside a write
// transaction and inserts only when both pass. Concurrent callers are
// serialized by the immediate transaction lock, so a class never ends up with
// more bookings than slots.
func (db *DB) CreateBookingGuarded(ctx context.Context, booking *models.Booking) error {
	if booking.BookedAt.IsZero() {
		booking.BookedAt = time.Now()
	}
	booking.BookedAt = booking.BookedAt.UTC()

	var id int64
	err := db.withRetry(ctx, "create_booking", func() error {
		return db.withTx(ctx, func(tx *sql.Tx) error {
			var err error
			id, err = guardedInsert(ctx, tx, booking)
			return err
		})
	})
	if err != nil {
		return err
	}

	booking.ID = id
	db.logger.Debug().
		Int64("booking_id", id).
		Int64("class_id", booking.ClassID).
		Msg("booking stored")
	return nil
}

func guardedInsert(ctx context.Context, tx *sql.Tx, booking *models.Booking) (int64, error) {
	var totalSlots int64
	err := tx.QueryRowContext(ctx,
		`SELECT total_slots FROM fitness_classes WHERE id = ?`, booking.ClassID,
	).Scan(&totalSlots)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrClassNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load class in tx: %w", err)
	}

	var booked int64
	var duplicate bool
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(client_email = ?), 0) > 0 FROM bookings WHERE class_id = ?`,
		booking.ClientEmail, booking.ClassID,
	).Scan(&booked, &duplicate)
	if err != nil {
		return 0, fmt.Errorf("failed to check availability in tx: %w", err)
	}

	// Capacity first, then duplicates, matching the workflow and the trigger.
	if booked >= totalSlots {
		return 0, ErrClassFull
	}
	if duplicate {
		return 0, ErrAlreadyBooked
	}

	return insertBooking(ctx, tx, booking)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertBooking(ctx context.Context, ex execer, booking *models.Booking) (int64, error) {
	query := `INSERT INTO bookings (class_id, client_name, client_email, booked_at)
              VALUES (?, ?, ?, ?)`
	result, err := ex.ExecContext(ctx, query,
		booking.ClassID,
		booking.ClientName,
		booking.ClientEmail,
		formatTime(booking.BookedAt),
	)
	if err != nil {
		if mapped := constraintError(err); mapped != nil {
			return 0, mapped
		}
		return 0, fmt.Errorf("failed to insert booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}
