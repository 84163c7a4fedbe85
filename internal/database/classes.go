package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitbook/internal/models"
)

const classColumns = `c.id, c.name, c.instructor, c.scheduled_at, c.total_slots, c.created_at,
       (SELECT COUNT(*) FROM bookings b WHERE b.class_id = c.id) AS booked`

func scanClass(row rowScanner) (*models.FitnessClass, error) {
	var (
		class                    models.FitnessClass
		scheduledStr, createdStr string
	)
	if err := row.Scan(
		&class.ID, &class.Name, &class.Instructor, &scheduledStr,
		&class.TotalSlots, &createdStr, &class.Booked,
	); err != nil {
		return nil, err
	}

	var err error
	if class.ScheduledAt, err = parseTime(scheduledStr); err != nil {
		return nil, err
	}
	if class.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, err
	}
	return &class, nil
}

// CreateClass inserts a class. ScheduledAt must already be an instant; the
// stored value is its UTC form.
func (db *DB) CreateClass(ctx context.Context, class *models.FitnessClass) error {
	if class.TotalSlots < 0 {
		return fmt.Errorf("total slots must not be negative: %d", class.TotalSlots)
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO fitness_classes (name, instructor, scheduled_at, total_slots, created_at)
              VALUES (?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		class.Name,
		class.Instructor,
		formatTime(class.ScheduledAt),
		class.TotalSlots,
		formatTime(class.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create class: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	class.ID = id
	class.ScheduledAt = class.ScheduledAt.UTC()
	class.CreatedAt = class.CreatedAt.UTC()
	class.Booked = 0
	return nil
}

func (db *DB) GetClass(ctx context.Context, id int64) (*models.FitnessClass, error) {
	query := `SELECT ` + classColumns + ` FROM fitness_classes c WHERE c.id = ?`
	class, err := scanClass(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrClassNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get class %d: %w", id, err)
	}
	return class, nil
}

// ListUpcomingClasses returns classes scheduled strictly after now, soonest
// first, skipping skip rows and returning at most limit.
func (db *DB) ListUpcomingClasses(ctx context.Context, now time.Time, skip, limit int) ([]*models.FitnessClass, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		return []*models.FitnessClass{}, nil
	}

	query := `SELECT ` + classColumns + `
              FROM fitness_classes c
              WHERE c.scheduled_at > ?
              ORDER BY c.scheduled_at ASC, c.id ASC
              LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, query, formatTime(now), limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming classes: %w", err)
	}
	defer rows.Close()

	classes := make([]*models.FitnessClass, 0, limit)
	for rows.Next() {
		class, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		classes = append(classes, class)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate classes: %w", err)
	}
	return classes, nil
}

func (db *DB) CountUpcomingClasses(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM fitness_classes WHERE scheduled_at > ?`
	if err := db.QueryRowContext(ctx, query, formatTime(now)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count upcoming classes: %w", err)
	}
	return count, nil
}

// BookedCount is the number of bookings currently held against a class.
func (db *DB) BookedCount(ctx context.Context, classID int64) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM bookings WHERE class_id = ?`
	if err := db.QueryRowContext(ctx, query, classID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get booked count: %w", err)
	}
	return count, nil
}

// DeleteClass removes a class together with its bookings.
func (db *DB) DeleteClass(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM fitness_classes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete class %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return ErrClassNotFound
	}
	db.logger.Info().Int64("class_id", id).Msg("class deleted")
	return nil
}

// DeleteAllClasses empties the catalog and, through the cascade, the ledger.
func (db *DB) DeleteAllClasses(ctx context.Context) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM fitness_classes`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete classes: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	db.logger.Info().Int64("deleted", rows).Msg("catalog cleared")
	return rows, nil
}
