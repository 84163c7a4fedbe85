package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitbook/internal/database"
	"fitbook/internal/domain"
	"fitbook/internal/models"

	"github.com/rs/zerolog"
)

// QueryService serves the read-only views of the catalog and ledger.
type QueryService struct {
	repo   domain.Repository
	logger *zerolog.Logger
	now    func() time.Time
}

func NewQueryService(repo domain.Repository, logger *zerolog.Logger) *QueryService {
	return &QueryService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// ListClasses returns one page of upcoming classes and the number of
// upcoming classes overall.
func (s *QueryService) ListClasses(ctx context.Context, skip, limit int) ([]*models.FitnessClass, int64, error) {
	if skip < 0 {
		return nil, 0, NewValidationError(LocationQuery, "skip", "Input should be greater than or equal to 0")
	}
	if limit < 1 || limit > models.MaxPageSize {
		return nil, 0, NewValidationError(LocationQuery, "limit", fmt.Sprintf("Input should be between 1 and %d", models.MaxPageSize))
	}

	now := s.now()
	classes, err := s.repo.ListUpcomingClasses(ctx, now, skip, limit)
	if err != nil {
		return nil, 0, NewInternalError("list classes", err)
	}
	total, err := s.repo.CountUpcomingClasses(ctx, now)
	if err != nil {
		return nil, 0, NewInternalError("count classes", err)
	}

	s.logger.Debug().Int("skip", skip).Int("limit", limit).Int("returned", len(classes)).Msg("classes listed")
	return classes, total, nil
}

func (s *QueryService) GetClassByID(ctx context.Context, id int64) (*models.FitnessClass, error) {
	class, err := s.repo.GetClass(ctx, id)
	if errors.Is(err, database.ErrClassNotFound) {
		return nil, NewNotFoundError(fmt.Sprintf("Class with ID %d not found", id))
	}
	if err != nil {
		return nil, NewInternalError("get class", err)
	}
	return class, nil
}

// GetBookingsByEmail lists bookings for an email after trimming and
// lowercasing it. No bookings is an empty slice, not an error.
func (s *QueryService) GetBookingsByEmail(ctx context.Context, email string) ([]*models.Booking, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return nil, NewValidationError(LocationQuery, "email", "Field required")
	}

	bookings, err := s.repo.ListBookingsByEmail(ctx, normalized)
	if err != nil {
		return nil, NewInternalError("list bookings", err)
	}
	return bookings, nil
}
