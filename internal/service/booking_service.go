package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"fitbook/internal/database"
	"fitbook/internal/domain"
	"fitbook/internal/events"
	"fitbook/internal/models"
	"fitbook/internal/timezone"

	"github.com/rs/zerolog"
)

const (
	msgClassStarted  = "class already started or ended"
	msgFullyBooked   = "class is fully booked"
	msgAlreadyBooked = "already booked"
	msgTooManyTries  = "too many booking attempts, please try again later"
)

type BookingService struct {
	repo          domain.Repository
	eventBus      domain.EventPublisher
	tz            *timezone.Converter
	limiter       domain.AttemptLimiter
	attemptLimit  int
	attemptWindow time.Duration
	logger        *zerolog.Logger
	now           func() time.Time
}

type BookingOption func(*BookingService)

// WithAttemptLimiter caps booking attempts per email within window.
func WithAttemptLimiter(limiter domain.AttemptLimiter, limit int, window time.Duration) BookingOption {
	return func(s *BookingService) {
		s.limiter = limiter
		s.attemptLimit = limit
		s.attemptWindow = window
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) BookingOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	repo domain.Repository,
	eventBus domain.EventPublisher,
	tz *timezone.Converter,
	logger *zerolog.Logger,
	opts ...BookingOption,
) *BookingService {
	s := &BookingService{
		repo:     repo,
		eventBus: eventBus,
		tz:       tz,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBooking runs the booking workflow. Every rejection happens before
// anything is written; the guarded insert repeats the capacity and duplicate
// checks under the store's write lock.
func (s *BookingService) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	email := normalizeEmail(req.ClientEmail)
	name := strings.TrimSpace(req.ClientName)
	if name == "" {
		return nil, NewValidationError(LocationBody, "client_name", "client_name must not be blank")
	}
	if utf8.RuneCountInString(name) > models.MaxClientNameLength {
		return nil, NewValidationError(LocationBody, "client_name",
			fmt.Sprintf("String should have at most %d characters", models.MaxClientNameLength))
	}
	if email == "" {
		return nil, NewValidationError(LocationBody, "client_email", "client_email must not be blank")
	}

	class, err := s.repo.GetClass(ctx, req.ClassID)
	if errors.Is(err, database.ErrClassNotFound) {
		s.publishRejected(req.ClassID, email, models.RejectClassNotFound)
		return nil, NewNotFoundError(fmt.Sprintf("class_id %d not found", req.ClassID))
	}
	if err != nil {
		return nil, NewInternalError("load class", err)
	}

	// Only attempts against a real class count toward the limit.
	if err := s.checkAttempts(ctx, class.ID, email); err != nil {
		return nil, err
	}

	if !class.IsUpcoming(s.now()) {
		s.publishRejected(class.ID, email, models.RejectClassStarted)
		return nil, NewInvalidStateError(msgClassStarted)
	}

	if class.AvailableSlots() <= 0 {
		s.publishRejected(class.ID, email, models.RejectFullyBooked)
		return nil, s.fullyBooked(class)
	}

	exists, err := s.repo.BookingExists(ctx, class.ID, email)
	if err != nil {
		return nil, NewInternalError("check existing booking", err)
	}
	if exists {
		s.publishRejected(class.ID, email, models.RejectAlreadyBooked)
		return nil, s.alreadyBooked(class, email)
	}

	booking := &models.Booking{
		ClassID:     class.ID,
		ClientName:  name,
		ClientEmail: email,
		BookedAt:    s.now().UTC(),
	}
	if err := s.repo.CreateBookingGuarded(ctx, booking); err != nil {
		switch {
		case errors.Is(err, database.ErrClassFull):
			s.publishRejected(class.ID, email, models.RejectFullyBooked)
			return nil, s.fullyBooked(class)
		case errors.Is(err, database.ErrAlreadyBooked):
			s.publishRejected(class.ID, email, models.RejectAlreadyBooked)
			return nil, s.alreadyBooked(class, email)
		case errors.Is(err, database.ErrClassNotFound):
			s.publishRejected(class.ID, email, models.RejectClassNotFound)
			return nil, NewNotFoundError(fmt.Sprintf("class_id %d not found", class.ID))
		default:
			return nil, NewInternalError("store booking", err)
		}
	}

	booked, err := s.repo.BookedCount(ctx, class.ID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("class_id", class.ID).Msg("failed to refresh booked count")
		booked = class.Booked + 1
	}
	class.Booked = booked
	booking.Class = class

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("class_id", class.ID).
		Int64("available_slots", class.AvailableSlots()).
		Msg("booking created")

	s.publish(events.EventBookingCreated, events.BookingEventPayload{
		BookingID:   booking.ID,
		ClassID:     class.ID,
		ClassName:   class.Name,
		ClientEmail: email,
		ScheduledAt: class.ScheduledAt,
	})

	return booking, nil
}

func (s *BookingService) checkAttempts(ctx context.Context, classID int64, email string) error {
	if s.limiter == nil || s.attemptLimit <= 0 {
		return nil
	}

	allowed, err := s.limiter.CheckRateLimit(ctx, email, s.attemptLimit, s.attemptWindow)
	if err != nil {
		// Limiter failures never block a booking.
		s.logger.Warn().Err(err).Msg("attempt limiter unavailable")
		return nil
	}
	if !allowed {
		s.publishRejected(classID, email, models.RejectRateLimited)
		return NewRateLimitedError(msgTooManyTries)
	}
	return nil
}

func (s *BookingService) fullyBooked(class *models.FitnessClass) *Error {
	return NewConflictError(msgFullyBooked, map[string]string{
		"class_name": class.Name,
		"datetime":   s.tz.Format(class.ScheduledAt),
	})
}

func (s *BookingService) alreadyBooked(class *models.FitnessClass, email string) *Error {
	return NewConflictError(msgAlreadyBooked, map[string]string{
		"class_name":   class.Name,
		"client_email": email,
	})
}

func (s *BookingService) publishRejected(classID int64, email, reason string) {
	s.logger.Info().
		Int64("class_id", classID).
		Str("reason", reason).
		Msg("booking rejected")

	s.publish(events.EventBookingRejected, events.BookingEventPayload{
		ClassID:     classID,
		ClientEmail: email,
		Reason:      reason,
	})
}

func (s *BookingService) publish(eventType string, payload events.BookingEventPayload) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
