package domain

import (
	"context"
	"time"

	"fitbook/internal/models"
)

// ClassCatalog reads fitness classes. Returned classes carry their current
// booked count.
type ClassCatalog interface {
	GetClass(ctx context.Context, id int64) (*models.FitnessClass, error)
	ListUpcomingClasses(ctx context.Context, now time.Time, skip, limit int) ([]*models.FitnessClass, error)
	CountUpcomingClasses(ctx context.Context, now time.Time) (int64, error)
	BookedCount(ctx context.Context, classID int64) (int64, error)
}

type BookingLedger interface {
	BookingExists(ctx context.Context, classID int64, email string) (bool, error)
	ListBookingsByEmail(ctx context.Context, email string) ([]*models.Booking, error)
	CreateBookingGuarded(ctx context.Context, booking *models.Booking) error
}

type Repository interface {
	ClassCatalog
	BookingLedger
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// AttemptLimiter counts hits per key inside a fixed window and reports
// whether the caller is still under limit.
type AttemptLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error)
}

type QueryService interface {
	ListClasses(ctx context.Context, skip, limit int) ([]*models.FitnessClass, int64, error)
	GetClassByID(ctx context.Context, id int64) (*models.FitnessClass, error)
	GetBookingsByEmail(ctx context.Context, email string) ([]*models.Booking, error)
}
