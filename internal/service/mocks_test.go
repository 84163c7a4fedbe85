package service

import (
	"context"
	"time"

	"fitbook/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetClass(ctx context.Context, id int64) (*models.FitnessClass, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FitnessClass), args.Error(1)
}

func (m *mockRepo) ListUpcomingClasses(ctx context.Context, now time.Time, skip, limit int) ([]*models.FitnessClass, error) {
	args := m.Called(ctx, now, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.FitnessClass), args.Error(1)
}

func (m *mockRepo) CountUpcomingClasses(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) BookedCount(ctx context.Context, classID int64) (int64, error) {
	args := m.Called(ctx, classID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) BookingExists(ctx context.Context, classID int64, email string) (bool, error) {
	args := m.Called(ctx, classID, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) ListBookingsByEmail(ctx context.Context, email string) ([]*models.Booking, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *mockRepo) CreateBookingGuarded(ctx context.Context, booking *models.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}
