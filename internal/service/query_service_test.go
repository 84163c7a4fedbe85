package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fitbook/internal/database"
	"fitbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestQueryService(repo *mockRepo) *QueryService {
	logger := zerolog.Nop()
	s := NewQueryService(repo, &logger)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestListClasses(t *testing.T) {
	repo := new(mockRepo)
	s := newTestQueryService(repo)
	ctx := context.Background()

	page := []*models.FitnessClass{upcomingClass(0, 5)}
	repo.On("ListUpcomingClasses", ctx, fixedNow, 0, 1).Return(page, nil).Once()
	repo.On("CountUpcomingClasses", ctx, fixedNow).Return(int64(6), nil).Once()

	classes, total, err := s.ListClasses(ctx, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, page, classes)
	assert.Equal(t, int64(6), total)
	repo.AssertExpectations(t)
}

func TestListClasses_Validation(t *testing.T) {
	repo := new(mockRepo)
	s := newTestQueryService(repo)

	tests := []struct {
		name        string
		skip, limit int
	}{
		{"negative skip", -1, 10},
		{"zero limit", 0, 0},
		{"limit above max", 0, models.MaxPageSize + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := s.ListClasses(context.Background(), tt.skip, tt.limit)
			requireKind(t, err, KindValidation)
		})
	}
	repo.AssertNotCalled(t, "ListUpcomingClasses", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListClasses_StorageError(t *testing.T) {
	repo := new(mockRepo)
	s := newTestQueryService(repo)
	ctx := context.Background()

	repo.On("ListUpcomingClasses", ctx, fixedNow, 0, 10).Return(nil, errors.New("locked")).Once()

	_, _, err := s.ListClasses(ctx, 0, 10)
	requireKind(t, err, KindInternal)
}

func TestGetClassByID(t *testing.T) {
	repo := new(mockRepo)
	s := newTestQueryService(repo)
	ctx := context.Background()

	repo.On("GetClass", ctx, int64(1)).Return(upcomingClass(0, 5), nil).Once()
	repo.On("GetClass", ctx, int64(9999)).Return(nil, database.ErrClassNotFound).Once()

	class, err := s.GetClassByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Yoga", class.Name)

	_, err = s.GetClassByID(ctx, 9999)
	svcErr := requireKind(t, err, KindNotFound)
	assert.Equal(t, "Class with ID 9999 not found", svcErr.Message)
}

func TestGetBookingsByEmail(t *testing.T) {
	repo := new(mockRepo)
	s := newTestQueryService(repo)
	ctx := context.Background()

	bookings := []*models.Booking{{ID: 1, ClientEmail: "a@x.io"}}
	repo.On("ListBookingsByEmail", ctx, "a@x.io").Return(bookings, nil).Once()
	repo.On("ListBookingsByEmail", ctx, "none@x.io").Return([]*models.Booking{}, nil).Once()

	got, err := s.GetBookingsByEmail(ctx, "  A@X.IO ")
	require.NoError(t, err)
	assert.Equal(t, bookings, got)

	got, err = s.GetBookingsByEmail(ctx, "none@x.io")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.GetBookingsByEmail(ctx, "   ")
	requireKind(t, err, KindValidation)

	repo.AssertExpectations(t)
}

func TestErrorKinds(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NewNotFoundError("x")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, "conflict", KindConflict.String())

	wrapped := NewInternalError("load class", errors.New("boom"))
	assert.Contains(t, wrapped.Error(), "boom")
	invalid := NewValidationError(LocationQuery, "email", "bad")
	assert.Equal(t, "validation: bad", invalid.Error())
	assert.Equal(t, "email", invalid.Details["field"])
	assert.Equal(t, LocationQuery, invalid.Details["location"])
}
