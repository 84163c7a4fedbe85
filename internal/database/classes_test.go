package database

import (
	"context"
	"testing"
	"time"

	"fitbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetClass(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	at := time.Date(2030, 1, 2, 7, 0, 0, 0, loc)

	class := createTestClass(t, db, "Morning Yoga", at, 12)
	assert.NotZero(t, class.ID)
	assert.False(t, class.CreatedAt.IsZero())

	got, err := db.GetClass(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, "Morning Yoga", got.Name)
	assert.Equal(t, "Asha", got.Instructor)
	assert.Equal(t, int64(12), got.TotalSlots)
	assert.Equal(t, int64(0), got.Booked)
	assert.True(t, got.ScheduledAt.Equal(at))
	assert.Equal(t, time.UTC, got.ScheduledAt.Location())
}

func TestCreateClass_NegativeSlots(t *testing.T) {
	db := setupTestDB(t)
	err := db.CreateClass(context.Background(), &models.FitnessClass{
		Name:        "Broken",
		ScheduledAt: time.Now(),
		TotalSlots:  -1,
	})
	assert.Error(t, err)
}

func TestGetClass_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetClass(context.Background(), 999)
	assert.ErrorIs(t, err, ErrClassNotFound)
}

func TestListUpcomingClasses(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)

	createTestClass(t, db, "Past", now.Add(-time.Hour), 5)
	createTestClass(t, db, "Exactly now", now, 5)
	third := createTestClass(t, db, "Third", now.Add(3*time.Hour), 5)
	first := createTestClass(t, db, "First", now.Add(time.Hour), 5)
	second := createTestClass(t, db, "Second", now.Add(2*time.Hour), 5)
	tie := createTestClass(t, db, "Second tie", now.Add(2*time.Hour), 5)

	classes, err := db.ListUpcomingClasses(ctx, now, 0, 10)
	require.NoError(t, err)
	require.Len(t, classes, 4)
	assert.Equal(t, []int64{first.ID, second.ID, tie.ID, third.ID}, classIDs(classes))

	page, err := db.ListUpcomingClasses(ctx, now, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{second.ID, tie.ID}, classIDs(page))

	empty, err := db.ListUpcomingClasses(ctx, now, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)

	count, err := db.CountUpcomingClasses(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestListUpcomingClasses_ReportsBookedCount(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	class := createTestClass(t, db, "HIIT", now.Add(time.Hour), 3)
	require.NoError(t, db.InsertBooking(ctx, &models.Booking{ClassID: class.ID, ClientName: "A", ClientEmail: "a@x.io"}))
	require.NoError(t, db.InsertBooking(ctx, &models.Booking{ClassID: class.ID, ClientName: "B", ClientEmail: "b@x.io"}))

	classes, err := db.ListUpcomingClasses(ctx, now, 0, 10)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, int64(2), classes[0].Booked)
	assert.Equal(t, int64(1), classes[0].AvailableSlots())

	booked, err := db.BookedCount(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), booked)
}

func TestDeleteClass_CascadesBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	class := createTestClass(t, db, "Zumba", time.Now().Add(time.Hour), 3)
	require.NoError(t, db.InsertBooking(ctx, &models.Booking{ClassID: class.ID, ClientName: "A", ClientEmail: "a@x.io"}))

	require.NoError(t, db.DeleteClass(ctx, class.ID))

	bookings, err := db.ListBookingsByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Empty(t, bookings)

	booked, err := db.BookedCount(ctx, class.ID)
	require.NoError(t, err)
	assert.Zero(t, booked)

	assert.ErrorIs(t, db.DeleteClass(ctx, class.ID), ErrClassNotFound)
}

func classIDs(classes []*models.FitnessClass) []int64 {
	ids := make([]int64, 0, len(classes))
	for _, c := range classes {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestDeleteAllClasses(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	at := time.Now().Add(24 * time.Hour)

	yoga := createTestClass(t, db, "Yoga", at, 5)
	createTestClass(t, db, "Zumba", at.Add(time.Hour), 5)
	require.NoError(t, db.InsertBooking(ctx, &models.Booking{
		ClassID: yoga.ID, ClientName: "Riya", ClientEmail: "riya@example.com",
	}))

	deleted, err := db.DeleteAllClasses(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	count, err := db.CountUpcomingClasses(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, count)

	bookings, err := db.ListBookingsByEmail(ctx, "riya@example.com")
	require.NoError(t, err)
	assert.Empty(t, bookings)
}
