package models

import "time"

// FitnessClass is a scheduled session with a fixed number of slots.
// ScheduledAt is always a UTC instant.
type FitnessClass struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Instructor  string    `json:"instructor"`
	ScheduledAt time.Time `json:"scheduled_at"`
	TotalSlots  int64     `json:"total_slots"`
	CreatedAt   time.Time `json:"created_at"`

	// Booked is the number of bookings at read time; never persisted.
	Booked int64 `json:"-"`
}

// AvailableSlots derives the remaining capacity from the booking count
// loaded with the class. Never negative.
func (c *FitnessClass) AvailableSlots() int64 {
	available := c.TotalSlots - c.Booked
	if available < 0 {
		return 0
	}
	return available
}

// IsUpcoming reports whether the class starts strictly after now.
func (c *FitnessClass) IsUpcoming(now time.Time) bool {
	return c.ScheduledAt.After(now)
}
