package models

import "time"

type Booking struct {
	ID          int64     `json:"id"`
	ClassID     int64     `json:"class_id"`
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email"`
	BookedAt    time.Time `json:"booked_at"`

	// Class is populated by reads that join the owning class.
	Class *FitnessClass `json:"fitness_class,omitempty"`
}

// BookingRequest is the client input to the create-booking workflow.
type BookingRequest struct {
	ClassID     int64
	ClientName  string
	ClientEmail string
}
