package models

const (
	// DefaultPageSize is used when the caller does not pass limit.
	DefaultPageSize = 10

	// MaxPageSize caps limit on listing endpoints.
	MaxPageSize = 100

	// MaxClientNameLength bounds client_name.
	MaxClientNameLength = 100

	// DefaultTimezone is the studio's display zone.
	DefaultTimezone = "Asia/Kolkata"
)

// Rejection reasons reported by the booking workflow.
const (
	RejectClassNotFound = "class_not_found"
	RejectClassStarted  = "class_started"
	RejectFullyBooked   = "fully_booked"
	RejectAlreadyBooked = "already_booked"
	RejectRateLimited   = "rate_limited"
)
