package api

import (
	"reflect"
	"strings"
	"time"

	"fitbook/internal/models"
	"fitbook/internal/timezone"

	"github.com/go-playground/validator/v10"
)

// bookingRequest is the POST /book body. ClassID is a pointer so that a
// missing id is distinguishable from id 0.
type bookingRequest struct {
	ClassID     *int64 `json:"class_id" validate:"required"`
	ClientName  string `json:"client_name" validate:"required,min=1,max=100"`
	ClientEmail string `json:"client_email" validate:"required,email"`
}

type listClassesQuery struct {
	Skip  int `json:"skip" validate:"gte=0"`
	Limit int `json:"limit" validate:"gte=1,lte=100"`
}

type classResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Instructor      string `json:"instructor"`
	DatetimeDisplay string `json:"datetime_display"`
	AvailableSlots  int64  `json:"available_slots"`
	TotalSlots      int64  `json:"total_slots"`
}

type classListResponse struct {
	Total   int64           `json:"total"`
	Classes []classResponse `json:"classes"`
}

type bookingResponse struct {
	ID              int64         `json:"id"`
	ClassID         int64         `json:"class_id"`
	ClientName      string        `json:"client_name"`
	ClientEmail     string        `json:"client_email"`
	BookedAtDisplay string        `json:"booked_at_display"`
	FitnessClass    classResponse `json:"fitness_class"`
}

type bookingListResponse struct {
	Total    int               `json:"total"`
	Bookings []bookingResponse `json:"bookings"`
}

type healthResponse struct {
	Message string        `json:"message"`
	Details healthDetails `json:"details"`
}

type healthDetails struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type welcomeResponse struct {
	Message     string `json:"message"`
	HealthCheck string `json:"health_check"`
	Version     string `json:"version"`
}

func newClassResponse(class *models.FitnessClass, tz *timezone.Converter) classResponse {
	return classResponse{
		ID:              class.ID,
		Name:            class.Name,
		Instructor:      class.Instructor,
		DatetimeDisplay: tz.Format(class.ScheduledAt),
		AvailableSlots:  class.AvailableSlots(),
		TotalSlots:      class.TotalSlots,
	}
}

func newBookingResponse(booking *models.Booking, tz *timezone.Converter) bookingResponse {
	resp := bookingResponse{
		ID:              booking.ID,
		ClassID:         booking.ClassID,
		ClientName:      booking.ClientName,
		ClientEmail:     booking.ClientEmail,
		BookedAtDisplay: tz.Format(booking.BookedAt),
	}
	if booking.Class != nil {
		resp.FitnessClass = newClassResponse(booking.Class, tz)
	}
	return resp
}

func newHealthResponse(now time.Time) healthResponse {
	return healthResponse{
		Message: "API is healthy",
		Details: healthDetails{
			Status:    "online",
			Timestamp: now.UTC().Format(time.RFC3339Nano),
		},
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
