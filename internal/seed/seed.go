// Package seed fills the catalog with sample classes.
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"fitbook/internal/models"
	"fitbook/internal/timezone"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ClassStore is the part of the store the seeder writes to.
type ClassStore interface {
	CreateClass(ctx context.Context, class *models.FitnessClass) error
	DeleteAllClasses(ctx context.Context) (int64, error)
	InsertBooking(ctx context.Context, booking *models.Booking) error
}

// Item is a class to create together with bookings recorded against it.
type Item struct {
	Class    *models.FitnessClass
	Bookings []*models.Booking
}

// ClassEntry is one class in a seed file. Datetime is read as display-zone
// wall clock unless it carries an offset.
type ClassEntry struct {
	Name       string `yaml:"name"`
	Instructor string `yaml:"instructor"`
	Datetime   string `yaml:"datetime"`
	TotalSlots int64  `yaml:"total_slots"`

	Bookings []BookingEntry `yaml:"bookings"`
}

// BookingEntry is a client already holding a slot in a seeded class.
type BookingEntry struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type sample struct {
	name       string
	instructor string
	dayOffset  int
	hour       int
	minute     int
	slots      int64
}

var samples = []sample{
	{"Morning Yoga", "Priya Sharma", 1, 6, 30, 20},
	{"HIIT Workout", "Raj Kumar", 1, 7, 30, 15},
	{"Evening Zumba", "Anita Desai", 2, 18, 0, 25},
	{"Power Yoga", "Priya Sharma", 2, 19, 30, 20},
	{"Weekend HIIT", "Raj Kumar", 3, 8, 0, 30},
	{"Relaxation Yoga", "Priya Sharma", 3, 17, 0, 25},
}

// Defaults returns the built-in schedule: six classes spread over the three
// days after now, at fixed display-zone times.
func Defaults(now time.Time, tz *timezone.Converter) []Item {
	local := tz.ToDisplay(now)
	items := make([]Item, 0, len(samples))
	for _, s := range samples {
		day := local.AddDate(0, 0, s.dayOffset)
		wall := time.Date(day.Year(), day.Month(), day.Day(), s.hour, s.minute, 0, 0, time.UTC)
		items = append(items, Item{Class: &models.FitnessClass{
			Name:        s.name,
			Instructor:  s.instructor,
			ScheduledAt: tz.FromWallClock(wall),
			TotalSlots:  s.slots,
		}})
	}
	return items
}

// LoadFile reads classes from a YAML file of the form
//
//	classes:
//	  - name: Morning Yoga
//	    instructor: Priya Sharma
//	    datetime: "2030-01-02 06:30"
//	    total_slots: 20
//	    bookings:
//	      - name: Riya
//	        email: riya@example.com
func LoadFile(path string, tz *timezone.Converter) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var file struct {
		Classes []ClassEntry `yaml:"classes"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	items := make([]Item, 0, len(file.Classes))
	for i, entry := range file.Classes {
		item, err := entry.toItem(tz)
		if err != nil {
			return nil, fmt.Errorf("class %d: %w", i+1, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (e ClassEntry) toItem(tz *timezone.Converter) (Item, error) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return Item{}, fmt.Errorf("name is required")
	}
	if e.TotalSlots < 0 {
		return Item{}, fmt.Errorf("total_slots must not be negative")
	}
	at, err := tz.Parse(e.Datetime)
	if err != nil {
		return Item{}, fmt.Errorf("datetime: %w", err)
	}

	item := Item{Class: &models.FitnessClass{
		Name:        name,
		Instructor:  strings.TrimSpace(e.Instructor),
		ScheduledAt: at,
		TotalSlots:  e.TotalSlots,
	}}
	for _, b := range e.Bookings {
		email := strings.ToLower(strings.TrimSpace(b.Email))
		clientName := strings.TrimSpace(b.Name)
		if email == "" || clientName == "" {
			return Item{}, fmt.Errorf("booking needs name and email")
		}
		item.Bookings = append(item.Bookings, &models.Booking{ClientName: clientName, ClientEmail: email})
	}
	return item, nil
}

// Apply writes classes and their bookings to the store, optionally clearing
// the catalog first. Bookings still go through the capacity trigger and the
// unique index.
func Apply(ctx context.Context, store ClassStore, items []Item, reset bool, logger *zerolog.Logger) error {
	if reset {
		if _, err := store.DeleteAllClasses(ctx); err != nil {
			return err
		}
	}
	for _, item := range items {
		class := item.Class
		if err := store.CreateClass(ctx, class); err != nil {
			return fmt.Errorf("create %q: %w", class.Name, err)
		}
		logger.Info().
			Int64("class_id", class.ID).
			Str("name", class.Name).
			Str("instructor", class.Instructor).
			Time("scheduled_at", class.ScheduledAt).
			Int64("total_slots", class.TotalSlots).
			Msg("class created")

		for _, booking := range item.Bookings {
			booking.ClassID = class.ID
			if err := store.InsertBooking(ctx, booking); err != nil {
				return fmt.Errorf("book %s into %q: %w", booking.ClientEmail, class.Name, err)
			}
		}
	}
	return nil
}
