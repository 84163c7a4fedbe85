package timezone

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DisplayLayout is the wire format for display-zone timestamps.
const DisplayLayout = time.RFC3339

// ErrEmptyInput is returned by Parse for blank text.
var ErrEmptyInput = errors.New("empty datetime string")

// Layouts that carry an explicit offset or Z suffix.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04Z07:00",
}

// Layouts without zone information; read as display-zone wall clock.
var wallLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Converter translates between stored instants and the display zone.
// It is immutable after construction and safe for concurrent use.
type Converter struct {
	loc *time.Location
}

// New loads the IANA zone used for presenting times to clients.
func New(zoneName string) (*Converter, error) {
	name := strings.TrimSpace(zoneName)
	if name == "" {
		return nil, fmt.Errorf("display timezone is empty")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return &Converter{loc: loc}, nil
}

// MustNew is New for package-level test fixtures and seed tooling.
func MustNew(zoneName string) *Converter {
	c, err := New(zoneName)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Converter) Location() *time.Location {
	return c.loc
}

// ToDisplay converts an instant to the display zone. Instants decoded from
// the store are UTC, so there is no zone-less case left to guess about.
func (c *Converter) ToDisplay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.In(c.loc)
}

// ToStorage normalises a zone-aware value to the UTC instant that is persisted.
func (c *Converter) ToStorage(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// FromWallClock reads the wall-clock fields of t as display-zone local time,
// ignoring whatever location t carries, and returns the matching UTC instant.
func (c *Converter) FromWallClock(t time.Time) time.Time {
	local := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), c.loc)
	return local.UTC()
}

// Parse accepts ISO-8601-like text. An explicit offset or Z wins; otherwise
// the value is taken as display-zone wall clock.
func (c *Converter) Parse(text string) (time.Time, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, ErrEmptyInput
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range wallLayouts {
		if t, err := time.ParseInLocation(layout, s, c.loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised datetime %q", s)
}

// Format renders an instant in the display zone.
func (c *Converter) Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return c.ToDisplay(t).Format(DisplayLayout)
}
