package database

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrClassNotFound = errors.New("class not found")
	ErrClassFull     = errors.New("class is fully booked")
	ErrAlreadyBooked = errors.New("client already booked this class")
)

// constraintError maps sqlite constraint violations raised by the bookings
// table onto the package sentinels. It returns nil for anything else.
func constraintError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return nil
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return ErrAlreadyBooked
	case sqlite3.ErrConstraintTrigger:
		return ErrClassFull
	case sqlite3.ErrConstraintForeignKey:
		return ErrClassNotFound
	}
	return nil
}
