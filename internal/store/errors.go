package store

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/rcliao/notedesk/internal/model"
)

var (
	// ErrNotFound is returned by lookups that reference a missing note.
	// Mutations never return it; they are silent no-ops instead.
	ErrNotFound = errors.New("note not found")

	// ErrValidation marks rejected input at the edit boundary.
	ErrValidation = errors.New("invalid input")

	// ErrStorageUnavailable wraps every durable read/write failure.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNoSnapshot is returned by Slot.Load when nothing was stored yet.
	ErrNoSnapshot = errors.New("no snapshot stored")
)

// ValidateTitle enforces the title length limit. max <= 0 uses
// model.MaxTitleLength.
func ValidateTitle(title string, max int) error {
	if max <= 0 {
		max = model.MaxTitleLength
	}
	if n := utf8.RuneCountInString(title); n > max {
		return fmt.Errorf("%w: title is %d characters (max %d)", ErrValidation, n, max)
	}
	return nil
}

func unavailable(err error, msg string) error {
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, errors.Wrap(err, msg))
}
