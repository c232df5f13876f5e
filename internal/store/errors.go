package store

import (
	"errors"
	"fmt"
)

var (
	// ErrSettingsNotFound is returned when no settings have been saved.
	ErrSettingsNotFound = errors.New("settings not found")

	// ErrEntryExists is returned when appending an id that is already in the library.
	ErrEntryExists = errors.New("library entry already exists")
)

// CorruptError reports a stored document that could not be decoded.
type CorruptError struct {
	Location string
	Err      error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt data at %s: %v", e.Location, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }
