package models

import (
	"errors"
	"fmt"
)

// ErrInvalidDuration is returned when a timer value is not a whole number of seconds.
var ErrInvalidDuration = errors.New("please enter a valid number for the timer")

// ValidationError represents user input that was rejected.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (err *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", err.Field, err.Value, err.Err)
}

func (err *ValidationError) Unwrap() error {
	return err.Err
}
