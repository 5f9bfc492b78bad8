package entity

import "errors"

// Domain errors for entity operations.
var (
	// ErrBelowMinimum is returned when a number write is under the resolved
	// minimum bound. No device call is made.
	ErrBelowMinimum = errors.New("value below minimum")

	// ErrUnknownOption is returned when a select receives a label it does
	// not map.
	ErrUnknownOption = errors.New("unknown option")

	// ErrReadOnly is returned when a command targets a sensor.
	ErrReadOnly = errors.New("entity is read-only")

	// ErrInvalidCommand is returned when a command payload cannot be parsed
	// for the target entity.
	ErrInvalidCommand = errors.New("invalid command payload")

	// ErrInvalidTable is returned when an entity table fails validation.
	ErrInvalidTable = errors.New("invalid entity table")
)
