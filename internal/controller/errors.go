package controller

import "errors"

// Domain errors for the controller package.
var (
	// ErrControllerNotFound is returned when a UID is not registered.
	ErrControllerNotFound = errors.New("controller: not found")

	// ErrAlreadyPaired is returned when pairing a UID that is already registered.
	ErrAlreadyPaired = errors.New("controller: already paired")

	// ErrInvalidController is returned when a record fails validation.
	ErrInvalidController = errors.New("controller: invalid")
)
