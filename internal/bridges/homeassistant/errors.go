package homeassistant

import "errors"

// Domain errors for the Home Assistant bridge.
var (
	// ErrInvalidOptions is returned by New when a required option is missing.
	ErrInvalidOptions = errors.New("homeassistant: invalid options")

	// ErrUnknownTopic is returned for messages outside the command tree.
	ErrUnknownTopic = errors.New("homeassistant: unknown topic")

	// ErrUnknownEntity is returned for commands addressed to a key the
	// bridge does not expose.
	ErrUnknownEntity = errors.New("homeassistant: unknown entity")
)
