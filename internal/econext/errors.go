package econext

import (
	"errors"
	"fmt"
)

// ErrAPI is the base of every error returned by a Client call.
// Use errors.Is(err, ErrAPI) to recognise any device-side failure.
var ErrAPI = errors.New("econext: api error")

// Error kinds. Each wraps ErrAPI.
var (
	// ErrAuthRejected is returned when the controller answers HTTP 401.
	ErrAuthRejected = fmt.Errorf("%w: authentication rejected", ErrAPI)

	// ErrUnexpectedStatus is matched by every *StatusError.
	ErrUnexpectedStatus = fmt.Errorf("%w: unexpected status", ErrAPI)

	// ErrConnectionFailed wraps transport failures (DNS, connect, timeout,
	// reset). The underlying cause is preserved in the chain.
	ErrConnectionFailed = fmt.Errorf("%w: connection failed", ErrAPI)

	// ErrMalformedPayload is returned when the response body, or the JSON
	// string embedded in an envelope, cannot be decoded.
	ErrMalformedPayload = fmt.Errorf("%w: malformed payload", ErrAPI)
)

// ErrInvalidConfig is returned by NewClient for unusable settings.
var ErrInvalidConfig = errors.New("econext: invalid client config")

// StatusError reports a non-200, non-401 HTTP status from the controller.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("econext: device returned unexpected status %d", e.Code)
}

// Unwrap makes errors.Is(err, ErrUnexpectedStatus) and errors.Is(err, ErrAPI) hold.
func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// ErrorKind classifies err for metrics labels and API responses.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthRejected):
		return "auth_rejected"
	case errors.Is(err, ErrUnexpectedStatus):
		return "unexpected_status"
	case errors.Is(err, ErrConnectionFailed):
		return "connection_failed"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed_payload"
	default:
		return "other"
	}
}
