package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/econext-bridge/internal/econext"
	"github.com/nerrad567/econext-bridge/internal/entity"
)

// Error is the body of every non-2xx response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`

	// Kind is the controller error kind, set only for device_error.
	Kind string `json:"kind,omitempty"`
}

// Error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeMethodNotAllow = "method_not_allowed"
	ErrCodeDevice         = "device_error"
)

// entityErrors maps command rejections to a status and code. Anything not
// listed here and not a controller error is a 500.
var entityErrors = []struct {
	target error
	status int
	code   string
}{
	{entity.ErrReadOnly, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow},
	{entity.ErrBelowMinimum, http.StatusUnprocessableEntity, ErrCodeValidation},
	{entity.ErrUnknownOption, http.StatusUnprocessableEntity, ErrCodeValidation},
	{entity.ErrInvalidCommand, http.StatusUnprocessableEntity, ErrCodeValidation},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, e Error) {
	writeJSON(w, e.Status, e)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeError(w, Error{Status: http.StatusBadRequest, Code: ErrCodeBadRequest, Message: msg})
}

func writeNotFound(w http.ResponseWriter, msg string) {
	writeError(w, Error{Status: http.StatusNotFound, Code: ErrCodeNotFound, Message: msg})
}

func writeInternalError(w http.ResponseWriter, msg string) {
	writeError(w, Error{Status: http.StatusInternalServerError, Code: ErrCodeInternal, Message: msg})
}

// writeDeviceError maps a write or refresh failure to a response.
// Controller failures are 502 and carry the error kind.
func writeDeviceError(w http.ResponseWriter, err error) {
	for _, m := range entityErrors {
		if errors.Is(err, m.target) {
			writeError(w, Error{Status: m.status, Code: m.code, Message: err.Error()})
			return
		}
	}

	if errors.Is(err, econext.ErrAPI) {
		writeError(w, Error{
			Status:  http.StatusBadGateway,
			Code:    ErrCodeDevice,
			Message: err.Error(),
			Kind:    econext.ErrorKind(err),
		})
		return
	}
	writeInternalError(w, err.Error())
}
