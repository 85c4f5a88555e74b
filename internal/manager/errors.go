package manager

import (
	"errors"
	"net/http"
)

// triggerDisabledError is returned when a run is requested while the trigger
// is disabled: a run is in progress or a clip is missing.
type triggerDisabledError struct{ reason string }

func (e triggerDisabledError) Error() string   { return "trigger disabled: " + e.reason }
func (e triggerDisabledError) StatusCode() int { return http.StatusConflict }

// IsTriggerDisabled reports whether err rejected a run request (return 409).
func IsTriggerDisabled(err error) bool {
	var e triggerDisabledError
	return errors.As(err, &e)
}

// engineNotReadyError signals that the engine has not finished loading or
// failed to load, so the HTTP layer can return 503.
type engineNotReadyError struct{ msg string }

func (e engineNotReadyError) Error() string   { return e.msg }
func (e engineNotReadyError) StatusCode() int { return http.StatusServiceUnavailable }

// ErrEngineNotReady constructs an engineNotReadyError.
func ErrEngineNotReady(msg string) error {
	if msg == "" {
		msg = "engine not ready"
	}
	return engineNotReadyError{msg: msg}
}

// IsEngineNotReady reports whether err indicates a missing or failed engine.
func IsEngineNotReady(err error) bool {
	var e engineNotReadyError
	return errors.As(err, &e)
}

// notFoundError covers unknown slots, results and library clips.
type notFoundError struct{ what string }

func (e notFoundError) Error() string   { return "not found: " + e.what }
func (e notFoundError) StatusCode() int { return http.StatusNotFound }

func ErrNotFound(what string) error { return notFoundError{what: what} }

// IsNotFound reports whether err names something that does not exist.
func IsNotFound(err error) bool {
	var e notFoundError
	return errors.As(err, &e)
}

// badRequestError reports invalid caller input such as negative positions.
type badRequestError struct{ msg string }

func (e badRequestError) Error() string   { return e.msg }
func (e badRequestError) StatusCode() int { return http.StatusBadRequest }

// IsBadRequest reports whether err was caused by invalid input.
func IsBadRequest(err error) bool {
	var e badRequestError
	return errors.As(err, &e)
}
