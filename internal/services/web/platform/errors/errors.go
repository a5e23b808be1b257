// Package errors defines typed web application errors.
package errors

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/louisbranch/campaignforge/internal/platform/backend"
	"github.com/louisbranch/campaignforge/internal/platform/requestctx"
)

// Kind classifies application failures for consistent HTTP mapping.
type Kind string

const (
	KindUnknown      Kind = "unknown"
	KindInvalidInput Kind = "invalid_input"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindUnavailable  Kind = "unavailable"
)

// Error is a typed web application failure.
type Error struct {
	Kind    Kind
	Key     string
	Message string
	Err     error
}

// Error renders the human-readable message.
func (e Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

// Unwrap exposes the wrapped cause.
func (e Error) Unwrap() error { return e.Err }

// E builds a typed Error.
func E(kind Kind, message string) error {
	return Error{Kind: kind, Message: message}
}

// EK builds a typed Error with a localization key.
func EK(kind Kind, key string, message string) error {
	return Error{Kind: kind, Key: strings.TrimSpace(key), Message: message}
}

// Wrap classifies err under kind, keeping it as the cause.
func Wrap(kind Kind, message string, err error) error {
	if err == nil {
		return nil
	}
	return Error{Kind: kind, Message: message, Err: err}
}

// FromBackend classifies a backend client error by the HTTP status the
// backend answered with. Transport failures count as unavailable.
func FromBackend(message string, err error) error {
	if err == nil {
		return nil
	}
	var appErr Error
	if stderrors.As(err, &appErr) {
		return err
	}
	code := backend.StatusCode(err)
	switch {
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return Wrap(KindInvalidInput, message, err)
	case code == http.StatusUnauthorized:
		return Wrap(KindUnauthorized, message, err)
	case code == http.StatusForbidden:
		return Wrap(KindForbidden, message, err)
	case code == http.StatusNotFound:
		return Wrap(KindNotFound, message, err)
	case code == http.StatusConflict:
		return Wrap(KindConflict, message, err)
	case code >= http.StatusInternalServerError, code == 0:
		return Wrap(KindUnavailable, message, err)
	default:
		return Wrap(KindUnknown, message, err)
	}
}

// KindOf returns the kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var appErr Error
	if stderrors.As(err, &appErr) && appErr.Kind != "" {
		return appErr.Kind
	}
	return KindUnknown
}

// LocalizationKey returns the message key for err: its explicit key when
// set, otherwise the core key for its kind.
func LocalizationKey(err error) string {
	if err == nil {
		return ""
	}
	var appErr Error
	if !stderrors.As(err, &appErr) {
		return "core.error.internal"
	}
	if key := strings.TrimSpace(appErr.Key); key != "" {
		return key
	}
	switch appErr.Kind {
	case KindInvalidInput:
		return "core.error.invalid"
	case KindUnauthorized, KindForbidden, KindNotFound, KindConflict, KindUnavailable:
		return "core.error." + string(appErr.Kind)
	default:
		return "core.error.internal"
	}
}

// HTTPStatus maps an error to an HTTP status code.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if stderrors.Is(err, requestctx.ErrNoIdentity) {
		return http.StatusInternalServerError
	}
	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
