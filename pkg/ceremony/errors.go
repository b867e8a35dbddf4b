// Package ceremony holds the pieces shared by all platform adapters:
// the error taxonomy every native failure maps onto, and the request
// normalizer that validates and defaults ceremony options before any
// native dispatch.
package ceremony

import "errors"

// Code is the shared error taxonomy. Every native failure signal, on
// every platform, resolves to exactly one of these.
type Code string

const (
	CodeCancelled      Code = "cancelled"
	CodeNotSupported   Code = "notSupported"
	CodeInvalidDomain  Code = "invalidDomain"
	CodeNoCredentials  Code = "noCredentials"
	CodeSecurityError  Code = "securityError"
	CodeInvalidRequest Code = "invalidRequest"
	CodeUnknownError   Code = "unknownError"
)

// fallbackMessages are used when the native layer supplied no usable
// message of its own.
var fallbackMessages = map[Code]string{
	CodeCancelled:      "the user cancelled the ceremony",
	CodeNotSupported:   "no credential provider is configured or available",
	CodeInvalidDomain:  "relying party domain association verification failed",
	CodeNoCredentials:  "no matching credential exists",
	CodeSecurityError:  "user verification failed",
	CodeInvalidRequest: "malformed or missing request parameters",
	CodeUnknownError:   "an unknown error occurred",
}

// Error is the structured {code, message} failure every ceremony
// operation rejects with.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// NewError builds a taxonomy error, substituting the per-code fallback
// message when msg is empty.
func NewError(code Code, msg string) *Error {
	if msg == "" {
		msg = fallbackMessages[code]
	}
	return &Error{
		Code:    code,
		Message: msg,
	}
}

func (e *Error) Error() string {
	return "ceremony: " + string(e.Code) + " (" + e.Message + ")"
}

// Is reports whether target is a taxonomy error with the same code,
// letting callers match with errors.Is(err, &Error{Code: ...}).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// Wrap coerces an arbitrary error into a taxonomy error. Errors that
// already carry a code pass through unchanged; anything else becomes
// unknownError with the original message preserved.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}

	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr
	}
	return NewError(CodeUnknownError, err.Error())
}
