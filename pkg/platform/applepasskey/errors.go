package applepasskey

import (
	"strconv"
	"strings"

	"github.com/go-ctap/passkey/pkg/ceremony"
)

// Authorization error codes reported by the platform service.
const (
	ErrorCodeUnknown         = 1000
	ErrorCodeCanceled        = 1001
	ErrorCodeInvalidResponse = 1002
	ErrorCodeNotHandled      = 1003
	ErrorCodeFailed          = 1004
	ErrorCodeNotInteractive  = 1005
)

// AuthorizationError is the native failure signal of the authorization
// service: a numeric code plus a localized description.
type AuthorizationError struct {
	Code    int
	Message string
}

func (e *AuthorizationError) Error() string {
	return "applepasskey: authorization error " + strconv.Itoa(e.Code) + ": " + e.Message
}

// mapAuthorizationError resolves every native failure to exactly one
// taxonomy code. Domain-association and no-credential failures arrive
// as unclassified codes and are recognized by message.
func mapAuthorizationError(aerr *AuthorizationError) *ceremony.Error {
	if aerr == nil {
		return ceremony.NewError(ceremony.CodeUnknownError, "")
	}

	switch aerr.Code {
	case ErrorCodeCanceled, ErrorCodeNotInteractive:
		return ceremony.NewError(ceremony.CodeCancelled, aerr.Message)
	case ErrorCodeFailed:
		return ceremony.NewError(ceremony.CodeSecurityError, aerr.Message)
	case ErrorCodeNotHandled:
		return ceremony.NewError(ceremony.CodeNotSupported, aerr.Message)
	case ErrorCodeInvalidResponse:
		return ceremony.NewError(ceremony.CodeUnknownError, aerr.Message)
	}

	msg := strings.ToLower(aerr.Message)
	switch {
	case strings.Contains(msg, "not associated with domain"):
		return ceremony.NewError(ceremony.CodeInvalidDomain, aerr.Message)
	case strings.Contains(msg, "no credentials available"):
		return ceremony.NewError(ceremony.CodeNoCredentials, aerr.Message)
	}

	return ceremony.NewError(ceremony.CodeUnknownError, aerr.Message)
}
