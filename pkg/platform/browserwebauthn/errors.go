package browserwebauthn

import (
	"errors"

	"github.com/go-ctap/passkey/pkg/ceremony"
)

// DOMException names the browser rejects WebAuthn promises with.
const (
	NameNotAllowedError   = "NotAllowedError"
	NameAbortError        = "AbortError"
	NameInvalidStateError = "InvalidStateError"
	NameNotSupportedError = "NotSupportedError"
	NameSecurityError     = "SecurityError"
	NameConstraintError   = "ConstraintError"
	NameTypeError         = "TypeError"
)

// DOMException is the native rejection value of the credentials
// container.
type DOMException struct {
	Name    string
	Message string
}

func (e *DOMException) Error() string {
	return "browserwebauthn: " + e.Name + ": " + e.Message
}

// mapDOMException resolves every promise rejection, including
// unrecognized exception names, to exactly one taxonomy code.
func mapDOMException(err error) *ceremony.Error {
	var derr *DOMException
	if !errors.As(err, &derr) {
		return ceremony.Wrap(err)
	}

	switch derr.Name {
	case NameNotAllowedError, NameAbortError:
		return ceremony.NewError(ceremony.CodeCancelled, derr.Message)
	case NameInvalidStateError:
		return ceremony.NewError(ceremony.CodeNoCredentials, derr.Message)
	case NameNotSupportedError:
		return ceremony.NewError(ceremony.CodeNotSupported, derr.Message)
	case NameSecurityError:
		return ceremony.NewError(ceremony.CodeInvalidDomain, derr.Message)
	case NameConstraintError:
		return ceremony.NewError(ceremony.CodeSecurityError, derr.Message)
	case NameTypeError:
		return ceremony.NewError(ceremony.CodeInvalidRequest, derr.Message)
	}

	return ceremony.NewError(ceremony.CodeUnknownError, derr.Message)
}
