package androidcred

import (
	"context"
	"errors"
	"strings"

	"github.com/go-ctap/passkey/pkg/ceremony"
)

// Broker failure signal type names, mirroring the credential manager's
// exception hierarchy.
const (
	TypeCreateCancelled      = "CreateCredentialCancellationException"
	TypeCreateInterrupted    = "CreateCredentialInterruptedException"
	TypeCreateProviderConfig = "CreateCredentialProviderConfigurationException"
	TypeCreateUnsupported    = "CreateCredentialUnsupportedException"
	TypeCreateDOM            = "CreatePublicKeyCredentialDomException"
	TypeCreateUnknown        = "CreateCredentialUnknownException"
	TypeGetCancelled         = "GetCredentialCancellationException"
	TypeGetInterrupted       = "GetCredentialInterruptedException"
	TypeGetProviderConfig    = "GetCredentialProviderConfigurationException"
	TypeGetUnsupported       = "GetCredentialUnsupportedException"
	TypeGetDOM               = "GetPublicKeyCredentialDomException"
	TypeGetUnknown           = "GetCredentialUnknownException"
	TypeNoCredential         = "NoCredentialException"
)

// BrokerError is the native failure signal of the credential broker:
// the exception type name plus its message.
type BrokerError struct {
	Type    string
	Message string
}

func (e *BrokerError) Error() string {
	return "androidcred: " + e.Type + ": " + e.Message
}

// mapBrokerError resolves every broker failure, including unrecognized
// exception types, to exactly one taxonomy code. Domain-association
// failures arrive as DOM exceptions carrying a SecurityError name.
func mapBrokerError(err error) *ceremony.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ceremony.NewError(ceremony.CodeCancelled, err.Error())
	}

	var berr *BrokerError
	if !errors.As(err, &berr) {
		return ceremony.Wrap(err)
	}

	switch berr.Type {
	case TypeCreateCancelled, TypeGetCancelled, TypeCreateInterrupted, TypeGetInterrupted:
		return ceremony.NewError(ceremony.CodeCancelled, berr.Message)
	case TypeNoCredential:
		return ceremony.NewError(ceremony.CodeNoCredentials, berr.Message)
	case TypeCreateProviderConfig, TypeGetProviderConfig, TypeCreateUnsupported, TypeGetUnsupported:
		return ceremony.NewError(ceremony.CodeNotSupported, berr.Message)
	case TypeCreateDOM, TypeGetDOM:
		return mapDOMMessage(berr.Message)
	}

	return ceremony.NewError(ceremony.CodeUnknownError, berr.Message)
}

func mapDOMMessage(msg string) *ceremony.Error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "securityerror"), strings.Contains(lower, "cannot be validated"):
		return ceremony.NewError(ceremony.CodeInvalidDomain, msg)
	case strings.Contains(lower, "notallowederror"):
		return ceremony.NewError(ceremony.CodeCancelled, msg)
	case strings.Contains(lower, "invalidstateerror"):
		return ceremony.NewError(ceremony.CodeNoCredentials, msg)
	}
	return ceremony.NewError(ceremony.CodeUnknownError, msg)
}
