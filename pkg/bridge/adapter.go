package bridge

import (
	"context"

	"github.com/go-ctap/passkey/pkg/ceremony"
	"github.com/go-ctap/passkey/pkg/passkeytypes"
)

// NativeAuthenticator is the capability set every platform variant
// implements. Descriptors handed to BeginRegistration/BeginAssertion
// are already normalized; both calls block until the native layer
// reports completion and reject with a taxonomy error on failure.
// CheckAvailability never fails.
type NativeAuthenticator interface {
	CheckAvailability(ctx context.Context) passkeytypes.Availability
	BeginRegistration(ctx context.Context, desc *ceremony.RegistrationDescriptor) (*passkeytypes.CreatePasskeyResult, error)
	BeginAssertion(ctx context.Context, desc *ceremony.AssertionDescriptor) (*passkeytypes.GetPasskeyResult, error)
}

// RegistrationCredential is the raw public-key credential a native
// layer yields for a registration ceremony, before formatting.
type RegistrationCredential struct {
	Type              string
	RawID             []byte
	ClientDataJSON    []byte
	AttestationObject []byte
	Transports        []string
	// Attachment is empty when the platform does not report it.
	Attachment passkeytypes.AuthenticatorAttachment
}

// AssertionCredential is the raw public-key credential a native layer
// yields for an assertion ceremony, before formatting.
type AssertionCredential struct {
	Type              string
	RawID             []byte
	ClientDataJSON    []byte
	AuthenticatorData []byte
	Signature         []byte
	// UserHandle may be empty; empty is treated as absent.
	UserHandle []byte
	Attachment passkeytypes.AuthenticatorAttachment
}
