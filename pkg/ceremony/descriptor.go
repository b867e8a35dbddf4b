package ceremony

import (
	"time"

	"github.com/go-ctap/passkey/pkg/passkeytypes"
)

// User is the normalized user entity with its handle decoded to raw
// bytes.
type User struct {
	ID          []byte
	Name        string
	DisplayName string
}

// AllowedCredential is a normalized allow/exclude-list entry with the
// credential ID decoded to raw bytes.
type AllowedCredential struct {
	Type       passkeytypes.PublicKeyCredentialType
	ID         []byte
	Transports []passkeytypes.AuthenticatorTransport
}

// RegistrationDescriptor is a complete, validated registration request
// ready for native dispatch: defaults applied, binary fields decoded.
type RegistrationDescriptor struct {
	Challenge          []byte
	RP                 passkeytypes.PublicKeyCredentialRpEntity
	User               User
	PubKeyCredParams   []passkeytypes.PublicKeyCredentialParameters
	Selection          *passkeytypes.AuthenticatorSelectionCriteria
	ExcludeCredentials []AllowedCredential
	Attestation        passkeytypes.AttestationConveyancePreference
	Timeout            time.Duration
}

// AssertionDescriptor is a complete, validated assertion request ready
// for native dispatch. An empty AllowCredentials permits any
// discoverable credential for the relying party.
type AssertionDescriptor struct {
	Challenge        []byte
	RPID             string
	AllowCredentials []AllowedCredential
	UserVerification passkeytypes.UserVerificationRequirement
	Timeout          time.Duration
}
