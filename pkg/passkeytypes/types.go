// Package passkeytypes defines the platform-neutral request and result
// shapes of the passkey bridge. Binary fields are base64url text at
// this boundary; string enums follow the WebAuthn Level 3 names.
package passkeytypes

import "github.com/ldclabs/cose/key"

type (
	// PublicKeyCredentialType defines the valid credential types.
	// https://www.w3.org/TR/webauthn-3/#enumdef-publickeycredentialtype
	PublicKeyCredentialType string
	// AuthenticatorTransport defines hints as to how clients might communicate
	// with a particular authenticator in order to obtain an assertion for a specific credential.
	// https://www.w3.org/TR/webauthn-3/#enumdef-authenticatortransport
	AuthenticatorTransport string
	// AuthenticatorAttachment describes an authenticator's attachment modality.
	// https://www.w3.org/TR/webauthn-3/#enumdef-authenticatorattachment
	AuthenticatorAttachment string
	// ResidentKeyRequirement expresses the relying party's preference for
	// client-side discoverable credentials.
	// https://www.w3.org/TR/webauthn-3/#enumdef-residentkeyrequirement
	ResidentKeyRequirement string
	// UserVerificationRequirement expresses the relying party's user
	// verification requirements for a ceremony.
	// https://www.w3.org/TR/webauthn-3/#enumdef-userverificationrequirement
	UserVerificationRequirement string
	// AttestationConveyancePreference expresses the relying party's
	// preference regarding attestation conveyance.
	// https://www.w3.org/TR/webauthn-3/#enumdef-attestationconveyancepreference
	AttestationConveyancePreference string
)

const (
	PublicKeyCredentialTypePublicKey PublicKeyCredentialType = "public-key"
)

const (
	AuthenticatorTransportUSB      AuthenticatorTransport = "usb"
	AuthenticatorTransportNFC      AuthenticatorTransport = "nfc"
	AuthenticatorTransportBLE      AuthenticatorTransport = "ble"
	AuthenticatorTransportHybrid   AuthenticatorTransport = "hybrid"
	AuthenticatorTransportInternal AuthenticatorTransport = "internal"
)

const (
	AuthenticatorAttachmentPlatform      AuthenticatorAttachment = "platform"
	AuthenticatorAttachmentCrossPlatform AuthenticatorAttachment = "cross-platform"
)

const (
	ResidentKeyRequirementDiscouraged ResidentKeyRequirement = "discouraged"
	ResidentKeyRequirementPreferred   ResidentKeyRequirement = "preferred"
	ResidentKeyRequirementRequired    ResidentKeyRequirement = "required"
)

const (
	UserVerificationRequirementRequired    UserVerificationRequirement = "required"
	UserVerificationRequirementPreferred   UserVerificationRequirement = "preferred"
	UserVerificationRequirementDiscouraged UserVerificationRequirement = "discouraged"
)

const (
	AttestationConveyancePreferenceNone       AttestationConveyancePreference = "none"
	AttestationConveyancePreferenceIndirect   AttestationConveyancePreference = "indirect"
	AttestationConveyancePreferenceDirect     AttestationConveyancePreference = "direct"
	AttestationConveyancePreferenceEnterprise AttestationConveyancePreference = "enterprise"
)

// PublicKeyCredentialRpEntity describes the relying party on whose
// behalf a credential is created or asserted.
// https://www.w3.org/TR/webauthn-3/#dictdef-publickeycredentialrpentity
type PublicKeyCredentialRpEntity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PublicKeyCredentialUserEntity supplies user account attributes when
// creating a new credential. ID is a caller-opaque base64url handle,
// stable per account and never reused across accounts.
// https://www.w3.org/TR/webauthn-3/#dictdef-publickeycredentialuserentity
type PublicKeyCredentialUserEntity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// PublicKeyCredentialDescriptor identifies a specific public key
// credential; ID is the base64url credential id.
// https://www.w3.org/TR/webauthn-3/#dictdef-publickeycredentialdescriptor
type PublicKeyCredentialDescriptor struct {
	Type       PublicKeyCredentialType  `json:"type"`
	ID         string                   `json:"id"`
	Transports []AuthenticatorTransport `json:"transports,omitempty"`
}

// PublicKeyCredentialParameters names an acceptable credential type and
// signature algorithm pair, in descending order of preference.
// https://www.w3.org/TR/webauthn-3/#dictdef-publickeycredentialparameters
type PublicKeyCredentialParameters struct {
	Type      PublicKeyCredentialType `json:"type"`
	Algorithm key.Alg                 `json:"alg"`
}

// AuthenticatorSelectionCriteria restricts the set of authenticators
// eligible for a registration ceremony. Empty fields mean "not set";
// only explicitly set fields are forwarded to the native layer.
// https://www.w3.org/TR/webauthn-3/#dictdef-authenticatorselectioncriteria
type AuthenticatorSelectionCriteria struct {
	AuthenticatorAttachment AuthenticatorAttachment     `json:"authenticatorAttachment,omitempty"`
	ResidentKey             ResidentKeyRequirement      `json:"residentKey,omitempty"`
	UserVerification        UserVerificationRequirement `json:"userVerification,omitempty"`
}
