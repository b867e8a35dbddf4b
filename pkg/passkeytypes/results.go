package passkeytypes

// AuthenticatorAttestationResponse carries the registration payload
// produced by the native authenticator.
type AuthenticatorAttestationResponse struct {
	ClientDataJSON    string   `json:"clientDataJSON"`
	AttestationObject string   `json:"attestationObject"`
	Transports        []string `json:"transports,omitempty"`
}

// CreatePasskeyResult is the platform-neutral registration result.
// AuthenticatorAttachment is present only when the platform reports it.
type CreatePasskeyResult struct {
	ID                      string                           `json:"id"`
	RawID                   string                           `json:"rawId"`
	Type                    PublicKeyCredentialType          `json:"type"`
	AuthenticatorAttachment AuthenticatorAttachment          `json:"authenticatorAttachment,omitempty"`
	Response                AuthenticatorAttestationResponse `json:"response"`
}

// AuthenticatorAssertionResponse carries the assertion payload produced
// by the native authenticator. UserHandle is omitted when the native
// layer returned none (an empty string from the platform is treated as
// absent, never forwarded as "").
type AuthenticatorAssertionResponse struct {
	ClientDataJSON    string `json:"clientDataJSON"`
	AuthenticatorData string `json:"authenticatorData"`
	Signature         string `json:"signature"`
	UserHandle        string `json:"userHandle,omitempty"`
}

// GetPasskeyResult is the platform-neutral assertion result.
type GetPasskeyResult struct {
	ID                      string                         `json:"id"`
	RawID                   string                         `json:"rawId"`
	Type                    PublicKeyCredentialType        `json:"type"`
	AuthenticatorAttachment AuthenticatorAttachment        `json:"authenticatorAttachment,omitempty"`
	Response                AuthenticatorAssertionResponse `json:"response"`
}

// Availability reports whether a platform authenticator is usable,
// together with platform-specific readiness signals. IsSupported never
// fails; unknown conditions resolve Supported=false.
type Availability struct {
	Supported bool           `json:"supported"`
	Details   map[string]any `json:"details"`
}
