package passkeytypes

// CreatePasskeyOptions is the platform-neutral registration request.
// Challenge is base64url text issued by the relying party and consumed
// exactly once; Timeout is in milliseconds and native-platform
// dependent (some platforms manage their own timing and accept the
// value for API compatibility only).
type CreatePasskeyOptions struct {
	Challenge              string                          `json:"challenge"`
	RP                     PublicKeyCredentialRpEntity     `json:"rp"`
	User                   PublicKeyCredentialUserEntity   `json:"user"`
	PubKeyCredParams       []PublicKeyCredentialParameters `json:"pubKeyCredParams,omitempty"`
	AuthenticatorSelection *AuthenticatorSelectionCriteria `json:"authenticatorSelection,omitempty"`
	ExcludeCredentials     []PublicKeyCredentialDescriptor `json:"excludeCredentials,omitempty"`
	Attestation            AttestationConveyancePreference `json:"attestation,omitempty"`
	Timeout                uint                            `json:"timeout,omitempty"`
}

// GetPasskeyOptions is the platform-neutral assertion request. An
// omitted or empty AllowCredentials list permits any discoverable
// credential for the relying party.
type GetPasskeyOptions struct {
	Challenge        string                          `json:"challenge"`
	RPID             string                          `json:"rpId"`
	AllowCredentials []PublicKeyCredentialDescriptor `json:"allowCredentials,omitempty"`
	UserVerification UserVerificationRequirement     `json:"userVerification,omitempty"`
	Timeout          uint                            `json:"timeout,omitempty"`
}
