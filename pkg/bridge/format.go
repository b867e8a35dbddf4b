package bridge

import (
	"github.com/go-ctap/passkey/pkg/b64url"
	"github.com/go-ctap/passkey/pkg/ceremony"
	"github.com/go-ctap/passkey/pkg/passkeytypes"
)

// FormatRegistration maps a raw native registration credential into the
// platform-neutral result, base64url-encoding every binary field. An
// unexpected credential type or a missing attestation payload rejects
// with unknownError.
func FormatRegistration(cred *RegistrationCredential) (*passkeytypes.CreatePasskeyResult, error) {
	if cred.Type != string(passkeytypes.PublicKeyCredentialTypePublicKey) {
		return nil, ceremony.NewError(ceremony.CodeUnknownError, "unexpected credential type: "+cred.Type)
	}
	if len(cred.AttestationObject) == 0 {
		return nil, ceremony.NewError(ceremony.CodeUnknownError, "registration response is missing an attestation object")
	}

	id := b64url.Encode(cred.RawID)
	return &passkeytypes.CreatePasskeyResult{
		ID:                      id,
		RawID:                   id,
		Type:                    passkeytypes.PublicKeyCredentialTypePublicKey,
		AuthenticatorAttachment: cred.Attachment,
		Response: passkeytypes.AuthenticatorAttestationResponse{
			ClientDataJSON:    b64url.Encode(cred.ClientDataJSON),
			AttestationObject: b64url.Encode(cred.AttestationObject),
			Transports:        cred.Transports,
		},
	}, nil
}

// FormatAssertion maps a raw native assertion credential into the
// platform-neutral result. An empty user handle is omitted, never
// forwarded as "".
func FormatAssertion(cred *AssertionCredential) (*passkeytypes.GetPasskeyResult, error) {
	if cred.Type != string(passkeytypes.PublicKeyCredentialTypePublicKey) {
		return nil, ceremony.NewError(ceremony.CodeUnknownError, "unexpected credential type: "+cred.Type)
	}

	resp := passkeytypes.AuthenticatorAssertionResponse{
		ClientDataJSON:    b64url.Encode(cred.ClientDataJSON),
		AuthenticatorData: b64url.Encode(cred.AuthenticatorData),
		Signature:         b64url.Encode(cred.Signature),
	}
	if len(cred.UserHandle) > 0 {
		resp.UserHandle = b64url.Encode(cred.UserHandle)
	}

	id := b64url.Encode(cred.RawID)
	return &passkeytypes.GetPasskeyResult{
		ID:                      id,
		RawID:                   id,
		Type:                    passkeytypes.PublicKeyCredentialTypePublicKey,
		AuthenticatorAttachment: cred.Attachment,
		Response:                resp,
	}, nil
}
