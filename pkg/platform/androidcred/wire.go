package androidcred

import (
	"encoding/json"

	"github.com/go-ctap/passkey/pkg/b64url"
	"github.com/go-ctap/passkey/pkg/bridge"
	"github.com/go-ctap/passkey/pkg/ceremony"
	"github.com/go-ctap/passkey/pkg/passkeytypes"
	"github.com/samber/lo"
)

// The broker speaks the WebAuthn JSON serialization: binary fields are
// base64url strings, absent optional fields are omitted entirely.

type wireUser struct {
	ID          b64url.Bytes `json:"id"`
	Name        string       `json:"name"`
	DisplayName string       `json:"displayName"`
}

type wireDescriptor struct {
	Type       passkeytypes.PublicKeyCredentialType  `json:"type"`
	ID         b64url.Bytes                          `json:"id"`
	Transports []passkeytypes.AuthenticatorTransport `json:"transports,omitempty"`
}

// wireSelection forwards only explicitly-set sub-fields; no per-field
// defaulting happens here or anywhere downstream.
type wireSelection struct {
	AuthenticatorAttachment passkeytypes.AuthenticatorAttachment     `json:"authenticatorAttachment,omitempty"`
	ResidentKey             passkeytypes.ResidentKeyRequirement      `json:"residentKey,omitempty"`
	RequireResidentKey      bool                                     `json:"requireResidentKey,omitempty"`
	UserVerification        passkeytypes.UserVerificationRequirement `json:"userVerification,omitempty"`
}

type createRequest struct {
	Challenge              b64url.Bytes                                 `json:"challenge"`
	RP                     passkeytypes.PublicKeyCredentialRpEntity     `json:"rp"`
	User                   wireUser                                     `json:"user"`
	PubKeyCredParams       []passkeytypes.PublicKeyCredentialParameters `json:"pubKeyCredParams"`
	AuthenticatorSelection *wireSelection                               `json:"authenticatorSelection,omitempty"`
	ExcludeCredentials     []wireDescriptor                             `json:"excludeCredentials,omitempty"`
	Attestation            passkeytypes.AttestationConveyancePreference `json:"attestation,omitempty"`
	Timeout                uint64                                       `json:"timeout,omitempty"`
}

type getRequest struct {
	Challenge        b64url.Bytes                             `json:"challenge"`
	RPID             string                                   `json:"rpId"`
	AllowCredentials []wireDescriptor                         `json:"allowCredentials,omitempty"`
	UserVerification passkeytypes.UserVerificationRequirement `json:"userVerification,omitempty"`
	Timeout          uint64                                   `json:"timeout,omitempty"`
}

func wireDescriptors(entries []ceremony.AllowedCredential) []wireDescriptor {
	if len(entries) == 0 {
		return nil
	}
	return lo.Map(entries, func(entry ceremony.AllowedCredential, _ int) wireDescriptor {
		return wireDescriptor{
			Type:       entry.Type,
			ID:         entry.ID,
			Transports: entry.Transports,
		}
	})
}

func newCreateRequest(desc *ceremony.RegistrationDescriptor) *createRequest {
	req := &createRequest{
		Challenge: desc.Challenge,
		RP:        desc.RP,
		User: wireUser{
			ID:          desc.User.ID,
			Name:        desc.User.Name,
			DisplayName: desc.User.DisplayName,
		},
		PubKeyCredParams:   desc.PubKeyCredParams,
		ExcludeCredentials: wireDescriptors(desc.ExcludeCredentials),
		Attestation:        desc.Attestation,
		Timeout:            uint64(desc.Timeout.Milliseconds()),
	}

	if sel := desc.Selection; sel != nil {
		req.AuthenticatorSelection = &wireSelection{
			AuthenticatorAttachment: sel.AuthenticatorAttachment,
			ResidentKey:             sel.ResidentKey,
			RequireResidentKey:      sel.ResidentKey == passkeytypes.ResidentKeyRequirementRequired,
			UserVerification:        sel.UserVerification,
		}
	}

	return req
}

func newGetRequest(desc *ceremony.AssertionDescriptor) *getRequest {
	return &getRequest{
		Challenge:        desc.Challenge,
		RPID:             desc.RPID,
		AllowCredentials: wireDescriptors(desc.AllowCredentials),
		UserVerification: desc.UserVerification,
		Timeout:          uint64(desc.Timeout.Milliseconds()),
	}
}

type createResponse struct {
	ID                      string       `json:"id"`
	RawID                   b64url.Bytes `json:"rawId"`
	Type                    string       `json:"type"`
	AuthenticatorAttachment string       `json:"authenticatorAttachment"`
	Response                struct {
		ClientDataJSON    b64url.Bytes `json:"clientDataJSON"`
		AttestationObject b64url.Bytes `json:"attestationObject"`
		Transports        []string     `json:"transports"`
	} `json:"response"`
}

type getResponse struct {
	ID                      string       `json:"id"`
	RawID                   b64url.Bytes `json:"rawId"`
	Type                    string       `json:"type"`
	AuthenticatorAttachment string       `json:"authenticatorAttachment"`
	Response                struct {
		ClientDataJSON    b64url.Bytes `json:"clientDataJSON"`
		AuthenticatorData b64url.Bytes `json:"authenticatorData"`
		Signature         b64url.Bytes `json:"signature"`
		UserHandle        b64url.Bytes `json:"userHandle"`
	} `json:"response"`
}

func parseCreateResponse(responseJSON []byte) (*bridge.RegistrationCredential, *ceremony.Error) {
	var resp createResponse
	if err := json.Unmarshal(responseJSON, &resp); err != nil {
		return nil, ceremony.NewError(ceremony.CodeUnknownError, "malformed broker response: "+err.Error())
	}

	return &bridge.RegistrationCredential{
		Type:              resp.Type,
		RawID:             resp.RawID,
		ClientDataJSON:    resp.Response.ClientDataJSON,
		AttestationObject: resp.Response.AttestationObject,
		Transports:        resp.Response.Transports,
		Attachment:        passkeytypes.AuthenticatorAttachmentPlatform,
	}, nil
}

func parseGetResponse(responseJSON []byte) (*bridge.AssertionCredential, *ceremony.Error) {
	var resp getResponse
	if err := json.Unmarshal(responseJSON, &resp); err != nil {
		return nil, ceremony.NewError(ceremony.CodeUnknownError, "malformed broker response: "+err.Error())
	}

	return &bridge.AssertionCredential{
		Type:              resp.Type,
		RawID:             resp.RawID,
		ClientDataJSON:    resp.Response.ClientDataJSON,
		AuthenticatorData: resp.Response.AuthenticatorData,
		Signature:         resp.Response.Signature,
		UserHandle:        resp.Response.UserHandle,
		Attachment:        passkeytypes.AuthenticatorAttachmentPlatform,
	}, nil
}
