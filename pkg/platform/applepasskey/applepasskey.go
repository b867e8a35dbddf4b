// Package applepasskey adapts the platform biometric authorization
// service of mobile variant A. The native layer is delegate-driven:
// issuing a request returns immediately and the outcome arrives later
// on a delegate, so the adapter bridges each completion signal into the
// single-shot pending-ceremony continuation.
//
// Requests carry raw binary challenge and user-id fields; the adapter
// decodes nothing itself, it receives normalized descriptors.
package applepasskey

import (
	"context"
	"log/slog"

	"github.com/go-ctap/passkey/pkg/bridge"
	"github.com/go-ctap/passkey/pkg/ceremony"
	"github.com/go-ctap/passkey/pkg/options"
	"github.com/go-ctap/passkey/pkg/passkeytypes"
)

// PresentationAnchor is the opaque UI context (window/scene handle) the
// authorization service presents its prompt on.
type PresentationAnchor any

// RegistrationRequest is the raw-binary registration request shape of
// the platform authorization service.
type RegistrationRequest struct {
	RelyingPartyID   string
	Challenge        []byte
	UserID           []byte
	UserName         string
	UserDisplayName  string
	UserVerification passkeytypes.UserVerificationRequirement
	ExcludedIDs      [][]byte
}

// AssertionRequest is the raw-binary assertion request shape of the
// platform authorization service.
type AssertionRequest struct {
	RelyingPartyID   string
	Challenge        []byte
	AllowedIDs       [][]byte
	UserVerification passkeytypes.UserVerificationRequirement
}

// Credential is the platform credential handed to the delegate on
// success. Registration completions fill RawAttestationObject;
// assertion completions fill RawAuthenticatorData, Signature and
// (for discoverable credentials) UserID.
type Credential struct {
	CredentialID         []byte
	RawClientDataJSON    []byte
	RawAttestationObject []byte
	RawAuthenticatorData []byte
	Signature            []byte
	UserID               []byte
}

// Delegate receives the asynchronous outcome of one authorization
// request. Exactly one method is invoked per request.
type Delegate interface {
	DidCompleteRegistration(cred *Credential)
	DidCompleteAssertion(cred *Credential)
	DidFail(aerr *AuthorizationError)
}

// AuthorizationService is the native platform capability. Perform
// calls trigger the OS biometric/PIN prompt and return immediately;
// the outcome is reported on the delegate. The caller-supplied timeout
// is accepted for API compatibility only: the platform manages
// ceremony timing itself.
type AuthorizationService interface {
	PerformRegistration(anchor PresentationAnchor, req *RegistrationRequest, delegate Delegate)
	PerformAssertion(anchor PresentationAnchor, req *AssertionRequest, delegate Delegate)
	PlatformAuthenticatorAvailable() bool
	OSVersion() string
}

// Authenticator implements bridge.NativeAuthenticator over the
// delegate-driven authorization service.
type Authenticator struct {
	service AuthorizationService
	anchor  PresentationAnchor
	logger  *slog.Logger
	slot    bridge.Slot
}

// New builds the variant-A adapter. The anchor is required at dispatch
// time: a ceremony issued without one fails with unknownError before
// any native request is made.
func New(service AuthorizationService, anchor PresentationAnchor, opts ...options.Option) *Authenticator {
	oo := options.NewOptions(opts...)

	return &Authenticator{
		service: service,
		anchor:  anchor,
		logger:  oo.Logger,
	}
}

// CheckAvailability reports platform authenticator readiness. It never
// fails; a panicking service resolves Supported=false.
func (a *Authenticator) CheckAvailability(_ context.Context) (avail passkeytypes.Availability) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Debug("availability check failed", "reason", r)
			avail = passkeytypes.Availability{Details: map[string]any{}}
		}
	}()

	available := a.service.PlatformAuthenticatorAvailable()
	return passkeytypes.Availability{
		Supported: available,
		Details: map[string]any{
			"osVersion": a.service.OSVersion(),
			"isUserVerifyingPlatformAuthenticatorAvailable": available,
		},
	}
}

func (a *Authenticator) BeginRegistration(ctx context.Context, desc *ceremony.RegistrationDescriptor) (*passkeytypes.CreatePasskeyResult, error) {
	if a.anchor == nil {
		return nil, ceremony.NewError(ceremony.CodeUnknownError, "no presentation anchor available")
	}

	pending, err := bridge.Begin[*Credential](&a.slot)
	if err != nil {
		return nil, err
	}

	req := &RegistrationRequest{
		RelyingPartyID:  desc.RP.ID,
		Challenge:       desc.Challenge,
		UserID:          desc.User.ID,
		UserName:        desc.User.Name,
		UserDisplayName: desc.User.DisplayName,
	}
	if desc.Selection != nil {
		req.UserVerification = desc.Selection.UserVerification
	}
	for _, excluded := range desc.ExcludeCredentials {
		req.ExcludedIDs = append(req.ExcludedIDs, excluded.ID)
	}

	a.service.PerformRegistration(a.anchor, req, &delegate{
		pending: pending,
		kind:    kindRegistration,
	})

	cred, err := pending.Wait(ctx)
	if err != nil {
		return nil, err
	}

	return bridge.FormatRegistration(&bridge.RegistrationCredential{
		Type:              string(passkeytypes.PublicKeyCredentialTypePublicKey),
		RawID:             cred.CredentialID,
		ClientDataJSON:    cred.RawClientDataJSON,
		AttestationObject: cred.RawAttestationObject,
		Attachment:        passkeytypes.AuthenticatorAttachmentPlatform,
	})
}

func (a *Authenticator) BeginAssertion(ctx context.Context, desc *ceremony.AssertionDescriptor) (*passkeytypes.GetPasskeyResult, error) {
	if a.anchor == nil {
		return nil, ceremony.NewError(ceremony.CodeUnknownError, "no presentation anchor available")
	}

	pending, err := bridge.Begin[*Credential](&a.slot)
	if err != nil {
		return nil, err
	}

	req := &AssertionRequest{
		RelyingPartyID:   desc.RPID,
		Challenge:        desc.Challenge,
		UserVerification: desc.UserVerification,
	}
	for _, allowed := range desc.AllowCredentials {
		req.AllowedIDs = append(req.AllowedIDs, allowed.ID)
	}

	a.service.PerformAssertion(a.anchor, req, &delegate{
		pending: pending,
		kind:    kindAssertion,
	})

	cred, err := pending.Wait(ctx)
	if err != nil {
		return nil, err
	}

	return bridge.FormatAssertion(&bridge.AssertionCredential{
		Type:              string(passkeytypes.PublicKeyCredentialTypePublicKey),
		RawID:             cred.CredentialID,
		ClientDataJSON:    cred.RawClientDataJSON,
		AuthenticatorData: cred.RawAuthenticatorData,
		Signature:         cred.Signature,
		UserHandle:        cred.UserID,
		Attachment:        passkeytypes.AuthenticatorAttachmentPlatform,
	})
}

type ceremonyKind int

const (
	kindRegistration ceremonyKind = iota
	kindAssertion
)

// delegate funnels the three possible completion signals into the
// pending continuation. A completion of the wrong kind rejects with
// unknownError instead of being forwarded.
type delegate struct {
	pending *bridge.Pending[*Credential]
	kind    ceremonyKind
}

func (d *delegate) DidCompleteRegistration(cred *Credential) {
	if d.kind != kindRegistration {
		d.pending.Reject(ceremony.NewError(ceremony.CodeUnknownError, "unexpected registration response during assertion"))
		return
	}
	d.pending.Resolve(cred)
}

func (d *delegate) DidCompleteAssertion(cred *Credential) {
	if d.kind != kindAssertion {
		d.pending.Reject(ceremony.NewError(ceremony.CodeUnknownError, "unexpected assertion response during registration"))
		return
	}
	d.pending.Resolve(cred)
}

func (d *delegate) DidFail(aerr *AuthorizationError) {
	d.pending.Reject(mapAuthorizationError(aerr))
}
