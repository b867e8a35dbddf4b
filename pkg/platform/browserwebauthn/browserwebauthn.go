// Package browserwebauthn adapts the browser's native WebAuthn
// credentials container. Completion is promise-style: each native call
// yields a single result-or-rejection, modeled as a one-shot channel of
// mo.Result values. Option objects carry raw byte buffers, mirroring
// the ArrayBuffer fields of the browser API.
package browserwebauthn

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-ctap/passkey/pkg/bridge"
	"github.com/go-ctap/passkey/pkg/ceremony"
	"github.com/go-ctap/passkey/pkg/options"
	"github.com/go-ctap/passkey/pkg/passkeytypes"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Promise is a single-shot completion: exactly one value is delivered,
// carrying either the resolved result or the rejection error.
type Promise[T any] <-chan mo.Result[T]

// UserEntity mirrors the user dictionary with its handle as a raw
// buffer.
type UserEntity struct {
	ID          []byte
	Name        string
	DisplayName string
}

// CredentialDescriptor identifies a credential with its id as a raw
// buffer.
type CredentialDescriptor struct {
	Type       passkeytypes.PublicKeyCredentialType
	ID         []byte
	Transports []passkeytypes.AuthenticatorTransport
}

// CreationOptions is the buffer-based registration option object of the
// native container.
type CreationOptions struct {
	Challenge              []byte
	RP                     passkeytypes.PublicKeyCredentialRpEntity
	User                   UserEntity
	PubKeyCredParams       []passkeytypes.PublicKeyCredentialParameters
	AuthenticatorSelection *passkeytypes.AuthenticatorSelectionCriteria
	ExcludeCredentials     []CredentialDescriptor
	Attestation            passkeytypes.AttestationConveyancePreference
	Timeout                time.Duration
	CeremonyID             uuid.UUID
}

// RequestOptions is the buffer-based assertion option object of the
// native container.
type RequestOptions struct {
	Challenge        []byte
	RPID             string
	AllowCredentials []CredentialDescriptor
	UserVerification passkeytypes.UserVerificationRequirement
	Timeout          time.Duration
	CeremonyID       uuid.UUID
}

// AuthenticatorResponse carries the raw buffers of a native credential
// response. Registration responses fill AttestationObject; assertion
// responses fill AuthenticatorData, Signature and possibly UserHandle.
type AuthenticatorResponse struct {
	ClientDataJSON    []byte
	AttestationObject []byte
	AuthenticatorData []byte
	Signature         []byte
	UserHandle        []byte
	Transports        []string
}

// PublicKeyCredential is the credential object a resolved promise
// carries.
type PublicKeyCredential struct {
	Type  string
	RawID []byte
	// Attachment is whatever the native call reported; may be empty.
	Attachment passkeytypes.AuthenticatorAttachment
	Response   AuthenticatorResponse
}

// CredentialsContainer is the native browser capability.
type CredentialsContainer interface {
	Create(opts *CreationOptions) Promise[*PublicKeyCredential]
	Get(opts *RequestOptions) Promise[*PublicKeyCredential]
	IsUserVerifyingPlatformAuthenticatorAvailable() Promise[bool]
}

// Authenticator implements bridge.NativeAuthenticator over the
// promise-style credentials container.
type Authenticator struct {
	container CredentialsContainer
	logger    *slog.Logger
	slot      bridge.Slot
}

func New(container CredentialsContainer, opts ...options.Option) *Authenticator {
	oo := options.NewOptions(opts...)

	return &Authenticator{
		container: container,
		logger:    oo.Logger,
	}
}

// CheckAvailability resolves the container's UVPA probe. It never
// fails; a rejected or panicking probe resolves Supported=false.
func (a *Authenticator) CheckAvailability(ctx context.Context) (avail passkeytypes.Availability) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Debug("availability check failed", "reason", r)
			avail = passkeytypes.Availability{Details: map[string]any{}}
		}
	}()

	select {
	case res := <-a.container.IsUserVerifyingPlatformAuthenticatorAvailable():
		available := res.OrElse(false)
		return passkeytypes.Availability{
			Supported: available,
			Details: map[string]any{
				"isUserVerifyingPlatformAuthenticatorAvailable": available,
			},
		}
	case <-ctx.Done():
		return passkeytypes.Availability{Details: map[string]any{}}
	}
}

func (a *Authenticator) BeginRegistration(ctx context.Context, desc *ceremony.RegistrationDescriptor) (*passkeytypes.CreatePasskeyResult, error) {
	if a.container == nil {
		return nil, ceremony.NewError(ceremony.CodeUnknownError, "no credentials container available")
	}

	pending, err := bridge.Begin[*PublicKeyCredential](&a.slot)
	if err != nil {
		return nil, err
	}

	opts := &CreationOptions{
		Challenge: desc.Challenge,
		RP:        desc.RP,
		User: UserEntity{
			ID:          desc.User.ID,
			Name:        desc.User.Name,
			DisplayName: desc.User.DisplayName,
		},
		PubKeyCredParams:       desc.PubKeyCredParams,
		AuthenticatorSelection: desc.Selection,
		ExcludeCredentials:     nativeDescriptors(desc.ExcludeCredentials),
		Attestation:            desc.Attestation,
		Timeout:                desc.Timeout,
		CeremonyID:             uuid.New(),
	}

	a.logger.Debug("container create dispatched", "ceremonyId", opts.CeremonyID)
	go settle(a.container.Create(opts), pending)

	cred, err := pending.Wait(ctx)
	if err != nil {
		return nil, err
	}

	return bridge.FormatRegistration(&bridge.RegistrationCredential{
		Type:              cred.Type,
		RawID:             cred.RawID,
		ClientDataJSON:    cred.Response.ClientDataJSON,
		AttestationObject: cred.Response.AttestationObject,
		Transports:        cred.Response.Transports,
		Attachment:        cred.Attachment,
	})
}

func (a *Authenticator) BeginAssertion(ctx context.Context, desc *ceremony.AssertionDescriptor) (*passkeytypes.GetPasskeyResult, error) {
	if a.container == nil {
		return nil, ceremony.NewError(ceremony.CodeUnknownError, "no credentials container available")
	}

	pending, err := bridge.Begin[*PublicKeyCredential](&a.slot)
	if err != nil {
		return nil, err
	}

	opts := &RequestOptions{
		Challenge:        desc.Challenge,
		RPID:             desc.RPID,
		AllowCredentials: nativeDescriptors(desc.AllowCredentials),
		UserVerification: desc.UserVerification,
		Timeout:          desc.Timeout,
		CeremonyID:       uuid.New(),
	}

	a.logger.Debug("container get dispatched", "ceremonyId", opts.CeremonyID)
	go settle(a.container.Get(opts), pending)

	cred, err := pending.Wait(ctx)
	if err != nil {
		return nil, err
	}

	return bridge.FormatAssertion(&bridge.AssertionCredential{
		Type:              cred.Type,
		RawID:             cred.RawID,
		ClientDataJSON:    cred.Response.ClientDataJSON,
		AuthenticatorData: cred.Response.AuthenticatorData,
		Signature:         cred.Response.Signature,
		UserHandle:        cred.Response.UserHandle,
		Attachment:        cred.Attachment,
	})
}

// settle forwards the promise outcome to the pending continuation,
// mapping rejections onto the taxonomy.
func settle(promise Promise[*PublicKeyCredential], pending *bridge.Pending[*PublicKeyCredential]) {
	res := <-promise
	if res.IsError() {
		pending.Reject(mapDOMException(res.Error()))
		return
	}
	pending.Resolve(res.MustGet())
}

func nativeDescriptors(entries []ceremony.AllowedCredential) []CredentialDescriptor {
	if len(entries) == 0 {
		return nil
	}
	return lo.Map(entries, func(entry ceremony.AllowedCredential, _ int) CredentialDescriptor {
		return CredentialDescriptor{
			Type:       entry.Type,
			ID:         entry.ID,
			Transports: entry.Transports,
		}
	})
}
