package browserwebauthn

import (
	"context"
	"errors"
	"testing"

	"github.com/go-ctap/passkey/pkg/ceremony"
	"github.com/go-ctap/passkey/pkg/passkeytypes"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolved[T any](value T) Promise[T] {
	ch := make(chan mo.Result[T], 1)
	ch <- mo.Ok(value)
	return ch
}

func rejected[T any](err error) Promise[T] {
	ch := make(chan mo.Result[T], 1)
	ch <- mo.Err[T](err)
	return ch
}

type fakeContainer struct {
	uvpa       Promise[bool]
	createOpts *CreationOptions
	getOpts    *RequestOptions
	create     Promise[*PublicKeyCredential]
	get        Promise[*PublicKeyCredential]
	dispatched chan struct{}
}

func (f *fakeContainer) Create(opts *CreationOptions) Promise[*PublicKeyCredential] {
	f.createOpts = opts
	if f.dispatched != nil {
		f.dispatched <- struct{}{}
	}
	return f.create
}

func (f *fakeContainer) Get(opts *RequestOptions) Promise[*PublicKeyCredential] {
	f.getOpts = opts
	return f.get
}

func (f *fakeContainer) IsUserVerifyingPlatformAuthenticatorAvailable() Promise[bool] {
	return f.uvpa
}

func registrationDescriptor() *ceremony.RegistrationDescriptor {
	return &ceremony.RegistrationDescriptor{
		Challenge: []byte{0x01, 0x02, 0x03},
		RP:        passkeytypes.PublicKeyCredentialRpEntity{ID: "example.com", Name: "Example"},
		User: ceremony.User{
			ID:          []byte{0x01},
			Name:        "a@b.com",
			DisplayName: "A",
		},
		PubKeyCredParams: ceremony.DefaultPubKeyCredParams,
	}
}

func TestCheckAvailability(t *testing.T) {
	a := New(&fakeContainer{uvpa: resolved(true)})

	avail := a.CheckAvailability(context.Background())
	assert.True(t, avail.Supported)
	assert.Equal(t, true, avail.Details["isUserVerifyingPlatformAuthenticatorAvailable"])
}

func TestCheckAvailabilityRejectedProbe(t *testing.T) {
	a := New(&fakeContainer{uvpa: rejected[bool](errors.New("not implemented"))})

	avail := a.CheckAvailability(context.Background())
	assert.False(t, avail.Supported)
}

func TestCheckAvailabilityContextDone(t *testing.T) {
	a := New(&fakeContainer{uvpa: make(chan mo.Result[bool])})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	avail := a.CheckAvailability(ctx)
	assert.False(t, avail.Supported)
}

func TestBeginRegistration(t *testing.T) {
	container := &fakeContainer{
		create: resolved(&PublicKeyCredential{
			Type:       "public-key",
			RawID:      []byte{0x01, 0x02, 0x03},
			Attachment: passkeytypes.AuthenticatorAttachmentCrossPlatform,
			Response: AuthenticatorResponse{
				ClientDataJSON:    []byte(`{"type":"webauthn.create"}`),
				AttestationObject: []byte{0xa3},
				Transports:        []string{"hybrid"},
			},
		}),
	}
	a := New(container)

	result, err := a.BeginRegistration(context.Background(), registrationDescriptor())
	require.NoError(t, err)

	assert.Equal(t, "AQID", result.ID)
	assert.Equal(t, passkeytypes.AuthenticatorAttachmentCrossPlatform, result.AuthenticatorAttachment)
	assert.Equal(t, []string{"hybrid"}, result.Response.Transports)

	require.NotNil(t, container.createOpts)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, container.createOpts.Challenge)
	assert.NotEqual(t, [16]byte{}, [16]byte(container.createOpts.CeremonyID))
}

func TestBeginRegistrationRejection(t *testing.T) {
	container := &fakeContainer{
		create: rejected[*PublicKeyCredential](&DOMException{
			Name:    NameNotAllowedError,
			Message: "the operation either timed out or was not allowed",
		}),
	}
	a := New(container)

	_, err := a.BeginRegistration(context.Background(), registrationDescriptor())

	var cerr *ceremony.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ceremony.CodeCancelled, cerr.Code)
}

func TestBeginAssertion(t *testing.T) {
	container := &fakeContainer{
		get: resolved(&PublicKeyCredential{
			Type:  "public-key",
			RawID: []byte{0x01, 0x02, 0x03},
			Response: AuthenticatorResponse{
				ClientDataJSON:    []byte(`{"type":"webauthn.get"}`),
				AuthenticatorData: []byte{0x01},
				Signature:         []byte{0x30},
			},
		}),
	}
	a := New(container)

	result, err := a.BeginAssertion(context.Background(), &ceremony.AssertionDescriptor{
		Challenge: []byte{0x01, 0x02, 0x03},
		RPID:      "example.com",
		AllowCredentials: []ceremony.AllowedCredential{
			{Type: passkeytypes.PublicKeyCredentialTypePublicKey, ID: []byte{0x0b}},
		},
		UserVerification: passkeytypes.UserVerificationRequirementRequired,
	})
	require.NoError(t, err)

	assert.Equal(t, "AQID", result.ID)
	assert.Empty(t, result.Response.UserHandle)
	assert.Empty(t, result.AuthenticatorAttachment)

	require.NotNil(t, container.getOpts)
	assert.Equal(t, "example.com", container.getOpts.RPID)
	require.Len(t, container.getOpts.AllowCredentials, 1)
	assert.Equal(t, []byte{0x0b}, container.getOpts.AllowCredentials[0].ID)
}

func TestSecondCeremonyRejectedWhilePending(t *testing.T) {
	create := make(chan mo.Result[*PublicKeyCredential], 1)
	container := &fakeContainer{create: create, dispatched: make(chan struct{}, 1)}
	a := New(container)

	done := make(chan error, 1)
	go func() {
		_, err := a.BeginRegistration(context.Background(), registrationDescriptor())
		done <- err
	}()

	<-container.dispatched

	_, err := a.BeginAssertion(context.Background(), &ceremony.AssertionDescriptor{
		Challenge:        []byte{0x01},
		RPID:             "example.com",
		UserVerification: passkeytypes.UserVerificationRequirementRequired,
	})
	var cerr *ceremony.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ceremony.CodeInvalidRequest, cerr.Code)

	create <- mo.Err[*PublicKeyCredential](&DOMException{Name: NameAbortError})
	require.Error(t, <-done)
}

func TestMapDOMException(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ceremony.Code
	}{
		{"not allowed", &DOMException{Name: NameNotAllowedError}, ceremony.CodeCancelled},
		{"abort", &DOMException{Name: NameAbortError}, ceremony.CodeCancelled},
		{"invalid state", &DOMException{Name: NameInvalidStateError}, ceremony.CodeNoCredentials},
		{"not supported", &DOMException{Name: NameNotSupportedError}, ceremony.CodeNotSupported},
		{"security", &DOMException{Name: NameSecurityError}, ceremony.CodeInvalidDomain},
		{"constraint", &DOMException{Name: NameConstraintError}, ceremony.CodeSecurityError},
		{"type", &DOMException{Name: NameTypeError}, ceremony.CodeInvalidRequest},
		{"unrecognized", &DOMException{Name: "DataError"}, ceremony.CodeUnknownError},
		{"plain error", errors.New("boom"), ceremony.CodeUnknownError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapDOMException(tt.err).Code)
		})
	}
}
