package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/go-ctap/passkey/pkg/ceremony"
	"github.com/go-ctap/passkey/pkg/passkeytypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthenticator struct {
	avail        passkeytypes.Availability
	availPanics  bool
	registerDesc *ceremony.RegistrationDescriptor
	assertDesc   *ceremony.AssertionDescriptor
	registerErr  error
	assertErr    error
}

func (f *fakeAuthenticator) CheckAvailability(_ context.Context) passkeytypes.Availability {
	if f.availPanics {
		panic("no native runtime")
	}
	return f.avail
}

func (f *fakeAuthenticator) BeginRegistration(_ context.Context, desc *ceremony.RegistrationDescriptor) (*passkeytypes.CreatePasskeyResult, error) {
	f.registerDesc = desc
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &passkeytypes.CreatePasskeyResult{
		ID:    "AQID",
		RawID: "AQID",
		Type:  passkeytypes.PublicKeyCredentialTypePublicKey,
	}, nil
}

func (f *fakeAuthenticator) BeginAssertion(_ context.Context, desc *ceremony.AssertionDescriptor) (*passkeytypes.GetPasskeyResult, error) {
	f.assertDesc = desc
	if f.assertErr != nil {
		return nil, f.assertErr
	}
	return &passkeytypes.GetPasskeyResult{
		ID:    "AQID",
		RawID: "AQID",
		Type:  passkeytypes.PublicKeyCredentialTypePublicKey,
	}, nil
}

func TestBridgeCreateValidatesBeforeNativeCall(t *testing.T) {
	fake := &fakeAuthenticator{}
	b := New(fake)

	_, err := b.Create(context.Background(), &passkeytypes.CreatePasskeyOptions{})

	var cerr *ceremony.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ceremony.CodeInvalidRequest, cerr.Code)
	assert.Nil(t, fake.registerDesc)
}

func TestBridgeCreate(t *testing.T) {
	fake := &fakeAuthenticator{}
	b := New(fake)

	result, err := b.Create(context.Background(), &passkeytypes.CreatePasskeyOptions{
		Challenge: "AQID",
		RP:        passkeytypes.PublicKeyCredentialRpEntity{ID: "example.com", Name: "Example"},
		User: passkeytypes.PublicKeyCredentialUserEntity{
			ID:          "AQ",
			Name:        "a@b.com",
			DisplayName: "A",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "AQID", result.ID)

	require.NotNil(t, fake.registerDesc)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, fake.registerDesc.Challenge)
	require.NotNil(t, fake.registerDesc.Selection)
	assert.Equal(t, ceremony.DefaultAuthenticatorSelection, *fake.registerDesc.Selection)
}

func TestBridgeGetWrapsNativeErrors(t *testing.T) {
	fake := &fakeAuthenticator{assertErr: errors.New("native layer exploded")}
	b := New(fake)

	_, err := b.Get(context.Background(), &passkeytypes.GetPasskeyOptions{
		Challenge: "AQID",
		RPID:      "example.com",
	})

	var cerr *ceremony.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ceremony.CodeUnknownError, cerr.Code)
}

func TestBridgeGetPreservesTaxonomyErrors(t *testing.T) {
	fake := &fakeAuthenticator{assertErr: ceremony.NewError(ceremony.CodeNoCredentials, "")}
	b := New(fake)

	_, err := b.Get(context.Background(), &passkeytypes.GetPasskeyOptions{
		Challenge: "AQID",
		RPID:      "example.com",
	})

	var cerr *ceremony.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ceremony.CodeNoCredentials, cerr.Code)
}

func TestBridgeIsSupported(t *testing.T) {
	fake := &fakeAuthenticator{avail: passkeytypes.Availability{
		Supported: true,
		Details:   map[string]any{"osVersion": "17.0"},
	}}
	b := New(fake)

	avail := b.IsSupported(context.Background())
	assert.True(t, avail.Supported)
	assert.Equal(t, "17.0", avail.Details["osVersion"])
}

func TestBridgeIsSupportedRecoversFromPanic(t *testing.T) {
	b := New(&fakeAuthenticator{availPanics: true})

	avail := b.IsSupported(context.Background())
	assert.False(t, avail.Supported)
}
