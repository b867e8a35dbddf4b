package androidcred

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-ctap/passkey/pkg/ceremony"
	"github.com/go-ctap/passkey/pkg/passkeytypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroker struct {
	available   bool
	osVersion   string
	createJSON  []byte
	getJSON     []byte
	createResp  []byte
	getResp     []byte
	createErr   error
	getErr      error
	createBlock bool
}

func (f *fakeBroker) CreateCredential(ctx context.Context, _ Activity, requestJSON []byte) ([]byte, error) {
	f.createJSON = requestJSON
	if f.createBlock {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResp, nil
}

func (f *fakeBroker) GetCredential(_ context.Context, _ Activity, requestJSON []byte) ([]byte, error) {
	f.getJSON = requestJSON
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getResp, nil
}

func (f *fakeBroker) PlayServicesAvailable(_ context.Context) bool {
	return f.available
}

func (f *fakeBroker) OSVersion() string {
	return f.osVersion
}

type activity struct{}

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

const createResponseJSON = `{
	"id": "AQID",
	"rawId": "AQID",
	"type": "public-key",
	"authenticatorAttachment": "platform",
	"response": {
		"clientDataJSON": "eyJ0eXBlIjoid2ViYXV0aG4uY3JlYXRlIn0",
		"attestationObject": "ow",
		"transports": ["internal", "hybrid"]
	}
}`

const getResponseJSON = `{
	"id": "AQID",
	"rawId": "AQID",
	"type": "public-key",
	"response": {
		"clientDataJSON": "eyJ0eXBlIjoid2ViYXV0aG4uZ2V0In0",
		"authenticatorData": "AQ",
		"signature": "MA",
		"userHandle": "CQ"
	}
}`

func TestCheckAvailability(t *testing.T) {
	a := New(&fakeBroker{available: true, osVersion: "14"}, &activity{})

	avail := a.CheckAvailability(context.Background())
	assert.True(t, avail.Supported)
	assert.Equal(t, "14", avail.Details["osVersion"])
	assert.Equal(t, true, avail.Details["playServicesAvailable"])
}

func TestBeginRegistration(t *testing.T) {
	broker := &fakeBroker{createResp: []byte(createResponseJSON)}
	a := New(broker, &activity{})

	result, err := a.BeginRegistration(context.Background(), registrationDescriptor())
	require.NoError(t, err)

	assert.Equal(t, "AQID", result.ID)
	assert.Equal(t, passkeytypes.AuthenticatorAttachmentPlatform, result.AuthenticatorAttachment)
	assert.Equal(t, []string{"internal", "hybrid"}, result.Response.Transports)
}

func TestBeginRegistrationRequestShape(t *testing.T) {
	broker := &fakeBroker{createResp: []byte(createResponseJSON)}
	a := New(broker, &activity{})

	desc := registrationDescriptor()
	desc.Selection = &passkeytypes.AuthenticatorSelectionCriteria{
		ResidentKey: passkeytypes.ResidentKeyRequirementRequired,
	}
	desc.ExcludeCredentials = []ceremony.AllowedCredential{
		{Type: passkeytypes.PublicKeyCredentialTypePublicKey, ID: []byte{0x0a}},
	}

	_, err := a.BeginRegistration(context.Background(), desc)
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(broker.createJSON, &req))

	assert.Equal(t, "AQID", req["challenge"])
	user := req["user"].(map[string]any)
	assert.Equal(t, "AQ", user["id"])

	sel := req["authenticatorSelection"].(map[string]any)
	assert.Equal(t, "required", sel["residentKey"])
	assert.Equal(t, true, sel["requireResidentKey"])
	assert.NotContains(t, sel, "authenticatorAttachment")
	assert.NotContains(t, sel, "userVerification")

	exclude := req["excludeCredentials"].([]any)
	require.Len(t, exclude, 1)
	assert.Equal(t, "Cg", exclude[0].(map[string]any)["id"])
}

func TestBeginRegistrationPartialSelectionForwardedAsIs(t *testing.T) {
	broker := &fakeBroker{createResp: []byte(createResponseJSON)}
	a := New(broker, &activity{})

	desc := registrationDescriptor()
	desc.Selection = &passkeytypes.AuthenticatorSelectionCriteria{
		UserVerification: passkeytypes.UserVerificationRequirementPreferred,
	}

	_, err := a.BeginRegistration(context.Background(), desc)
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(broker.createJSON, &req))

	sel := req["authenticatorSelection"].(map[string]any)
	assert.Equal(t, "preferred", sel["userVerification"])
	assert.NotContains(t, sel, "residentKey")
	assert.NotContains(t, sel, "requireResidentKey")
}

func TestBeginRegistrationWithoutActivity(t *testing.T) {
	a := New(&fakeBroker{}, nil)

	_, err := a.BeginRegistration(context.Background(), registrationDescriptor())

	var cerr *ceremony.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ceremony.CodeUnknownError, cerr.Code)
}

func TestBeginRegistrationTimeout(t *testing.T) {
	broker := &fakeBroker{createBlock: true}
	a := New(broker, &activity{})

	desc := registrationDescriptor()
	desc.Timeout = 20 * time.Millisecond

	_, err := a.BeginRegistration(context.Background(), desc)

	var cerr *ceremony.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ceremony.CodeCancelled, cerr.Code)
}

func TestBeginAssertion(t *testing.T) {
	broker := &fakeBroker{getResp: []byte(getResponseJSON)}
	a := New(broker, &activity{})

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
	assert.Equal(t, "CQ", result.Response.UserHandle)

	var req map[string]any
	require.NoError(t, json.Unmarshal(broker.getJSON, &req))
	assert.Equal(t, "example.com", req["rpId"])
	assert.Equal(t, "required", req["userVerification"])
	allow := req["allowCredentials"].([]any)
	require.Len(t, allow, 1)
	assert.Equal(t, "Cw", allow[0].(map[string]any)["id"])
}

func TestBeginAssertionEmptyAllowListOmitted(t *testing.T) {
	broker := &fakeBroker{getResp: []byte(getResponseJSON)}
	a := New(broker, &activity{})

	_, err := a.BeginAssertion(context.Background(), &ceremony.AssertionDescriptor{
		Challenge:        []byte{0x01},
		RPID:             "example.com",
		UserVerification: passkeytypes.UserVerificationRequirementRequired,
	})
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(broker.getJSON, &req))
	assert.NotContains(t, req, "allowCredentials")
}

func TestBeginAssertionBrokerFailure(t *testing.T) {
	broker := &fakeBroker{getErr: &BrokerError{Type: TypeNoCredential, Message: "no passkeys"}}
	a := New(broker, &activity{})

	_, err := a.BeginAssertion(context.Background(), &ceremony.AssertionDescriptor{
		Challenge:        []byte{0x01},
		RPID:             "example.com",
		UserVerification: passkeytypes.UserVerificationRequirementRequired,
	})

	var cerr *ceremony.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ceremony.CodeNoCredentials, cerr.Code)
	assert.Equal(t, "no passkeys", cerr.Message)
}

func TestBeginAssertionMalformedResponse(t *testing.T) {
	broker := &fakeBroker{getResp: []byte("not json")}
	a := New(broker, &activity{})

	_, err := a.BeginAssertion(context.Background(), &ceremony.AssertionDescriptor{
		Challenge:        []byte{0x01},
		RPID:             "example.com",
		UserVerification: passkeytypes.UserVerificationRequirementRequired,
	})

	var cerr *ceremony.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ceremony.CodeUnknownError, cerr.Code)
}

func TestMapBrokerError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ceremony.Code
	}{
		{"create cancelled", &BrokerError{Type: TypeCreateCancelled}, ceremony.CodeCancelled},
		{"get cancelled", &BrokerError{Type: TypeGetCancelled}, ceremony.CodeCancelled},
		{"interrupted", &BrokerError{Type: TypeGetInterrupted}, ceremony.CodeCancelled},
		{"no credential", &BrokerError{Type: TypeNoCredential}, ceremony.CodeNoCredentials},
		{"provider config", &BrokerError{Type: TypeCreateProviderConfig}, ceremony.CodeNotSupported},
		{"unsupported", &BrokerError{Type: TypeGetUnsupported}, ceremony.CodeNotSupported},
		{
			"dom security error",
			&BrokerError{Type: TypeCreateDOM, Message: "SecurityError: rp id mismatch"},
			ceremony.CodeInvalidDomain,
		},
		{
			"dom domain validation",
			&BrokerError{Type: TypeGetDOM, Message: "the origin cannot be validated"},
			ceremony.CodeInvalidDomain,
		},
		{
			"dom not allowed",
			&BrokerError{Type: TypeGetDOM, Message: "NotAllowedError: operation not allowed"},
			ceremony.CodeCancelled,
		},
		{
			"dom invalid state",
			&BrokerError{Type: TypeCreateDOM, Message: "InvalidStateError: credential already registered"},
			ceremony.CodeNoCredentials,
		},
		{"unknown type", &BrokerError{Type: TypeCreateUnknown}, ceremony.CodeUnknownError},
		{"deadline", context.DeadlineExceeded, ceremony.CodeCancelled},
		{"cancel", context.Canceled, ceremony.CodeCancelled},
		{"plain error", errors.New("boom"), ceremony.CodeUnknownError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapBrokerError(tt.err).Code)
		})
	}
}
