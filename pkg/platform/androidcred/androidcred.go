// Package androidcred adapts the system credential broker of mobile
// variant B. The broker exposes suspend-style calls: a blocking,
// context-aware request that consumes and produces structured JSON
// ceremony objects with base64url-encoded binary fields.
package androidcred

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/go-ctap/passkey/pkg/bridge"
	"github.com/go-ctap/passkey/pkg/ceremony"
	"github.com/go-ctap/passkey/pkg/options"
	"github.com/go-ctap/passkey/pkg/passkeytypes"
)

// Activity is the opaque UI context the broker presents its prompt on.
type Activity any

// CredentialBroker is the native platform capability. Calls block
// until the user completes or dismisses the system prompt; failures
// are reported as *BrokerError. A caller-supplied timeout is enforced
// through the context deadline.
type CredentialBroker interface {
	CreateCredential(ctx context.Context, activity Activity, requestJSON []byte) (responseJSON []byte, err error)
	GetCredential(ctx context.Context, activity Activity, requestJSON []byte) (responseJSON []byte, err error)
	PlayServicesAvailable(ctx context.Context) bool
	OSVersion() string
}

// Authenticator implements bridge.NativeAuthenticator over the JSON
// credential broker.
type Authenticator struct {
	broker   CredentialBroker
	activity Activity
	logger   *slog.Logger
	slot     bridge.Slot
}

// New builds the variant-B adapter. The activity is required at
// dispatch time: a ceremony issued without one fails with unknownError
// before any broker call is made.
func New(broker CredentialBroker, activity Activity, opts ...options.Option) *Authenticator {
	oo := options.NewOptions(opts...)

	return &Authenticator{
		broker:   broker,
		activity: activity,
		logger:   oo.Logger,
	}
}

// CheckAvailability reports broker readiness, including whether the
// platform security services are reachable. It never fails.
func (a *Authenticator) CheckAvailability(ctx context.Context) (avail passkeytypes.Availability) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Debug("availability check failed", "reason", r)
			avail = passkeytypes.Availability{Details: map[string]any{}}
		}
	}()

	reachable := a.broker.PlayServicesAvailable(ctx)
	return passkeytypes.Availability{
		Supported: reachable,
		Details: map[string]any{
			"osVersion":             a.broker.OSVersion(),
			"playServicesAvailable": reachable,
		},
	}
}

func (a *Authenticator) BeginRegistration(ctx context.Context, desc *ceremony.RegistrationDescriptor) (*passkeytypes.CreatePasskeyResult, error) {
	if a.activity == nil {
		return nil, ceremony.NewError(ceremony.CodeUnknownError, "no activity available")
	}

	pending, err := bridge.Begin[*bridge.RegistrationCredential](&a.slot)
	if err != nil {
		return nil, err
	}

	requestJSON, merr := json.Marshal(newCreateRequest(desc))
	if merr != nil {
		pending.Abort()
		return nil, ceremony.NewError(ceremony.CodeUnknownError, "cannot marshal ceremony request: "+merr.Error())
	}

	if desc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, desc.Timeout)
		defer cancel()
	}

	go func() {
		responseJSON, err := a.broker.CreateCredential(ctx, a.activity, requestJSON)
		if err != nil {
			pending.Reject(mapBrokerError(err))
			return
		}

		cred, cerr := parseCreateResponse(responseJSON)
		if cerr != nil {
			pending.Reject(cerr)
			return
		}
		pending.Resolve(cred)
	}()

	cred, err := pending.Wait(ctx)
	if err != nil {
		return nil, err
	}

	return bridge.FormatRegistration(cred)
}

func (a *Authenticator) BeginAssertion(ctx context.Context, desc *ceremony.AssertionDescriptor) (*passkeytypes.GetPasskeyResult, error) {
	if a.activity == nil {
		return nil, ceremony.NewError(ceremony.CodeUnknownError, "no activity available")
	}

	pending, err := bridge.Begin[*bridge.AssertionCredential](&a.slot)
	if err != nil {
		return nil, err
	}

	requestJSON, merr := json.Marshal(newGetRequest(desc))
	if merr != nil {
		pending.Abort()
		return nil, ceremony.NewError(ceremony.CodeUnknownError, "cannot marshal ceremony request: "+merr.Error())
	}

	if desc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, desc.Timeout)
		defer cancel()
	}

	go func() {
		responseJSON, err := a.broker.GetCredential(ctx, a.activity, requestJSON)
		if err != nil {
			pending.Reject(mapBrokerError(err))
			return
		}

		cred, cerr := parseGetResponse(responseJSON)
		if cerr != nil {
			pending.Reject(cerr)
			return
		}
		pending.Resolve(cred)
	}()

	cred, err := pending.Wait(ctx)
	if err != nil {
		return nil, err
	}

	return bridge.FormatAssertion(cred)
}
