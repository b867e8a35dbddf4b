// Package bridge exposes the unified passkey surface shared by all
// platform variants: isSupported, create and get over a single
// NativeAuthenticator capability set, with one in-flight ceremony per
// instance.
package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-ctap/passkey/pkg/ceremony"
	"github.com/go-ctap/passkey/pkg/options"
	"github.com/go-ctap/passkey/pkg/passkeytypes"
)

// Bridge is the cross-platform plugin surface. It normalizes requests,
// dispatches them to the configured native authenticator and funnels
// every failure through the shared error taxonomy.
type Bridge struct {
	authn   NativeAuthenticator
	logger  *slog.Logger
	timeout time.Duration
}

// New builds a Bridge over the given platform adapter.
func New(authn NativeAuthenticator, opts ...options.Option) *Bridge {
	oo := options.NewOptions(opts...)

	return &Bridge{
		authn:   authn,
		logger:  oo.Logger,
		timeout: oo.Timeout,
	}
}

// IsSupported reports whether a platform authenticator is usable. It
// never fails: any panic or unknown condition during the check resolves
// Supported=false.
func (b *Bridge) IsSupported(ctx context.Context) (avail passkeytypes.Availability) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Debug("availability check panicked", "reason", r)
			avail = passkeytypes.Availability{Details: map[string]any{}}
		}
	}()

	return b.authn.CheckAvailability(ctx)
}

// Create runs one registration ceremony. Validation failures reject
// with invalidRequest before any native call; native failures reject
// with their mapped taxonomy code.
func (b *Bridge) Create(ctx context.Context, opts *passkeytypes.CreatePasskeyOptions) (*passkeytypes.CreatePasskeyResult, error) {
	desc, err := ceremony.NormalizeCreate(opts)
	if err != nil {
		return nil, err
	}
	if desc.Timeout == 0 {
		desc.Timeout = b.timeout
	}

	b.logger.Debug("registration ceremony issued", "rpId", desc.RP.ID, "user", desc.User.Name)

	result, err := b.authn.BeginRegistration(ctx, desc)
	if err != nil {
		cerr := ceremony.Wrap(err)
		b.logger.Debug("registration ceremony failed", "code", cerr.Code, "message", cerr.Message)
		return nil, cerr
	}

	b.logger.Debug("registration ceremony completed", "credentialId", result.ID)
	return result, nil
}

// Get runs one assertion ceremony, with the same error discipline as
// Create.
func (b *Bridge) Get(ctx context.Context, opts *passkeytypes.GetPasskeyOptions) (*passkeytypes.GetPasskeyResult, error) {
	desc, err := ceremony.NormalizeGet(opts)
	if err != nil {
		return nil, err
	}
	if desc.Timeout == 0 {
		desc.Timeout = b.timeout
	}

	b.logger.Debug("assertion ceremony issued", "rpId", desc.RPID)

	result, err := b.authn.BeginAssertion(ctx, desc)
	if err != nil {
		cerr := ceremony.Wrap(err)
		b.logger.Debug("assertion ceremony failed", "code", cerr.Code, "message", cerr.Message)
		return nil, cerr
	}

	b.logger.Debug("assertion ceremony completed", "credentialId", result.ID)
	return result, nil
}
