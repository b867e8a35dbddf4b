package softtoken

import (
	"errors"

	"github.com/go-ctap/passkey/pkg/passkeytypes"
	"github.com/go-ctap/passkey/pkg/platform/browserwebauthn"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Container adapts a Token to the browser credentials container
// capability, resolving promises with real credentials. It lets the
// example app and end-to-end tests drive the browser adapter without a
// browser.
type Container struct {
	token  *Token
	origin string
}

func NewContainer(token *Token, origin string) *Container {
	return &Container{
		token:  token,
		origin: origin,
	}
}

func (c *Container) Create(opts *browserwebauthn.CreationOptions) browserwebauthn.Promise[*browserwebauthn.PublicKeyCredential] {
	return promise(func() (*browserwebauthn.PublicKeyCredential, error) {
		result, err := c.token.MakeCredential(opts.RP.ID, opts.User.ID)
		if err != nil {
			return nil, &browserwebauthn.DOMException{
				Name:    browserwebauthn.NameNotAllowedError,
				Message: err.Error(),
			}
		}

		return &browserwebauthn.PublicKeyCredential{
			Type:       string(passkeytypes.PublicKeyCredentialTypePublicKey),
			RawID:      result.CredentialID,
			Attachment: passkeytypes.AuthenticatorAttachmentPlatform,
			Response: browserwebauthn.AuthenticatorResponse{
				ClientDataJSON:    ClientData("webauthn.create", c.origin, opts.Challenge),
				AttestationObject: result.AttestationObject,
				Transports:        []string{"internal", "hybrid"},
			},
		}, nil
	})
}

func (c *Container) Get(opts *browserwebauthn.RequestOptions) browserwebauthn.Promise[*browserwebauthn.PublicKeyCredential] {
	return promise(func() (*browserwebauthn.PublicKeyCredential, error) {
		clientData := ClientData("webauthn.get", c.origin, opts.Challenge)
		allowedIDs := lo.Map(opts.AllowCredentials, func(desc browserwebauthn.CredentialDescriptor, _ int) []byte {
			return desc.ID
		})

		result, err := c.token.GetAssertion(opts.RPID, allowedIDs, clientData)
		if err != nil {
			name := browserwebauthn.NameNotAllowedError
			if errors.Is(err, ErrNoCredential) {
				name = browserwebauthn.NameInvalidStateError
			}
			return nil, &browserwebauthn.DOMException{
				Name:    name,
				Message: err.Error(),
			}
		}

		return &browserwebauthn.PublicKeyCredential{
			Type:       string(passkeytypes.PublicKeyCredentialTypePublicKey),
			RawID:      result.CredentialID,
			Attachment: passkeytypes.AuthenticatorAttachmentPlatform,
			Response: browserwebauthn.AuthenticatorResponse{
				ClientDataJSON:    clientData,
				AuthenticatorData: result.AuthenticatorData,
				Signature:         result.Signature,
				UserHandle:        result.UserHandle,
			},
		}, nil
	})
}

func (c *Container) IsUserVerifyingPlatformAuthenticatorAvailable() browserwebauthn.Promise[bool] {
	return promise(func() (bool, error) {
		return true, nil
	})
}

func promise[T any](fn func() (T, error)) browserwebauthn.Promise[T] {
	ch := make(chan mo.Result[T], 1)

	go func() {
		value, err := fn()
		if err != nil {
			ch <- mo.Err[T](err)
			return
		}
		ch <- mo.Ok(value)
	}()

	return ch
}
