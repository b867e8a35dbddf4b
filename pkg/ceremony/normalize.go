package ceremony

import (
	"strings"
	"time"

	"github.com/go-ctap/passkey/pkg/b64url"
	"github.com/go-ctap/passkey/pkg/passkeytypes"
	"github.com/ldclabs/cose/iana"
	"github.com/ldclabs/cose/key"
	"github.com/samber/lo"
)

// DefaultPubKeyCredParams is the algorithm preference applied when the
// caller omits pubKeyCredParams: ES256 first, then RS256.
var DefaultPubKeyCredParams = []passkeytypes.PublicKeyCredentialParameters{
	{Type: passkeytypes.PublicKeyCredentialTypePublicKey, Algorithm: key.Alg(iana.AlgorithmES256)},
	{Type: passkeytypes.PublicKeyCredentialTypePublicKey, Algorithm: key.Alg(iana.AlgorithmRS256)},
}

// DefaultAuthenticatorSelection is applied only when the caller omits
// the authenticatorSelection object entirely. A partially specified
// object is forwarded as-is, without per-field defaulting.
var DefaultAuthenticatorSelection = passkeytypes.AuthenticatorSelectionCriteria{
	AuthenticatorAttachment: passkeytypes.AuthenticatorAttachmentPlatform,
	ResidentKey:             passkeytypes.ResidentKeyRequirementRequired,
	UserVerification:        passkeytypes.UserVerificationRequirementRequired,
}

func missingFieldsError(fields []string) *Error {
	return NewError(CodeInvalidRequest, "missing required field(s): "+strings.Join(fields, ", "))
}

func decodeField(name, text string) ([]byte, *Error) {
	b, err := b64url.Decode(text)
	if err != nil {
		return nil, NewError(CodeInvalidRequest, name+" is not valid base64url")
	}
	return b, nil
}

// NormalizeCreate validates a registration request and applies the
// documented defaults, producing a descriptor ready for native
// dispatch. All validation failures surface as invalidRequest before
// any native call is issued.
func NormalizeCreate(opts *passkeytypes.CreatePasskeyOptions) (*RegistrationDescriptor, error) {
	if opts == nil {
		return nil, NewError(CodeInvalidRequest, "options must not be nil")
	}

	var missing []string
	if opts.Challenge == "" {
		missing = append(missing, "challenge")
	}
	if opts.RP.ID == "" {
		missing = append(missing, "rp.id")
	}
	if opts.RP.Name == "" {
		missing = append(missing, "rp.name")
	}
	if opts.User.ID == "" {
		missing = append(missing, "user.id")
	}
	if opts.User.Name == "" {
		missing = append(missing, "user.name")
	}
	if opts.User.DisplayName == "" {
		missing = append(missing, "user.displayName")
	}
	if len(missing) > 0 {
		return nil, missingFieldsError(missing)
	}

	challenge, cerr := decodeField("challenge", opts.Challenge)
	if cerr != nil {
		return nil, cerr
	}

	userID, cerr := decodeField("user.id", opts.User.ID)
	if cerr != nil {
		return nil, cerr
	}

	params := opts.PubKeyCredParams
	if len(params) == 0 {
		params = DefaultPubKeyCredParams
	}

	selection := opts.AuthenticatorSelection
	if selection == nil {
		def := DefaultAuthenticatorSelection
		selection = &def
	} else {
		clone := *selection
		selection = &clone
	}

	exclude, cerr := normalizeDescriptorList("excludeCredentials", opts.ExcludeCredentials)
	if cerr != nil {
		return nil, cerr
	}

	return &RegistrationDescriptor{
		Challenge: challenge,
		RP:        opts.RP,
		User: User{
			ID:          userID,
			Name:        opts.User.Name,
			DisplayName: opts.User.DisplayName,
		},
		PubKeyCredParams:   params,
		Selection:          selection,
		ExcludeCredentials: exclude,
		Attestation:        opts.Attestation,
		Timeout:            time.Duration(opts.Timeout) * time.Millisecond,
	}, nil
}

// NormalizeGet validates an assertion request and applies the
// documented defaults. An omitted or empty allowCredentials list
// normalizes to nil, permitting any discoverable credential.
func NormalizeGet(opts *passkeytypes.GetPasskeyOptions) (*AssertionDescriptor, error) {
	if opts == nil {
		return nil, NewError(CodeInvalidRequest, "options must not be nil")
	}

	var missing []string
	if opts.Challenge == "" {
		missing = append(missing, "challenge")
	}
	if opts.RPID == "" {
		missing = append(missing, "rpId")
	}
	if len(missing) > 0 {
		return nil, missingFieldsError(missing)
	}

	challenge, cerr := decodeField("challenge", opts.Challenge)
	if cerr != nil {
		return nil, cerr
	}

	allow, cerr := normalizeDescriptorList("allowCredentials", opts.AllowCredentials)
	if cerr != nil {
		return nil, cerr
	}

	uv := opts.UserVerification
	if uv == "" {
		uv = passkeytypes.UserVerificationRequirementRequired
	}

	return &AssertionDescriptor{
		Challenge:        challenge,
		RPID:             opts.RPID,
		AllowCredentials: allow,
		UserVerification: uv,
		Timeout:          time.Duration(opts.Timeout) * time.Millisecond,
	}, nil
}

func normalizeDescriptorList(
	name string,
	entries []passkeytypes.PublicKeyCredentialDescriptor,
) ([]AllowedCredential, *Error) {
	if len(entries) == 0 {
		return nil, nil
	}

	for _, entry := range entries {
		if entry.Type == "" || entry.ID == "" {
			return nil, NewError(CodeInvalidRequest, name+" entries require type and id")
		}
	}

	ids := make([][]byte, len(entries))
	for i, entry := range entries {
		id, cerr := decodeField(name+".id", entry.ID)
		if cerr != nil {
			return nil, cerr
		}
		ids[i] = id
	}

	return lo.Map(entries, func(entry passkeytypes.PublicKeyCredentialDescriptor, i int) AllowedCredential {
		return AllowedCredential{
			Type:       entry.Type,
			ID:         ids[i],
			Transports: entry.Transports,
		}
	}), nil
}
