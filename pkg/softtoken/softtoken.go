// Package softtoken implements a software authenticator producing real
// ES256 credentials: registration yields a none-format attestation
// object over freshly generated P-256 keys, assertions carry valid
// signatures. It stands in for the native platform capability in the
// example app and in end-to-end tests, where its output verifies under
// a real relying party.
package softtoken

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-ctap/passkey/pkg/b64url"
	"github.com/google/uuid"
)

var ErrNoCredential = errors.New("softtoken: no matching credential")

// Authenticator data flags.
const (
	flagUserPresent        = 0x01
	flagUserVerified       = 0x04
	flagAttestedCredential = 0x40
)

type credential struct {
	id         []byte
	rpID       string
	userHandle []byte
	signCount  uint32
	key        *ecdsa.PrivateKey
}

// Token is an in-memory authenticator. All credentials are
// discoverable; the sign counter increments per assertion.
type Token struct {
	mu           sync.Mutex
	aaguid       uuid.UUID
	userVerified bool
	creds        []*credential
	encMode      cbor.EncMode
}

type Option func(*Token)

// WithAAGUID pins the authenticator's AAGUID instead of a random one.
func WithAAGUID(aaguid uuid.UUID) Option {
	return func(t *Token) {
		t.aaguid = aaguid
	}
}

// WithoutUserVerification clears the UV flag on all responses, for
// exercising user-verification failure handling downstream.
func WithoutUserVerification() Option {
	return func(t *Token) {
		t.userVerified = false
	}
}

func New(opts ...Option) *Token {
	encMode, _ := cbor.CTAP2EncOptions().EncMode()
	t := &Token{
		aaguid:       uuid.New(),
		userVerified: true,
		encMode:      encMode,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// ClientData assembles the collected client data JSON for a ceremony.
// ceremonyType is "webauthn.create" or "webauthn.get".
func ClientData(ceremonyType, origin string, challenge []byte) []byte {
	// Marshal cannot fail on this shape.
	data, _ := json.Marshal(map[string]any{
		"type":        ceremonyType,
		"challenge":   b64url.Encode(challenge),
		"origin":      origin,
		"crossOrigin": false,
	})
	return data
}

// MakeCredentialResult is the raw registration output.
type MakeCredentialResult struct {
	CredentialID      []byte
	AttestationObject []byte
}

// MakeCredential generates a new P-256 credential for the relying
// party and returns a none-format attestation object embedding its
// COSE public key.
func (t *Token) MakeCredential(rpID string, userHandle []byte) (*MakeCredentialResult, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}

	id := make([]byte, 32)
	if _, err := rand.Read(id); err != nil {
		return nil, err
	}

	cosePubKey, err := t.coseKey(&key.PublicKey)
	if err != nil {
		return nil, err
	}

	cred := &credential{
		id:         id,
		rpID:       rpID,
		userHandle: userHandle,
		key:        key,
	}

	authData := t.authenticatorData(rpID, cred.signCount, t.attestedCredentialData(id, cosePubKey))

	attObj, err := t.encMode.Marshal(map[string]any{
		"fmt":      "none",
		"attStmt":  map[string]any{},
		"authData": authData,
	})
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.creds = append(t.creds, cred)
	t.mu.Unlock()

	return &MakeCredentialResult{
		CredentialID:      id,
		AttestationObject: attObj,
	}, nil
}

// GetAssertionResult is the raw assertion output.
type GetAssertionResult struct {
	CredentialID      []byte
	AuthenticatorData []byte
	Signature         []byte
	UserHandle        []byte
}

// GetAssertion signs over authenticatorData and the client data hash
// with a credential of the relying party. An empty allowedIDs list
// permits any stored (discoverable) credential; no match yields
// ErrNoCredential.
func (t *Token) GetAssertion(rpID string, allowedIDs [][]byte, clientDataJSON []byte) (*GetAssertionResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cred := t.lookup(rpID, allowedIDs)
	if cred == nil {
		return nil, ErrNoCredential
	}

	cred.signCount++
	authData := t.authenticatorData(rpID, cred.signCount, nil)

	clientDataHash := sha256.Sum256(clientDataJSON)
	digest := sha256.Sum256(append(append([]byte{}, authData...), clientDataHash[:]...))

	sig, err := ecdsa.SignASN1(rand.Reader, cred.key, digest[:])
	if err != nil {
		return nil, err
	}

	return &GetAssertionResult{
		CredentialID:      cred.id,
		AuthenticatorData: authData,
		Signature:         sig,
		UserHandle:        cred.userHandle,
	}, nil
}

func (t *Token) lookup(rpID string, allowedIDs [][]byte) *credential {
	for _, cred := range t.creds {
		if cred.rpID != rpID {
			continue
		}
		if len(allowedIDs) == 0 {
			return cred
		}
		for _, id := range allowedIDs {
			if string(id) == string(cred.id) {
				return cred
			}
		}
	}
	return nil
}

func (t *Token) flags(attested bool) byte {
	f := byte(flagUserPresent)
	if t.userVerified {
		f |= flagUserVerified
	}
	if attested {
		f |= flagAttestedCredential
	}
	return f
}

// authenticatorData assembles rpIdHash || flags || signCount
// [|| attestedCredentialData].
func (t *Token) authenticatorData(rpID string, signCount uint32, attested []byte) []byte {
	rpIDHash := sha256.Sum256([]byte(rpID))

	data := make([]byte, 0, 37+len(attested))
	data = append(data, rpIDHash[:]...)
	data = append(data, t.flags(attested != nil))
	data = binary.BigEndian.AppendUint32(data, signCount)
	return append(data, attested...)
}

// attestedCredentialData assembles aaguid || credIdLen || credId ||
// cosePublicKey.
func (t *Token) attestedCredentialData(credID, cosePubKey []byte) []byte {
	data := make([]byte, 0, 16+2+len(credID)+len(cosePubKey))
	data = append(data, t.aaguid[:]...)
	data = binary.BigEndian.AppendUint16(data, uint16(len(credID)))
	data = append(data, credID...)
	return append(data, cosePubKey...)
}

// coseKey encodes the public key as a COSE_Key EC2/ES256 map in CTAP2
// canonical form.
func (t *Token) coseKey(pub *ecdsa.PublicKey) ([]byte, error) {
	x := make([]byte, 32)
	y := make([]byte, 32)
	pub.X.FillBytes(x)
	pub.Y.FillBytes(y)

	return t.encMode.Marshal(map[int]any{
		1:  2,  // kty: EC2
		3:  -7, // alg: ES256
		-1: 1,  // crv: P-256
		-2: x,
		-3: y,
	})
}
