// Package b64url implements the base64url wire encoding used for every
// binary field crossing the plugin boundary: challenges, credential and
// user IDs, signatures, attestation and authenticator data.
package b64url

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrDecode = errors.New("b64url: invalid base64url input")

// DecodeError wraps the underlying corrupt-input error together with
// the offending text.
type DecodeError struct {
	Input string
	Err   error
}

func (e *DecodeError) Error() string {
	return ErrDecode.Error() + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return ErrDecode
}

var urlToStd = strings.NewReplacer("-", "+", "_", "/")

// Decode converts base64url text to raw bytes. Padded and unpadded
// inputs are both accepted: the text is mapped to the standard
// alphabet, right-padded to a multiple of four characters, and then
// standard-decoded.
func Decode(text string) ([]byte, error) {
	s := urlToStd.Replace(text)
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}

	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &DecodeError{Input: text, Err: err}
	}
	return b, nil
}

// Encode converts raw bytes to canonical base64url text: standard
// alphabet swapped for the URL-safe one, trailing padding stripped.
func Encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
