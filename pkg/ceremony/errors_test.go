package ceremony

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorFallbackMessages(t *testing.T) {
	for _, code := range []Code{
		CodeCancelled,
		CodeNotSupported,
		CodeInvalidDomain,
		CodeNoCredentials,
		CodeSecurityError,
		CodeInvalidRequest,
		CodeUnknownError,
	} {
		err := NewError(code, "")
		assert.Equal(t, code, err.Code)
		assert.NotEmpty(t, err.Message, "code %s needs a fallback message", code)
	}

	err := NewError(CodeCancelled, "user closed the sheet")
	assert.Equal(t, "user closed the sheet", err.Message)
}

func TestErrorIs(t *testing.T) {
	err := NewError(CodeCancelled, "nope")
	assert.True(t, errors.Is(err, &Error{Code: CodeCancelled}))
	assert.False(t, errors.Is(err, &Error{Code: CodeUnknownError}))
}

func TestWrap(t *testing.T) {
	require.Nil(t, Wrap(nil))

	cerr := NewError(CodeNoCredentials, "none stored")
	assert.Same(t, cerr, Wrap(cerr))

	wrapped := Wrap(errors.New("socket closed"))
	assert.Equal(t, CodeUnknownError, wrapped.Code)
	assert.Equal(t, "socket closed", wrapped.Message)
}
