package rpserver

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"net/http"

	"github.com/go-webauthn/webauthn/protocol"
)

type verifyRequest struct {
	Username   string          `json:"username"`
	Credential json.RawMessage `json:"credential"`
}

// parsedCredential holds exactly one of the two parsed response kinds.
type parsedCredential struct {
	creation  *protocol.ParsedCredentialCreationData
	assertion *protocol.ParsedCredentialAssertionData
}

func (s *Server) parseVerifyRequest(w http.ResponseWriter, r *http.Request, registration bool) (*verifyRequest, *parsedCredential, bool) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil || len(req.Credential) == 0 {
		writeError(w, http.StatusBadRequest, "credential is required")
		return nil, nil, false
	}

	parsed := &parsedCredential{}
	var err error
	if registration {
		parsed.creation, err = protocol.ParseCredentialCreationResponseBody(bytes.NewReader(req.Credential))
	} else {
		parsed.assertion, err = protocol.ParseCredentialRequestResponseBody(bytes.NewReader(req.Credential))
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid credential response: "+err.Error())
		return nil, nil, false
	}

	return &req, parsed, true
}

func newUserHandle() []byte {
	handle := make([]byte, 16)
	// rand.Read never fails on supported platforms.
	_, _ = rand.Read(handle)
	return handle
}

func decodeJSON(r *http.Request, v any) error {
	defer func() {
		_ = r.Body.Close()
	}()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"verified": false,
		"error":    msg,
	})
}
