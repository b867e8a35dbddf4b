// Package rpserver is the demonstration relying-party server: an
// in-memory WebAuthn relying party exposing the four ceremony
// operations consumed by the bridge demo. Verification (challenge,
// attestation, signature, counter) is delegated entirely to the
// relying-party library; the bridge core never imports this package.
package rpserver

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-ctap/passkey/pkg/options"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// sessionKeyDiscoverable keys the session of username-less
// authentication ceremonies.
const sessionKeyDiscoverable = "\x00discoverable"

type user struct {
	id          []byte
	name        string
	displayName string
	creds       []webauthn.Credential
}

func (u *user) WebAuthnID() []byte                         { return u.id }
func (u *user) WebAuthnName() string                       { return u.name }
func (u *user) WebAuthnDisplayName() string                { return u.displayName }
func (u *user) WebAuthnCredentials() []webauthn.Credential { return u.creds }

// Server holds the relying party state: users, their credentials and
// the per-ceremony session data, all in memory.
type Server struct {
	wa     *webauthn.WebAuthn
	logger *slog.Logger

	mu       sync.Mutex
	users    map[string]*user
	sessions map[string]*webauthn.SessionData
}

// New configures the relying party for the given id, display name and
// allowed origins.
func New(rpID, rpName string, origins []string, opts ...options.Option) (*Server, error) {
	oo := options.NewOptions(opts...)

	wa, err := webauthn.New(&webauthn.Config{
		RPID:          rpID,
		RPDisplayName: rpName,
		RPOrigins:     origins,
	})
	if err != nil {
		return nil, err
	}

	return &Server{
		wa:       wa,
		logger:   oo.Logger,
		users:    make(map[string]*user),
		sessions: make(map[string]*webauthn.SessionData),
	}, nil
}

// Router mounts the four relying-party operations.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/register/options", s.registerOptions)
	r.Post("/register/verify", s.registerVerify)
	r.Post("/authenticate/options", s.authenticateOptions)
	r.Post("/authenticate/verify", s.authenticateVerify)
	return r
}

func (s *Server) registerOptions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.users[req.Username]
	if u == nil {
		u = &user{
			id:          newUserHandle(),
			name:        req.Username,
			displayName: req.Username,
		}
		s.users[req.Username] = u
	}

	creation, session, err := s.wa.BeginRegistration(
		u,
		webauthn.WithAuthenticatorSelection(protocol.AuthenticatorSelection{
			AuthenticatorAttachment: protocol.Platform,
			ResidentKey:             protocol.ResidentKeyRequirementRequired,
			UserVerification:        protocol.VerificationRequired,
		}),
		webauthn.WithConveyancePreference(protocol.PreferNoAttestation),
	)
	if err != nil {
		s.logger.Error("begin registration failed", "username", req.Username, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.sessions[req.Username] = session
	writeJSON(w, http.StatusOK, creation)
}

func (s *Server) registerVerify(w http.ResponseWriter, r *http.Request) {
	req, parsed, ok := s.parseVerifyRequest(w, r, true)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.users[req.Username]
	session := s.sessions[req.Username]
	if u == nil || session == nil {
		writeError(w, http.StatusBadRequest, "no pending registration for user")
		return
	}
	delete(s.sessions, req.Username)

	cred, err := s.wa.CreateCredential(u, *session, parsed.creation)
	if err != nil {
		s.logger.Error("registration verification failed", "username", req.Username, "err", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	u.creds = append(u.creds, *cred)

	writeJSON(w, http.StatusOK, map[string]any{
		"verified":     true,
		"credentialId": protocol.URLEncodedBase64(cred.ID),
	})
}

func (s *Server) authenticateOptions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		assertion *protocol.CredentialAssertion
		session   *webauthn.SessionData
		err       error
	)
	sessionKey := sessionKeyDiscoverable

	if req.Username == "" {
		assertion, session, err = s.wa.BeginDiscoverableLogin()
	} else {
		u := s.users[req.Username]
		if u == nil || len(u.creds) == 0 {
			writeError(w, http.StatusNotFound, "unknown user or no registered credentials")
			return
		}
		assertion, session, err = s.wa.BeginLogin(u)
		sessionKey = req.Username
	}
	if err != nil {
		s.logger.Error("begin login failed", "username", req.Username, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.sessions[sessionKey] = session
	writeJSON(w, http.StatusOK, assertion)
}

func (s *Server) authenticateVerify(w http.ResponseWriter, r *http.Request) {
	req, parsed, ok := s.parseVerifyRequest(w, r, false)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Username == "" {
		s.verifyDiscoverable(w, parsed.assertion)
		return
	}

	u := s.users[req.Username]
	session := s.sessions[req.Username]
	if u == nil || session == nil {
		writeError(w, http.StatusBadRequest, "no pending authentication for user")
		return
	}
	delete(s.sessions, req.Username)

	cred, err := s.wa.ValidateLogin(u, *session, parsed.assertion)
	if err != nil {
		s.logger.Error("login verification failed", "username", req.Username, "err", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.updateCredential(u, cred)

	writeJSON(w, http.StatusOK, map[string]any{
		"verified": true,
		"username": req.Username,
	})
}

func (s *Server) verifyDiscoverable(w http.ResponseWriter, parsed *protocol.ParsedCredentialAssertionData) {
	session := s.sessions[sessionKeyDiscoverable]
	if session == nil {
		writeError(w, http.StatusBadRequest, "no pending authentication")
		return
	}
	delete(s.sessions, sessionKeyDiscoverable)

	var matched *user
	cred, err := s.wa.ValidateDiscoverableLogin(
		func(_, userHandle []byte) (webauthn.User, error) {
			for _, u := range s.users {
				if string(u.id) == string(userHandle) {
					matched = u
					return u, nil
				}
			}
			return nil, protocol.ErrBadRequest.WithDetails("unknown user handle")
		},
		*session,
		parsed,
	)
	if err != nil {
		s.logger.Error("discoverable login verification failed", "err", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.updateCredential(matched, cred)

	writeJSON(w, http.StatusOK, map[string]any{
		"verified": true,
		"username": matched.name,
	})
}

func (s *Server) updateCredential(u *user, cred *webauthn.Credential) {
	for i := range u.creds {
		if string(u.creds[i].ID) == string(cred.ID) {
			u.creds[i] = *cred
			return
		}
	}
}
