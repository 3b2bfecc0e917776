// Package session owns the authenticated identity for this client
// instance: the bearer token, persisted in the durable slot so it
// survives a restart, and the user record behind it. Expiry is
// server-enforced; the only client-side teardown paths are an explicit
// logout and the global 401 reaction.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"contas/internal/api"
	"contas/internal/core"
	applog "contas/internal/log"
	"contas/internal/storage"
)

// ErrInvalidCredentials is a rejected login. Distinct from the expiry of
// an established session; no retry is attempted either way.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Session is the authenticated identity plus its bearer token. Token is
// non-empty iff the user counts as authenticated.
type Session struct {
	User  core.User
	Token string
}

// Store holds the current session. Construct one per process and inject
// it everywhere; it doubles as the API client's token source.
type Store struct {
	mu      sync.Mutex
	current *Session

	slot   *storage.Slot
	auth   api.AuthService
	logger *applog.Logger
}

func NewStore(slot *storage.Slot, auth api.AuthService, logger *applog.Logger) *Store {
	return &Store{
		slot:   slot,
		auth:   auth,
		logger: logger.WithComponent(applog.ComponentSession),
	}
}

// Token implements api.TokenSource; it is read fresh on every outgoing
// request.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Current returns a snapshot of the session, or nil when logged out.
// Synchronous by design: the route guard calls it on every request.
func (s *Store) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	snapshot := *s.current
	return &snapshot
}

// Restore rehydrates the session from the durable slot at startup. A
// stored token is trusted immediately (the guard must not bounce a
// returning user); the profile fetch then fills in the identity. A 401
// during that fetch means the token died while we were away, and the
// unauthorized hook has already cleared the store.
func (s *Store) Restore(ctx context.Context) error {
	token, _, ok, err := s.slot.Get(storage.KeyToken)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if !ok || token == "" {
		return nil
	}

	s.mu.Lock()
	s.current = &Session{Token: token}
	s.mu.Unlock()

	profile, err := s.auth.Profile(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			s.logger.InfoContext(ctx, "stored token rejected, session cleared")
			return nil
		}
		// Network trouble: keep the token-only session, identity loads on
		// the next successful profile fetch.
		s.logger.WarnContext(ctx, "profile fetch failed during restore", applog.FieldError, err)
		return nil
	}

	s.mu.Lock()
	if s.current != nil && s.current.Token == token {
		s.current.User = profile.User
	}
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "session restored", applog.FieldUserID, profile.ID)
	return nil
}

// Login exchanges credentials for a session. The token is persisted to
// the durable slot; a slot write failure degrades to an in-memory
// session rather than failing the login.
func (s *Store) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) &&
			(apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login: empty token in response")
	}

	sess := &Session{User: resp.User, Token: resp.Token}
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	if err := s.slot.Put(storage.KeyToken, resp.Token); err != nil {
		s.logger.WarnContext(ctx, "token not persisted", applog.FieldSlotKey, storage.KeyToken, applog.FieldError, err)
	}
	s.logger.InfoContext(ctx, "login succeeded", applog.FieldUserID, resp.User.ID)

	snapshot := *sess
	return &snapshot, nil
}

// Register creates an account; the caller must Login afterwards.
func (s *Store) Register(ctx context.Context, name, email, password string) error {
	return s.auth.Register(ctx, name, email, password)
}

// Logout clears the slot and the in-memory session. No remote call.
func (s *Store) Logout() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	if err := s.slot.Delete(storage.KeyToken); err != nil {
		s.logger.Warn("token slot not cleared", applog.FieldSlotKey, storage.KeyToken, applog.FieldError, err)
	}
	s.logger.Info("logged out")
}

// HandleUnauthorized is the global 401 reaction, wired as the API
// client's unauthorized hook. Whatever view triggered the failing call,
// the session is force-cleared so the route guard redirects to login.
func (s *Store) HandleUnauthorized() {
	s.mu.Lock()
	had := s.current != nil
	s.current = nil
	s.mu.Unlock()
	if err := s.slot.Delete(storage.KeyToken); err != nil {
		s.logger.Warn("token slot not cleared", applog.FieldSlotKey, storage.KeyToken, applog.FieldError, err)
	}
	if had {
		s.logger.Info("session force-cleared after 401")
	}
}

// Refresh refetches the profile for the current session, used after
// profile or photo updates so the navbar shows fresh identity.
func (s *Store) Refresh(ctx context.Context) error {
	profile, err := s.auth.Profile(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.current != nil {
		s.current.User = profile.User
	}
	s.mu.Unlock()
	return nil
}
