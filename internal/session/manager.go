package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/domain/identity"
	"github.com/ehr/hms/internal/platform/auth"
	"github.com/ehr/hms/internal/platform/validation"
)

// Authenticator exchanges credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, req identity.LoginRequest) (*identity.LoginResponse, error)
}

// Manager is the session context passed to every page. Reads are safe from
// any goroutine; Login and Logout serialize writes.
type Manager struct {
	mu      sync.RWMutex
	current *Session

	store    Store
	auth     Authenticator
	validate *validation.Validator
	logger   zerolog.Logger
	now      func() time.Time
}

func NewManager(store Store, authn Authenticator, logger zerolog.Logger) *Manager {
	return &Manager{
		store:    store,
		auth:     authn,
		validate: validation.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Restore loads the persisted session. An expired session is discarded and
// removed from the store.
func (m *Manager) Restore() (*Session, error) {
	s, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	if s.Expired(m.now()) {
		m.logger.Debug().Str("email", s.User.Email).Msg("stored session expired")
		if err := m.store.Clear(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	cp := *s
	return &cp, nil
}

// Login authenticates against the backend and persists the session. A
// two-factor account answered without a code fails with
// KindTwoFactorRequired; every other rejection reads as bad credentials.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*Session, error) {
	const op = "session.login"
	if err := m.validate.Validate(&creds); err != nil {
		return nil, err
	}

	resp, err := m.auth.Login(ctx, identity.LoginRequest{Email: creds.Email, Password: creds.Password, OTP: creds.OTP})
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindTwoFactorRequired, apperr.KindNetwork, apperr.KindServer, apperr.KindCanceled:
			return nil, err
		case apperr.KindAuthentication, apperr.KindValidation, apperr.KindNotFound:
			return nil, &apperr.Error{Kind: apperr.KindAuthentication, Op: op, Code: apperr.CodeInvalidCredentials, Message: "incorrect email or password", Err: err}
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s, err := m.sessionFrom(resp)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(s); err != nil {
		return nil, fmt.Errorf("%s: persist: %w", op, err)
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	m.logger.Info().Str("email", s.User.Email).Str("role", s.User.Role).Msg("signed in")
	cp := *s
	return &cp, nil
}

// sessionFrom prefers the token's own claims; the client holds no key, so
// they are decoded without verification.
func (m *Manager) sessionFrom(resp *identity.LoginResponse) (*Session, error) {
	claims, err := auth.ParseUnverified(resp.Token)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindAuthentication, Op: "session.login", Code: apperr.CodeInvalidToken, Message: "the server returned an unreadable token", Err: err}
	}
	s := fromClaims(resp.Token, claims)
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = resp.ExpiresAt
	}
	if s.User.UserID == "" {
		u := resp.User
		s.User = Identity{UserID: u.ID.String(), Email: u.Email, Name: u.Name, Role: u.Role, HospitalID: u.HospitalRef(), RegionID: u.RegionRef()}
	}
	return s, nil
}

// Logout forgets the session in memory and on disk.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	return m.store.Clear()
}

// Close releases the manager. The persisted session is kept.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	return nil
}

// Current returns a copy of the live session, or nil when signed out or
// expired.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil || m.current.Expired(m.now()) {
		return nil
	}
	cp := *m.current
	return &cp
}

func (m *Manager) Token() string {
	if s := m.Current(); s != nil {
		return s.Token
	}
	return ""
}

func (m *Manager) Identity() (Identity, bool) {
	if s := m.Current(); s != nil {
		return s.User, true
	}
	return Identity{}, false
}
