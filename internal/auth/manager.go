package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cinemax/cinemax/internal/logging"
	"github.com/cinemax/cinemax/internal/models"
	"github.com/cinemax/cinemax/internal/state"
)

var (
	// ErrInvalidCredentials indicates no user matched the supplied
	// name/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountBlocked indicates the matched account is blocked and
	// cannot establish a session.
	ErrAccountBlocked = errors.New("account blocked")
)

// Manager owns the single active session. Name lookup is
// case-insensitive, password comparison exact.
type Manager struct {
	state *state.Container

	nowFunc func() time.Time
}

// NewManager constructs a session manager over the shared state container.
func NewManager(st *state.Container) *Manager {
	if st == nil {
		panic("auth: state container must not be nil")
	}
	return &Manager{state: st, nowFunc: time.Now}
}

// Login validates the credentials against the user collection and
// establishes the session. A blocked account never authenticates, and
// the session is left untouched on any failure. On success the matched
// user's last-login timestamp is updated in the collection first.
func (m *Manager) Login(ctx context.Context, name, password string) (models.User, error) {
	ctx, span := logging.StartSpan(ctx, "login")

	cleanName := strings.ToLower(strings.TrimSpace(name))
	cleanPass := strings.TrimSpace(password)

	var matched *models.User
	for _, u := range m.state.Users() {
		if strings.ToLower(u.Name) == cleanName && u.Password == cleanPass {
			matched = &u
			break
		}
	}

	if matched == nil {
		span.End(ErrInvalidCredentials)
		return models.User{}, ErrInvalidCredentials
	}
	if matched.IsBlocked {
		span.End(ErrAccountBlocked)
		return models.User{}, ErrAccountBlocked
	}

	matched.LastLogin = m.nowFunc().UTC().Format(time.RFC3339)

	err := m.state.MutateUsers(ctx, func(users []models.User) []models.User {
		for i := range users {
			if users[i].ID == matched.ID {
				users[i] = *matched
			}
		}
		return users
	})
	if err != nil {
		span.End(err)
		return models.User{}, fmt.Errorf("record login time: %w", err)
	}

	session := models.AuthState{User: matched, IsAuthenticated: true}
	if err := m.state.SetAuth(ctx, session); err != nil {
		span.End(err)
		return models.User{}, fmt.Errorf("establish session: %w", err)
	}

	span.End(nil)
	return *matched, nil
}

// Logout clears the session unconditionally. Callers holding playback
// handles are expected to release them.
func (m *Manager) Logout(ctx context.Context) error {
	return m.state.SetAuth(ctx, models.AuthState{})
}

// Current returns the active session.
func (m *Manager) Current() models.AuthState {
	return m.state.Auth()
}

// ToggleBlock flips a user's blocked flag. Administrators are never
// blockable, so the call is a no-op for them. Blocking the user behind
// the active session forces a logout: a blocked user cannot remain
// authenticated.
func (m *Manager) ToggleBlock(ctx context.Context, userID string) error {
	blockedAdmin := false
	err := m.state.MutateUsers(ctx, func(users []models.User) []models.User {
		for i := range users {
			if users[i].ID == userID {
				if users[i].Role == models.RoleAdmin {
					blockedAdmin = true
					return users
				}
				users[i].IsBlocked = !users[i].IsBlocked
			}
		}
		return users
	})
	if err != nil {
		return fmt.Errorf("toggle block: %w", err)
	}
	if blockedAdmin {
		return nil
	}

	if session := m.state.Auth(); session.User != nil && session.User.ID == userID {
		logging.FromContext(ctx).Info("active user blocked, clearing session", "userId", userID)
		return m.Logout(ctx)
	}
	return nil
}
