package auth

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/angie756/cafe-limon/internal/clients"
	"github.com/angie756/cafe-limon/internal/domain"
	"github.com/angie756/cafe-limon/internal/storage"
)

// State is the session lifecycle phase.
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
)

// Manager owns the current session. A persisted token puts it optimistically
// into the authenticated state on bootstrap; the follow-up server
// verification either confirms the session or forces it back to anonymous.
type Manager struct {
	mu    sync.Mutex
	state State
	user  *domain.User
	token string

	client      clients.AuthClient
	store       *storage.Store
	log         *logrus.Logger
	subscribers []func(State)
}

func NewManager(client clients.AuthClient, store *storage.Store, logger *logrus.Logger) *Manager {
	return &Manager{
		state:  StateAnonymous,
		client: client,
		store:  store,
		log:    logger,
	}
}

// Subscribe registers a callback fired after every state transition.
func (m *Manager) Subscribe(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

func (m *Manager) setState(state State, user *domain.User, token string) {
	m.mu.Lock()
	m.state = state
	m.user = user
	m.token = token
	subscribers := append(([]func(State))(nil), m.subscribers...)
	m.mu.Unlock()

	for _, fn := range subscribers {
		fn(state)
	}
}

// Bootstrap is phase one of the two-phase startup: if a token survives in
// storage the manager optimistically trusts it. Callers follow up with
// Verify for phase two.
func (m *Manager) Bootstrap() {
	token := m.store.Token()
	if token == "" {
		m.log.Debug("Auth: No persisted token, starting anonymous")
		m.setState(StateAnonymous, nil, "")
		return
	}

	user, ok := m.store.User()
	if !ok {
		m.log.Warn("Auth: Persisted token without user profile, starting anonymous")
		m.store.ClearSession()
		m.setState(StateAnonymous, nil, "")
		return
	}

	m.log.Infof("Auth: Restored session for %s, pending server verification", user.Username)
	m.setState(StateAuthenticated, &user, token)
}

// Verify is phase two: the server confirms or rejects the optimistic
// session. Rejection purges the persisted token and forces anonymous.
func (m *Manager) Verify(ctx context.Context) error {
	if m.State() != StateAuthenticated {
		return nil
	}
	if err := m.client.VerifyToken(ctx); err != nil {
		m.log.Warnf("Auth: Token verification failed, clearing session: %v", err)
		m.ForceLogout()
		return err
	}
	m.log.Debug("Auth: Token verified")
	return nil
}

// Login transitions authenticating -> authenticated on success, or back to
// anonymous on failure. The token and user are persisted on success.
func (m *Manager) Login(ctx context.Context, credentials domain.Credentials) (*domain.User, error) {
	m.setState(StateAuthenticating, nil, "")

	result, err := m.client.Login(ctx, credentials)
	if err != nil {
		m.setState(StateAnonymous, nil, "")
		return nil, err
	}

	user := result.User()
	if err := m.store.SaveToken(result.Token); err != nil {
		m.log.Warnf("Auth: Failed to persist token: %v", err)
	}
	if err := m.store.SaveUser(user); err != nil {
		m.log.Warnf("Auth: Failed to persist user: %v", err)
	}

	m.log.Infof("Auth: User %s authenticated (role %s)", user.Username, user.Role)
	m.setState(StateAuthenticated, &user, result.Token)
	return &user, nil
}

// Logout notifies the server best-effort and always ends anonymous locally,
// even when the server call fails.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.client.Logout(ctx); err != nil {
		m.log.Warnf("Auth: Server logout failed (continuing local logout): %v", err)
	}
	m.ForceLogout()
}

// ForceLogout clears the session unconditionally. Also wired as the API
// client's 401 hook.
func (m *Manager) ForceLogout() {
	m.store.ClearSession()
	m.log.Info("Auth: Session cleared")
	m.setState(StateAnonymous, nil, "")
}

// RefreshProfile re-fetches the profile and refreshes the persisted copy.
func (m *Manager) RefreshProfile(ctx context.Context) (*domain.User, error) {
	user, err := m.client.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.store.SaveUser(*user); err != nil {
		m.log.Warnf("Auth: Failed to persist refreshed profile: %v", err)
	}

	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
	return user, nil
}

// State returns the current lifecycle phase.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentUser returns the session user, if any.
func (m *Manager) CurrentUser() (domain.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return domain.User{}, false
	}
	return *m.user, true
}

// Token returns the bearer token for the API client's token source.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// IsAuthenticated reports whether a session is live.
func (m *Manager) IsAuthenticated() bool {
	return m.State() == StateAuthenticated
}

// HasRole is a pure predicate over the current session.
func (m *Manager) HasRole(role domain.Role) bool {
	user, ok := m.CurrentUser()
	return ok && user.Role == role
}

func (m *Manager) IsAdmin() bool {
	return m.HasRole(domain.RoleAdmin)
}

func (m *Manager) IsKitchen() bool {
	return m.HasRole(domain.RoleKitchen)
}
