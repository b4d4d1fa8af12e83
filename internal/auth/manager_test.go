package auth

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angie756/cafe-limon/internal/domain"
	"github.com/angie756/cafe-limon/internal/storage"
)

type fakeAuthClient struct {
	loginResult *domain.LoginResult
	loginErr    error
	logoutErr   error
	verifyErr   error
	profile     *domain.User
	profileErr  error
	logoutCalls int
}

func (f *fakeAuthClient) Login(ctx context.Context, credentials domain.Credentials) (*domain.LoginResult, error) {
	return f.loginResult, f.loginErr
}
func (f *fakeAuthClient) Logout(ctx context.Context) error {
	f.logoutCalls++
	return f.logoutErr
}
func (f *fakeAuthClient) Profile(ctx context.Context) (*domain.User, error) {
	return f.profile, f.profileErr
}
func (f *fakeAuthClient) UpdateProfile(ctx context.Context, profile domain.User) (*domain.User, error) {
	return &profile, nil
}
func (f *fakeAuthClient) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	return nil
}
func (f *fakeAuthClient) RefreshToken(ctx context.Context) (string, error) { return "", nil }
func (f *fakeAuthClient) VerifyToken(ctx context.Context) error           { return f.verifyErr }

func testStore(t *testing.T) *storage.Store {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	store, err := storage.New(t.TempDir(), log)
	require.NoError(t, err)
	return store
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestLogin(t *testing.T) {
	t.Run("success persists the session", func(t *testing.T) {
		store := testStore(t)
		client := &fakeAuthClient{loginResult: &domain.LoginResult{
			Token: "tok", ID: "u1", Username: "angie", Role: domain.RoleAdmin,
		}}
		m := NewManager(client, store, testLogger())

		var states []State
		m.Subscribe(func(s State) { states = append(states, s) })

		user, err := m.Login(context.Background(), domain.Credentials{Username: "angie", Password: "pass"})
		require.NoError(t, err)
		assert.Equal(t, "angie", user.Username)
		assert.Equal(t, []State{StateAuthenticating, StateAuthenticated}, states)
		assert.Equal(t, "tok", store.Token())
		persisted, ok := store.User()
		require.True(t, ok)
		assert.Equal(t, domain.RoleAdmin, persisted.Role)
	})

	t.Run("failure returns to anonymous", func(t *testing.T) {
		store := testStore(t)
		client := &fakeAuthClient{loginErr: errors.New("bad credentials")}
		m := NewManager(client, store, testLogger())

		_, err := m.Login(context.Background(), domain.Credentials{Username: "angie", Password: "nope"})
		require.Error(t, err)
		assert.Equal(t, StateAnonymous, m.State())
		assert.Empty(t, store.Token())
	})
}

func TestLogout(t *testing.T) {
	t.Run("ends anonymous even when the server call fails", func(t *testing.T) {
		store := testStore(t)
		require.NoError(t, store.SaveToken("tok"))
		require.NoError(t, store.SaveUser(domain.User{ID: "u1", Username: "angie"}))

		client := &fakeAuthClient{logoutErr: errors.New("server down")}
		m := NewManager(client, store, testLogger())
		m.Bootstrap()
		require.True(t, m.IsAuthenticated())

		m.Logout(context.Background())
		assert.Equal(t, StateAnonymous, m.State())
		assert.Empty(t, store.Token())
		assert.Equal(t, 1, client.logoutCalls)
	})
}

func TestBootstrap(t *testing.T) {
	t.Run("no token starts anonymous", func(t *testing.T) {
		m := NewManager(&fakeAuthClient{}, testStore(t), testLogger())
		m.Bootstrap()
		assert.Equal(t, StateAnonymous, m.State())
	})

	t.Run("persisted session is trusted optimistically", func(t *testing.T) {
		store := testStore(t)
		require.NoError(t, store.SaveToken("tok"))
		require.NoError(t, store.SaveUser(domain.User{ID: "u1", Username: "angie", Role: domain.RoleKitchen}))

		m := NewManager(&fakeAuthClient{}, store, testLogger())
		m.Bootstrap()

		assert.True(t, m.IsAuthenticated())
		assert.Equal(t, "tok", m.Token())
		assert.True(t, m.IsKitchen())
	})

	t.Run("token without user profile is purged", func(t *testing.T) {
		store := testStore(t)
		require.NoError(t, store.SaveToken("orphan"))

		m := NewManager(&fakeAuthClient{}, store, testLogger())
		m.Bootstrap()

		assert.Equal(t, StateAnonymous, m.State())
		assert.Empty(t, store.Token())
	})
}

func TestVerify(t *testing.T) {
	t.Run("rejection forces logout", func(t *testing.T) {
		store := testStore(t)
		require.NoError(t, store.SaveToken("stale"))
		require.NoError(t, store.SaveUser(domain.User{ID: "u1", Username: "angie"}))

		m := NewManager(&fakeAuthClient{verifyErr: errors.New("expired")}, store, testLogger())
		m.Bootstrap()
		require.True(t, m.IsAuthenticated())

		err := m.Verify(context.Background())
		require.Error(t, err)
		assert.Equal(t, StateAnonymous, m.State())
		assert.Empty(t, store.Token())
	})

	t.Run("anonymous sessions skip verification", func(t *testing.T) {
		m := NewManager(&fakeAuthClient{verifyErr: errors.New("should not run")}, testStore(t), testLogger())
		m.Bootstrap()
		assert.NoError(t, m.Verify(context.Background()))
	})
}

func TestRoles(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.SaveToken("tok"))
	require.NoError(t, store.SaveUser(domain.User{ID: "u1", Username: "boss", Role: domain.RoleAdmin}))

	m := NewManager(&fakeAuthClient{}, store, testLogger())
	m.Bootstrap()

	assert.True(t, m.IsAdmin())
	assert.False(t, m.IsKitchen())
	assert.True(t, m.HasRole(domain.RoleAdmin))
	assert.False(t, m.HasRole(domain.RoleClient))
}
