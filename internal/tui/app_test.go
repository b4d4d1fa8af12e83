package tui

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angie756/cafe-limon/config"
	"github.com/angie756/cafe-limon/internal/auth"
	"github.com/angie756/cafe-limon/internal/cart"
	"github.com/angie756/cafe-limon/internal/clients"
	"github.com/angie756/cafe-limon/internal/domain"
	"github.com/angie756/cafe-limon/internal/menu"
	"github.com/angie756/cafe-limon/internal/orders"
	"github.com/angie756/cafe-limon/internal/realtime"
	"github.com/angie756/cafe-limon/internal/storage"
)

type stubAuthClient struct{}

func (stubAuthClient) Login(ctx context.Context, credentials domain.Credentials) (*domain.LoginResult, error) {
	return nil, nil
}
func (stubAuthClient) Logout(ctx context.Context) error { return nil }
func (stubAuthClient) Profile(ctx context.Context) (*domain.User, error) {
	return nil, nil
}
func (stubAuthClient) UpdateProfile(ctx context.Context, profile domain.User) (*domain.User, error) {
	return nil, nil
}
func (stubAuthClient) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	return nil
}
func (stubAuthClient) RefreshToken(ctx context.Context) (string, error) { return "", nil }
func (stubAuthClient) VerifyToken(ctx context.Context) error            { return nil }

var _ clients.AuthClient = stubAuthClient{}

func authManagerWithRole(t *testing.T, role domain.Role) *auth.Manager {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	store, err := storage.New(t.TempDir(), log)
	require.NoError(t, err)
	m := auth.NewManager(stubAuthClient{}, store, log)
	if role != "" {
		require.NoError(t, store.SaveToken("tok"))
		require.NoError(t, store.SaveUser(domain.User{ID: "u1", Username: "test", Role: role}))
	}
	m.Bootstrap()
	return m
}

func gateApp(t *testing.T, role domain.Role) *App {
	t.Helper()
	a := &App{deps: Deps{Auth: authManagerWithRole(t, role)}}
	a.loginView = newLoginView(a)
	return a
}

type stubMenuClient struct{ clients.MenuClient }

type stubTableClient struct{ clients.TableClient }

type stubOrderClient struct {
	clients.OrderClient
	order *domain.Order
}

func (s *stubOrderClient) ByID(ctx context.Context, orderID string) (*domain.Order, error) {
	copied := *s.order
	return &copied, nil
}

// testApp wires real managers over stub clients and an unconnected realtime
// client, enough for the routing and subscription mechanics.
func testApp(t *testing.T, role domain.Role) (*App, *stubOrderClient) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	store, err := storage.New(t.TempDir(), log)
	require.NoError(t, err)

	orderClient := &stubOrderClient{order: &domain.Order{ID: "o1", Status: domain.StatusPending}}
	deps := Deps{
		Config:   &config.Config{Limits: config.DefaultLimits()},
		Log:      log,
		Cart:     cart.NewManager(log),
		Auth:     authManagerWithRole(t, role),
		Orders:   orders.NewManager(orderClient, store, config.DefaultLimits(), log),
		Menu:     menu.NewManager(&stubMenuClient{}, &stubTableClient{}, log),
		Tables:   &stubTableClient{},
		Realtime: realtime.NewClient("ws://127.0.0.1:1/ws", nil, log),
		Store:    store,
	}
	return NewApp(context.Background(), deps, screenMenu), orderClient
}

func TestRequiredRoles(t *testing.T) {
	assert.Empty(t, requiredRoles(screenMenu))
	assert.Empty(t, requiredRoles(screenOrder))
	assert.Empty(t, requiredRoles(screenLogin))
	assert.Equal(t, []domain.Role{domain.RoleKitchen, domain.RoleAdmin}, requiredRoles(screenKitchen))
	assert.Equal(t, []domain.Role{domain.RoleAdmin}, requiredRoles(screenAdmin))
	assert.Equal(t, []domain.Role{domain.RoleAdmin}, requiredRoles(screenTables))
}

func TestResolveEntry(t *testing.T) {
	t.Run("public screens pass through", func(t *testing.T) {
		a := gateApp(t, "")
		assert.Equal(t, screenMenu, a.resolveEntry(screenMenu))
	})

	t.Run("anonymous users are routed through login", func(t *testing.T) {
		a := gateApp(t, "")
		assert.Equal(t, screenLogin, a.resolveEntry(screenKitchen))
		assert.Equal(t, screenKitchen, a.loginView.next)
	})

	t.Run("kitchen staff reach the board", func(t *testing.T) {
		a := gateApp(t, domain.RoleKitchen)
		assert.Equal(t, screenKitchen, a.resolveEntry(screenKitchen))
	})

	t.Run("kitchen staff cannot open admin views", func(t *testing.T) {
		a := gateApp(t, domain.RoleKitchen)
		assert.Equal(t, screenDenied, a.resolveEntry(screenAdmin))
		assert.Equal(t, screenDenied, a.resolveEntry(screenTables))
	})

	t.Run("admins reach everything", func(t *testing.T) {
		a := gateApp(t, domain.RoleAdmin)
		assert.Equal(t, screenKitchen, a.resolveEntry(screenKitchen))
		assert.Equal(t, screenAdmin, a.resolveEntry(screenAdmin))
		assert.Equal(t, screenTables, a.resolveEntry(screenTables))
	})

	t.Run("clients cannot reach staff screens", func(t *testing.T) {
		a := gateApp(t, domain.RoleClient)
		assert.Equal(t, screenDenied, a.resolveEntry(screenKitchen))
		assert.Equal(t, screenMenu, a.resolveEntry(screenMenu))
	})
}

func TestMenuViewBindsRealtime(t *testing.T) {
	a, _ := testApp(t, "")
	require.Nil(t, a.menuView.unbind)

	a.menuView.Init()
	require.NotNil(t, a.menuView.unbind)

	a.menuView.release()
	assert.Nil(t, a.menuView.unbind)

	// Re-entering the screen binds again.
	a.menuView.Init()
	assert.NotNil(t, a.menuView.unbind)
}

func TestSwitchToReleasesSubscriptions(t *testing.T) {
	t.Run("leaving the order screen drops the watch", func(t *testing.T) {
		a, _ := testApp(t, "")
		released := 0
		a.screen = screenOrder
		a.orderView.unwatch = func() { released++ }

		a.switchTo(screenMenu)
		assert.Equal(t, 1, released)
		assert.Nil(t, a.orderView.unwatch)
	})

	t.Run("leaving the kitchen drops the board binding", func(t *testing.T) {
		a, _ := testApp(t, domain.RoleAdmin)
		released := 0
		a.screen = screenKitchen
		a.kitchenView.unbind = func() { released++ }

		a.switchTo(screenAdmin)
		assert.Equal(t, 1, released)
		assert.Nil(t, a.kitchenView.unbind)
	})
}

func TestNotifyPreferences(t *testing.T) {
	t.Run("banner and bell when everything is on", func(t *testing.T) {
		a := &App{prefs: storage.Preferences{Notifications: true, Sound: true}}
		cmd := a.notify("order ready")
		assert.Equal(t, "order ready", a.statusMsg)
		assert.NotNil(t, cmd)
	})

	t.Run("no bell when sound is off", func(t *testing.T) {
		a := &App{prefs: storage.Preferences{Notifications: true}}
		cmd := a.notify("order ready")
		assert.Equal(t, "order ready", a.statusMsg)
		assert.Nil(t, cmd)
	})

	t.Run("no banner when notifications are off", func(t *testing.T) {
		a := &App{prefs: storage.Preferences{Sound: false}}
		cmd := a.notify("order ready")
		assert.Empty(t, a.statusMsg)
		assert.Nil(t, cmd)
	})
}

func TestOrderStatusAnnouncement(t *testing.T) {
	a, orderClient := testApp(t, "")
	a.prefs = storage.Preferences{Notifications: true}

	v := a.orderView
	v.orderID = "o1"
	_, err := a.deps.Orders.Fetch(context.Background(), "o1")
	require.NoError(t, err)

	// The first sighting establishes the baseline without announcing.
	assert.Nil(t, v.statusCheck())
	assert.Empty(t, a.statusMsg)

	orderClient.order.Status = domain.StatusListo
	_, err = a.deps.Orders.Fetch(context.Background(), "o1")
	require.NoError(t, err)

	v.statusCheck()
	assert.Contains(t, a.statusMsg, "Listo")

	// An unchanged status stays quiet.
	a.statusMsg = ""
	assert.Nil(t, v.statusCheck())
	assert.Empty(t, a.statusMsg)
}
