package tui

import (
	"context"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

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

// screen identifies which view currently owns the terminal.
type screen int

const (
	screenLogin screen = iota
	screenMenu
	screenOrder
	screenKitchen
	screenAdmin
	screenTables
	screenDenied
)

// Deps bundles everything the views need. The cmd layer builds it once and
// hands it over; views never construct clients themselves.
type Deps struct {
	Config   *config.Config
	Log      *logrus.Logger
	Cart     *cart.Manager
	Auth     *auth.Manager
	Orders   *orders.Manager
	Menu     *menu.Manager
	Tables   clients.TableClient
	Realtime *realtime.Client
	Store    *storage.Store
}

// stateChangedMsg is pushed by manager subscriptions whenever state moves
// outside the bubbletea loop, e.g. on a realtime re-fetch. It only triggers a
// re-render; the views read fresh state from the managers.
type stateChangedMsg struct{}

// App is the root model. It routes messages to the active sub-view and owns
// the cross-cutting keys (quit, back, logout).
type App struct {
	deps   Deps
	ctx    context.Context
	screen screen
	home   screen

	loginView   *loginView
	menuView    *menuView
	orderView   *orderView
	kitchenView *kitchenView
	adminView   *adminView
	tablesView  *tablesView

	statusMsg string
	width     int
	height    int
	prefs     storage.Preferences

	// updates carries notifications from manager subscriptions and realtime
	// pushes into the bubbletea loop.
	updates chan tea.Msg
}

// Option customizes App construction.
type Option func(*App)

// WithTable preselects the table the menu screen orders for.
func WithTable(tableID string) Option {
	return func(a *App) {
		if a.menuView != nil && tableID != "" {
			a.menuView.tableID = tableID
		}
	}
}

// WithOrder opens the order tracking screen on a specific order.
func WithOrder(orderID string) Option {
	return func(a *App) {
		if a.orderView != nil && orderID != "" {
			a.orderView.orderID = orderID
		}
	}
}

// NewApp builds the root model opening on the given screen. Role checks
// happen on entry, not here: an anonymous user landing on a protected screen
// is routed through login first.
func NewApp(ctx context.Context, deps Deps, home screen, opts ...Option) *App {
	a := &App{
		deps:    deps,
		ctx:     ctx,
		home:    home,
		updates: make(chan tea.Msg, 16),
		prefs:   storage.DefaultPreferences(),
	}
	if deps.Store != nil {
		a.prefs = deps.Store.Preferences()
	}
	a.loginView = newLoginView(a)
	a.menuView = newMenuView(a)
	a.orderView = newOrderView(a)
	a.kitchenView = newKitchenView(a)
	a.adminView = newAdminView(a)
	a.tablesView = newTablesView(a)
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	a.screen = a.resolveEntry(home)

	// Manager subscriptions push re-render triggers into the update channel.
	// Dropping on a full channel is fine, one pending trigger is enough.
	nudge := func() {
		select {
		case a.updates <- stateChangedMsg{}:
		default:
		}
	}
	deps.Cart.OnChange(func(cart.Snapshot) { nudge() })
	deps.Orders.Subscribe(nudge)
	deps.Menu.Subscribe(nudge)
	deps.Auth.Subscribe(func(auth.State) { nudge() })
	return a
}

// Screen constructors for the cmd layer.
func ScreenMenu() screen    { return screenMenu }
func ScreenOrder() screen   { return screenOrder }
func ScreenKitchen() screen { return screenKitchen }
func ScreenAdmin() screen   { return screenAdmin }
func ScreenTables() screen  { return screenTables }
func ScreenLogin() screen   { return screenLogin }

// resolveEntry applies the role gate for the requested screen. Kitchen needs
// KITCHEN or ADMIN, admin and table management need ADMIN. Unauthenticated
// users go through login and return to the requested screen afterwards.
func (a *App) resolveEntry(target screen) screen {
	required := requiredRoles(target)
	if len(required) == 0 {
		return target
	}
	if !a.deps.Auth.IsAuthenticated() {
		a.loginView.next = target
		return screenLogin
	}
	if !a.hasAnyRole(required) {
		return screenDenied
	}
	return target
}

func requiredRoles(target screen) []domain.Role {
	switch target {
	case screenKitchen:
		return []domain.Role{domain.RoleKitchen, domain.RoleAdmin}
	case screenAdmin, screenTables:
		return []domain.Role{domain.RoleAdmin}
	default:
		return nil
	}
}

func (a *App) hasAnyRole(roles []domain.Role) bool {
	for _, role := range roles {
		if a.deps.Auth.HasRole(role) {
			return true
		}
	}
	return false
}

func (a *App) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		return <-a.updates
	}
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.waitForUpdate(), a.activeInit()}
	return tea.Batch(cmds...)
}

// activeInit kicks off the entering screen's first load.
func (a *App) activeInit() tea.Cmd {
	switch a.screen {
	case screenLogin:
		return a.loginView.Init()
	case screenMenu:
		return a.menuView.Init()
	case screenOrder:
		return a.orderView.Init()
	case screenKitchen:
		return a.kitchenView.Init()
	case screenAdmin:
		return a.adminView.Init()
	case screenTables:
		return a.tablesView.Init()
	default:
		return nil
	}
}

// switchTo routes to a screen through the role gate and runs its Init. The
// leaving screen gives up its realtime subscriptions first.
func (a *App) switchTo(target screen) tea.Cmd {
	next := a.resolveEntry(target)
	if next != a.screen {
		a.leaveActive()
	}
	a.screen = next
	return a.activeInit()
}

// leaveActive releases the active screen's push subscriptions, leaving any
// order room and stopping re-fetches nobody is watching.
func (a *App) leaveActive() {
	switch a.screen {
	case screenMenu:
		a.menuView.release()
	case screenOrder:
		a.orderView.release()
	case screenKitchen:
		a.kitchenView.release()
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, a.activeUpdate(msg)

	case stateChangedMsg:
		// Re-arm the listener and let the active view react to the fresh
		// state, e.g. announce a status change of the tracked order.
		return a, tea.Batch(a.waitForUpdate(), a.activeUpdate(msg))

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if !a.capturesText() {
				return a, tea.Quit
			}
		case "esc":
			if !a.capturesText() && a.screen != a.home {
				return a, a.switchTo(a.home)
			}
		}
	}

	return a, a.activeUpdate(msg)
}

// capturesText reports whether the active view owns raw keystrokes, so
// global single-letter keys must stay out of the way.
func (a *App) capturesText() bool {
	switch a.screen {
	case screenLogin:
		return true
	case screenMenu:
		return a.menuView.capturing()
	case screenOrder:
		return a.orderView.capturing()
	case screenTables:
		return a.tablesView.capturing()
	default:
		return false
	}
}

func (a *App) activeUpdate(msg tea.Msg) tea.Cmd {
	switch a.screen {
	case screenLogin:
		return a.loginView.Update(msg)
	case screenMenu:
		return a.menuView.Update(msg)
	case screenOrder:
		return a.orderView.Update(msg)
	case screenKitchen:
		return a.kitchenView.Update(msg)
	case screenAdmin:
		return a.adminView.Update(msg)
	case screenTables:
		return a.tablesView.Update(msg)
	default:
		return nil
	}
}

func (a *App) View() string {
	header := titleStyle.Render("☕ CAFÉ LIMÓN")
	if user, ok := a.deps.Auth.CurrentUser(); ok {
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, mutedStyle.Render("  "+user.Username+" ("+string(user.Role)+")"))
	}

	var content string
	switch a.screen {
	case screenLogin:
		content = a.loginView.View()
	case screenMenu:
		content = a.menuView.View()
	case screenOrder:
		content = a.orderView.View()
	case screenKitchen:
		content = a.kitchenView.View()
	case screenAdmin:
		content = a.adminView.View()
	case screenTables:
		content = a.tablesView.View()
	case screenDenied:
		content = errorStyle.Render("You do not have permission to open this view.")
	}

	sections := []string{header, content}
	if a.statusMsg != "" {
		sections = append(sections, footerStyle.Render(a.statusMsg))
	}
	return strings.Join(sections, "\n")
}

func (a *App) setStatus(message string) {
	a.statusMsg = strings.TrimSpace(message)
}

// notify surfaces an out-of-band event according to the persisted
// preferences: the footer banner obeys Notifications, the terminal bell
// obeys Sound.
func (a *App) notify(message string) tea.Cmd {
	if a.prefs.Notifications {
		a.setStatus(message)
	}
	if !a.prefs.Sound {
		return nil
	}
	return func() tea.Msg {
		os.Stdout.WriteString("\a")
		return nil
	}
}
