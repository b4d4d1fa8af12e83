package menu

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/angie756/cafe-limon/internal/api"
	"github.com/angie756/cafe-limon/internal/clients"
	"github.com/angie756/cafe-limon/internal/domain"
)

// Manager holds the client-side menu projection: the composite menu, the
// category list and the product listing, refreshed from the server and
// re-fetched on realtime pushes.
type Manager struct {
	mu          sync.Mutex
	menu        *domain.Menu
	categories  []domain.Category
	products    []domain.Product
	lastErr     error
	subscribers []func()

	client clients.MenuClient
	tables clients.TableClient
	log    *logrus.Logger
}

func NewManager(client clients.MenuClient, tables clients.TableClient, logger *logrus.Logger) *Manager {
	return &Manager{client: client, tables: tables, log: logger}
}

// Subscribe registers a callback fired after every state change.
func (m *Manager) Subscribe(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

func (m *Manager) notify() {
	m.mu.Lock()
	subscribers := append(([]func())(nil), m.subscribers...)
	m.mu.Unlock()
	for _, fn := range subscribers {
		fn()
	}
}

func (m *Manager) setMenu(menu *domain.Menu, err error) {
	m.mu.Lock()
	if err == nil {
		m.menu = menu
		if menu.Categories != nil {
			m.categories = menu.Categories
		}
	}
	m.lastErr = err
	m.mu.Unlock()
	m.notify()
}

// Load fetches the full menu.
func (m *Manager) Load(ctx context.Context, availableOnly bool) (*domain.Menu, error) {
	menu, err := m.client.Menu(ctx, availableOnly)
	m.setMenu(menu, err)
	return menu, err
}

// LoadForTable fetches the table-scoped menu. The two failure causes stay
// distinct: a NotFound means the table itself is wrong and is surfaced
// untouched, while connectivity and server failures fall back to the general
// menu with a logged warning.
func (m *Manager) LoadForTable(ctx context.Context, tableID string) (*domain.Menu, error) {
	menu, err := m.client.MenuByTable(ctx, tableID)
	if err == nil {
		m.setMenu(menu, nil)
		return menu, nil
	}
	if api.IsNotFound(err) {
		m.setMenu(nil, err)
		return nil, err
	}

	m.log.Warnf("Menu: Table menu for %s unavailable (%v), falling back to general menu", tableID, err)
	menu, fallbackErr := m.client.Menu(ctx, true)
	if fallbackErr != nil {
		m.setMenu(nil, fallbackErr)
		return nil, fallbackErr
	}
	m.setMenu(menu, nil)
	return menu, nil
}

// ResolveTable maps a human-facing table number to the table record. Inputs
// that fail to resolve surface their NotFound instead of being silently
// treated as internal identifiers.
func (m *Manager) ResolveTable(ctx context.Context, number string) (*domain.Table, error) {
	table, err := m.tables.ByNumber(ctx, number)
	if err != nil {
		m.log.Warnf("Menu: Could not resolve table number %s: %v", number, err)
		return nil, err
	}
	return table, nil
}

// LoadCategories fetches the category list.
func (m *Manager) LoadCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := m.client.Categories(ctx)
	m.mu.Lock()
	if err == nil {
		m.categories = categories
	}
	m.lastErr = err
	m.mu.Unlock()
	m.notify()
	return categories, err
}

// LoadProducts fetches the product listing.
func (m *Manager) LoadProducts(ctx context.Context, filter clients.ProductFilter) (*domain.ProductPage, error) {
	page, err := m.client.Products(ctx, filter)
	m.mu.Lock()
	if err == nil {
		m.products = page.Products
	}
	m.lastErr = err
	m.mu.Unlock()
	m.notify()
	return page, err
}

// Search fetches products matching a free-text query.
func (m *Manager) Search(ctx context.Context, query string) ([]domain.Product, error) {
	products, err := m.client.SearchProducts(ctx, query)
	m.mu.Lock()
	if err == nil {
		m.products = products
	}
	m.lastErr = err
	m.mu.Unlock()
	m.notify()
	return products, err
}

// Menu returns the held composite menu, if loaded.
func (m *Manager) Menu() (domain.Menu, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.menu == nil {
		return domain.Menu{}, false
	}
	return *m.menu, true
}

// Categories returns the held category list.
func (m *Manager) Categories() []domain.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	categories := make([]domain.Category, len(m.categories))
	copy(categories, m.categories)
	return categories
}

// Products returns the held product listing.
func (m *Manager) Products() []domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	products := make([]domain.Product, len(m.products))
	copy(products, m.products)
	return products
}

// LastError returns the most recent failure, if any.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// RealtimeSource is the slice of the realtime client the manager binds to.
type RealtimeSource interface {
	OnMenuUpdate(handler func(json.RawMessage)) func()
	OnProductUpdate(handler func(json.RawMessage)) func()
}

// BindRealtime re-fetches the menu whenever the server announces a change.
// Push payloads are triggers, never data. Returns an unbind closure.
func (m *Manager) BindRealtime(ctx context.Context, source RealtimeSource) func() {
	refresh := func(json.RawMessage) {
		m.log.Debug("Menu: update push, re-fetching menu")
		if _, err := m.Load(ctx, true); err != nil {
			m.log.Warnf("Menu: Refresh after push failed: %v", err)
		}
	}

	unsubMenu := source.OnMenuUpdate(refresh)
	unsubProduct := source.OnProductUpdate(refresh)
	return func() {
		unsubMenu()
		unsubProduct()
	}
}
