package menu

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angie756/cafe-limon/internal/api"
	"github.com/angie756/cafe-limon/internal/clients"
	"github.com/angie756/cafe-limon/internal/domain"
)

type fakeMenuClient struct {
	menu         *domain.Menu
	menuErr      error
	tableMenu    *domain.Menu
	tableMenuErr error

	menuCalls      int
	tableMenuCalls int
}

func (f *fakeMenuClient) Categories(ctx context.Context) ([]domain.Category, error) {
	return f.menu.Categories, nil
}
func (f *fakeMenuClient) CategoryByID(ctx context.Context, categoryID string) (*domain.Category, error) {
	return nil, nil
}
func (f *fakeMenuClient) Menu(ctx context.Context, availableOnly bool) (*domain.Menu, error) {
	f.menuCalls++
	return f.menu, f.menuErr
}
func (f *fakeMenuClient) MenuByTable(ctx context.Context, tableID string) (*domain.Menu, error) {
	f.tableMenuCalls++
	return f.tableMenu, f.tableMenuErr
}
func (f *fakeMenuClient) Products(ctx context.Context, filter clients.ProductFilter) (*domain.ProductPage, error) {
	return &domain.ProductPage{Products: f.menu.Products}, nil
}
func (f *fakeMenuClient) ProductByID(ctx context.Context, productID string) (*domain.Product, error) {
	return nil, nil
}
func (f *fakeMenuClient) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	return f.menu.Products, nil
}
func (f *fakeMenuClient) CreateProduct(ctx context.Context, req domain.ProductRequest) (*domain.Product, error) {
	return nil, nil
}
func (f *fakeMenuClient) UpdateProduct(ctx context.Context, productID string, req domain.ProductRequest) (*domain.Product, error) {
	return nil, nil
}
func (f *fakeMenuClient) UpdateAvailability(ctx context.Context, productID string, available bool) (*domain.Product, error) {
	return nil, nil
}
func (f *fakeMenuClient) DeleteProduct(ctx context.Context, productID string) error { return nil }
func (f *fakeMenuClient) UploadProductImage(ctx context.Context, filename string, content io.Reader) (string, error) {
	return "", nil
}
func (f *fakeMenuClient) CreateCategory(ctx context.Context, req domain.CategoryRequest) (*domain.Category, error) {
	return nil, nil
}
func (f *fakeMenuClient) UpdateCategory(ctx context.Context, categoryID string, req domain.CategoryRequest) (*domain.Category, error) {
	return nil, nil
}
func (f *fakeMenuClient) DeleteCategory(ctx context.Context, categoryID string) error { return nil }

type fakeTableClient struct {
	clients.TableClient
	table *domain.Table
	err   error
}

func (f *fakeTableClient) ByNumber(ctx context.Context, number string) (*domain.Table, error) {
	return f.table, f.err
}

type fakeMenuRealtime struct {
	menuUpdate    func(json.RawMessage)
	productUpdate func(json.RawMessage)
	unsubscribed  int
}

func (f *fakeMenuRealtime) OnMenuUpdate(handler func(json.RawMessage)) func() {
	f.menuUpdate = handler
	return func() { f.unsubscribed++ }
}
func (f *fakeMenuRealtime) OnProductUpdate(handler func(json.RawMessage)) func() {
	f.productUpdate = handler
	return func() { f.unsubscribed++ }
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func sampleMenu() *domain.Menu {
	return &domain.Menu{
		Categories: []domain.Category{{ID: "c1", Name: "Bebidas"}},
		Products:   []domain.Product{{ID: "p1", Name: "Limonada", Price: 2500, Available: true}},
		ProductsByCategory: map[string][]domain.Product{
			"c1": {{ID: "p1", Name: "Limonada", Price: 2500, Available: true}},
		},
	}
}

func TestLoadForTable(t *testing.T) {
	t.Run("table menu is preferred", func(t *testing.T) {
		client := &fakeMenuClient{menu: sampleMenu(), tableMenu: sampleMenu()}
		m := NewManager(client, &fakeTableClient{}, testLogger())

		mnu, err := m.LoadForTable(context.Background(), "t1")
		require.NoError(t, err)
		assert.NotNil(t, mnu)
		assert.Equal(t, 1, client.tableMenuCalls)
		assert.Zero(t, client.menuCalls)
	})

	t.Run("unknown table surfaces the NotFound", func(t *testing.T) {
		client := &fakeMenuClient{
			menu:         sampleMenu(),
			tableMenuErr: &api.Error{Kind: api.KindNotFound, Status: 404},
		}
		m := NewManager(client, &fakeTableClient{}, testLogger())

		_, err := m.LoadForTable(context.Background(), "missing")
		require.Error(t, err)
		assert.True(t, api.IsNotFound(err))
		assert.Zero(t, client.menuCalls)
	})

	t.Run("server failure falls back to the general menu", func(t *testing.T) {
		client := &fakeMenuClient{
			menu:         sampleMenu(),
			tableMenuErr: &api.Error{Kind: api.KindServer, Status: 500},
		}
		m := NewManager(client, &fakeTableClient{}, testLogger())

		mnu, err := m.LoadForTable(context.Background(), "t1")
		require.NoError(t, err)
		assert.NotNil(t, mnu)
		assert.Equal(t, 1, client.menuCalls)
	})

	t.Run("network failure falls back to the general menu", func(t *testing.T) {
		client := &fakeMenuClient{
			menu:         sampleMenu(),
			tableMenuErr: &api.Error{Kind: api.KindNetwork},
		}
		m := NewManager(client, &fakeTableClient{}, testLogger())

		_, err := m.LoadForTable(context.Background(), "t1")
		require.NoError(t, err)
		assert.Equal(t, 1, client.menuCalls)
	})

	t.Run("failed fallback surfaces its own error", func(t *testing.T) {
		client := &fakeMenuClient{
			menuErr:      &api.Error{Kind: api.KindServer, Status: 500},
			tableMenuErr: &api.Error{Kind: api.KindNetwork},
		}
		m := NewManager(client, &fakeTableClient{}, testLogger())

		_, err := m.LoadForTable(context.Background(), "t1")
		require.Error(t, err)
		assert.Equal(t, api.KindServer, api.KindOf(err))
	})
}

func TestResolveTable(t *testing.T) {
	t.Run("resolves a number to the table record", func(t *testing.T) {
		tables := &fakeTableClient{table: &domain.Table{ID: "t-uuid", Number: "12"}}
		m := NewManager(&fakeMenuClient{menu: sampleMenu()}, tables, testLogger())

		table, err := m.ResolveTable(context.Background(), "12")
		require.NoError(t, err)
		assert.Equal(t, "t-uuid", table.ID)
	})

	t.Run("surfaces resolution failures", func(t *testing.T) {
		tables := &fakeTableClient{err: &api.Error{Kind: api.KindNotFound, Status: 404}}
		m := NewManager(&fakeMenuClient{menu: sampleMenu()}, tables, testLogger())

		_, err := m.ResolveTable(context.Background(), "99")
		require.Error(t, err)
		assert.True(t, api.IsNotFound(err))
	})
}

func TestMenuState(t *testing.T) {
	client := &fakeMenuClient{menu: sampleMenu()}
	m := NewManager(client, &fakeTableClient{}, testLogger())

	_, ok := m.Menu()
	assert.False(t, ok)

	notified := 0
	m.Subscribe(func() { notified++ })

	_, err := m.Load(context.Background(), true)
	require.NoError(t, err)

	held, ok := m.Menu()
	require.True(t, ok)
	assert.Len(t, held.Categories, 1)
	assert.Equal(t, 1, notified)
	assert.Len(t, m.Categories(), 1)
}

func TestBindRealtime(t *testing.T) {
	client := &fakeMenuClient{menu: sampleMenu()}
	m := NewManager(client, &fakeTableClient{}, testLogger())
	rt := &fakeMenuRealtime{}

	unbind := m.BindRealtime(context.Background(), rt)

	rt.menuUpdate(nil)
	assert.Equal(t, 1, client.menuCalls)
	rt.productUpdate(nil)
	assert.Equal(t, 2, client.menuCalls)

	unbind()
	assert.Equal(t, 2, rt.unsubscribed)
}
