package orders

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angie756/cafe-limon/config"
	"github.com/angie756/cafe-limon/internal/clients"
	"github.com/angie756/cafe-limon/internal/domain"
	"github.com/angie756/cafe-limon/internal/storage"
)

type fakeOrderClient struct {
	orders map[string]*domain.Order

	createCalls int
	byIDCalls   int
	activeCalls int
	updateCalls int

	createErr error
	byIDErr   error
	activeErr error
}

func newFakeOrderClient(seed ...domain.Order) *fakeOrderClient {
	f := &fakeOrderClient{orders: map[string]*domain.Order{}}
	for i := range seed {
		order := seed[i]
		f.orders[order.ID] = &order
	}
	return f
}

func (f *fakeOrderClient) Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	order := &domain.Order{ID: "o-new", Status: domain.StatusPending, TotalAmount: req.TotalAmount}
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakeOrderClient) ByID(ctx context.Context, orderID string) (*domain.Order, error) {
	f.byIDCalls++
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	order, ok := f.orders[orderID]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderClient) Active(ctx context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error) {
	f.activeCalls++
	if f.activeErr != nil {
		return nil, f.activeErr
	}
	var active []domain.Order
	for _, order := range f.orders {
		if order.Status.IsActive() {
			active = append(active, *order)
		}
	}
	return active, nil
}

func (f *fakeOrderClient) List(ctx context.Context, filter clients.OrderFilter) (*domain.OrderPage, error) {
	var all []domain.Order
	for _, order := range f.orders {
		all = append(all, *order)
	}
	return &domain.OrderPage{Orders: all, Total: len(all)}, nil
}

func (f *fakeOrderClient) ByTable(ctx context.Context, tableID string, activeOnly bool) ([]domain.Order, error) {
	return f.Active(ctx)
}

func (f *fakeOrderClient) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	f.updateCalls++
	order, ok := f.orders[orderID]
	if !ok {
		return nil, errors.New("not found")
	}
	order.Status = status
	copied := *order
	return &copied, nil
}

func (f *fakeOrderClient) Cancel(ctx context.Context, orderID, reason string) (*domain.Order, error) {
	return f.UpdateStatus(ctx, orderID, domain.StatusCancelado)
}

func (f *fakeOrderClient) Stats(ctx context.Context, statsRange clients.StatsRange) (*domain.Stats, error) {
	return &domain.Stats{TotalOrders: int64(len(f.orders))}, nil
}

func (f *fakeOrderClient) PreparationTime(ctx context.Context) (*domain.PreparationTime, error) {
	return &domain.PreparationTime{AverageMinutes: 12}, nil
}

func (f *fakeOrderClient) TopProducts(ctx context.Context, limit int) ([]domain.TopProduct, error) {
	return []domain.TopProduct{{ProductID: "p1", ProductName: "Limonada", TotalQuantity: 7}}, nil
}

// fakeRealtime records handlers so tests can fire pushes directly.
type fakeRealtime struct {
	newOrder     func(json.RawMessage)
	statusChange func(json.RawMessage)
	orderUpdate  map[string]func(json.RawMessage)
	unsubscribed int
}

func (f *fakeRealtime) OnNewOrder(handler func(json.RawMessage)) func() {
	f.newOrder = handler
	return func() { f.unsubscribed++ }
}

func (f *fakeRealtime) OnOrderStatusChange(handler func(json.RawMessage)) func() {
	f.statusChange = handler
	return func() { f.unsubscribed++ }
}

func (f *fakeRealtime) OnOrderUpdate(orderID string, handler func(json.RawMessage)) func() {
	if f.orderUpdate == nil {
		f.orderUpdate = map[string]func(json.RawMessage){}
	}
	f.orderUpdate[orderID] = handler
	return func() { f.unsubscribed++ }
}

func testManager(t *testing.T, client clients.OrderClient) *Manager {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	store, err := storage.New(t.TempDir(), log)
	require.NoError(t, err)
	return NewManager(client, store, config.DefaultLimits(), log)
}

func validRequest() domain.CreateOrderRequest {
	return domain.CreateOrderRequest{
		TableID:     "t1",
		Items:       []domain.CreateOrderItem{{ProductID: "p1", Quantity: 2, UnitPrice: 2500}},
		TotalAmount: 5000,
	}
}

func TestCreate(t *testing.T) {
	t.Run("validation failure never reaches the server", func(t *testing.T) {
		client := newFakeOrderClient()
		m := testManager(t, client)

		req := validRequest()
		req.Items = nil
		req.TotalAmount = 0

		_, err := m.Create(context.Background(), req)
		require.Error(t, err)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.False(t, verr.Result.OK())
		assert.Zero(t, client.createCalls)
		_, ok := m.CurrentOrder()
		assert.False(t, ok)
	})

	t.Run("success tracks the order and records it as recent", func(t *testing.T) {
		client := newFakeOrderClient()
		m := testManager(t, client)

		order, err := m.Create(context.Background(), validRequest())
		require.NoError(t, err)
		assert.Equal(t, 1, client.createCalls)

		current, ok := m.CurrentOrder()
		require.True(t, ok)
		assert.Equal(t, order.ID, current.ID)
		assert.Equal(t, []string{order.ID}, m.RecentOrderIDs())
	})
}

func TestAdvance(t *testing.T) {
	t.Run("legal transition goes through", func(t *testing.T) {
		client := newFakeOrderClient(domain.Order{ID: "o1", Status: domain.StatusPending})
		m := testManager(t, client)
		_, err := m.FetchActive(context.Background())
		require.NoError(t, err)

		order, err := m.StartPreparing(context.Background(), "o1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusEnPreparacion, order.Status)
		assert.Equal(t, domain.StatusEnPreparacion, m.Orders()[0].Status)
	})

	t.Run("illegal transition is blocked locally", func(t *testing.T) {
		client := newFakeOrderClient(domain.Order{ID: "o1", Status: domain.StatusPending})
		m := testManager(t, client)
		_, err := m.FetchActive(context.Background())
		require.NoError(t, err)

		_, err = m.MarkDelivered(context.Background(), "o1")
		require.Error(t, err)
		assert.Zero(t, client.updateCalls)
	})

	t.Run("unknown order defers to the server", func(t *testing.T) {
		client := newFakeOrderClient(domain.Order{ID: "o9", Status: domain.StatusPending})
		m := testManager(t, client)

		_, err := m.StartPreparing(context.Background(), "o9")
		require.NoError(t, err)
		assert.Equal(t, 1, client.updateCalls)
	})
}

func TestCancel(t *testing.T) {
	client := newFakeOrderClient(domain.Order{ID: "o1", Status: domain.StatusPending})
	m := testManager(t, client)
	_, err := m.Fetch(context.Background(), "o1")
	require.NoError(t, err)

	order, err := m.Cancel(context.Background(), "o1", "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelado, order.Status)

	current, ok := m.CurrentOrder()
	require.True(t, ok)
	assert.Equal(t, domain.StatusCancelado, current.Status)
}

func TestBindRealtime(t *testing.T) {
	t.Run("new_order push refreshes the active list once", func(t *testing.T) {
		client := newFakeOrderClient(domain.Order{ID: "o1", Status: domain.StatusPending})
		m := testManager(t, client)
		rt := &fakeRealtime{}
		unbind := m.BindRealtime(context.Background(), rt)
		defer unbind()

		before := client.activeCalls
		rt.newOrder(nil)
		assert.Equal(t, before+1, client.activeCalls)
		assert.Zero(t, client.byIDCalls)
	})

	t.Run("status push with id re-fetches exactly that order", func(t *testing.T) {
		client := newFakeOrderClient(domain.Order{ID: "o1", Status: domain.StatusListo})
		m := testManager(t, client)
		rt := &fakeRealtime{}
		unbind := m.BindRealtime(context.Background(), rt)
		defer unbind()

		rt.statusChange(json.RawMessage(`{"orderId":"o1"}`))
		assert.Equal(t, 1, client.byIDCalls)
		assert.Zero(t, client.activeCalls)

		current, ok := m.CurrentOrder()
		require.True(t, ok)
		assert.Equal(t, domain.StatusListo, current.Status)
	})

	t.Run("status push without id falls back to the active list", func(t *testing.T) {
		client := newFakeOrderClient()
		m := testManager(t, client)
		rt := &fakeRealtime{}
		unbind := m.BindRealtime(context.Background(), rt)
		defer unbind()

		rt.statusChange(json.RawMessage(`{}`))
		assert.Equal(t, 1, client.activeCalls)
		assert.Zero(t, client.byIDCalls)
	})

	t.Run("unbind removes both subscriptions", func(t *testing.T) {
		m := testManager(t, newFakeOrderClient())
		rt := &fakeRealtime{}
		unbind := m.BindRealtime(context.Background(), rt)
		unbind()
		assert.Equal(t, 2, rt.unsubscribed)
	})
}

func TestWatchOrder(t *testing.T) {
	client := newFakeOrderClient(domain.Order{ID: "o7", Status: domain.StatusEnPreparacion})
	m := testManager(t, client)
	rt := &fakeRealtime{}

	unwatch := m.WatchOrder(context.Background(), rt, "o7")
	defer unwatch()

	require.Contains(t, rt.orderUpdate, "o7")
	rt.orderUpdate["o7"](nil)
	assert.Equal(t, 1, client.byIDCalls)
}

func TestFetchDashboard(t *testing.T) {
	client := newFakeOrderClient(
		domain.Order{ID: "o1", Status: domain.StatusPending},
		domain.Order{ID: "o2", Status: domain.StatusEntregado},
	)
	m := testManager(t, client)

	dashboard, err := m.FetchDashboard(context.Background(), clients.StatsRange{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, dashboard.Stats.TotalOrders)
	require.Len(t, dashboard.Active, 1)
	assert.Equal(t, "o1", dashboard.Active[0].ID)
	require.Len(t, dashboard.TopProducts, 1)
	assert.Equal(t, "Limonada", dashboard.TopProducts[0].ProductName)
}

func TestSubscribersNotified(t *testing.T) {
	client := newFakeOrderClient(domain.Order{ID: "o1", Status: domain.StatusPending})
	m := testManager(t, client)

	notified := 0
	m.Subscribe(func() { notified++ })

	_, err := m.FetchActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, notified)
}
