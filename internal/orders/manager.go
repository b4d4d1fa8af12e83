package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/angie756/cafe-limon/config"
	"github.com/angie756/cafe-limon/internal/clients"
	"github.com/angie756/cafe-limon/internal/domain"
	"github.com/angie756/cafe-limon/internal/storage"
	"github.com/angie756/cafe-limon/internal/validation"
)

// ValidationError carries the full list of violated rules so callers can
// show every problem at once.
type ValidationError struct {
	Result validation.Result
}

func (e *ValidationError) Error() string {
	return "order validation failed: " + e.Result.Error()
}

// Dashboard aggregates the admin view's data in one shot.
type Dashboard struct {
	Stats       *domain.Stats
	Active      []domain.Order
	TopProducts []domain.TopProduct
}

// Manager keeps the client-side projection of orders in sync with the
// server. Realtime pushes are advisory triggers: every push leads to a full
// re-fetch of the affected resource, never to trusting the push payload.
// Repeated fetches converge last-write-wins, which is fine at human
// timescales.
type Manager struct {
	mu           sync.Mutex
	orders       []domain.Order
	currentOrder *domain.Order
	lastErr      error
	subscribers  []func()

	client clients.OrderClient
	store  *storage.Store
	limits config.Limits
	log    *logrus.Logger
}

func NewManager(client clients.OrderClient, store *storage.Store, limits config.Limits, logger *logrus.Logger) *Manager {
	return &Manager{
		client: client,
		store:  store,
		limits: limits,
		log:    logger,
	}
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

func (m *Manager) recordErr(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

// LastError returns the most recent failure, if any.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Create validates the request and posts it. Validation failures never reach
// the server and never mutate anything; the caller clears the cart only
// after a successful creation.
func (m *Manager) Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	if result := validation.ValidateOrder(req, m.limits); !result.OK() {
		m.log.Warnf("Orders: Rejected order for table %s locally: %s", req.TableID, result.Error())
		err := &ValidationError{Result: result}
		m.recordErr(err)
		return nil, err
	}

	order, err := m.client.Create(ctx, req)
	if err != nil {
		m.recordErr(err)
		return nil, err
	}

	m.mu.Lock()
	m.currentOrder = order
	m.lastErr = nil
	m.mu.Unlock()

	if err := m.store.PushRecentOrder(order.ID); err != nil {
		m.log.Warnf("Orders: Failed to record recent order %s: %v", order.ID, err)
	}

	m.notify()
	return order, nil
}

// Fetch replaces currentOrder with the authoritative server copy. Used for
// the initial load and for every push-triggered resynchronization.
func (m *Manager) Fetch(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := m.client.ByID(ctx, orderID)
	if err != nil {
		m.recordErr(err)
		return nil, err
	}

	m.mu.Lock()
	m.currentOrder = order
	m.replaceLocked(*order)
	m.lastErr = nil
	m.mu.Unlock()

	m.notify()
	return order, nil
}

// FetchActive refreshes the kitchen board list.
func (m *Manager) FetchActive(ctx context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error) {
	orders, err := m.client.Active(ctx, statuses...)
	if err != nil {
		m.recordErr(err)
		return nil, err
	}

	m.mu.Lock()
	m.orders = orders
	m.lastErr = nil
	m.mu.Unlock()

	m.notify()
	return orders, nil
}

// FetchAll refreshes the held list from the paginated admin listing.
func (m *Manager) FetchAll(ctx context.Context, filter clients.OrderFilter) (*domain.OrderPage, error) {
	page, err := m.client.List(ctx, filter)
	if err != nil {
		m.recordErr(err)
		return nil, err
	}

	m.mu.Lock()
	m.orders = page.Orders
	m.lastErr = nil
	m.mu.Unlock()

	m.notify()
	return page, nil
}

// FetchByTable refreshes the held list with one table's orders.
func (m *Manager) FetchByTable(ctx context.Context, tableID string, activeOnly bool) ([]domain.Order, error) {
	orders, err := m.client.ByTable(ctx, tableID, activeOnly)
	if err != nil {
		m.recordErr(err)
		return nil, err
	}

	m.mu.Lock()
	m.orders = orders
	m.lastErr = nil
	m.mu.Unlock()

	m.notify()
	return orders, nil
}

// Advance requests a specific status transition. The domain transition table
// is checked locally first so the kitchen can only request moves the
// progression allows.
func (m *Manager) Advance(ctx context.Context, orderID string, target domain.OrderStatus) (*domain.Order, error) {
	if current, ok := m.find(orderID); ok && !domain.CanTransition(current.Status, target) {
		err := fmt.Errorf("order %s cannot move from %s to %s", orderID, current.Status, target)
		m.log.Warnf("Orders: %v", err)
		m.recordErr(err)
		return nil, err
	}

	order, err := m.client.UpdateStatus(ctx, orderID, target)
	if err != nil {
		m.recordErr(err)
		return nil, err
	}

	m.apply(*order)
	return order, nil
}

// StartPreparing requests PENDING -> EN_PREPARACION.
func (m *Manager) StartPreparing(ctx context.Context, orderID string) (*domain.Order, error) {
	return m.Advance(ctx, orderID, domain.StatusEnPreparacion)
}

// MarkReady requests EN_PREPARACION -> LISTO.
func (m *Manager) MarkReady(ctx context.Context, orderID string) (*domain.Order, error) {
	return m.Advance(ctx, orderID, domain.StatusListo)
}

// MarkDelivered requests LISTO -> ENTREGADO.
func (m *Manager) MarkDelivered(ctx context.Context, orderID string) (*domain.Order, error) {
	return m.Advance(ctx, orderID, domain.StatusEntregado)
}

// Cancel requests cancellation and applies the server's CANCELADO copy
// to every local projection.
func (m *Manager) Cancel(ctx context.Context, orderID, reason string) (*domain.Order, error) {
	order, err := m.client.Cancel(ctx, orderID, reason)
	if err != nil {
		m.recordErr(err)
		return nil, err
	}

	m.apply(*order)
	return order, nil
}

// apply updates the held list entry and currentOrder when their ids match.
func (m *Manager) apply(order domain.Order) {
	m.mu.Lock()
	m.replaceLocked(order)
	if m.currentOrder != nil && m.currentOrder.ID == order.ID {
		copied := order
		m.currentOrder = &copied
	}
	m.lastErr = nil
	m.mu.Unlock()

	m.notify()
}

func (m *Manager) replaceLocked(order domain.Order) {
	for i := range m.orders {
		if m.orders[i].ID == order.ID {
			m.orders[i] = order
			return
		}
	}
}

func (m *Manager) find(orderID string) (domain.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentOrder != nil && m.currentOrder.ID == orderID {
		return *m.currentOrder, true
	}
	for _, order := range m.orders {
		if order.ID == orderID {
			return order, true
		}
	}
	return domain.Order{}, false
}

// CurrentOrder returns the tracked order, if any.
func (m *Manager) CurrentOrder() (domain.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentOrder == nil {
		return domain.Order{}, false
	}
	return *m.currentOrder, true
}

// Orders returns a copy of the held list.
func (m *Manager) Orders() []domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := make([]domain.Order, len(m.orders))
	copy(orders, m.orders)
	return orders
}

// Stats proxies the statistics endpoint.
func (m *Manager) Stats(ctx context.Context, statsRange clients.StatsRange) (*domain.Stats, error) {
	return m.client.Stats(ctx, statsRange)
}

// TopProducts proxies the top-products endpoint.
func (m *Manager) TopProducts(ctx context.Context, limit int) ([]domain.TopProduct, error) {
	return m.client.TopProducts(ctx, limit)
}

// PreparationTime proxies the preparation-time endpoint.
func (m *Manager) PreparationTime(ctx context.Context) (*domain.PreparationTime, error) {
	return m.client.PreparationTime(ctx)
}

// FetchDashboard gathers the admin dashboard's three resources concurrently.
func (m *Manager) FetchDashboard(ctx context.Context, statsRange clients.StatsRange) (*Dashboard, error) {
	var dashboard Dashboard

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		stats, err := m.client.Stats(groupCtx, statsRange)
		if err != nil {
			return err
		}
		dashboard.Stats = stats
		return nil
	})
	group.Go(func() error {
		active, err := m.client.Active(groupCtx)
		if err != nil {
			return err
		}
		dashboard.Active = active
		return nil
	})
	group.Go(func() error {
		top, err := m.client.TopProducts(groupCtx, 10)
		if err != nil {
			return err
		}
		dashboard.TopProducts = top
		return nil
	})

	if err := group.Wait(); err != nil {
		m.recordErr(err)
		return nil, err
	}

	m.mu.Lock()
	m.orders = dashboard.Active
	m.lastErr = nil
	m.mu.Unlock()

	m.notify()
	return &dashboard, nil
}

// RecentOrderIDs exposes the capped recent-orders history.
func (m *Manager) RecentOrderIDs() []string {
	return m.store.RecentOrders()
}

// RealtimeSource is the slice of the realtime client the manager binds to.
type RealtimeSource interface {
	OnNewOrder(handler func(json.RawMessage)) func()
	OnOrderStatusChange(handler func(json.RawMessage)) func()
	OnOrderUpdate(orderID string, handler func(json.RawMessage)) func()
}

// statusChangePayload is only used to learn WHICH order changed; the rest of
// the payload is ignored in favor of a re-fetch.
type statusChangePayload struct {
	OrderID string `json:"orderId"`
	ID      string `json:"id"`
}

// BindRealtime wires push notifications to re-fetches. Each event triggers
// exactly one re-fetch of the affected resource regardless of payload
// content. Returns an unbind closure.
func (m *Manager) BindRealtime(ctx context.Context, source RealtimeSource) func() {
	unsubNew := source.OnNewOrder(func(json.RawMessage) {
		m.log.Debug("Orders: new_order push, refreshing active list")
		if _, err := m.FetchActive(ctx); err != nil {
			m.log.Warnf("Orders: Active refresh after push failed: %v", err)
		}
	})

	unsubStatus := source.OnOrderStatusChange(func(data json.RawMessage) {
		var payload statusChangePayload
		_ = json.Unmarshal(data, &payload)
		orderID := payload.OrderID
		if orderID == "" {
			orderID = payload.ID
		}
		if orderID == "" {
			m.log.Debug("Orders: status push without order id, refreshing active list")
			if _, err := m.FetchActive(ctx); err != nil {
				m.log.Warnf("Orders: Active refresh after push failed: %v", err)
			}
			return
		}
		m.log.Debugf("Orders: status push for %s, re-fetching", orderID)
		if _, err := m.Fetch(ctx, orderID); err != nil {
			m.log.Warnf("Orders: Re-fetch of %s after push failed: %v", orderID, err)
		}
	})

	return func() {
		unsubNew()
		unsubStatus()
	}
}

// WatchOrder scopes a realtime subscription to one order and re-fetches it on
// every push. Returns the unwatch closure.
func (m *Manager) WatchOrder(ctx context.Context, source RealtimeSource, orderID string) func() {
	return source.OnOrderUpdate(orderID, func(json.RawMessage) {
		m.log.Debugf("Orders: order_update push for %s, re-fetching", orderID)
		if _, err := m.Fetch(ctx, orderID); err != nil {
			m.log.Warnf("Orders: Re-fetch of %s after push failed: %v", orderID, err)
		}
	})
}
