package cart

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/angie756/cafe-limon/internal/domain"
	"github.com/angie756/cafe-limon/internal/storage"
)

// Snapshot is the full cart state handed to change hooks and persisted on
// every mutation.
type Snapshot = storage.CartSnapshot

// ChangeHook receives the post-mutation snapshot. Hooks run synchronously,
// in registration order, while the mutation lock is held, so readers never
// observe a state the hooks have not seen.
type ChangeHook func(Snapshot)

// Manager owns the in-progress cart for one session: an ordered list of line
// items plus the table association. Line identity is (productID, notes); two
// lines with the same product but different notes stay distinct.
type Manager struct {
	mu      sync.Mutex
	items   []domain.OrderItem
	tableID string
	hooks   []ChangeHook
	log     *logrus.Logger
}

func NewManager(logger *logrus.Logger) *Manager {
	return &Manager{log: logger}
}

// WithStore wires the persistence policy: the store-backed hook mirrors each
// mutation, and the persisted snapshot is restored immediately.
func (m *Manager) WithStore(store *storage.Store) *Manager {
	m.Restore(store.LoadCart())
	m.OnChange(func(snapshot Snapshot) {
		if len(snapshot.Items) == 0 && snapshot.TableID == "" {
			if err := store.ClearCart(); err != nil {
				m.log.Warnf("Cart: failed to purge persisted snapshot: %v", err)
			}
			return
		}
		if err := store.SaveCart(snapshot); err != nil {
			m.log.Warnf("Cart: failed to persist snapshot: %v", err)
		}
	})
	return m
}

// OnChange registers a hook invoked synchronously after every mutation.
func (m *Manager) OnChange(hook ChangeHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook)
}

// Restore replaces the cart state with a previously persisted snapshot
// without firing change hooks.
func (m *Manager) Restore(snapshot Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append([]domain.OrderItem(nil), snapshot.Items...)
	m.tableID = snapshot.TableID
}

func (m *Manager) notifyLocked() {
	snapshot := m.snapshotLocked()
	for _, hook := range m.hooks {
		hook(snapshot)
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	items := make([]domain.OrderItem, len(m.items))
	copy(items, m.items)
	return Snapshot{Items: items, TableID: m.tableID}
}

// Snapshot returns a copy of the current cart state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// AddItem merges into an existing line with the same (productID, notes)
// identity or appends a new one. No upper bound is enforced here; limits are
// checked at submission time.
func (m *Manager) AddItem(product domain.Product, quantity int, notes string) {
	if quantity <= 0 {
		quantity = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, item := range m.items {
		if item.ProductID == product.ID && item.Notes == notes {
			m.items[i].Quantity += quantity
			m.log.Debugf("Cart: Merged %d more of product %s (notes %q), now %d", quantity, product.ID, notes, m.items[i].Quantity)
			m.notifyLocked()
			return
		}
	}

	m.items = append(m.items, domain.OrderItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		Notes:       notes,
		UnitPrice:   product.Price,
	})
	m.log.Debugf("Cart: Added product %s x%d (notes %q)", product.ID, quantity, notes)
	m.notifyLocked()
}

// SetQuantity replaces a line's quantity in place, preserving position.
// A quantity of zero or less removes the line entirely.
func (m *Manager) SetQuantity(productID, notes string, quantity int) {
	if quantity <= 0 {
		m.RemoveItem(productID, notes)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, item := range m.items {
		if item.ProductID == productID && item.Notes == notes {
			m.items[i].Quantity = quantity
			m.notifyLocked()
			return
		}
	}
}

// UpdateNotes rewrites a line's notes, which changes its identity.
func (m *Manager) UpdateNotes(productID, oldNotes, newNotes string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, item := range m.items {
		if item.ProductID == productID && item.Notes == oldNotes {
			m.items[i].Notes = newNotes
			m.notifyLocked()
			return
		}
	}
}

// RemoveItem drops the line matching (productID, notes).
func (m *Manager) RemoveItem(productID, notes string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.items[:0]
	removed := false
	for _, item := range m.items {
		if item.ProductID == productID && item.Notes == notes {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	m.items = kept

	if removed {
		m.log.Debugf("Cart: Removed product %s (notes %q)", productID, notes)
		m.notifyLocked()
	}
}

// SetTable associates the cart with a table; independent of line mutations.
func (m *Manager) SetTable(tableID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tableID = tableID
	m.log.Debugf("Cart: Table set to %s", tableID)
	m.notifyLocked()
}

// TableID returns the current table association.
func (m *Manager) TableID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tableID
}

// Clear empties the lines, drops the table association and purges the
// persisted snapshot through the change hooks.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = nil
	m.tableID = ""
	m.log.Debug("Cart: Cleared")
	m.notifyLocked()
}

// ItemSubtotal is unitPrice x quantity for one line.
func ItemSubtotal(item domain.OrderItem) float64 {
	return item.UnitPrice * float64(item.Quantity)
}

// Total sums the subtotals of all surviving lines.
func (m *Manager) Total() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, item := range m.items {
		total += ItemSubtotal(item)
	}
	return total
}

// TotalItems sums the quantities across all lines.
func (m *Manager) TotalItems() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, item := range m.items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart holds no lines.
func (m *Manager) IsEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items) == 0
}

// Items returns a copy of the current lines in order.
func (m *Manager) Items() []domain.OrderItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]domain.OrderItem, len(m.items))
	copy(items, m.items)
	return items
}

// OrderRequest projects the cart into the order-creation payload.
func (m *Manager) OrderRequest(customerName string) domain.CreateOrderRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	req := domain.CreateOrderRequest{
		TableID:      m.tableID,
		CustomerName: customerName,
		Items:        make([]domain.CreateOrderItem, 0, len(m.items)),
	}
	for _, item := range m.items {
		req.Items = append(req.Items, domain.CreateOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Notes:     item.Notes,
			UnitPrice: item.UnitPrice,
		})
		req.TotalAmount += ItemSubtotal(item)
	}
	return req
}
