package domain

import "time"

type OrderStatus string

const (
	StatusPending       OrderStatus = "PENDING"
	StatusEnPreparacion OrderStatus = "EN_PREPARACION"
	StatusListo         OrderStatus = "LISTO"
	StatusEntregado     OrderStatus = "ENTREGADO"
	StatusCancelado     OrderStatus = "CANCELADO"
)

// StatusLabels maps wire statuses to what the views print.
var StatusLabels = map[OrderStatus]string{
	StatusPending:       "Pendiente",
	StatusEnPreparacion: "En Preparación",
	StatusListo:         "Listo",
	StatusEntregado:     "Entregado",
	StatusCancelado:     "Cancelado",
}

type Order struct {
	ID           string      `json:"id"`
	Table        *Table      `json:"table,omitempty"`
	CustomerName string      `json:"customerName,omitempty"`
	Status       OrderStatus `json:"status"`
	Items        []OrderItem `json:"items"`
	TotalAmount  float64     `json:"totalAmount"`
	Notes        string      `json:"notes,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	ReadyAt      *time.Time  `json:"readyAt,omitempty"`
	DeliveredAt  *time.Time  `json:"deliveredAt,omitempty"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

type OrderItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName,omitempty"`
	Quantity    int     `json:"quantity"`
	Notes       string  `json:"notes,omitempty"`
	UnitPrice   float64 `json:"unitPrice"`
}

// CreateOrderRequest is the payload the order-creation endpoint expects.
type CreateOrderRequest struct {
	TableID      string            `json:"tableId"`
	CustomerName string            `json:"customerName,omitempty"`
	Items        []CreateOrderItem `json:"items"`
	TotalAmount  float64           `json:"totalAmount"`
	Notes        string            `json:"notes,omitempty"`
}

type CreateOrderItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Notes     string  `json:"notes"`
	UnitPrice float64 `json:"unitPrice"`
}

func IsValidStatus(status OrderStatus) bool {
	switch status {
	case StatusPending, StatusEnPreparacion, StatusListo, StatusEntregado, StatusCancelado:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusEntregado || s == StatusCancelado
}

// IsActive reports whether the order still concerns the kitchen board.
func (s OrderStatus) IsActive() bool {
	switch s {
	case StatusPending, StatusEnPreparacion, StatusListo:
		return true
	default:
		return false
	}
}

// Next returns the happy-path successor, or "" for terminal states.
func (s OrderStatus) Next() OrderStatus {
	switch s {
	case StatusPending:
		return StatusEnPreparacion
	case StatusEnPreparacion:
		return StatusListo
	case StatusListo:
		return StatusEntregado
	default:
		return ""
	}
}

// CanTransition enforces the strict progression
// PENDING -> EN_PREPARACION -> LISTO -> ENTREGADO, with CANCELADO reachable
// from any non-terminal state.
func CanTransition(from, to OrderStatus) bool {
	if !IsValidStatus(from) || !IsValidStatus(to) {
		return false
	}
	if from.IsTerminal() {
		return false
	}
	if to == StatusCancelado {
		return true
	}
	return from.Next() == to
}

// Label returns the human-facing name for a status.
func (s OrderStatus) Label() string {
	if label, ok := StatusLabels[s]; ok {
		return label
	}
	return string(s)
}
