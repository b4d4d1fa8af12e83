package domain

type Stats struct {
	TotalOrders            int64        `json:"totalOrders"`
	PendingOrders          int64        `json:"pendingOrders"`
	PreparingOrders        int64        `json:"preparingOrders"`
	ReadyOrders            int64        `json:"readyOrders"`
	TotalRevenue           float64      `json:"totalRevenue"`
	AveragePreparationTime float64      `json:"averagePreparationTime"`
	TopProducts            []TopProduct `json:"topProducts"`
}

type TopProduct struct {
	ProductID     string `json:"productId"`
	ProductName   string `json:"productName"`
	TotalQuantity int64  `json:"totalQuantity"`
}

// PreparationTime is the per-category preparation time report.
type PreparationTime struct {
	AverageMinutes float64            `json:"averageTime"`
	ByCategory     map[string]float64 `json:"byCategory"`
}

// OrderPage is the paginated shape of the admin order listing.
type OrderPage struct {
	Orders   []Order `json:"orders"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}
