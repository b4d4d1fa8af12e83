package clients

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/angie756/cafe-limon/internal/api"
	"github.com/angie756/cafe-limon/internal/domain"
)

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status    domain.OrderStatus
	TableID   string
	StartDate time.Time
	EndDate   time.Time
	Page      int
	PageSize  int
}

// StatsRange bounds a statistics query.
type StatsRange struct {
	StartDate time.Time
	EndDate   time.Time
}

type OrderClient interface {
	Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error)
	ByID(ctx context.Context, orderID string) (*domain.Order, error)
	Active(ctx context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error)
	List(ctx context.Context, filter OrderFilter) (*domain.OrderPage, error)
	ByTable(ctx context.Context, tableID string, activeOnly bool) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)
	Cancel(ctx context.Context, orderID, reason string) (*domain.Order, error)
	Stats(ctx context.Context, statsRange StatsRange) (*domain.Stats, error)
	PreparationTime(ctx context.Context) (*domain.PreparationTime, error)
	TopProducts(ctx context.Context, limit int) ([]domain.TopProduct, error)
}

type orderClient struct {
	api *api.Client
	log *logrus.Logger
}

func NewOrderClient(apiClient *api.Client, logger *logrus.Logger) OrderClient {
	return &orderClient{api: apiClient, log: logger}
}

func (c *orderClient) Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	c.log.Infof("OrderClient: Creating order for table %s (%d items)", req.TableID, len(req.Items))
	var order domain.Order
	if err := c.api.Post(ctx, "/orders", req, &order); err != nil {
		c.log.Warnf("OrderClient: Order creation failed for table %s: %v", req.TableID, err)
		return nil, err
	}
	c.log.Infof("OrderClient: Order %s created", order.ID)
	return &order, nil
}

func (c *orderClient) ByID(ctx context.Context, orderID string) (*domain.Order, error) {
	c.log.Debugf("OrderClient: Fetching order %s", orderID)
	var order domain.Order
	if err := c.api.Get(ctx, "/orders/"+url.PathEscape(orderID), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Active lists kitchen-relevant orders. Without an explicit status filter the
// backend is asked for everything not yet delivered or cancelled.
func (c *orderClient) Active(ctx context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error) {
	if len(statuses) == 0 {
		statuses = []domain.OrderStatus{domain.StatusPending, domain.StatusEnPreparacion, domain.StatusListo}
	}
	values := url.Values{}
	for _, status := range statuses {
		values.Add("status", string(status))
	}

	c.log.Debugf("OrderClient: Fetching active orders (%s)", values.Encode())
	var orders []domain.Order
	if err := c.api.Get(ctx, "/orders/active?"+values.Encode(), &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *orderClient) List(ctx context.Context, filter OrderFilter) (*domain.OrderPage, error) {
	pairs := []string{
		"status", string(filter.Status),
		"tableId", filter.TableID,
	}
	if !filter.StartDate.IsZero() {
		pairs = append(pairs, "startDate", filter.StartDate.Format(time.RFC3339))
	}
	if !filter.EndDate.IsZero() {
		pairs = append(pairs, "endDate", filter.EndDate.Format(time.RFC3339))
	}
	if filter.Page > 0 {
		pairs = append(pairs, "page", strconv.Itoa(filter.Page))
	}
	if filter.PageSize > 0 {
		pairs = append(pairs, "pageSize", strconv.Itoa(filter.PageSize))
	}

	c.log.Debugf("OrderClient: Listing orders (page=%d)", filter.Page)
	var page domain.OrderPage
	if err := c.api.Get(ctx, "/orders"+api.Query(pairs...), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *orderClient) ByTable(ctx context.Context, tableID string, activeOnly bool) ([]domain.Order, error) {
	c.log.Debugf("OrderClient: Fetching orders for table %s (activeOnly=%t)", tableID, activeOnly)
	path := "/tables/" + url.PathEscape(tableID) + "/orders"
	if activeOnly {
		path += "?activeOnly=true"
	}
	var orders []domain.Order
	if err := c.api.Get(ctx, path, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *orderClient) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	c.log.Infof("OrderClient: Updating order %s status to %s", orderID, status)
	var order domain.Order
	body := map[string]domain.OrderStatus{"status": status}
	if err := c.api.Patch(ctx, "/orders/"+url.PathEscape(orderID)+"/status", body, &order); err != nil {
		c.log.Warnf("OrderClient: Status update for order %s failed: %v", orderID, err)
		return nil, err
	}
	return &order, nil
}

func (c *orderClient) Cancel(ctx context.Context, orderID, reason string) (*domain.Order, error) {
	c.log.Infof("OrderClient: Cancelling order %s", orderID)
	var order domain.Order
	body := map[string]string{"reason": reason}
	if err := c.api.Patch(ctx, "/orders/"+url.PathEscape(orderID)+"/cancel", body, &order); err != nil {
		c.log.Warnf("OrderClient: Cancellation of order %s failed: %v", orderID, err)
		return nil, err
	}
	return &order, nil
}

func (c *orderClient) Stats(ctx context.Context, statsRange StatsRange) (*domain.Stats, error) {
	pairs := []string{}
	if !statsRange.StartDate.IsZero() {
		pairs = append(pairs, "startDate", statsRange.StartDate.Format(time.RFC3339))
	}
	if !statsRange.EndDate.IsZero() {
		pairs = append(pairs, "endDate", statsRange.EndDate.Format(time.RFC3339))
	}

	c.log.Debugf("OrderClient: Fetching order stats")
	var stats domain.Stats
	if err := c.api.Get(ctx, "/orders/stats"+api.Query(pairs...), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *orderClient) PreparationTime(ctx context.Context) (*domain.PreparationTime, error) {
	c.log.Debugf("OrderClient: Fetching preparation time stats")
	var prep domain.PreparationTime
	if err := c.api.Get(ctx, "/orders/stats/preparation-time", &prep); err != nil {
		return nil, err
	}
	return &prep, nil
}

func (c *orderClient) TopProducts(ctx context.Context, limit int) ([]domain.TopProduct, error) {
	if limit <= 0 {
		limit = 10
	}
	c.log.Debugf("OrderClient: Fetching top %d products", limit)
	var top []domain.TopProduct
	if err := c.api.Get(ctx, "/orders/stats/top-products"+api.Query("limit", strconv.Itoa(limit)), &top); err != nil {
		return nil, err
	}
	return top, nil
}
