package clients

import (
	"context"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/angie756/cafe-limon/internal/api"
	"github.com/angie756/cafe-limon/internal/domain"
)

type TableClient interface {
	Tables(ctx context.Context, activeOnly bool) ([]domain.Table, error)
	ByID(ctx context.Context, tableID string) (*domain.Table, error)
	ByNumber(ctx context.Context, number string) (*domain.Table, error)
	Verify(ctx context.Context, tableID string) (*domain.TableVerification, error)
	Create(ctx context.Context, req domain.TableRequest) (*domain.Table, error)
	Update(ctx context.Context, tableID string, req domain.TableRequest) (*domain.Table, error)
	UpdateStatus(ctx context.Context, tableID string, active bool) (*domain.Table, error)
	Delete(ctx context.Context, tableID string) error
	GenerateQR(ctx context.Context, tableID string) (string, error)
	DownloadQR(ctx context.Context, tableID, format string) ([]byte, error)
	Stats(ctx context.Context, tableID string, statsRange StatsRange) (map[string]any, error)
	Status(ctx context.Context, tableID string) (*domain.TableStatus, error)
}

type tableClient struct {
	api *api.Client
	log *logrus.Logger
}

func NewTableClient(apiClient *api.Client, logger *logrus.Logger) TableClient {
	return &tableClient{api: apiClient, log: logger}
}

func (c *tableClient) Tables(ctx context.Context, activeOnly bool) ([]domain.Table, error) {
	c.log.Debugf("TableClient: Fetching tables (activeOnly=%t)", activeOnly)
	path := "/tables"
	if activeOnly {
		path += "?activeOnly=true"
	}
	var tables []domain.Table
	if err := c.api.Get(ctx, path, &tables); err != nil {
		return nil, err
	}
	return tables, nil
}

func (c *tableClient) ByID(ctx context.Context, tableID string) (*domain.Table, error) {
	c.log.Debugf("TableClient: Fetching table %s", tableID)
	var table domain.Table
	if err := c.api.Get(ctx, "/tables/"+url.PathEscape(tableID), &table); err != nil {
		return nil, err
	}
	return &table, nil
}

func (c *tableClient) ByNumber(ctx context.Context, number string) (*domain.Table, error) {
	c.log.Debugf("TableClient: Resolving table number %s", number)
	var table domain.Table
	if err := c.api.Get(ctx, "/tables/number/"+url.PathEscape(number), &table); err != nil {
		return nil, err
	}
	return &table, nil
}

func (c *tableClient) Verify(ctx context.Context, tableID string) (*domain.TableVerification, error) {
	c.log.Debugf("TableClient: Verifying table %s", tableID)
	var verification domain.TableVerification
	if err := c.api.Get(ctx, "/tables/"+url.PathEscape(tableID)+"/verify", &verification); err != nil {
		return nil, err
	}
	return &verification, nil
}

func (c *tableClient) Create(ctx context.Context, req domain.TableRequest) (*domain.Table, error) {
	c.log.Infof("TableClient: Creating table %s", req.Number)
	var table domain.Table
	if err := c.api.Post(ctx, "/tables", req, &table); err != nil {
		return nil, err
	}
	return &table, nil
}

func (c *tableClient) Update(ctx context.Context, tableID string, req domain.TableRequest) (*domain.Table, error) {
	c.log.Infof("TableClient: Updating table %s", tableID)
	var table domain.Table
	if err := c.api.Put(ctx, "/tables/"+url.PathEscape(tableID), req, &table); err != nil {
		return nil, err
	}
	return &table, nil
}

func (c *tableClient) UpdateStatus(ctx context.Context, tableID string, active bool) (*domain.Table, error) {
	c.log.Infof("TableClient: Setting table %s active=%t", tableID, active)
	var table domain.Table
	body := map[string]bool{"active": active}
	if err := c.api.Patch(ctx, "/tables/"+url.PathEscape(tableID)+"/status", body, &table); err != nil {
		return nil, err
	}
	return &table, nil
}

func (c *tableClient) Delete(ctx context.Context, tableID string) error {
	c.log.Infof("TableClient: Deleting table %s", tableID)
	return c.api.Delete(ctx, "/tables/"+url.PathEscape(tableID))
}

func (c *tableClient) GenerateQR(ctx context.Context, tableID string) (string, error) {
	c.log.Infof("TableClient: Generating QR for table %s", tableID)
	var result struct {
		QRCode string `json:"qrCode"`
	}
	if err := c.api.Post(ctx, "/tables/"+url.PathEscape(tableID)+"/generate-qr", nil, &result); err != nil {
		return "", err
	}
	return result.QRCode, nil
}

func (c *tableClient) DownloadQR(ctx context.Context, tableID, format string) ([]byte, error) {
	if format == "" {
		format = "png"
	}
	c.log.Debugf("TableClient: Downloading QR for table %s (%s)", tableID, format)
	return c.api.Download(ctx, "/tables/"+url.PathEscape(tableID)+"/qr/download"+api.Query("format", format))
}

func (c *tableClient) Stats(ctx context.Context, tableID string, statsRange StatsRange) (map[string]any, error) {
	pairs := []string{}
	if !statsRange.StartDate.IsZero() {
		pairs = append(pairs, "startDate", statsRange.StartDate.Format(time.RFC3339))
	}
	if !statsRange.EndDate.IsZero() {
		pairs = append(pairs, "endDate", statsRange.EndDate.Format(time.RFC3339))
	}

	c.log.Debugf("TableClient: Fetching stats for table %s", tableID)
	var stats map[string]any
	if err := c.api.Get(ctx, "/tables/"+url.PathEscape(tableID)+"/stats"+api.Query(pairs...), &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *tableClient) Status(ctx context.Context, tableID string) (*domain.TableStatus, error) {
	c.log.Debugf("TableClient: Fetching status for table %s", tableID)
	var status domain.TableStatus
	if err := c.api.Get(ctx, "/tables/"+url.PathEscape(tableID)+"/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}
