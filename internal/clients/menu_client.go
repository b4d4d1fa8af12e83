package clients

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/angie756/cafe-limon/internal/api"
	"github.com/angie756/cafe-limon/internal/domain"
)

// ProductFilter narrows the product listing.
type ProductFilter struct {
	CategoryID    string
	AvailableOnly *bool
	Page          int
	PageSize      int
}

type MenuClient interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	CategoryByID(ctx context.Context, categoryID string) (*domain.Category, error)
	Menu(ctx context.Context, availableOnly bool) (*domain.Menu, error)
	MenuByTable(ctx context.Context, tableID string) (*domain.Menu, error)
	Products(ctx context.Context, filter ProductFilter) (*domain.ProductPage, error)
	ProductByID(ctx context.Context, productID string) (*domain.Product, error)
	SearchProducts(ctx context.Context, query string) ([]domain.Product, error)
	CreateProduct(ctx context.Context, req domain.ProductRequest) (*domain.Product, error)
	UpdateProduct(ctx context.Context, productID string, req domain.ProductRequest) (*domain.Product, error)
	UpdateAvailability(ctx context.Context, productID string, available bool) (*domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	UploadProductImage(ctx context.Context, filename string, content io.Reader) (string, error)
	CreateCategory(ctx context.Context, req domain.CategoryRequest) (*domain.Category, error)
	UpdateCategory(ctx context.Context, categoryID string, req domain.CategoryRequest) (*domain.Category, error)
	DeleteCategory(ctx context.Context, categoryID string) error
}

type menuClient struct {
	api *api.Client
	log *logrus.Logger
}

func NewMenuClient(apiClient *api.Client, logger *logrus.Logger) MenuClient {
	return &menuClient{api: apiClient, log: logger}
}

func (c *menuClient) Categories(ctx context.Context) ([]domain.Category, error) {
	c.log.Debugf("MenuClient: Fetching categories")
	var categories []domain.Category
	if err := c.api.Get(ctx, "/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *menuClient) CategoryByID(ctx context.Context, categoryID string) (*domain.Category, error) {
	c.log.Debugf("MenuClient: Fetching category %s", categoryID)
	var category domain.Category
	if err := c.api.Get(ctx, "/categories/"+url.PathEscape(categoryID), &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (c *menuClient) Menu(ctx context.Context, availableOnly bool) (*domain.Menu, error) {
	c.log.Debugf("MenuClient: Fetching menu (availableOnly=%t)", availableOnly)
	var menu domain.Menu
	path := "/menu" + api.Query("availableOnly", strconv.FormatBool(availableOnly))
	if err := c.api.Get(ctx, path, &menu); err != nil {
		return nil, err
	}
	return &menu, nil
}

func (c *menuClient) MenuByTable(ctx context.Context, tableID string) (*domain.Menu, error) {
	c.log.Debugf("MenuClient: Fetching menu for table %s", tableID)
	var menu domain.Menu
	if err := c.api.Get(ctx, "/menu/table/"+url.PathEscape(tableID), &menu); err != nil {
		return nil, err
	}
	return &menu, nil
}

func (c *menuClient) Products(ctx context.Context, filter ProductFilter) (*domain.ProductPage, error) {
	c.log.Debugf("MenuClient: Fetching products (category=%s, page=%d)", filter.CategoryID, filter.Page)
	pairs := []string{"categoryId", filter.CategoryID}
	if filter.AvailableOnly != nil {
		pairs = append(pairs, "availableOnly", strconv.FormatBool(*filter.AvailableOnly))
	}
	if filter.Page > 0 {
		pairs = append(pairs, "page", strconv.Itoa(filter.Page))
	}
	if filter.PageSize > 0 {
		pairs = append(pairs, "pageSize", strconv.Itoa(filter.PageSize))
	}

	var page domain.ProductPage
	if err := c.api.Get(ctx, "/products"+api.Query(pairs...), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *menuClient) ProductByID(ctx context.Context, productID string) (*domain.Product, error) {
	c.log.Debugf("MenuClient: Fetching product %s", productID)
	var product domain.Product
	if err := c.api.Get(ctx, "/products/"+url.PathEscape(productID), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *menuClient) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	c.log.Debugf("MenuClient: Searching products for %q", query)
	var products []domain.Product
	if err := c.api.Get(ctx, "/products/search"+api.Query("q", query), &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *menuClient) CreateProduct(ctx context.Context, req domain.ProductRequest) (*domain.Product, error) {
	c.log.Infof("MenuClient: Creating product %q", req.Name)
	var product domain.Product
	if err := c.api.Post(ctx, "/products", req, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *menuClient) UpdateProduct(ctx context.Context, productID string, req domain.ProductRequest) (*domain.Product, error) {
	c.log.Infof("MenuClient: Updating product %s", productID)
	var product domain.Product
	if err := c.api.Put(ctx, "/products/"+url.PathEscape(productID), req, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *menuClient) UpdateAvailability(ctx context.Context, productID string, available bool) (*domain.Product, error) {
	c.log.Infof("MenuClient: Setting product %s availability to %t", productID, available)
	var product domain.Product
	body := map[string]bool{"available": available}
	if err := c.api.Patch(ctx, "/products/"+url.PathEscape(productID)+"/availability", body, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *menuClient) DeleteProduct(ctx context.Context, productID string) error {
	c.log.Infof("MenuClient: Deleting product %s", productID)
	return c.api.Delete(ctx, "/products/"+url.PathEscape(productID))
}

func (c *menuClient) UploadProductImage(ctx context.Context, filename string, content io.Reader) (string, error) {
	c.log.Infof("MenuClient: Uploading product image %s", filename)
	var result struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := c.api.Upload(ctx, "/products/upload-image", "image", filename, content, &result); err != nil {
		return "", err
	}
	if result.ImageURL == "" {
		return "", fmt.Errorf("upload succeeded but no image URL was returned")
	}
	return result.ImageURL, nil
}

func (c *menuClient) CreateCategory(ctx context.Context, req domain.CategoryRequest) (*domain.Category, error) {
	c.log.Infof("MenuClient: Creating category %q", req.Name)
	var category domain.Category
	if err := c.api.Post(ctx, "/categories", req, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (c *menuClient) UpdateCategory(ctx context.Context, categoryID string, req domain.CategoryRequest) (*domain.Category, error) {
	c.log.Infof("MenuClient: Updating category %s", categoryID)
	var category domain.Category
	if err := c.api.Put(ctx, "/categories/"+url.PathEscape(categoryID), req, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (c *menuClient) DeleteCategory(ctx context.Context, categoryID string) error {
	c.log.Infof("MenuClient: Deleting category %s", categoryID)
	return c.api.Delete(ctx, "/categories/"+url.PathEscape(categoryID))
}
