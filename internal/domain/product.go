package domain

import "time"

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Product struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Price           float64   `json:"price"`
	CategoryID      string    `json:"categoryId"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	PreparationTime int       `json:"preparationTime,omitempty"`
	Available       bool      `json:"available"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Menu is the composite the menu endpoints return: the category list plus the
// products grouped per category and as a flat list.
type Menu struct {
	Categories         []Category           `json:"categories"`
	ProductsByCategory map[string][]Product `json:"productsByCategory"`
	Products           []Product            `json:"products"`
	Table              *Table               `json:"table,omitempty"`
}

// ProductPage is the paginated shape of the product listing endpoint.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

type ProductRequest struct {
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	Price           float64 `json:"price"`
	CategoryID      string  `json:"categoryId"`
	ImageURL        string  `json:"imageUrl,omitempty"`
	PreparationTime int     `json:"preparationTime,omitempty"`
	Available       bool    `json:"available"`
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Active      bool   `json:"active"`
}
