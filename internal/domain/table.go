package domain

import "time"

type Table struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	Capacity  int       `json:"capacity"`
	QRCode    string    `json:"qrCode,omitempty"`
	Location  string    `json:"location,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type TableRequest struct {
	Number   string `json:"number"`
	Capacity int    `json:"capacity"`
	Location string `json:"location,omitempty"`
}

// TableVerification is what the verify endpoint answers for a scanned QR.
type TableVerification struct {
	Exists bool `json:"exists"`
	Active bool `json:"active"`
}

// TableStatus reports current occupancy for a table.
type TableStatus struct {
	Occupied      bool    `json:"occupied"`
	CurrentOrders []Order `json:"currentOrders"`
}
