package models

import "time"

// LineItem is one priced line of a sales note.
type LineItem struct {
	QuantityKg float64 `bson:"quantity_kg" json:"quantity_kg"`
	Label      string  `bson:"label" json:"label"`
	UnitPrice  float64 `bson:"unit_price" json:"unit_price"`
	Amount     float64 `bson:"amount" json:"amount"`
}

// SalesRecord is one numbered sales note.
type SalesRecord struct {
	ID             int64      `bson:"id" json:"id"`
	NoteNumber     int64      `bson:"note_number" json:"note_number"`
	Date           string     `bson:"date" json:"date"`
	TransactionKey *string    `bson:"transaction_key,omitempty" json:"transaction_key"`
	ClientName     string     `bson:"client_name" json:"client_name"`
	Address        *string    `bson:"address,omitempty" json:"address,omitempty"`
	City           *string    `bson:"city,omitempty" json:"city,omitempty"`
	Plates         *string    `bson:"plates,omitempty" json:"plates,omitempty"`
	Lines          []LineItem `bson:"line_items" json:"line_items"`
	Total          float64    `bson:"total" json:"total"`
	CreatedAt      time.Time  `bson:"created_at" json:"created_at"`
}

// SaleLine is a line item as typed on the sales form.
type SaleLine struct {
	QuantityKg float64 `json:"quantity_kg"`
	Label      string  `json:"label"`
	UnitPrice  float64 `json:"unit_price"`
}

// SaleRequest is the payload of the sales form.
type SaleRequest struct {
	TransactionKey string     `json:"transaction_key"`
	Date           string     `json:"date"`
	ClientName     string     `json:"client_name"`
	Address        string     `json:"address"`
	City           string     `json:"city"`
	Plates         string     `json:"plates"`
	Lines          []SaleLine `json:"lines"`
}

// PendingSale is a graded group still open for sale, with its lines pre-filled.
type PendingSale struct {
	GradingGroup
	Lines []SaleLine `json:"lines"`
}

// SalesListing pairs a stored note with the total recomputed from its lines.
type SalesListing struct {
	SalesRecord
	ComputedTotal float64 `json:"computed_total"`
}
