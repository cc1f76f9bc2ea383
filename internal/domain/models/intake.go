package models

import "time"

// IntakeRow is one delivered quantity of one product type within an intake transaction.
type IntakeRow struct {
	ID             int64       `bson:"id" json:"id"`
	TransactionKey *string     `bson:"transaction_key,omitempty" json:"transaction_key"`
	ClientName     string      `bson:"client_name" json:"client_name"`
	ProductType    ProductType `bson:"product_type" json:"product_type"`
	QuantityKg     float64     `bson:"quantity_kg" json:"quantity_kg"`
	Phone          *string     `bson:"phone,omitempty" json:"phone,omitempty"`
	Timestamp      time.Time   `bson:"timestamp" json:"timestamp"`
}

// IntakeGroup aggregates every IntakeRow sharing a transaction key. It is never persisted.
type IntakeGroup struct {
	Key            string      `json:"key"`
	TransactionKey *string     `json:"transaction_key"`
	ClientName     string      `json:"client_name"`
	Phone          *string     `json:"phone,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
	TotalKg        float64     `json:"total_kg"`
	Rows           []IntakeRow `json:"rows"`
}

// IntakeLine is one product line of an intake form.
type IntakeLine struct {
	ProductType string  `json:"product_type"`
	QuantityKg  float64 `json:"quantity_kg"`
}

// IntakeSubmission is the payload of the intake form.
type IntakeSubmission struct {
	ClientName string       `json:"client_name"`
	NewClient  bool         `json:"new_client"`
	Phone      string       `json:"phone"`
	Lines      []IntakeLine `json:"lines"`
}

// IntakeReceipt summarizes a stored intake transaction.
type IntakeReceipt struct {
	TransactionKey string    `json:"transaction_key"`
	ClientName     string    `json:"client_name"`
	Timestamp      time.Time `json:"timestamp"`
	Rows           int       `json:"rows"`
	TotalKg        float64   `json:"total_kg"`
}

// TransactionSummary is an intake group as offered to the grading screen.
type TransactionSummary struct {
	IntakeGroup
	Graded bool `json:"graded"`
}
