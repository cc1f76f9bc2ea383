package models

import "time"

// DailyReport represents the aggregated daily activity stored in MongoDB.
type DailyReport struct {
	Date               string    `bson:"date" json:"date"`
	IntakeKg           float64   `bson:"intake_kg" json:"intake_kg"`
	IntakeTransactions int       `bson:"intake_transactions" json:"intake_transactions"`
	GradedKg           float64   `bson:"graded_kg" json:"graded_kg"`
	GradedBoxes        int       `bson:"graded_boxes" json:"graded_boxes"`
	SalesCount         int       `bson:"sales_count" json:"sales_count"`
	SalesAmount        float64   `bson:"sales_amount" json:"sales_amount"`
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
}

// OutboundMessageRequest represents a message pushed to the manager over WhatsApp.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}
