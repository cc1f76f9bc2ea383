package models

// GradingRow is one graded quantity of one size category, tied to one intake transaction.
type GradingRow struct {
	ID             int64        `bson:"id" json:"id"`
	TransactionKey *string      `bson:"transaction_key,omitempty" json:"transaction_key"`
	ClientName     string       `bson:"client_name" json:"client_name"`
	Date           string       `bson:"date" json:"date"`
	SizeCategory   SizeCategory `bson:"size_category" json:"size_category"`
	Boxes          int          `bson:"boxes" json:"boxes"`
	QuantityKg     float64      `bson:"quantity_kg" json:"quantity_kg"`
	Finalized      bool         `bson:"finalized" json:"finalized"`
}

// GradingGroup aggregates the GradingRows of one intake transaction.
type GradingGroup struct {
	Key            string       `json:"key"`
	TransactionKey *string      `json:"transaction_key"`
	ClientName     string       `json:"client_name"`
	Date           string       `json:"date"`
	TotalBoxes     int          `json:"total_boxes"`
	TotalKg        float64      `json:"total_kg"`
	Rows           []GradingRow `json:"rows"`
}

// GradingLine is one size-category line of the grading form.
type GradingLine struct {
	SizeCategory string  `json:"size_category"`
	Boxes        int     `json:"boxes"`
	QuantityKg   float64 `json:"quantity_kg"`
}

// Empty reports whether the line carries neither boxes nor mass.
func (l GradingLine) Empty() bool {
	return l.Boxes <= 0 && l.QuantityKg <= 0
}

// GradingSubmission is the payload of the grading form.
type GradingSubmission struct {
	TransactionKey string        `json:"transaction_key"`
	ClientName     string        `json:"client_name"`
	Date           string        `json:"date"`
	Lines          []GradingLine `json:"lines"`
}
