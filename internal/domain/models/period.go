package models

import (
	"fmt"
	"time"
)

// DateLayout is the layout of calendar dates stored on grading and sales rows.
const DateLayout = "2006-01-02"

// Period is a half-open time range [From, To).
type Period struct {
	From time.Time
	To   time.Time
}

// MonthPeriod parses a "YYYY-MM" month into the period covering it.
func MonthPeriod(month string, loc *time.Location) (Period, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation("2006-01", month, loc)
	if err != nil {
		return Period{}, InvalidInput("month %q must look like 2006-01", month)
	}
	return Period{From: start, To: start.AddDate(0, 1, 0)}, nil
}

// DayPeriod returns the period covering the calendar day of t in its location.
func DayPeriod(t time.Time) Period {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return Period{From: start, To: start.AddDate(0, 0, 1)}
}

// FromDate formats the lower bound as a calendar date.
func (p Period) FromDate() string { return p.From.Format(DateLayout) }

// ToDate formats the exclusive upper bound as a calendar date.
func (p Period) ToDate() string { return p.To.Format(DateLayout) }

func (p Period) String() string {
	return fmt.Sprintf("%s..%s", p.FromDate(), p.ToDate())
}
