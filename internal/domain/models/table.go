package models

// Table names one of the three ledgers exposed to the back-office.
type Table string

const (
	TableSales   Table = "sales"
	TableIntake  Table = "intake"
	TableGrading Table = "grading"
)

// ParseTable validates a table name coming from a URL.
func ParseTable(value string) (Table, error) {
	switch t := Table(value); t {
	case TableSales, TableIntake, TableGrading:
		return t, nil
	default:
		return "", InvalidInput("unknown table %q", value)
	}
}
