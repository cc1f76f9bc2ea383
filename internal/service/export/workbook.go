package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/packhouse/internal/domain/models"
)

// Sheet names of the exported workbook.
const (
	SheetSales       = "Sales"
	SheetSalesDetail = "Sales_Detail"
	SheetIntake      = "Intake"
	SheetGrading     = "Grading"
)

const exportTimeLayout = "2006-01-02 15:04:05"

type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func (w *sheetWriter) append(values ...any) {
	if w.err != nil {
		return
	}
	w.row++
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(w.sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("write %s row %d: %w", w.sheet, w.row, err)
	}
}

// Workbook flattens the three ledgers into one spreadsheet. Line items of
// each sale go to their own sheet keyed by sale id and note number.
func Workbook(sales []models.SalesRecord, intake []models.IntakeRow, grading []models.GradingRow) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSales); err != nil {
		return nil, fmt.Errorf("rename default sheet: %w", err)
	}
	for _, name := range []string{SheetSalesDetail, SheetIntake, SheetGrading} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	writers := []*sheetWriter{
		{f: f, sheet: SheetSales},
		{f: f, sheet: SheetSalesDetail},
		{f: f, sheet: SheetIntake},
		{f: f, sheet: SheetGrading},
	}
	salesW, detailW, intakeW, gradingW := writers[0], writers[1], writers[2], writers[3]

	salesW.append("id", "note_number", "date", "transaction_key", "client_name", "address", "city", "plates", "total")
	detailW.append("sale_id", "note_number", "quantity_kg", "label", "unit_price", "amount")
	for _, s := range sales {
		salesW.append(s.ID, s.NoteNumber, s.Date, deref(s.TransactionKey), s.ClientName,
			deref(s.Address), deref(s.City), deref(s.Plates), s.Total)
		for _, l := range s.Lines {
			detailW.append(s.ID, s.NoteNumber, l.QuantityKg, l.Label, l.UnitPrice, l.Amount)
		}
	}

	intakeW.append("id", "transaction_key", "client_name", "product_type", "quantity_kg", "phone", "timestamp")
	for _, r := range intake {
		intakeW.append(r.ID, deref(r.TransactionKey), r.ClientName, string(r.ProductType),
			r.QuantityKg, deref(r.Phone), r.Timestamp.Format(exportTimeLayout))
	}

	gradingW.append("id", "transaction_key", "client_name", "date", "size_category", "boxes", "quantity_kg", "finalized")
	for _, r := range grading {
		gradingW.append(r.ID, deref(r.TransactionKey), r.ClientName, r.Date, string(r.SizeCategory),
			r.Boxes, r.QuantityKg, r.Finalized)
	}

	for _, w := range writers {
		if w.err != nil {
			return nil, w.err
		}
	}

	_ = f.SetColWidth(SheetSales, "E", "H", 22)
	_ = f.SetColWidth(SheetSalesDetail, "D", "D", 14)
	_ = f.SetColWidth(SheetIntake, "B", "D", 22)
	_ = f.SetColWidth(SheetIntake, "G", "G", 20)
	_ = f.SetColWidth(SheetGrading, "B", "C", 22)

	f.SetActiveSheet(0)
	return f, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
