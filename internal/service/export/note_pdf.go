package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/packhouse/internal/domain/models"
	"github.com/mamadbah2/packhouse/internal/service/sales"
)

// Letterhead is the fixed company block printed on every sales note.
type Letterhead struct {
	Name     string
	Registry string
	Address  string
}

const (
	pageMargin   = 15.0
	footerHeight = 15.0
	rowHeight    = 7.0
)

var noteColumns = []struct {
	title string
	width float64
	align string
}{
	{"Cantidad (kg)", 35, "R"},
	{"Descripción", 65, "L"},
	{"Precio unitario", 40, "R"},
	{"Importe", 45, "R"},
}

// SalesNotePDF renders one sales note. The printed total is recomputed from
// the line amounts, not read from the stored total.
func SalesNotePDF(record models.SalesRecord, head Letterhead) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, footerHeight)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-footerHeight)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Página %d de {nb}", pdf.PageNo())), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	drawLetterhead(pdf, tr, record, head)
	drawClient(pdf, tr, record)

	_, pageHeight := pdf.GetPageSize()
	bottom := pageHeight - footerHeight - rowHeight

	drawTableHeader(pdf, tr)
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range record.Lines {
		if pdf.GetY() > bottom {
			pdf.AddPage()
			drawTableHeader(pdf, tr)
			pdf.SetFont("Helvetica", "", 10)
		}
		cells := []string{
			decimal.NewFromFloat(line.QuantityKg).StringFixed(2),
			line.Label,
			FormatMoney(line.UnitPrice),
			FormatMoney(line.Amount),
		}
		for i, col := range noteColumns {
			pdf.CellFormat(col.width, rowHeight, tr(cells[i]), "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if pdf.GetY() > bottom {
		pdf.AddPage()
	}
	labelWidth := noteColumns[0].width + noteColumns[1].width + noteColumns[2].width
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(labelWidth, rowHeight+1, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(noteColumns[3].width, rowHeight+1, tr(FormatMoney(sales.Recompute(record))), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render sales note %d: %w", record.NoteNumber, err)
	}
	return buf.Bytes(), nil
}

func drawLetterhead(pdf *fpdf.Fpdf, tr func(string) string, record models.SalesRecord, head Letterhead) {
	top := pdf.GetY()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(120, 8, tr(head.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if head.Registry != "" {
		pdf.CellFormat(120, 5, tr(head.Registry), "", 1, "L", false, 0, "")
	}
	if head.Address != "" {
		pdf.MultiCell(120, 5, tr(head.Address), "", "L", false)
	}
	after := pdf.GetY()

	boxX, boxW := 145.0, 55.0
	pdf.Rect(boxX, top, boxW, 24, "D")
	pdf.SetXY(boxX, top+2)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(boxW, 6, "Nota de Venta", "", 2, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(boxW, 6, fmt.Sprintf("Folio: %04d", record.NoteNumber), "", 2, "C", false, 0, "")
	pdf.CellFormat(boxW, 6, "Fecha: "+displayDate(record.Date), "", 2, "C", false, 0, "")

	y := after
	if top+28 > y {
		y = top + 28
	}
	pdf.SetXY(pageMargin, y)
}

func drawClient(pdf *fpdf.Fpdf, tr func(string) string, record models.SalesRecord) {
	fields := []struct{ label, value string }{
		{"Cliente", record.ClientName},
		{"Domicilio", deref(record.Address)},
		{"Ciudad", deref(record.City)},
		{"Placas", deref(record.Plates)},
	}
	for _, f := range fields {
		value := strings.TrimSpace(f.value)
		if value == "" {
			value = "-"
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(25, 6, f.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func drawTableHeader(pdf *fpdf.Fpdf, tr func(string) string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range noteColumns {
		pdf.CellFormat(col.width, rowHeight, tr(col.title), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

// displayDate turns a stored YYYY-MM-DD date into dd/mm/yyyy without any
// time zone conversion.
func displayDate(date string) string {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("02/01/2006")
}

// FormatMoney formats an amount as Mexican pesos, e.g. $12,345.60.
func FormatMoney(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	fixed := d.StringFixed(2)
	intPart, frac := fixed[:len(fixed)-3], fixed[len(fixed)-3:]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + frac
}
