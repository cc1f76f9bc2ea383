package sheets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/packhouse/internal/config"
	"github.com/mamadbah2/packhouse/internal/domain/models"
)

const (
	summaryRange = "Resumen!A:G"
	dateRange    = "Resumen!A:A"
)

// SummaryMirror copies daily summaries into a spreadsheet the manager reads.
type SummaryMirror interface {
	AppendDailyReport(ctx context.Context, report models.DailyReport) error
}

// valuesAPI is the part of the Sheets API the mirror calls.
type valuesAPI interface {
	append(ctx context.Context, sheetRange string, row []interface{}) error
	get(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetRepository mirrors daily reports into the "Resumen" sheet.
type GoogleSheetRepository struct {
	values valuesAPI
	logger *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed mirror.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		values: &sheetValues{service: service, spreadsheetID: cfg.SpreadsheetID},
		logger: logger,
	}, nil
}

// AppendDailyReport appends one row per date; a date already present is left alone.
func (r *GoogleSheetRepository) AppendDailyReport(ctx context.Context, report models.DailyReport) error {
	rows, err := r.values.get(ctx, dateRange)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == report.Date {
			r.logger.Debug("summary row already present", zap.String("date", report.Date))
			return nil
		}
	}

	if len(rows) == 0 {
		header := []interface{}{"Fecha", "Recepción kg", "Entregas", "Clasificado kg", "Cajas", "Ventas", "Importe"}
		if err := r.values.append(ctx, summaryRange, header); err != nil {
			return err
		}
	}

	row := []interface{}{
		report.Date,
		report.IntakeKg,
		report.IntakeTransactions,
		report.GradedKg,
		report.GradedBoxes,
		report.SalesCount,
		report.SalesAmount,
	}
	if err := r.values.append(ctx, summaryRange, row); err != nil {
		return err
	}

	r.logger.Debug("summary row appended", zap.String("date", report.Date))
	return nil
}

type sheetValues struct {
	service       *sheetsapi.Service
	spreadsheetID string
}

func (v *sheetValues) append(ctx context.Context, sheetRange string, row []interface{}) error {
	payload := &sheetsapi.ValueRange{Values: [][]interface{}{row}}

	call := v.service.Spreadsheets.Values.Append(v.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}
	return nil
}

func (v *sheetValues) get(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	resp, err := v.service.Spreadsheets.Values.Get(v.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}
	return resp.Values, nil
}
