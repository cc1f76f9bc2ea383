package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/domain/grouping"
	"github.com/mamadbah2/packhouse/internal/domain/models"
	"github.com/mamadbah2/packhouse/internal/repository/mongodb"
	"github.com/mamadbah2/packhouse/internal/repository/sheets"
	"github.com/mamadbah2/packhouse/internal/service/export"
)

// Store is the part of the record store the summaries read and write.
type Store interface {
	ListIntakeRows(ctx context.Context, q mongodb.Query) ([]models.IntakeRow, error)
	ListGradingRows(ctx context.Context, q mongodb.Query) ([]models.GradingRow, error)
	ListSales(ctx context.Context, q mongodb.Query) ([]models.SalesRecord, error)
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
}

// Service builds activity summaries for the manager.
type Service struct {
	store  Store
	mirror sheets.SummaryMirror
	loc    *time.Location
	logger *zap.Logger
}

// NewService wires a new reporting service instance. mirror may be nil.
func NewService(store Store, mirror sheets.SummaryMirror, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, mirror: mirror, loc: loc, logger: logger}
}

// Summarize aggregates the activity of a period.
func (s *Service) Summarize(ctx context.Context, period models.Period) (models.DailyReport, error) {
	q := mongodb.Query{Period: &period}

	intake, err := s.store.ListIntakeRows(ctx, q)
	if err != nil {
		return models.DailyReport{}, fmt.Errorf("load intake: %w", err)
	}
	grading, err := s.store.ListGradingRows(ctx, q)
	if err != nil {
		return models.DailyReport{}, fmt.Errorf("load grading: %w", err)
	}
	sales, err := s.store.ListSales(ctx, q)
	if err != nil {
		return models.DailyReport{}, fmt.Errorf("load sales: %w", err)
	}

	report := models.DailyReport{
		Date:               period.FromDate(),
		IntakeTransactions: len(grouping.GroupIntake(intake)),
		SalesCount:         len(sales),
	}
	for _, r := range intake {
		report.IntakeKg += r.QuantityKg
	}
	for _, r := range grading {
		report.GradedKg += r.QuantityKg
		report.GradedBoxes += r.Boxes
	}

	amount := decimal.Zero
	for _, r := range sales {
		amount = amount.Add(decimal.NewFromFloat(r.Total))
	}
	report.SalesAmount = amount.Round(2).InexactFloat64()

	return report, nil
}

// GenerateDailyReport summarizes the calendar day of t, stores the summary
// and mirrors it to the spreadsheet when one is configured.
func (s *Service) GenerateDailyReport(ctx context.Context, t time.Time) (models.DailyReport, error) {
	report, err := s.Summarize(ctx, models.DayPeriod(t.In(s.loc)))
	if err != nil {
		return models.DailyReport{}, err
	}
	report.CreatedAt = time.Now().UTC()

	if err := s.store.SaveDailyReport(ctx, report); err != nil {
		return models.DailyReport{}, fmt.Errorf("save daily report: %w", err)
	}

	if s.mirror != nil {
		if err := s.mirror.AppendDailyReport(ctx, report); err != nil {
			s.logger.Warn("failed to mirror daily report", zap.String("date", report.Date), zap.Error(err))
		}
	}

	s.logger.Info("daily report generated",
		zap.String("date", report.Date),
		zap.Float64("intake_kg", report.IntakeKg),
		zap.Int("sales", report.SalesCount))
	return report, nil
}

// GenerateWeeklyReport returns a text summary from Monday of the week of
// now up to the end of that day.
func (s *Service) GenerateWeeklyReport(ctx context.Context, now time.Time) (string, error) {
	now = now.In(s.loc)
	offset := (int(now.Weekday()) + 6) % 7
	start := models.DayPeriod(now.AddDate(0, 0, -offset)).From
	end := models.DayPeriod(now).To

	report, err := s.Summarize(ctx, models.Period{From: start, To: end})
	if err != nil {
		return "", err
	}

	last := end.AddDate(0, 0, -1)
	var b strings.Builder
	fmt.Fprintf(&b, "Resumen semanal (%s a %s)\n", start.Format(models.DateLayout), last.Format(models.DateLayout))
	fmt.Fprintf(&b, "Recepción: %s kg en %d entregas\n", decimal.NewFromFloat(report.IntakeKg).StringFixed(2), report.IntakeTransactions)
	fmt.Fprintf(&b, "Clasificación: %s kg en %d cajas\n", decimal.NewFromFloat(report.GradedKg).StringFixed(2), report.GradedBoxes)
	fmt.Fprintf(&b, "Ventas: %d notas por %s", report.SalesCount, export.FormatMoney(report.SalesAmount))
	return b.String(), nil
}
