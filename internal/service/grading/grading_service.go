package grading

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/domain/grouping"
	"github.com/mamadbah2/packhouse/internal/domain/models"
	"github.com/mamadbah2/packhouse/internal/repository/mongodb"
)

// kgTolerance absorbs float rounding when comparing kilogram sums.
const kgTolerance = 1e-6

// Service records grading results after reconciling them with the intake.
type Service struct {
	intake  mongodb.IntakeStore
	grading mongodb.GradingStore
	logger  *zap.Logger
}

// NewService wires a new grading service instance.
func NewService(intake mongodb.IntakeStore, grading mongodb.GradingStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{intake: intake, grading: grading, logger: logger}
}

// Submit reconciles a grading form against its intake transaction and
// stores one row per filled size category.
//
// Two concurrent submissions for the same key can both pass the
// already-graded check; nothing serializes them.
func (s *Service) Submit(ctx context.Context, sub models.GradingSubmission) ([]models.GradingRow, error) {
	key := strings.TrimSpace(sub.TransactionKey)
	client := strings.TrimSpace(sub.ClientName)
	date := strings.TrimSpace(sub.Date)
	if key == "" || client == "" || date == "" {
		return nil, models.ErrMissingSelection
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, models.InvalidInput("date %q must look like %s", date, models.DateLayout)
	}

	graded, err := s.grading.GradingExists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("check existing grading: %w", err)
	}
	if graded {
		return nil, models.ErrAlreadyGraded
	}

	rows := make([]models.GradingRow, 0, len(sub.Lines))
	var attempted float64
	for _, line := range sub.Lines {
		if line.Empty() {
			continue
		}
		category, ok := models.ParseSizeCategory(line.SizeCategory)
		if !ok {
			return nil, models.InvalidInput("unknown size category %q", line.SizeCategory)
		}
		if line.Boxes < 0 || line.QuantityKg < 0 {
			return nil, models.InvalidInput("%s: boxes and kilograms cannot be negative", category)
		}

		k := key
		rows = append(rows, models.GradingRow{
			TransactionKey: &k,
			ClientName:     client,
			Date:           date,
			SizeCategory:   category,
			Boxes:          line.Boxes,
			QuantityKg:     line.QuantityKg,
		})
		attempted += line.QuantityKg
	}
	if len(rows) == 0 {
		return nil, models.ErrEmptySubmission
	}

	intakeRows, err := s.intake.IntakeRowsByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load intake transaction: %w", err)
	}
	limit, ok := grouping.IntakeTotals(intakeRows)[key]
	if !ok {
		return nil, models.ErrMissingSelection
	}
	if attempted > limit+kgTolerance {
		return nil, &models.OverAllocationError{LimitKg: limit, AttemptedKg: attempted}
	}

	stored, err := s.grading.InsertGradingRows(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("save grading: %w", err)
	}

	s.logger.Info("grading recorded",
		zap.String("transaction_key", key),
		zap.Int("rows", len(stored)),
		zap.Float64("graded_kg", attempted),
		zap.Float64("received_kg", limit))

	return stored, nil
}
