package intake

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/domain/grouping"
	"github.com/mamadbah2/packhouse/internal/domain/models"
	"github.com/mamadbah2/packhouse/internal/repository/mongodb"
)

// recentRows bounds how much intake history the grading screen is offered.
const recentRows = 500

var phonePattern = regexp.MustCompile(`^\d{10}$`)

// Service records intake transactions and serves them to the grading screen.
type Service struct {
	intake  mongodb.IntakeStore
	grading mongodb.GradingStore
	logger  *zap.Logger

	now    func() time.Time
	newKey func() string
}

// NewService wires a new intake service instance.
func NewService(intake mongodb.IntakeStore, grading mongodb.GradingStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		intake:  intake,
		grading: grading,
		logger:  logger,
		now:     time.Now,
		newKey:  uuid.NewString,
	}
}

// Submit stores one intake transaction: every filled line becomes a row
// sharing one transaction key and one timestamp.
func (s *Service) Submit(ctx context.Context, sub models.IntakeSubmission) (models.IntakeReceipt, error) {
	client := strings.TrimSpace(sub.ClientName)
	if client == "" {
		return models.IntakeReceipt{}, models.ErrMissingSelection
	}

	var phone *string
	if sub.NewClient {
		names, err := s.intake.ClientNames(ctx)
		if err != nil {
			return models.IntakeReceipt{}, fmt.Errorf("load clients: %w", err)
		}
		for _, name := range names {
			if strings.EqualFold(name, client) {
				return models.IntakeReceipt{}, models.ErrClientExists
			}
		}

		if p := strings.TrimSpace(sub.Phone); p != "" {
			if !phonePattern.MatchString(p) {
				return models.IntakeReceipt{}, models.InvalidInput("phone must have exactly 10 digits")
			}
			phone = &p
		}
	}

	key := s.newKey()
	ts := s.now()

	rows := make([]models.IntakeRow, 0, len(sub.Lines))
	var total float64
	for _, line := range sub.Lines {
		if strings.TrimSpace(line.ProductType) == "" || line.QuantityKg <= 0 {
			continue
		}
		productType, ok := models.ParseProductType(line.ProductType)
		if !ok {
			return models.IntakeReceipt{}, models.InvalidInput("unknown product type %q", line.ProductType)
		}

		k := key
		rows = append(rows, models.IntakeRow{
			TransactionKey: &k,
			ClientName:     client,
			ProductType:    productType,
			QuantityKg:     line.QuantityKg,
			Phone:          phone,
			Timestamp:      ts,
		})
		total += line.QuantityKg
	}
	if len(rows) == 0 {
		return models.IntakeReceipt{}, models.ErrEmptySubmission
	}

	if _, err := s.intake.InsertIntakeRows(ctx, rows); err != nil {
		return models.IntakeReceipt{}, fmt.Errorf("save intake: %w", err)
	}

	s.logger.Info("intake recorded",
		zap.String("transaction_key", key),
		zap.String("client", client),
		zap.Int("rows", len(rows)),
		zap.Float64("total_kg", total))

	return models.IntakeReceipt{
		TransactionKey: key,
		ClientName:     client,
		Timestamp:      ts,
		Rows:           len(rows),
		TotalKg:        total,
	}, nil
}

// Clients lists the known client names.
func (s *Service) Clients(ctx context.Context) ([]string, error) {
	names, err := s.intake.ClientNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	return names, nil
}

// PendingTransactions groups recent keyed intake rows and flags those already graded.
func (s *Service) PendingTransactions(ctx context.Context) ([]models.TransactionSummary, error) {
	rows, err := s.intake.ListIntakeRows(ctx, mongodb.Query{Limit: recentRows, KeyedOnly: true})
	if err != nil {
		return nil, fmt.Errorf("load intake rows: %w", err)
	}

	graded, err := s.grading.GradedKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("load graded keys: %w", err)
	}
	gradedSet := make(map[string]bool, len(graded))
	for _, k := range graded {
		gradedSet[k] = true
	}

	groups := grouping.GroupIntake(rows)
	out := make([]models.TransactionSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, models.TransactionSummary{IntakeGroup: g, Graded: gradedSet[g.Key]})
	}
	return out, nil
}

// Transaction returns the intake group of one transaction key.
func (s *Service) Transaction(ctx context.Context, key string) (models.TransactionSummary, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return models.TransactionSummary{}, models.ErrMissingSelection
	}

	rows, err := s.intake.IntakeRowsByKey(ctx, key)
	if err != nil {
		return models.TransactionSummary{}, fmt.Errorf("load intake transaction: %w", err)
	}

	g, ok := grouping.Find(grouping.GroupIntake(rows), key)
	if !ok {
		return models.TransactionSummary{}, fmt.Errorf("transaction %s: %w", key, models.ErrNotFound)
	}

	graded, err := s.grading.GradingExists(ctx, key)
	if err != nil {
		return models.TransactionSummary{}, fmt.Errorf("check grading: %w", err)
	}

	return models.TransactionSummary{IntakeGroup: g, Graded: graded}, nil
}
