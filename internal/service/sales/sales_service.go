package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/domain/grouping"
	"github.com/mamadbah2/packhouse/internal/domain/models"
	"github.com/mamadbah2/packhouse/internal/repository/mongodb"
)

// categoryOrder places pre-filled lines in catalogue order.
var categoryOrder = func() map[models.SizeCategory]int {
	m := make(map[models.SizeCategory]int, len(models.SizeCategories))
	for i, c := range models.SizeCategories {
		m[c] = i
	}
	return m
}()

// Service turns graded lots into numbered sales notes.
type Service struct {
	sales   mongodb.SalesStore
	grading mongodb.GradingStore
	logger  *zap.Logger
	now     func() time.Time

	mu         sync.RWMutex
	sold       map[string]struct{}
	loaded     bool
	generation int
}

// NewService wires a new sales service instance.
func NewService(sales mongodb.SalesStore, grading mongodb.GradingStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sales:   sales,
		grading: grading,
		logger:  logger,
		now:     time.Now,
		sold:    make(map[string]struct{}),
	}
}

// LineAmount is quantity times unit price, rounded to cents.
func LineAmount(quantityKg, unitPrice float64) decimal.Decimal {
	return decimal.NewFromFloat(quantityKg).Mul(decimal.NewFromFloat(unitPrice)).Round(2)
}

// Recompute sums the stored line amounts of a note.
func Recompute(record models.SalesRecord) float64 {
	total := decimal.Zero
	for _, line := range record.Lines {
		total = total.Add(decimal.NewFromFloat(line.Amount))
	}
	return total.Round(2).InexactFloat64()
}

// PendingGroups lists graded transactions still open for sale, each with
// one pre-filled line per size category.
func (s *Service) PendingGroups(ctx context.Context) ([]models.PendingSale, error) {
	if err := s.ensureSoldSet(ctx); err != nil {
		return nil, err
	}

	rows, err := s.grading.PendingGradingRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pending grading: %w", err)
	}

	groups := grouping.GroupGrading(rows)
	out := make([]models.PendingSale, 0, len(groups))
	for _, g := range groups {
		if s.isSold(g.Key) {
			continue
		}
		rows := append([]models.GradingRow(nil), g.Rows...)
		sort.SliceStable(rows, func(a, b int) bool {
			return categoryOrder[rows[a].SizeCategory] < categoryOrder[rows[b].SizeCategory]
		})

		lines := make([]models.SaleLine, 0, len(rows))
		for _, r := range rows {
			lines = append(lines, models.SaleLine{QuantityKg: r.QuantityKg, Label: string(r.SizeCategory)})
		}
		out = append(out, models.PendingSale{GradingGroup: g, Lines: lines})
	}
	return out, nil
}

// Create stores a sales note under the next note number.
//
// The sold-set check is advisory. The unique index on the transaction key
// is what finally rejects a second note for the same lot.
func (s *Service) Create(ctx context.Context, req models.SaleRequest) (models.SalesRecord, error) {
	lines := make([]models.LineItem, 0, len(req.Lines))
	total := decimal.Zero
	for _, l := range req.Lines {
		label := strings.TrimSpace(l.Label)
		if label == "" || l.QuantityKg <= 0 || l.UnitPrice <= 0 {
			continue
		}
		amount := LineAmount(l.QuantityKg, l.UnitPrice)
		total = total.Add(amount)
		lines = append(lines, models.LineItem{
			QuantityKg: l.QuantityKg,
			Label:      label,
			UnitPrice:  l.UnitPrice,
			Amount:     amount.InexactFloat64(),
		})
	}
	if len(lines) == 0 {
		return models.SalesRecord{}, models.ErrEmptySubmission
	}

	client := strings.TrimSpace(req.ClientName)
	if client == "" {
		return models.SalesRecord{}, models.ErrMissingSelection
	}

	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = s.now().Format(models.DateLayout)
	} else if _, err := time.Parse(models.DateLayout, date); err != nil {
		return models.SalesRecord{}, models.InvalidInput("date %q must look like %s", date, models.DateLayout)
	}

	key := strings.TrimSpace(req.TransactionKey)
	if key != "" {
		if err := s.ensureSoldSet(ctx); err != nil {
			return models.SalesRecord{}, err
		}
		if s.isSold(key) {
			return models.SalesRecord{}, models.ErrDuplicateSale
		}
	}

	number, err := s.sales.NextNoteNumber(ctx)
	if err != nil {
		s.logger.Error("note number assignment failed", zap.Error(err))
		return models.SalesRecord{}, models.ErrNumberAssignmentFailed
	}
	if number <= 0 {
		return models.SalesRecord{}, models.ErrNumberAssignmentFailed
	}

	record := models.SalesRecord{
		NoteNumber: number,
		Date:       date,
		ClientName: client,
		Address:    optional(req.Address),
		City:       optional(req.City),
		Plates:     optional(req.Plates),
		Lines:      lines,
		Total:      total.Round(2).InexactFloat64(),
		CreatedAt:  s.now(),
	}
	if key != "" {
		record.TransactionKey = &key
	}

	stored, err := s.sales.InsertSale(ctx, record)
	if err != nil {
		if errors.Is(err, mongodb.ErrDuplicateKey) && key != "" {
			s.markSold(key)
			return models.SalesRecord{}, models.ErrDuplicateSale
		}
		return models.SalesRecord{}, fmt.Errorf("save sale: %w", err)
	}

	if key != "" {
		s.markSold(key)
		if err := s.grading.SetFinalized(ctx, key, true); err != nil {
			s.logger.Warn("failed to finalize grading rows", zap.String("transaction_key", key), zap.Error(err))
		}
	}

	s.logger.Info("sale recorded",
		zap.Int64("note_number", stored.NoteNumber),
		zap.String("client", client),
		zap.Int("lines", len(lines)),
		zap.Float64("total", stored.Total))

	return stored, nil
}

// ReloadSoldSet drops the cached sold set so the next call reads the store again.
func (s *Service) ReloadSoldSet() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sold = make(map[string]struct{})
	s.loaded = false
	s.generation++
}

func (s *Service) ensureSoldSet(ctx context.Context) error {
	s.mu.RLock()
	loaded, gen := s.loaded, s.generation
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	keys, err := s.sales.SoldKeys(ctx)
	if err != nil {
		return fmt.Errorf("load sold transactions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// a reload while reading makes keys stale; the next call reads again
	if s.loaded || s.generation != gen {
		return nil
	}
	fresh := make(map[string]struct{}, len(keys)+len(s.sold))
	for _, k := range keys {
		fresh[k] = struct{}{}
	}
	for k := range s.sold {
		fresh[k] = struct{}{}
	}
	s.sold = fresh
	s.loaded = true
	return nil
}

func (s *Service) isSold(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sold[key]
	return ok
}

func (s *Service) markSold(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sold[key] = struct{}{}
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
