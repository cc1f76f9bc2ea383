package admin

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/domain/grouping"
	"github.com/mamadbah2/packhouse/internal/domain/models"
	"github.com/mamadbah2/packhouse/internal/repository/mongodb"
	"github.com/mamadbah2/packhouse/internal/service/sales"
)

// Store is the slice of the record store the back-office needs.
type Store interface {
	mongodb.IntakeStore
	mongodb.GradingStore
	mongodb.SalesStore
	mongodb.RowStore
}

// SoldSetCache is told when sales rows change outside the sales form.
type SoldSetCache interface {
	ReloadSoldSet()
}

// IntakeListing is one month of intake rows, flat and grouped.
type IntakeListing struct {
	Rows   []models.IntakeRow   `json:"rows"`
	Groups []models.IntakeGroup `json:"groups"`
}

// GradingListing is one month of grading rows, flat and grouped.
type GradingListing struct {
	Rows   []models.GradingRow   `json:"rows"`
	Groups []models.GradingGroup `json:"groups"`
}

// Service backs the secretary screens: browse by month, edit, delete.
type Service struct {
	store  Store
	cache  SoldSetCache
	loc    *time.Location
	logger *zap.Logger
}

// NewService wires a new back-office service. cache may be nil.
func NewService(store Store, cache SoldSetCache, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, cache: cache, loc: loc, logger: logger}
}

// Month resolves a "YYYY-MM" month in the service time zone. An empty month
// means the current one.
func (s *Service) Month(month string) (models.Period, error) {
	if strings.TrimSpace(month) == "" {
		month = time.Now().In(s.loc).Format("2006-01")
	}
	return models.MonthPeriod(strings.TrimSpace(month), s.loc)
}

// ListSales lists a month of sales notes, newest first, with recomputed totals.
func (s *Service) ListSales(ctx context.Context, month string) ([]models.SalesListing, error) {
	period, err := s.Month(month)
	if err != nil {
		return nil, err
	}

	records, err := s.store.ListSales(ctx, mongodb.Query{Period: &period})
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}

	out := make([]models.SalesListing, 0, len(records))
	for _, r := range records {
		listing := models.SalesListing{SalesRecord: r, ComputedTotal: sales.Recompute(r)}
		if math.Abs(listing.ComputedTotal-r.Total) > 0.005 {
			s.logger.Debug("stored total differs from lines",
				zap.Int64("note_number", r.NoteNumber),
				zap.Float64("stored", r.Total),
				zap.Float64("computed", listing.ComputedTotal))
		}
		out = append(out, listing)
	}
	return out, nil
}

// ListIntake lists a month of intake rows, newest first.
func (s *Service) ListIntake(ctx context.Context, month string) (IntakeListing, error) {
	period, err := s.Month(month)
	if err != nil {
		return IntakeListing{}, err
	}

	rows, err := s.store.ListIntakeRows(ctx, mongodb.Query{Period: &period})
	if err != nil {
		return IntakeListing{}, fmt.Errorf("list intake: %w", err)
	}
	return IntakeListing{Rows: rows, Groups: grouping.GroupIntake(rows)}, nil
}

// ListGrading lists a month of grading rows, newest first.
func (s *Service) ListGrading(ctx context.Context, month string) (GradingListing, error) {
	period, err := s.Month(month)
	if err != nil {
		return GradingListing{}, err
	}

	rows, err := s.store.ListGradingRows(ctx, mongodb.Query{Period: &period})
	if err != nil {
		return GradingListing{}, fmt.Errorf("list grading: %w", err)
	}
	return GradingListing{Rows: rows, Groups: grouping.GroupGrading(rows)}, nil
}

// Sale loads one sales note.
func (s *Service) Sale(ctx context.Context, id int64) (models.SalesRecord, error) {
	record, err := s.store.SaleByID(ctx, id)
	if err != nil {
		return models.SalesRecord{}, fmt.Errorf("load sale: %w", err)
	}
	return record, nil
}

// Update applies a whitelisted patch to one row.
func (s *Service) Update(ctx context.Context, table models.Table, id int64, patch map[string]any) error {
	if len(patch) == 0 {
		return models.InvalidInput("nothing to update")
	}

	fields, ok := editable[table]
	if !ok {
		return models.InvalidInput("unknown table %q", table)
	}

	clean := make(map[string]any, len(patch))
	for name, value := range patch {
		coerce, ok := fields[name]
		if !ok {
			return models.InvalidInput("field %q of %s cannot be edited", name, table)
		}
		v, err := coerce(value)
		if err != nil {
			return models.InvalidInput("field %q: %v", name, err)
		}
		clean[name] = v
	}

	if err := s.store.UpdateRow(ctx, table, id, clean); err != nil {
		return fmt.Errorf("update %s %d: %w", table, id, err)
	}

	s.logger.Info("row updated", zap.String("table", string(table)), zap.Int64("id", id), zap.Int("fields", len(clean)))
	s.touched(table)
	return nil
}

// Delete removes one row. Deleting a keyed sale reopens its graded lot.
func (s *Service) Delete(ctx context.Context, table models.Table, id int64) error {
	var reopen string
	if table == models.TableSales {
		record, err := s.store.SaleByID(ctx, id)
		if err != nil {
			return fmt.Errorf("delete %s %d: %w", table, id, err)
		}
		if record.TransactionKey != nil {
			reopen = strings.TrimSpace(*record.TransactionKey)
		}
	}

	if err := s.store.DeleteRow(ctx, table, id); err != nil {
		return fmt.Errorf("delete %s %d: %w", table, id, err)
	}

	s.logger.Info("row deleted", zap.String("table", string(table)), zap.Int64("id", id))
	if reopen != "" {
		if err := s.store.SetFinalized(ctx, reopen, false); err != nil {
			s.logger.Warn("failed to reopen graded lot", zap.String("transaction_key", reopen), zap.Error(err))
		}
	}
	s.touched(table)
	return nil
}

func (s *Service) touched(table models.Table) {
	if table == models.TableSales && s.cache != nil {
		s.cache.ReloadSoldSet()
	}
}
