package export

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/domain/models"
	"github.com/mamadbah2/packhouse/internal/repository/mongodb"
)

// PageSize is how many rows a full-history export reads per request.
const PageSize = 1000

// Store is the read side of the record store used by exports.
type Store interface {
	ListSales(ctx context.Context, q mongodb.Query) ([]models.SalesRecord, error)
	ListIntakeRows(ctx context.Context, q mongodb.Query) ([]models.IntakeRow, error)
	ListGradingRows(ctx context.Context, q mongodb.Query) ([]models.GradingRow, error)
	SaleByID(ctx context.Context, id int64) (models.SalesRecord, error)
}

// Service builds spreadsheet and PDF downloads.
type Service struct {
	store      Store
	letterhead Letterhead
	logger     *zap.Logger
}

// NewService wires a new export service instance.
func NewService(store Store, letterhead Letterhead, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, letterhead: letterhead, logger: logger}
}

// ExportPeriod returns the xlsx bytes of every row inside the period.
func (s *Service) ExportPeriod(ctx context.Context, period models.Period) ([]byte, error) {
	q := mongodb.Query{Period: &period}

	sales, err := s.store.ListSales(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	intake, err := s.store.ListIntakeRows(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load intake: %w", err)
	}
	grading, err := s.store.ListGradingRows(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load grading: %w", err)
	}

	s.logger.Info("exporting period",
		zap.String("period", period.String()),
		zap.Int("sales", len(sales)),
		zap.Int("intake", len(intake)),
		zap.Int("grading", len(grading)))

	return render(sales, intake, grading)
}

// ExportAll returns the xlsx bytes of the full history of every ledger.
func (s *Service) ExportAll(ctx context.Context) ([]byte, error) {
	sales, err := fetchAll(ctx, s.store.ListSales)
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	intake, err := fetchAll(ctx, s.store.ListIntakeRows)
	if err != nil {
		return nil, fmt.Errorf("load intake: %w", err)
	}
	grading, err := fetchAll(ctx, s.store.ListGradingRows)
	if err != nil {
		return nil, fmt.Errorf("load grading: %w", err)
	}

	s.logger.Info("exporting full history",
		zap.Int("sales", len(sales)),
		zap.Int("intake", len(intake)),
		zap.Int("grading", len(grading)))

	return render(sales, intake, grading)
}

// SalesNote renders the PDF of one stored sales note.
func (s *Service) SalesNote(ctx context.Context, id int64) (models.SalesRecord, []byte, error) {
	record, err := s.store.SaleByID(ctx, id)
	if err != nil {
		return models.SalesRecord{}, nil, fmt.Errorf("load sale: %w", err)
	}
	doc, err := SalesNotePDF(record, s.letterhead)
	if err != nil {
		return models.SalesRecord{}, nil, err
	}
	return record, doc, nil
}

// fetchAll reads id-ordered pages until a page comes back short.
func fetchAll[T any](ctx context.Context, list func(context.Context, mongodb.Query) ([]T, error)) ([]T, error) {
	all := make([]T, 0)
	for offset := int64(0); ; offset += PageSize {
		page, err := list(ctx, mongodb.Query{Offset: offset, Limit: PageSize, Ascending: true})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < PageSize {
			return all, nil
		}
	}
}

func render(sales []models.SalesRecord, intake []models.IntakeRow, grading []models.GradingRow) ([]byte, error) {
	f, err := Workbook(sales, intake, grading)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
