package sales

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/packhouse/internal/domain/models"
	"github.com/mamadbah2/packhouse/internal/repository/memory"
	"github.com/mamadbah2/packhouse/internal/repository/mongodb"
)

func strPtr(s string) *string { return &s }

func seedGrading(t *testing.T, store *memory.Store, key, client, date string, kgs ...float64) {
	t.Helper()
	cats := models.SizeCategories
	rows := make([]models.GradingRow, 0, len(kgs))
	for i, kg := range kgs {
		k := key
		rows = append(rows, models.GradingRow{
			TransactionKey: &k,
			ClientName:     client,
			Date:           date,
			SizeCategory:   cats[i%len(cats)],
			Boxes:          1,
			QuantityKg:     kg,
		})
	}
	_, err := store.InsertGradingRows(context.Background(), rows)
	require.NoError(t, err)
}

func newTestService(store *memory.Store) *Service {
	svc := NewService(store, store, nil)
	svc.now = func() time.Time { return time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreateComputesTotalsAndNumbers(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedGrading(t, store, "t1", "Juan", "2025-02-09", 300, 200)
	svc := newTestService(store)

	record, err := svc.Create(ctx, models.SaleRequest{
		TransactionKey: "t1",
		ClientName:     "Juan",
		City:           "Uruapan",
		Lines: []models.SaleLine{
			{QuantityKg: 300, Label: "EXTRA", UnitPrice: 32.5},
			{QuantityKg: 200, Label: "1RA", UnitPrice: 28.25},
			{QuantityKg: 10, Label: "", UnitPrice: 1},
			{QuantityKg: 0, Label: "2DA", UnitPrice: 1},
			{QuantityKg: 5, Label: "3RA", UnitPrice: 0},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), record.NoteNumber)
	assert.Equal(t, "2025-02-10", record.Date, "empty date defaults to today")
	require.Len(t, record.Lines, 2)
	assert.Equal(t, 9750.0, record.Lines[0].Amount)
	assert.Equal(t, 5650.0, record.Lines[1].Amount)
	assert.Equal(t, 15400.0, record.Total)
	assert.Equal(t, record.Total, Recompute(record))
	assert.Nil(t, record.Address)
	require.NotNil(t, record.City)
	assert.Equal(t, "Uruapan", *record.City)

	pending, err := store.PendingGradingRows(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "grading rows are finalized after the sale")

	next, err := svc.Create(ctx, models.SaleRequest{
		ClientName: "Mostrador",
		Lines:      []models.SaleLine{{QuantityKg: 1, Label: "EXTRA", UnitPrice: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.NoteNumber)
	assert.Nil(t, next.TransactionKey)
}

func TestCreateRejectsSecondSaleFromCache(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedGrading(t, store, "t1", "Juan", "2025-02-09", 100)
	svc := newTestService(store)

	req := models.SaleRequest{
		TransactionKey: "t1",
		ClientName:     "Juan",
		Lines:          []models.SaleLine{{QuantityKg: 100, Label: "EXTRA", UnitPrice: 10}},
	}
	_, err := svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, models.ErrDuplicateSale)

	sales, err := store.ListSales(ctx, mongodb.Query{})
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}

func TestCreateRejectsSecondSaleFromStorage(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedGrading(t, store, "t1", "Juan", "2025-02-09", 100)
	first := newTestService(store)
	second := newTestService(store)

	// warm the second service's cache before the first sale exists
	_, err := second.PendingGroups(ctx)
	require.NoError(t, err)

	req := models.SaleRequest{
		TransactionKey: "t1",
		ClientName:     "Juan",
		Lines:          []models.SaleLine{{QuantityKg: 100, Label: "EXTRA", UnitPrice: 10}},
	}
	_, err = first.Create(ctx, req)
	require.NoError(t, err)

	_, err = second.Create(ctx, req)
	assert.ErrorIs(t, err, models.ErrDuplicateSale)
	assert.True(t, second.isSold("t1"), "a storage rejection refreshes the cache")
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(memory.New())
	line := []models.SaleLine{{QuantityKg: 1, Label: "EXTRA", UnitPrice: 1}}

	tests := []struct {
		name string
		req  models.SaleRequest
		want error
	}{
		{"no valid line", models.SaleRequest{ClientName: "Juan", Lines: []models.SaleLine{{Label: "EXTRA"}}}, models.ErrEmptySubmission},
		{"no client", models.SaleRequest{Lines: line}, models.ErrMissingSelection},
		{"bad date", models.SaleRequest{ClientName: "Juan", Date: "10/02/2025", Lines: line}, models.ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateNumberAssignmentFailure(t *testing.T) {
	store := memory.New()
	store.FailNoteNumber = errors.New("function generar_numero_nota does not exist")
	svc := newTestService(store)

	_, err := svc.Create(context.Background(), models.SaleRequest{
		ClientName: "Juan",
		Lines:      []models.SaleLine{{QuantityKg: 1, Label: "EXTRA", UnitPrice: 1}},
	})
	assert.ErrorIs(t, err, models.ErrNumberAssignmentFailed)
	assert.NotContains(t, err.Error(), "generar_numero_nota", "backend text stays in the log")

	sales, err := store.ListSales(context.Background(), mongodb.Query{})
	require.NoError(t, err)
	assert.Empty(t, sales, "no insert without a number")
}

func TestPendingGroupsPrefillsLines(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedGrading(t, store, "t1", "Juan", "2025-02-08", 300, 200)
	seedGrading(t, store, "t2", "Ana", "2025-02-09", 50)
	svc := newTestService(store)

	pending, err := svc.PendingGroups(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "t2", pending[0].Key)
	assert.Equal(t, []models.SaleLine{
		{QuantityKg: 300, Label: "EXTRA"},
		{QuantityKg: 200, Label: "1RA"},
	}, pending[1].Lines)

	_, err = svc.Create(ctx, models.SaleRequest{
		TransactionKey: "t2",
		ClientName:     "Ana",
		Lines:          []models.SaleLine{{QuantityKg: 50, Label: "EXTRA", UnitPrice: 3}},
	})
	require.NoError(t, err)

	pending, err = svc.PendingGroups(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "t1", pending[0].Key)
}

func TestLineAmountRoundsToCents(t *testing.T) {
	assert.Equal(t, "0.30", LineAmount(0.1, 3).StringFixed(2))
	assert.Equal(t, "33.34", LineAmount(3.3333, 10.0025).StringFixed(2))
}

// reloadingStore simulates a back-office delete landing while the sold set
// is being read: the keys it returns are already stale.
type reloadingStore struct {
	*memory.Store
	svc   *Service
	fired bool
}

func (r *reloadingStore) SoldKeys(ctx context.Context) ([]string, error) {
	keys, err := r.Store.SoldKeys(ctx)
	if err != nil || r.fired {
		return keys, err
	}
	r.fired = true

	sales, err := r.Store.ListSales(ctx, mongodb.Query{})
	if err != nil {
		return nil, err
	}
	for _, s := range sales {
		if err := r.Store.DeleteRow(ctx, models.TableSales, s.ID); err != nil {
			return nil, err
		}
	}
	r.svc.ReloadSoldSet()
	return keys, nil
}

func TestSoldSetIgnoresReadsOverlappingReload(t *testing.T) {
	ctx := context.Background()
	base := memory.New()
	_, err := base.InsertSale(ctx, models.SalesRecord{NoteNumber: 100, TransactionKey: strPtr("t1"), Date: "2025-02-01", ClientName: "Juan"})
	require.NoError(t, err)

	store := &reloadingStore{Store: base}
	svc := NewService(store, base, nil)
	store.svc = svc

	_, err = svc.Create(ctx, models.SaleRequest{
		TransactionKey: "t1",
		ClientName:     "Juan",
		Lines:          []models.SaleLine{{QuantityKg: 10, Label: "EXTRA", UnitPrice: 10}},
	})
	require.NoError(t, err, "the deleted sale no longer blocks the lot")
	assert.True(t, svc.isSold("t1"))
}
