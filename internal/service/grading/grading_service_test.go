package grading

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/packhouse/internal/domain/models"
	"github.com/mamadbah2/packhouse/internal/repository/memory"
)

// countingStore records the reads reaching each ledger.
type countingStore struct {
	*memory.Store
	existsCalls int
	intakeCalls int
}

func (c *countingStore) GradingExists(ctx context.Context, key string) (bool, error) {
	c.existsCalls++
	return c.Store.GradingExists(ctx, key)
}

func (c *countingStore) IntakeRowsByKey(ctx context.Context, key string) ([]models.IntakeRow, error) {
	c.intakeCalls++
	return c.Store.IntakeRowsByKey(ctx, key)
}

func seedIntake(t *testing.T, store *memory.Store, key string, kgs ...float64) {
	t.Helper()
	rows := make([]models.IntakeRow, 0, len(kgs))
	for _, kg := range kgs {
		k := key
		rows = append(rows, models.IntakeRow{
			TransactionKey: &k,
			ClientName:     "Juan Pérez",
			ProductType:    models.ProductNegroTamano,
			QuantityKg:     kg,
			Timestamp:      time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
		})
	}
	_, err := store.InsertIntakeRows(context.Background(), rows)
	require.NoError(t, err)
}

func submission(key string, lines ...models.GradingLine) models.GradingSubmission {
	return models.GradingSubmission{TransactionKey: key, ClientName: "Juan Pérez", Date: "2025-01-02", Lines: lines}
}

func TestSubmitAcceptsUpToReceivedKg(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedIntake(t, store, "t1", 500, 200)
	svc := NewService(store, store, nil)

	rows, err := svc.Submit(ctx, submission("t1",
		models.GradingLine{SizeCategory: "EXTRA", Boxes: 10, QuantityKg: 300},
		models.GradingLine{SizeCategory: "1ra", Boxes: 5, QuantityKg: 200},
		models.GradingLine{SizeCategory: "2DA"},
	))
	require.NoError(t, err)
	require.Len(t, rows, 2, "zero/zero lines are omitted")
	assert.Equal(t, models.SizePrimera, rows[1].SizeCategory)
	assert.NotZero(t, rows[0].ID)

	_, err = svc.Submit(ctx, submission("t1", models.GradingLine{SizeCategory: "EXTRA", QuantityKg: 1}))
	assert.ErrorIs(t, err, models.ErrAlreadyGraded)
}

func TestSubmitRejectsOverAllocation(t *testing.T) {
	store := memory.New()
	seedIntake(t, store, "t1", 500, 200)
	svc := NewService(store, store, nil)

	_, err := svc.Submit(context.Background(), submission("t1",
		models.GradingLine{SizeCategory: "EXTRA", Boxes: 10, QuantityKg: 400},
		models.GradingLine{SizeCategory: "1RA", Boxes: 10, QuantityKg: 400},
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrOverAllocation)

	var over *models.OverAllocationError
	require.True(t, errors.As(err, &over))
	assert.Equal(t, 700.0, over.LimitKg)
	assert.Equal(t, 800.0, over.AttemptedKg)

	exists, err := store.GradingExists(context.Background(), "t1")
	require.NoError(t, err)
	assert.False(t, exists, "nothing is written on rejection")
}

func TestSubmitBoxesOnlyLineCounts(t *testing.T) {
	store := memory.New()
	seedIntake(t, store, "t1", 100)
	svc := NewService(store, store, nil)

	rows, err := svc.Submit(context.Background(), submission("t1", models.GradingLine{SizeCategory: "DESECHO", Boxes: 3}))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].Boxes)
}

func TestSubmitValidationOrder(t *testing.T) {
	store := &countingStore{Store: memory.New()}
	seedIntake(t, store.Store, "t1", 100)
	seedIntake(t, store.Store, "t2", 100)
	svc := NewService(store, store, nil)

	_, err := svc.Submit(context.Background(), submission("t2", models.GradingLine{SizeCategory: "EXTRA", QuantityKg: 50}))
	require.NoError(t, err)

	tests := []struct {
		name       string
		sub        models.GradingSubmission
		want       error
		wantExists bool
		wantIntake bool
	}{
		{
			name: "missing key",
			sub:  submission("", models.GradingLine{SizeCategory: "EXTRA", QuantityKg: 1}),
			want: models.ErrMissingSelection,
		},
		{
			name: "missing date",
			sub:  models.GradingSubmission{TransactionKey: "t1", ClientName: "Juan", Lines: []models.GradingLine{{SizeCategory: "EXTRA", QuantityKg: 1}}},
			want: models.ErrMissingSelection,
		},
		{
			name: "bad date",
			sub:  models.GradingSubmission{TransactionKey: "t1", ClientName: "Juan", Date: "02/01/2025", Lines: []models.GradingLine{{SizeCategory: "EXTRA", QuantityKg: 1}}},
			want: models.ErrInvalidInput,
		},
		{
			name:       "already graded wins over empty lines",
			sub:        submission("t2", models.GradingLine{SizeCategory: "EXTRA"}),
			want:       models.ErrAlreadyGraded,
			wantExists: true,
		},
		{
			name:       "already graded wins over unknown category",
			sub:        submission("t2", models.GradingLine{SizeCategory: "JUMBO", QuantityKg: 1}),
			want:       models.ErrAlreadyGraded,
			wantExists: true,
		},
		{
			name:       "all lines empty",
			sub:        submission("t1", models.GradingLine{SizeCategory: "EXTRA"}, models.GradingLine{SizeCategory: "1RA"}),
			want:       models.ErrEmptySubmission,
			wantExists: true,
		},
		{
			name:       "unknown category",
			sub:        submission("t1", models.GradingLine{SizeCategory: "JUMBO", QuantityKg: 1}),
			want:       models.ErrInvalidInput,
			wantExists: true,
		},
		{
			name:       "unknown transaction",
			sub:        submission("ghost", models.GradingLine{SizeCategory: "EXTRA", QuantityKg: 1}),
			want:       models.ErrMissingSelection,
			wantExists: true,
			wantIntake: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store.existsCalls, store.intakeCalls = 0, 0
			_, err := svc.Submit(context.Background(), tc.sub)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, tc.wantExists, store.existsCalls > 0, "already-graded lookup")
			assert.Equal(t, tc.wantIntake, store.intakeCalls > 0, "intake lookup")
		})
	}

	exists, err := store.GradingExists(context.Background(), "t1")
	require.NoError(t, err)
	assert.False(t, exists, "no rejected submission is stored")
}
