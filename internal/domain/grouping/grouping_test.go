package grouping

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/packhouse/internal/domain/models"
)

func strPtr(s string) *string { return &s }

var base = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

func TestGroupIntakeExample(t *testing.T) {
	rows := []models.IntakeRow{
		{ID: 1, TransactionKey: strPtr("t1"), ClientName: "Juan Pérez", ProductType: models.ProductNegroTamano, QuantityKg: 500, Timestamp: base},
		{ID: 2, TransactionKey: strPtr("t1"), ClientName: "Juan Pérez", ProductType: models.ProductDesecho, QuantityKg: 200, Timestamp: base.Add(time.Minute)},
	}

	groups := GroupIntake(rows)

	require.Len(t, groups, 1)
	assert.Equal(t, "t1", groups[0].Key)
	assert.Equal(t, "Juan Pérez", groups[0].ClientName)
	assert.Equal(t, 700.0, groups[0].TotalKg)
	assert.Equal(t, base.Add(time.Minute), groups[0].Timestamp)
	assert.Len(t, groups[0].Rows, 2)
}

func TestGroupIntakeLegacyRowsStaySingletons(t *testing.T) {
	rows := []models.IntakeRow{
		{ID: 7, ClientName: "Ana", QuantityKg: 100, Timestamp: base},
		{ID: 8, TransactionKey: strPtr(""), ClientName: "Ana", QuantityKg: 50, Timestamp: base},
		{ID: 9, TransactionKey: strPtr("k"), ClientName: "Luis", QuantityKg: 10, Timestamp: base},
	}

	groups := GroupIntake(rows)

	require.Len(t, groups, 3)
	keys := []string{groups[0].Key, groups[1].Key, groups[2].Key}
	assert.Equal(t, []string{"row-7", "row-8", "k"}, keys, "equal timestamps keep first-seen order")
}

func TestGroupIntakeOrdersNewestFirst(t *testing.T) {
	rows := []models.IntakeRow{
		{ID: 1, TransactionKey: strPtr("old"), Timestamp: base},
		{ID: 2, TransactionKey: strPtr("new"), Timestamp: base.Add(2 * time.Hour)},
		{ID: 3, TransactionKey: strPtr("old"), Timestamp: base.Add(3 * time.Hour)},
	}

	groups := GroupIntake(rows)

	require.Len(t, groups, 2)
	assert.Equal(t, "old", groups[0].Key, "latest member timestamp decides the order")
	assert.Equal(t, "new", groups[1].Key)
}

func TestGroupIntakeProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(40)
		rows := make([]models.IntakeRow, 0, n)
		distinct := map[string]bool{}
		unkeyed := 0
		sums := map[string]float64{}
		latest := map[string]time.Time{}

		for i := 0; i < n; i++ {
			row := models.IntakeRow{
				ID:         int64(i + 1),
				QuantityKg: float64(rng.Intn(1000)),
				Timestamp:  base.Add(time.Duration(rng.Intn(10000)) * time.Second),
			}
			if rng.Intn(5) == 0 {
				unkeyed++
			} else {
				row.TransactionKey = strPtr(fmt.Sprintf("k%d", rng.Intn(6)))
				distinct[*row.TransactionKey] = true
			}
			key := Key(row.TransactionKey, row.ID)
			sums[key] += row.QuantityKg
			if row.Timestamp.After(latest[key]) {
				latest[key] = row.Timestamp
			}
			rows = append(rows, row)
		}

		groups := GroupIntake(rows)

		require.Len(t, groups, len(distinct)+unkeyed)
		for i, g := range groups {
			assert.Equal(t, sums[g.Key], g.TotalKg)
			assert.True(t, latest[g.Key].Equal(g.Timestamp))
			if i > 0 {
				assert.False(t, g.Timestamp.After(groups[i-1].Timestamp))
			}
		}
	}
}

func TestGroupGrading(t *testing.T) {
	rows := []models.GradingRow{
		{ID: 1, TransactionKey: strPtr("t1"), ClientName: "Juan", Date: "2025-01-01", SizeCategory: models.SizeExtra, Boxes: 10, QuantityKg: 300},
		{ID: 2, TransactionKey: strPtr("t2"), ClientName: "Ana", Date: "2025-01-03", SizeCategory: models.SizeExtra, Boxes: 1, QuantityKg: 20},
		{ID: 3, TransactionKey: strPtr("t1"), ClientName: "Juan", Date: "2025-01-02", SizeCategory: models.SizePrimera, Boxes: 5, QuantityKg: 200},
		{ID: 4, ClientName: "Legacy", Date: "2024-12-31", Boxes: 2, QuantityKg: 40},
	}

	groups := GroupGrading(rows)

	require.Len(t, groups, 3)
	assert.Equal(t, "t2", groups[0].Key)
	assert.Equal(t, "t1", groups[1].Key)
	assert.Equal(t, "2025-01-02", groups[1].Date)
	assert.Equal(t, 500.0, groups[1].TotalKg)
	assert.Equal(t, 15, groups[1].TotalBoxes)
	assert.Equal(t, "row-4", groups[2].Key)
}

func TestIntakeTotalsAndFind(t *testing.T) {
	rows := []models.IntakeRow{
		{ID: 1, TransactionKey: strPtr("a"), QuantityKg: 1.5},
		{ID: 2, TransactionKey: strPtr("a"), QuantityKg: 2.5},
		{ID: 3, QuantityKg: 9},
	}

	totals := IntakeTotals(rows)
	assert.Equal(t, map[string]float64{"a": 4, "row-3": 9}, totals)

	g, ok := Find(GroupIntake(rows), "a")
	require.True(t, ok)
	assert.Equal(t, 4.0, g.TotalKg)

	_, ok = Find(nil, "missing")
	assert.False(t, ok)
}
