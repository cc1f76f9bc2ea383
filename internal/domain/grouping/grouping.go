// Package grouping folds flat intake and grading rows into per-transaction groups.
//
// Groups are derived views: they are rebuilt from scratch on every call and
// never stored. Rows without a transaction key stay visible as singleton
// groups keyed by their own row id.
package grouping

import (
	"sort"
	"strconv"
	"strings"

	"github.com/mamadbah2/packhouse/internal/domain/models"
)

// Key returns the grouping key of a row: its transaction key, or "row-<id>" when it has none.
func Key(transactionKey *string, id int64) string {
	if transactionKey != nil {
		if k := strings.TrimSpace(*transactionKey); k != "" {
			return k
		}
	}
	return "row-" + strconv.FormatInt(id, 10)
}

// GroupIntake partitions intake rows by transaction key. Each group keeps the
// first client name seen, the latest member timestamp and the sum of member
// quantities. Groups are ordered newest first; ties keep first-seen order.
func GroupIntake(rows []models.IntakeRow) []models.IntakeGroup {
	index := make(map[string]int, len(rows))
	groups := make([]models.IntakeGroup, 0)

	for _, row := range rows {
		key := Key(row.TransactionKey, row.ID)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, models.IntakeGroup{
				Key:            key,
				TransactionKey: row.TransactionKey,
				ClientName:     row.ClientName,
				Timestamp:      row.Timestamp,
			})
		}

		g := &groups[i]
		g.Rows = append(g.Rows, row)
		g.TotalKg += row.QuantityKg
		if row.Timestamp.After(g.Timestamp) {
			g.Timestamp = row.Timestamp
		}
		if g.Phone == nil && row.Phone != nil && *row.Phone != "" {
			g.Phone = row.Phone
		}
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Timestamp.After(groups[b].Timestamp)
	})
	return groups
}

// GroupGrading partitions grading rows by transaction key, mirroring
// GroupIntake with the latest grading date as the display date and box
// counts summed alongside mass.
func GroupGrading(rows []models.GradingRow) []models.GradingGroup {
	index := make(map[string]int, len(rows))
	groups := make([]models.GradingGroup, 0)

	for _, row := range rows {
		key := Key(row.TransactionKey, row.ID)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, models.GradingGroup{
				Key:            key,
				TransactionKey: row.TransactionKey,
				ClientName:     row.ClientName,
				Date:           row.Date,
			})
		}

		g := &groups[i]
		g.Rows = append(g.Rows, row)
		g.TotalKg += row.QuantityKg
		g.TotalBoxes += row.Boxes
		// dates are YYYY-MM-DD, so lexical order is chronological
		if row.Date > g.Date {
			g.Date = row.Date
		}
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Date > groups[b].Date
	})
	return groups
}

// IntakeTotals maps every grouping key to its received kilograms.
func IntakeTotals(rows []models.IntakeRow) map[string]float64 {
	totals := make(map[string]float64)
	for _, row := range rows {
		totals[Key(row.TransactionKey, row.ID)] += row.QuantityKg
	}
	return totals
}

// Find returns the intake group with the given key.
func Find(groups []models.IntakeGroup, key string) (models.IntakeGroup, bool) {
	for _, g := range groups {
		if g.Key == key {
			return g, true
		}
	}
	return models.IntakeGroup{}, false
}
