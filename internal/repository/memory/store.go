// Package memory implements the record store interfaces in process memory.
// It backs the service tests and the STORE_DRIVER=memory mode used for demos.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/packhouse/internal/domain/models"
	"github.com/mamadbah2/packhouse/internal/repository/mongodb"
)

// Store keeps every ledger in slices guarded by one mutex. It enforces the
// same uniqueness rules as the MongoDB indexes.
type Store struct {
	mu       sync.RWMutex
	intake   []models.IntakeRow
	grading  []models.GradingRow
	sales    []models.SalesRecord
	users    map[string]models.User
	reports  map[string]models.DailyReport
	counters map[string]int64

	// FailNoteNumber makes NextNoteNumber fail, for tests.
	FailNoteNumber error
}

var (
	_ mongodb.IntakeStore  = (*Store)(nil)
	_ mongodb.GradingStore = (*Store)(nil)
	_ mongodb.SalesStore   = (*Store)(nil)
	_ mongodb.RowStore     = (*Store)(nil)
	_ mongodb.UserStore    = (*Store)(nil)
	_ mongodb.ReportStore  = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{
		users:    make(map[string]models.User),
		reports:  make(map[string]models.DailyReport),
		counters: make(map[string]int64),
	}
}

func (s *Store) next(name string) int64 {
	s.counters[name]++
	return s.counters[name]
}

func keyed(k *string) bool { return k != nil && *k != "" }

func keyIs(k *string, want string) bool { return k != nil && *k == want }

// page applies offset and limit to an already ordered slice.
func page[T any](items []T, q mongodb.Query) []T {
	if q.Offset > 0 {
		if q.Offset >= int64(len(items)) {
			return []T{}
		}
		items = items[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < int64(len(items)) {
		items = items[:q.Limit]
	}
	return items
}

func (s *Store) InsertIntakeRows(_ context.Context, rows []models.IntakeRow) ([]models.IntakeRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range rows {
		rows[i].ID = s.next("intake")
		s.intake = append(s.intake, rows[i])
	}
	return rows, nil
}

func (s *Store) ListIntakeRows(_ context.Context, q mongodb.Query) ([]models.IntakeRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.IntakeRow, 0, len(s.intake))
	for _, r := range s.intake {
		if q.Period != nil && (r.Timestamp.Before(q.Period.From) || !r.Timestamp.Before(q.Period.To)) {
			continue
		}
		if q.KeyedOnly && !keyed(r.TransactionKey) {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(a, b int) bool {
		if q.Ascending {
			return out[a].ID < out[b].ID
		}
		if !out[a].Timestamp.Equal(out[b].Timestamp) {
			return out[a].Timestamp.After(out[b].Timestamp)
		}
		return out[a].ID > out[b].ID
	})
	return page(out, q), nil
}

func (s *Store) IntakeRowsByKey(_ context.Context, key string) ([]models.IntakeRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.IntakeRow, 0)
	for _, r := range s.intake {
		if keyIs(r.TransactionKey, key) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) ClientNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]bool{}
	names := make([]string, 0)
	for _, r := range s.intake {
		name := strings.TrimSpace(r.ClientName)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) InsertGradingRows(_ context.Context, rows []models.GradingRow) ([]models.GradingRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range rows {
		rows[i].ID = s.next("grading")
		s.grading = append(s.grading, rows[i])
	}
	return rows, nil
}

func (s *Store) GradingExists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.grading {
		if keyIs(r.TransactionKey, key) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GradedKeys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0)
	seen := map[string]bool{}
	for _, r := range s.grading {
		if keyed(r.TransactionKey) && !seen[*r.TransactionKey] {
			seen[*r.TransactionKey] = true
			keys = append(keys, *r.TransactionKey)
		}
	}
	return keys, nil
}

func (s *Store) ListGradingRows(_ context.Context, q mongodb.Query) ([]models.GradingRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.GradingRow, 0, len(s.grading))
	for _, r := range s.grading {
		if q.Period != nil && (r.Date < q.Period.FromDate() || r.Date >= q.Period.ToDate()) {
			continue
		}
		if q.KeyedOnly && !keyed(r.TransactionKey) {
			continue
		}
		out = append(out, r)
	}
	sortByDate(out, q.Ascending, func(r models.GradingRow) (string, int64) { return r.Date, r.ID })
	return page(out, q), nil
}

func (s *Store) PendingGradingRows(_ context.Context) ([]models.GradingRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.GradingRow, 0)
	for _, r := range s.grading {
		if !r.Finalized && keyed(r.TransactionKey) {
			out = append(out, r)
		}
	}
	sortByDate(out, false, func(r models.GradingRow) (string, int64) { return r.Date, r.ID })
	return out, nil
}

func (s *Store) SetFinalized(_ context.Context, key string, finalized bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.grading {
		if keyIs(s.grading[i].TransactionKey, key) {
			s.grading[i].Finalized = finalized
		}
	}
	return nil
}

func (s *Store) NextNoteNumber(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNoteNumber != nil {
		return 0, s.FailNoteNumber
	}
	return s.next("note_number"), nil
}

func (s *Store) InsertSale(_ context.Context, record models.SalesRecord) (models.SalesRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sales {
		if existing.NoteNumber == record.NoteNumber {
			return models.SalesRecord{}, fmt.Errorf("note number %d: %w", record.NoteNumber, mongodb.ErrDuplicateKey)
		}
		if keyed(record.TransactionKey) && keyIs(existing.TransactionKey, *record.TransactionKey) {
			return models.SalesRecord{}, fmt.Errorf("transaction %s: %w", *record.TransactionKey, mongodb.ErrDuplicateKey)
		}
	}
	record.ID = s.next("sales")
	s.sales = append(s.sales, record)
	return record, nil
}

func (s *Store) SoldKeys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0)
	for _, r := range s.sales {
		if keyed(r.TransactionKey) {
			keys = append(keys, *r.TransactionKey)
		}
	}
	return keys, nil
}

func (s *Store) ListSales(_ context.Context, q mongodb.Query) ([]models.SalesRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.SalesRecord, 0, len(s.sales))
	for _, r := range s.sales {
		if q.Period != nil && (r.Date < q.Period.FromDate() || r.Date >= q.Period.ToDate()) {
			continue
		}
		if q.KeyedOnly && !keyed(r.TransactionKey) {
			continue
		}
		out = append(out, r)
	}
	sortByDate(out, q.Ascending, func(r models.SalesRecord) (string, int64) { return r.Date, r.ID })
	return page(out, q), nil
}

func (s *Store) SaleByID(_ context.Context, id int64) (models.SalesRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.sales {
		if r.ID == id {
			return r, nil
		}
	}
	return models.SalesRecord{}, fmt.Errorf("sale %d: %w", id, models.ErrNotFound)
}

// UpdateRow applies a patch keyed by bson field names, as the MongoDB store does.
func (s *Store) UpdateRow(_ context.Context, table models.Table, id int64, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch table {
	case models.TableIntake:
		return patchByID(s.intake, id, patch, func(r models.IntakeRow) int64 { return r.ID })
	case models.TableGrading:
		return patchByID(s.grading, id, patch, func(r models.GradingRow) int64 { return r.ID })
	case models.TableSales:
		return patchByID(s.sales, id, patch, func(r models.SalesRecord) int64 { return r.ID })
	default:
		return models.InvalidInput("unknown table %q", table)
	}
}

func (s *Store) DeleteRow(_ context.Context, table models.Table, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ok bool
	switch table {
	case models.TableIntake:
		s.intake, ok = deleteByID(s.intake, id, func(r models.IntakeRow) int64 { return r.ID })
	case models.TableGrading:
		s.grading, ok = deleteByID(s.grading, id, func(r models.GradingRow) int64 { return r.ID })
	case models.TableSales:
		s.sales, ok = deleteByID(s.sales, id, func(r models.SalesRecord) int64 { return r.ID })
	default:
		return models.InvalidInput("unknown table %q", table)
	}
	if !ok {
		return fmt.Errorf("%s id %d: %w", table, id, models.ErrNotFound)
	}
	return nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, models.ErrNotFound
}

func (s *Store) UserByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

func (s *Store) CreateUser(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range s.users {
		if u.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, mongodb.ErrDuplicateKey)
		}
	}
	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("user %s: %w", user.ID, mongodb.ErrDuplicateKey)
	}
	s.users[user.ID] = user
	return nil
}

func (s *Store) SaveDailyReport(_ context.Context, report models.DailyReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.Date] = report
	return nil
}

// DailyReport returns a saved report, for tests.
func (s *Store) DailyReport(date string) (models.DailyReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[date]
	return r, ok
}

func sortByDate[T any](items []T, ascending bool, key func(T) (string, int64)) {
	sort.SliceStable(items, func(a, b int) bool {
		da, ia := key(items[a])
		db, ib := key(items[b])
		if ascending {
			return ia < ib
		}
		if da != db {
			return da > db
		}
		return ia > ib
	})
}

// patchByID round-trips the row through bson so patches use the stored field names.
func patchByID[T any](items []T, id int64, patch map[string]any, idOf func(T) int64) error {
	for i := range items {
		if idOf(items[i]) != id {
			continue
		}

		raw, err := bson.Marshal(items[i])
		if err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
		var doc bson.M
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("decode row: %w", err)
		}
		for k, v := range patch {
			doc[k] = v
		}
		raw, err = bson.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode patch: %w", err)
		}

		var updated T
		if err := bson.Unmarshal(raw, &updated); err != nil {
			return fmt.Errorf("apply patch: %w", err)
		}
		items[i] = updated
		return nil
	}
	return fmt.Errorf("id %d: %w", id, models.ErrNotFound)
}

func deleteByID[T any](items []T, id int64, idOf func(T) int64) ([]T, bool) {
	for i := range items {
		if idOf(items[i]) == id {
			return append(items[:i], items[i+1:]...), true
		}
	}
	return items, false
}
