package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/packhouse/internal/domain/models"
	"github.com/mamadbah2/packhouse/internal/repository/mongodb"
)

func ptr(s string) *string { return &s }

func TestInsertSaleEnforcesUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()

	first, err := s.InsertSale(ctx, models.SalesRecord{NoteNumber: 1, TransactionKey: ptr("t1"), Date: "2025-01-02"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)

	_, err = s.InsertSale(ctx, models.SalesRecord{NoteNumber: 2, TransactionKey: ptr("t1")})
	assert.True(t, errors.Is(err, mongodb.ErrDuplicateKey), "one sale per transaction")

	_, err = s.InsertSale(ctx, models.SalesRecord{NoteNumber: 1})
	assert.True(t, errors.Is(err, mongodb.ErrDuplicateKey), "note numbers are unique")

	_, err = s.InsertSale(ctx, models.SalesRecord{NoteNumber: 3})
	require.NoError(t, err)
	_, err = s.InsertSale(ctx, models.SalesRecord{NoteNumber: 4})
	require.NoError(t, err, "manual sales carry no key")

	keys, err := s.SoldKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, keys)
}

func TestNextNoteNumber(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, err := s.NextNoteNumber(ctx)
	require.NoError(t, err)
	b, err := s.NextNoteNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, []int64{a, b})

	s.FailNoteNumber = errors.New("counter offline")
	_, err = s.NextNoteNumber(ctx)
	assert.Error(t, err)
}

func TestListSalesByPeriodAndPage(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i, date := range []string{"2025-02-28", "2025-03-01", "2025-03-15", "2025-04-01"} {
		_, err := s.InsertSale(ctx, models.SalesRecord{NoteNumber: int64(i + 1), Date: date})
		require.NoError(t, err)
	}

	march, err := models.MonthPeriod("2025-03", time.UTC)
	require.NoError(t, err)

	got, err := s.ListSales(ctx, mongodb.Query{Period: &march})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-03-15", got[0].Date, "newest first")

	got, err = s.ListSales(ctx, mongodb.Query{Ascending: true, Offset: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []int64{2, 3}, []int64{got[0].ID, got[1].ID})
}

func TestUpdateRowUsesStoredFieldNames(t *testing.T) {
	ctx := context.Background()
	s := New()

	stored, err := s.InsertSale(ctx, models.SalesRecord{NoteNumber: 1, ClientName: "Ana", City: ptr("Uruapan")})
	require.NoError(t, err)

	require.NoError(t, s.UpdateRow(ctx, models.TableSales, stored.ID, map[string]any{"client_name": "Ana Ruiz", "city": nil}))

	got, err := s.SaleByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Ruiz", got.ClientName)
	assert.Nil(t, got.City)

	err = s.UpdateRow(ctx, models.TableSales, 99, map[string]any{"client_name": "x"})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestDeleteRow(t *testing.T) {
	ctx := context.Background()
	s := New()

	rows, err := s.InsertIntakeRows(ctx, []models.IntakeRow{{ClientName: "Ana", QuantityKg: 5}, {ClientName: "Luis", QuantityKg: 7}})
	require.NoError(t, err)

	require.NoError(t, s.DeleteRow(ctx, models.TableIntake, rows[0].ID))
	err = s.DeleteRow(ctx, models.TableIntake, rows[0].ID)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	names, err := s.ClientNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Luis"}, names)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.CreateUser(ctx, models.User{ID: "u1", Email: "Ana@Empaque.mx"}))
	err := s.CreateUser(ctx, models.User{ID: "u2", Email: "ana@empaque.mx"})
	assert.True(t, errors.Is(err, mongodb.ErrDuplicateKey))

	u, err := s.UserByEmail(ctx, "ana@empaque.mx")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}
