package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/domain/models"
)

// NextNoteNumber atomically issues the next sales note number.
func (r *MongoDBRepository) NextNoteNumber(ctx context.Context) (int64, error) {
	return r.nextSequence(ctx, noteNumberCounter, 1)
}

// InsertSale stores one sales note. A second note for the same transaction
// key fails with ErrDuplicateKey.
func (r *MongoDBRepository) InsertSale(ctx context.Context, record models.SalesRecord) (models.SalesRecord, error) {
	ids, err := r.reserveIDs(ctx, salesCollection, 1)
	if err != nil {
		return models.SalesRecord{}, err
	}
	record.ID = ids[0]

	if _, err := r.db.Collection(salesCollection).InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.SalesRecord{}, fmt.Errorf("insert sale: %w", ErrDuplicateKey)
		}
		return models.SalesRecord{}, models.Remote("insert sale", err)
	}

	r.logger.Debug("sale inserted", zap.Int64("id", record.ID), zap.Int64("note_number", record.NoteNumber))
	return record, nil
}

// SoldKeys lists every transaction key already referenced by a sale.
func (r *MongoDBRepository) SoldKeys(ctx context.Context) ([]string, error) {
	return r.distinctKeys(ctx, salesCollection, bson.M{"transaction_key": keyedFilter()})
}

// ListSales lists sales notes, filtering the period on the note date.
func (r *MongoDBRepository) ListSales(ctx context.Context, q Query) ([]models.SalesRecord, error) {
	filter := bson.M{}
	if q.Period != nil {
		filter["date"] = bson.M{"$gte": q.Period.FromDate(), "$lt": q.Period.ToDate()}
	}
	if q.KeyedOnly {
		filter["transaction_key"] = keyedFilter()
	}

	cur, err := r.db.Collection(salesCollection).Find(ctx, filter, findOptions(q, "date"))
	if err != nil {
		return nil, models.Remote("find sales", err)
	}
	return decodeAll[models.SalesRecord](ctx, cur, "decode sales")
}

// SaleByID loads one sales note.
func (r *MongoDBRepository) SaleByID(ctx context.Context, id int64) (models.SalesRecord, error) {
	var record models.SalesRecord
	err := r.db.Collection(salesCollection).FindOne(ctx, bson.M{"id": id}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.SalesRecord{}, fmt.Errorf("sale %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.SalesRecord{}, models.Remote("find sale", err)
	}
	return record, nil
}
