package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/domain/models"
)

// InsertGradingRows assigns ids and stores the rows in a single batch.
func (r *MongoDBRepository) InsertGradingRows(ctx context.Context, rows []models.GradingRow) ([]models.GradingRow, error) {
	if len(rows) == 0 {
		return rows, nil
	}

	ids, err := r.reserveIDs(ctx, gradingCollection, len(rows))
	if err != nil {
		return nil, err
	}

	docs := make([]interface{}, len(rows))
	for i := range rows {
		rows[i].ID = ids[i]
		docs[i] = rows[i]
	}

	if _, err := r.db.Collection(gradingCollection).InsertMany(ctx, docs); err != nil {
		return nil, models.Remote("insert grading rows", err)
	}

	r.logger.Debug("grading rows inserted", zap.Int("rows", len(rows)))
	return rows, nil
}

// GradingExists reports whether any grading row references the transaction.
func (r *MongoDBRepository) GradingExists(ctx context.Context, key string) (bool, error) {
	err := r.db.Collection(gradingCollection).
		FindOne(ctx, bson.M{"transaction_key": key}, options.FindOne().SetProjection(bson.M{"id": 1})).
		Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, models.Remote("find grading rows", err)
	}
	return true, nil
}

// GradedKeys lists every transaction key that already has grading rows.
func (r *MongoDBRepository) GradedKeys(ctx context.Context) ([]string, error) {
	return r.distinctKeys(ctx, gradingCollection, bson.M{"transaction_key": keyedFilter()})
}

// ListGradingRows lists grading rows, filtering the period on the grading date.
func (r *MongoDBRepository) ListGradingRows(ctx context.Context, q Query) ([]models.GradingRow, error) {
	filter := bson.M{}
	if q.Period != nil {
		filter["date"] = bson.M{"$gte": q.Period.FromDate(), "$lt": q.Period.ToDate()}
	}
	if q.KeyedOnly {
		filter["transaction_key"] = keyedFilter()
	}

	cur, err := r.db.Collection(gradingCollection).Find(ctx, filter, findOptions(q, "date"))
	if err != nil {
		return nil, models.Remote("find grading rows", err)
	}
	return decodeAll[models.GradingRow](ctx, cur, "decode grading rows")
}

// PendingGradingRows lists keyed grading rows not yet finalized by a sale.
func (r *MongoDBRepository) PendingGradingRows(ctx context.Context) ([]models.GradingRow, error) {
	filter := bson.M{"finalized": false, "transaction_key": keyedFilter()}
	cur, err := r.db.Collection(gradingCollection).Find(ctx, filter, findOptions(Query{}, "date"))
	if err != nil {
		return nil, models.Remote("find pending grading rows", err)
	}
	return decodeAll[models.GradingRow](ctx, cur, "decode pending grading rows")
}

// SetFinalized flags or unflags every grading row of a transaction as sold.
func (r *MongoDBRepository) SetFinalized(ctx context.Context, key string, finalized bool) error {
	_, err := r.db.Collection(gradingCollection).UpdateMany(ctx,
		bson.M{"transaction_key": key},
		bson.M{"$set": bson.M{"finalized": finalized}})
	if err != nil {
		return models.Remote("set finalized on grading rows", err)
	}
	return nil
}

func (r *MongoDBRepository) distinctKeys(ctx context.Context, coll string, filter bson.M) ([]string, error) {
	raw, err := r.db.Collection(coll).Distinct(ctx, "transaction_key", filter)
	if err != nil {
		return nil, models.Remote("distinct keys of "+coll, err)
	}

	keys := make([]string, 0, len(raw))
	for _, v := range raw {
		if k, ok := v.(string); ok && k != "" {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
