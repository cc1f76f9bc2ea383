package mongodb

import (
	"context"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/domain/models"
)

// InsertIntakeRows assigns ids and stores the rows in a single batch.
func (r *MongoDBRepository) InsertIntakeRows(ctx context.Context, rows []models.IntakeRow) ([]models.IntakeRow, error) {
	if len(rows) == 0 {
		return rows, nil
	}

	ids, err := r.reserveIDs(ctx, intakeCollection, len(rows))
	if err != nil {
		return nil, err
	}

	docs := make([]interface{}, len(rows))
	for i := range rows {
		rows[i].ID = ids[i]
		docs[i] = rows[i]
	}

	if _, err := r.db.Collection(intakeCollection).InsertMany(ctx, docs); err != nil {
		return nil, models.Remote("insert intake rows", err)
	}

	r.logger.Debug("intake rows inserted", zap.Int("rows", len(rows)))
	return rows, nil
}

// ListIntakeRows lists intake rows, filtering the period on the row timestamp.
func (r *MongoDBRepository) ListIntakeRows(ctx context.Context, q Query) ([]models.IntakeRow, error) {
	filter := bson.M{}
	if q.Period != nil {
		filter["timestamp"] = bson.M{"$gte": q.Period.From, "$lt": q.Period.To}
	}
	if q.KeyedOnly {
		filter["transaction_key"] = keyedFilter()
	}

	cur, err := r.db.Collection(intakeCollection).Find(ctx, filter, findOptions(q, "timestamp"))
	if err != nil {
		return nil, models.Remote("find intake rows", err)
	}
	return decodeAll[models.IntakeRow](ctx, cur, "decode intake rows")
}

// IntakeRowsByKey returns every row of one intake transaction.
func (r *MongoDBRepository) IntakeRowsByKey(ctx context.Context, key string) ([]models.IntakeRow, error) {
	opts := options.Find().SetSort(bson.D{{Key: "id", Value: 1}})
	cur, err := r.db.Collection(intakeCollection).Find(ctx, bson.M{"transaction_key": key}, opts)
	if err != nil {
		return nil, models.Remote("find intake transaction", err)
	}
	return decodeAll[models.IntakeRow](ctx, cur, "decode intake transaction")
}

// ClientNames returns the distinct, trimmed, non-empty client names, sorted.
func (r *MongoDBRepository) ClientNames(ctx context.Context) ([]string, error) {
	raw, err := r.db.Collection(intakeCollection).Distinct(ctx, "client_name", bson.M{"client_name": bson.M{"$ne": ""}})
	if err != nil {
		return nil, models.Remote("distinct client names", err)
	}

	seen := make(map[string]bool, len(raw))
	names := make([]string, 0, len(raw))
	for _, v := range raw {
		name, ok := v.(string)
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}
