package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/domain/models"
)

const (
	intakeCollection   = "recepciones"
	gradingCollection  = "clasificacion"
	salesCollection    = "ventas"
	countersCollection = "counters"
	usersCollection    = "profiles"
	reportsCollection  = "daily_reports"

	noteNumberCounter = "note_number"
)

// ErrDuplicateKey is returned when an insert violates a unique index.
var ErrDuplicateKey = errors.New("duplicate key")

// Query narrows a ledger listing. The zero value lists everything newest first.
type Query struct {
	Period    *models.Period
	Offset    int64
	Limit     int64
	Ascending bool // by id, for sequential paging
	KeyedOnly bool
}

// IntakeStore persists intake rows.
type IntakeStore interface {
	InsertIntakeRows(ctx context.Context, rows []models.IntakeRow) ([]models.IntakeRow, error)
	ListIntakeRows(ctx context.Context, q Query) ([]models.IntakeRow, error)
	IntakeRowsByKey(ctx context.Context, key string) ([]models.IntakeRow, error)
	ClientNames(ctx context.Context) ([]string, error)
}

// GradingStore persists grading rows.
type GradingStore interface {
	InsertGradingRows(ctx context.Context, rows []models.GradingRow) ([]models.GradingRow, error)
	GradingExists(ctx context.Context, key string) (bool, error)
	GradedKeys(ctx context.Context) ([]string, error)
	ListGradingRows(ctx context.Context, q Query) ([]models.GradingRow, error)
	PendingGradingRows(ctx context.Context) ([]models.GradingRow, error)
	SetFinalized(ctx context.Context, key string, finalized bool) error
}

// SalesStore persists sales notes and issues note numbers.
type SalesStore interface {
	NextNoteNumber(ctx context.Context) (int64, error)
	InsertSale(ctx context.Context, record models.SalesRecord) (models.SalesRecord, error)
	SoldKeys(ctx context.Context) ([]string, error)
	ListSales(ctx context.Context, q Query) ([]models.SalesRecord, error)
	SaleByID(ctx context.Context, id int64) (models.SalesRecord, error)
}

// RowStore edits and deletes single rows of any ledger.
type RowStore interface {
	UpdateRow(ctx context.Context, table models.Table, id int64, patch map[string]any) error
	DeleteRow(ctx context.Context, table models.Table, id int64) error
}

// UserStore persists back-office accounts.
type UserStore interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id string) (models.User, error)
	CreateUser(ctx context.Context, user models.User) error
}

// ReportStore persists daily summaries.
type ReportStore interface {
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
}

// MongoDBRepository implements every store interface on one MongoDB database.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

var (
	_ IntakeStore  = (*MongoDBRepository)(nil)
	_ GradingStore = (*MongoDBRepository)(nil)
	_ SalesStore   = (*MongoDBRepository)(nil)
	_ RowStore     = (*MongoDBRepository)(nil)
	_ UserStore    = (*MongoDBRepository)(nil)
	_ ReportStore  = (*MongoDBRepository)(nil)
)

// NewMongoDBRepository connects, pings and ensures the indexes the services rely on.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}

	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	return repo, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	unique := func() *options.IndexOptions { return options.Index().SetUnique(true) }

	specs := map[string][]mongo.IndexModel{
		intakeCollection: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique()},
			{Keys: bson.D{{Key: "transaction_key", Value: 1}}},
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		},
		gradingCollection: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique()},
			{Keys: bson.D{{Key: "transaction_key", Value: 1}}},
			{Keys: bson.D{{Key: "date", Value: -1}}},
		},
		salesCollection: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique()},
			{Keys: bson.D{{Key: "note_number", Value: 1}}, Options: unique()},
			// one sale per intake transaction; manual sales carry no key
			{
				Keys: bson.D{{Key: "transaction_key", Value: 1}},
				Options: unique().SetPartialFilterExpression(bson.M{
					"transaction_key": bson.M{"$type": "string"},
				}),
			},
			{Keys: bson.D{{Key: "date", Value: -1}}},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique()},
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique()},
		},
		reportsCollection: {
			{Keys: bson.D{{Key: "date", Value: 1}}, Options: unique()},
		},
	}

	for coll, indexes := range specs {
		if _, err := r.db.Collection(coll).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}

	r.logger.Debug("indexes ensured")
	return nil
}

// nextSequence atomically reserves n consecutive values of a named counter
// and returns the last one.
func (r *MongoDBRepository) nextSequence(ctx context.Context, name string, n int64) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}

	err := r.db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": n}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, models.Remote("increment counter "+name, err)
	}

	return doc.Seq, nil
}

// reserveIDs returns n fresh row ids for a collection.
func (r *MongoDBRepository) reserveIDs(ctx context.Context, coll string, n int) ([]int64, error) {
	last, err := r.nextSequence(ctx, coll+"_id", int64(n))
	if err != nil {
		return nil, err
	}

	ids := make([]int64, n)
	for i := range ids {
		ids[i] = last - int64(n) + 1 + int64(i)
	}
	return ids, nil
}

func collectionFor(table models.Table) (string, error) {
	switch table {
	case models.TableIntake:
		return intakeCollection, nil
	case models.TableGrading:
		return gradingCollection, nil
	case models.TableSales:
		return salesCollection, nil
	default:
		return "", models.InvalidInput("unknown table %q", table)
	}
}

// UpdateRow applies a $set patch to the row with the given id.
func (r *MongoDBRepository) UpdateRow(ctx context.Context, table models.Table, id int64, patch map[string]any) error {
	coll, err := collectionFor(table)
	if err != nil {
		return err
	}

	res, err := r.db.Collection(coll).UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": patch})
	if err != nil {
		return models.Remote("update "+coll, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s id %d: %w", table, id, models.ErrNotFound)
	}
	return nil
}

// DeleteRow removes the row with the given id.
func (r *MongoDBRepository) DeleteRow(ctx context.Context, table models.Table, id int64) error {
	coll, err := collectionFor(table)
	if err != nil {
		return err
	}

	res, err := r.db.Collection(coll).DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return models.Remote("delete "+coll, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s id %d: %w", table, id, models.ErrNotFound)
	}
	return nil
}

// findOptions translates a Query into sort/skip/limit options.
func findOptions(q Query, newestField string) *options.FindOptions {
	opts := options.Find()
	if q.Ascending {
		opts.SetSort(bson.D{{Key: "id", Value: 1}})
	} else {
		opts.SetSort(bson.D{{Key: newestField, Value: -1}, {Key: "id", Value: -1}})
	}
	if q.Offset > 0 {
		opts.SetSkip(q.Offset)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	return opts
}

// keyedFilter matches rows that carry a non-empty transaction key.
func keyedFilter() bson.M {
	return bson.M{"$type": "string", "$ne": ""}
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor, op string) ([]T, error) {
	defer func() { _ = cur.Close(ctx) }()

	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, models.Remote(op, err)
	}
	return out, nil
}
