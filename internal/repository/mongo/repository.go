// Package mongo persists per-content fund snapshots so earned and spent
// satoshi totals survive client restarts.
package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"seedrush/internal/domain"
)

type LedgerRepository struct {
	collection *mongo.Collection
}

type fundDoc struct {
	ContentID      string `bson:"_id"`
	Name           string `bson:"name"`
	SatoshisEarned uint64 `bson:"satoshisEarned"`
	SatoshisSpent  uint64 `bson:"satoshisSpent"`
	RecordedAt     int64  `bson:"recordedAt"`
}

func NewLedgerRepository(client *mongo.Client, dbName, collectionName string) *LedgerRepository {
	return &LedgerRepository{collection: client.Database(dbName).Collection(collectionName)}
}

func Connect(ctx context.Context, uri string, extra ...*options.ClientOptions) (*mongo.Client, error) {
	opts := append([]*options.ClientOptions{options.Client().ApplyURI(uri)}, extra...)
	client, err := mongo.Connect(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (r *LedgerRepository) EnsureIndexes(ctx context.Context) error {
	if r == nil || r.collection == nil {
		return nil
	}
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "recordedAt", Value: -1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, models)
	return err
}

// RecordSnapshot upserts the latest fund totals for a content id. Earned
// and spent counters only grow engine-side, so last-write-wins is safe.
func (r *LedgerRepository) RecordSnapshot(ctx context.Context, s domain.FundSnapshot) error {
	doc := toDoc(s)
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": doc.ContentID},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	return err
}

// List returns all recorded snapshots, most recently touched first.
func (r *LedgerRepository) List(ctx context.Context) ([]domain.FundSnapshot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "recordedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []fundDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	snapshots := make([]domain.FundSnapshot, 0, len(docs))
	for _, doc := range docs {
		snapshots = append(snapshots, fromDoc(doc))
	}
	return snapshots, nil
}

func toDoc(s domain.FundSnapshot) fundDoc {
	return fundDoc{
		ContentID:      string(s.ContentID),
		Name:           s.Name,
		SatoshisEarned: s.SatoshisEarned,
		SatoshisSpent:  s.SatoshisSpent,
		RecordedAt:     s.RecordedAt.Unix(),
	}
}

func fromDoc(doc fundDoc) domain.FundSnapshot {
	return domain.FundSnapshot{
		ContentID:      domain.ContentID(doc.ContentID),
		Name:           doc.Name,
		SatoshisEarned: doc.SatoshisEarned,
		SatoshisSpent:  doc.SatoshisSpent,
		RecordedAt:     time.Unix(doc.RecordedAt, 0).UTC(),
	}
}
