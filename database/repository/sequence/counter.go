package sequenceRepo

import (
	"context"
	"errors"
	"fmt"

	"schoolpay/database"
	"schoolpay/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoReceiptSequenceRepo implements ReceiptSequenceRepository using MongoDB.
type MongoReceiptSequenceRepo struct {
	coll *mongo.Collection
}

// NewMongoReceiptSequenceRepo creates a repository over the system_config
// collection.
func NewMongoReceiptSequenceRepo() ReceiptSequenceRepository {
	coll := database.DB().Collection("system_config")
	return &MongoReceiptSequenceRepo{coll: coll}
}

// NewMongoReceiptSequenceRepoWithCollection is used when the caller already
// holds a collection handle, e.g. inside a session.
func NewMongoReceiptSequenceRepoWithCollection(coll *mongo.Collection) ReceiptSequenceRepository {
	return &MongoReceiptSequenceRepo{coll: coll}
}

// Next performs the read-increment-write as one server-side update so no
// two callers can observe the same pre-increment value. A pipeline update
// resets the counter to 1 whenever the stored year differs from the
// requested year, covering both the yearly rollover and the very first
// issuance (upsert).
func (r *MongoReceiptSequenceRepo) Next(ctx context.Context, year string) (int64, error) {
	filter := bson.M{"name": CounterName}
	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.M{
			"name": CounterName,
			"lastNumber": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$year", year}},
				bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$lastNumber", 0}}, 1}},
				1,
			}},
			"year":      year,
			"updatedAt": "$$NOW",
		}}},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var seq models.ReceiptSequence
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&seq); err != nil {
		return 0, fmt.Errorf("failed to advance receipt counter: %w", err)
	}
	return seq.LastNumber, nil
}

// Current returns the last number issued for the year without advancing.
func (r *MongoReceiptSequenceRepo) Current(ctx context.Context, year string) (int64, error) {
	seq, err := r.Get(ctx)
	if err != nil {
		return 0, err
	}
	if seq == nil || seq.Year != year {
		return 0, nil
	}
	return seq.LastNumber, nil
}

// Get fetches the raw counter document.
func (r *MongoReceiptSequenceRepo) Get(ctx context.Context) (*models.ReceiptSequence, error) {
	var seq models.ReceiptSequence
	err := r.coll.FindOne(ctx, bson.M{"name": CounterName}).Decode(&seq)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch receipt counter: %w", err)
	}
	return &seq, nil
}
