package sequenceRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique name index on system_config. The unique
// index is what turns two racing first-time upserts into one winner and
// one duplicate-key error the caller retries.
func (r *MongoReceiptSequenceRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_name"),
	})
	if err != nil {
		return fmt.Errorf("failed to create system_config indexes: %w", err)
	}
	return nil
}
