package paymentRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the fee_payments collection.
func (r *MongoFeePaymentRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Receipt numbers are globally unique by construction; the index
		// backs lookups and enforces it.
		{
			Keys:    bson.D{{Key: "receiptNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_receipt"),
		},
		// Per-student history queries with date sort.
		{
			Keys:    bson.D{{Key: "studentId", Value: 1}, {Key: "term", Value: 1}, {Key: "session", Value: 1}, {Key: "paymentDate", Value: -1}},
			Options: options.Index().SetName("student_term_session_date_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create fee payment indexes: %w", err)
	}
	return nil
}
