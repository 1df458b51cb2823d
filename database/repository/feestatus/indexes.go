package feestatusRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the student_fee_status
// collection.
func (r *MongoStudentFeeStatusRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Roster queries per class and term.
		{
			Keys:    bson.D{{Key: "classId", Value: 1}, {Key: "term", Value: 1}, {Key: "session", Value: 1}},
			Options: options.Index().SetName("class_term_session_idx"),
		},
		// Defaulter scans filter on term, session and status.
		{
			Keys:    bson.D{{Key: "term", Value: 1}, {Key: "session", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("term_session_status_idx"),
		},
		{
			Keys:    bson.D{{Key: "studentId", Value: 1}},
			Options: options.Index().SetName("student_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create fee status indexes: %w", err)
	}
	return nil
}
