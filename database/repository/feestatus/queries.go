package feestatusRepo

import (
	"context"
	"fmt"

	"schoolpay/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListByClass returns the full ledger roster for a class in a term and
// session, sorted by student name.
func (r *MongoStudentFeeStatusRepo) ListByClass(ctx context.Context, classID, term, session string) ([]models.StudentFeeStatus, error) {
	filter := bson.M{
		"classId": classID,
		"term":    term,
		"session": session,
	}
	opts := options.Find().SetSort(bson.D{{Key: "studentName", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list class fee status: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []models.StudentFeeStatus
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding class fee status: %w", err)
	}
	return rows, nil
}

// ListDefaulters returns every row whose status is unpaid, partial or
// overdue for the term and session, optionally narrowed to one class.
// Largest balance first.
func (r *MongoStudentFeeStatusRepo) ListDefaulters(ctx context.Context, term, session, classID string) ([]models.StudentFeeStatus, error) {
	filter := bson.M{
		"term":    term,
		"session": session,
		"status": bson.M{"$in": bson.A{
			string(models.FeeStatusUnpaid),
			string(models.FeeStatusPartial),
			string(models.FeeStatusOverdue),
		}},
	}
	if classID != "" {
		filter["classId"] = classID
	}
	opts := options.Find().SetSort(bson.D{{Key: "balance", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list fee defaulters: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []models.StudentFeeStatus
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding fee defaulters: %w", err)
	}
	return rows, nil
}
