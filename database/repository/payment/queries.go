package paymentRepo

import (
	"context"
	"fmt"

	"schoolpay/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListByStudent returns a student's payments, newest first. Term and
// session narrow the result when non-empty.
func (r *MongoFeePaymentRepo) ListByStudent(ctx context.Context, studentID, term, session string) ([]models.FeePayment, error) {
	filter := bson.M{"studentId": studentID}
	if term != "" {
		filter["term"] = term
	}
	if session != "" {
		filter["session"] = session
	}
	opts := options.Find().SetSort(bson.D{{Key: "paymentDate", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for student %s: %w", studentID, err)
	}
	defer cursor.Close(ctx)

	var payments []models.FeePayment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("error decoding payments: %w", err)
	}
	return payments, nil
}
