package feestatusRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"schoolpay/database"
	"schoolpay/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ApplyPayment credits the ledger row in a single server-side update: the
// amount is added to whatever amountPaid is at execution time, so two
// concurrent payments to the same student both land (no lost update). The
// filter excludes rows that already carry the payment ID, which makes a
// replayed apply a clean no-op.
func (r *MongoStudentFeeStatusRepo) ApplyPayment(ctx context.Context, key, paymentID string, amount decimal.Decimal, paidAt time.Time) (*models.StudentFeeStatus, error) {
	amt := database.ToDecimal128(amount)

	filter := bson.M{"id": key, "payments": bson.M{"$ne": paymentID}}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.M{
			"amountPaid":        bson.M{"$add": bson.A{"$amountPaid", amt}},
			"payments":          bson.M{"$concatArrays": bson.A{"$payments", bson.A{paymentID}}},
			"lastPaymentDate":   paidAt,
			"lastPaymentAmount": amt,
			"version":           bson.M{"$add": bson.A{"$version", 1}},
			"updatedAt":         "$$NOW",
		}}},
	}
	pipeline = append(pipeline, deriveStages()...)

	return r.findOneAndReconcile(ctx, filter, pipeline, key)
}

// ReversePayment debits the ledger row for a cancelled payment. The filter
// requires the payment ID to still be on the row, so a second reversal of
// the same payment matches nothing and returns nil, nil. amountPaid is
// clamped at zero.
func (r *MongoStudentFeeStatusRepo) ReversePayment(ctx context.Context, key, paymentID string, amount decimal.Decimal) (*models.StudentFeeStatus, error) {
	amt := database.ToDecimal128(amount)

	filter := bson.M{"id": key, "payments": paymentID}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.M{
			"amountPaid": bson.M{"$max": bson.A{
				bson.M{"$subtract": bson.A{"$amountPaid", amt}},
				0,
			}},
			"payments": bson.M{"$filter": bson.M{
				"input": "$payments",
				"as":    "p",
				"cond":  bson.M{"$ne": bson.A{"$$p", paymentID}},
			}},
			"version":   bson.M{"$add": bson.A{"$version", 1}},
			"updatedAt": "$$NOW",
		}}},
	}
	pipeline = append(pipeline, deriveStages()...)

	return r.findOneAndReconcile(ctx, filter, pipeline, key)
}

func (r *MongoStudentFeeStatusRepo) findOneAndReconcile(ctx context.Context, filter bson.M, pipeline mongo.Pipeline, key string) (*models.StudentFeeStatus, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var status models.StudentFeeStatus
	err := r.coll.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&status)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile fee status %s: %w", key, err)
	}
	return &status, nil
}
