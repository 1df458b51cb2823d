package paymentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"schoolpay/database"
	"schoolpay/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoFeePaymentRepo implements FeePaymentRepository using MongoDB.
type MongoFeePaymentRepo struct {
	coll *mongo.Collection
}

// NewMongoFeePaymentRepo creates a repository over the fee_payments
// collection.
func NewMongoFeePaymentRepo() FeePaymentRepository {
	coll := database.DB().Collection("fee_payments")
	return &MongoFeePaymentRepo{coll: coll}
}

// Create inserts a new payment record and returns its ID.
func (r *MongoFeePaymentRepo) Create(ctx context.Context, payment models.FeePayment) (string, error) {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	if payment.Status == "" {
		payment.Status = models.PaymentStatusVerified
	}

	if _, err := r.coll.InsertOne(ctx, payment); err != nil {
		return "", fmt.Errorf("failed to insert fee payment: %w", err)
	}
	return payment.ID, nil
}

// GetByID returns a payment by its ID, nil when absent.
func (r *MongoFeePaymentRepo) GetByID(ctx context.Context, id string) (*models.FeePayment, error) {
	var payment models.FeePayment
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&payment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fee payment %s: %w", id, err)
	}
	return &payment, nil
}

// MarkCancelled flips status from verified to cancelled. The status guard
// in the filter makes the transition single-shot under concurrency.
func (r *MongoFeePaymentRepo) MarkCancelled(ctx context.Context, id, cancelledBy, reason string, at time.Time) (bool, error) {
	filter := bson.M{"id": id, "status": models.PaymentStatusVerified}
	update := bson.M{"$set": bson.M{
		"status":       models.PaymentStatusCancelled,
		"cancelledAt":  at,
		"cancelledBy":  cancelledBy,
		"cancelReason": reason,
		"updatedAt":    time.Now(),
	}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to cancel fee payment %s: %w", id, err)
	}
	return res.ModifiedCount > 0, nil
}
