package feestatusRepo

import (
	"context"
	"errors"
	"fmt"

	"schoolpay/database"
	"schoolpay/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var decimalZero = decimal.Zero

// MongoStudentFeeStatusRepo implements StudentFeeStatusRepository using MongoDB.
type MongoStudentFeeStatusRepo struct {
	coll *mongo.Collection
}

// NewMongoStudentFeeStatusRepo creates a repository over the
// student_fee_status collection.
func NewMongoStudentFeeStatusRepo() StudentFeeStatusRepository {
	coll := database.DB().Collection("student_fee_status")
	return &MongoStudentFeeStatusRepo{coll: coll}
}

// deriveStages rebuilds balance, status, isOverdue and daysOverdue from
// totalFees, amountPaid and dueDate. Every write to the collection ends
// with these stages, which is what keeps balance a derived value instead
// of an independently mutated one.
func deriveStages() []bson.D {
	isOverdue := bson.M{"$and": bson.A{
		bson.M{"$gt": bson.A{"$$NOW", "$dueDate"}},
		bson.M{"$gt": bson.A{"$balance", 0}},
	}}
	return []bson.D{
		{{Key: "$set", Value: bson.M{
			"balance": bson.M{"$subtract": bson.A{"$totalFees", "$amountPaid"}},
		}}},
		{{Key: "$set", Value: bson.M{
			"status": bson.M{"$switch": bson.M{
				"branches": bson.A{
					bson.M{"case": bson.M{"$lte": bson.A{"$balance", 0}}, "then": string(models.FeeStatusPaid)},
					bson.M{"case": bson.M{"$gt": bson.A{"$amountPaid", 0}}, "then": string(models.FeeStatusPartial)},
				},
				"default": string(models.FeeStatusUnpaid),
			}},
			"isOverdue": isOverdue,
			"daysOverdue": bson.M{"$cond": bson.A{
				isOverdue,
				bson.M{"$dateDiff": bson.M{"startDate": "$dueDate", "endDate": "$$NOW", "unit": "day"}},
				0,
			}},
		}}},
		{{Key: "$set", Value: bson.M{
			"status": bson.M{"$cond": bson.A{"$isOverdue", string(models.FeeStatusOverdue), "$status"}},
		}}},
	}
}

// InitializeBatch applies the whole class roster as one unordered bulk of
// idempotent pipeline upserts.
func (r *MongoStudentFeeStatusRepo) InitializeBatch(ctx context.Context, rows []InitRow) error {
	if len(rows) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(rows))
	for _, row := range rows {
		pipeline := mongo.Pipeline{
			bson.D{{Key: "$set", Value: bson.M{
				"id":           row.Key,
				"studentId":    row.StudentID,
				"studentName":  row.StudentName,
				"classId":      row.ClassID,
				"term":         row.Term,
				"session":      row.Session,
				"academicYear": row.AcademicYear,
				"totalFees":    database.ToDecimal128(row.TotalFees),
				"dueDate":      row.DueDate,
				"amountPaid":   bson.M{"$ifNull": bson.A{"$amountPaid", database.ToDecimal128(decimalZero)}},
				"payments":     bson.M{"$ifNull": bson.A{"$payments", bson.A{}}},
				"version":      bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$version", 0}}, 1}},
				"createdAt":    bson.M{"$ifNull": bson.A{"$createdAt", "$$NOW"}},
				"updatedAt":    "$$NOW",
			}}},
		}
		pipeline = append(pipeline, deriveStages()...)

		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"id": row.Key}).
			SetUpdate(pipeline).
			SetUpsert(true))
	}

	opts := options.BulkWrite().SetOrdered(false)
	if _, err := r.coll.BulkWrite(ctx, writes, opts); err != nil {
		return fmt.Errorf("failed to initialize fee status batch: %w", err)
	}
	return nil
}

// GetByKey returns the ledger row for the key, nil when absent.
func (r *MongoStudentFeeStatusRepo) GetByKey(ctx context.Context, key string) (*models.StudentFeeStatus, error) {
	var status models.StudentFeeStatus
	err := r.coll.FindOne(ctx, bson.M{"id": key}).Decode(&status)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fee status %s: %w", key, err)
	}
	return &status, nil
}
