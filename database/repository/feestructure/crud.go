package feestructureRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"schoolpay/database"
	"schoolpay/models"
	"schoolpay/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoFeeStructureRepo implements FeeStructureRepository using MongoDB.
type MongoFeeStructureRepo struct {
	coll *mongo.Collection
}

// NewMongoFeeStructureRepo creates a repository over the fee_structures
// collection.
func NewMongoFeeStructureRepo() FeeStructureRepository {
	coll := database.DB().Collection("fee_structures")
	return &MongoFeeStructureRepo{coll: coll}
}

// Upsert writes the structure under its composite key, replacing any
// previous snapshot for the same class, term and session.
func (r *MongoFeeStructureRepo) Upsert(ctx context.Context, fs models.FeeStructure) error {
	if fs.ID == "" {
		fs.ID = utils.FeeStructureKey(fs.ClassID, fs.Term, fs.Session)
	}
	now := time.Now()
	fs.UpdatedAt = now
	if fs.CreatedAt.IsZero() {
		fs.CreatedAt = now
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, bson.M{"id": fs.ID}, fs, opts); err != nil {
		return fmt.Errorf("failed to upsert fee structure %s: %w", fs.ID, err)
	}
	return nil
}

// GetByKey returns the structure for the key, nil when absent.
func (r *MongoFeeStructureRepo) GetByKey(ctx context.Context, key string) (*models.FeeStructure, error) {
	var fs models.FeeStructure
	err := r.coll.FindOne(ctx, bson.M{"id": key}).Decode(&fs)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fee structure %s: %w", key, err)
	}
	return &fs, nil
}

// ListBySession returns all class structures defined for a term and session.
func (r *MongoFeeStructureRepo) ListBySession(ctx context.Context, term, session string) ([]models.FeeStructure, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"term": term, "session": session})
	if err != nil {
		return nil, fmt.Errorf("failed to list fee structures: %w", err)
	}
	defer cursor.Close(ctx)

	var structures []models.FeeStructure
	if err := cursor.All(ctx, &structures); err != nil {
		return nil, fmt.Errorf("error decoding fee structures: %w", err)
	}
	return structures, nil
}

// SetActive flips the isActive flag, used to mark a structure unusable
// when its ledger initialization could not complete.
func (r *MongoFeeStructureRepo) SetActive(ctx context.Context, key string, active bool) error {
	update := bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now()}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": key}, update)
	if err != nil {
		return fmt.Errorf("failed to update fee structure %s: %w", key, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("fee structure %s not found", key)
	}
	return nil
}
