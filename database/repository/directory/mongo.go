package directoryRepo

import (
	"context"
	"errors"
	"fmt"

	"schoolpay/database"
	"schoolpay/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDirectoryRepo reads the students and users collections owned by the
// wider application. This repository never writes to them.
type MongoDirectoryRepo struct {
	students *mongo.Collection
	users    *mongo.Collection
}

// NewMongoDirectoryRepo creates a read-only view over the student and user
// directories.
func NewMongoDirectoryRepo() *MongoDirectoryRepo {
	db := database.DB()
	return &MongoDirectoryRepo{
		students: db.Collection("students"),
		users:    db.Collection("users"),
	}
}

// ActiveStudentsByClass returns the active roster for a class.
func (r *MongoDirectoryRepo) ActiveStudentsByClass(ctx context.Context, classID string) ([]models.StudentRecord, error) {
	cursor, err := r.students.Find(ctx, bson.M{"classId": classID, "isActive": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list students for class %s: %w", classID, err)
	}
	defer cursor.Close(ctx)

	var students []models.StudentRecord
	if err := cursor.All(ctx, &students); err != nil {
		return nil, fmt.Errorf("error decoding students: %w", err)
	}
	return students, nil
}

// GetStudent returns one student record, nil when absent.
func (r *MongoDirectoryRepo) GetStudent(ctx context.Context, studentID string) (*models.StudentRecord, error) {
	var student models.StudentRecord
	err := r.students.FindOne(ctx, bson.M{"id": studentID}).Decode(&student)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch student %s: %w", studentID, err)
	}
	return &student, nil
}

// GetGuardian returns guardian contact details, nil when absent.
func (r *MongoDirectoryRepo) GetGuardian(ctx context.Context, parentID string) (*models.GuardianRecord, error) {
	var guardian models.GuardianRecord
	err := r.users.FindOne(ctx, bson.M{"id": parentID}).Decode(&guardian)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guardian %s: %w", parentID, err)
	}
	return &guardian, nil
}
