package directoryRepo

import (
	"context"

	"schoolpay/models"
)

// StudentDirectory is the read-only slice of the student roster this
// subsystem consumes: active students per class and single lookups for
// denormalizing display fields.
type StudentDirectory interface {
	ActiveStudentsByClass(ctx context.Context, classID string) ([]models.StudentRecord, error)
	GetStudent(ctx context.Context, studentID string) (*models.StudentRecord, error)
}

// GuardianDirectory resolves guardian display details from the user
// directory.
type GuardianDirectory interface {
	GetGuardian(ctx context.Context, parentID string) (*models.GuardianRecord, error)
}
