package feestructureRepo

import (
	"context"

	"schoolpay/models"
)

// FeeStructureRepository persists class fee structures. One document per
// (class, term, session); re-defining a structure overwrites the previous
// snapshot (last writer wins, an administrative action).
type FeeStructureRepository interface {
	Upsert(ctx context.Context, fs models.FeeStructure) error
	GetByKey(ctx context.Context, key string) (*models.FeeStructure, error)
	ListBySession(ctx context.Context, term, session string) ([]models.FeeStructure, error)
	SetActive(ctx context.Context, key string, active bool) error
	EnsureIndexes() error
}
