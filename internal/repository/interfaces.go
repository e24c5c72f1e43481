package repository

import (
	"context"
	"errors"

	"github.com/warmloop/warmloop/internal/domain"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// LeadRepository persists leads. Listing orders by creation time descending.
type LeadRepository interface {
	Create(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.Lead, error)
	TopByScore(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Lead, error)
	InsertBatch(ctx context.Context, leads []domain.Lead) ([]uuid.UUID, error)
	Update(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteMany(ctx context.Context, ids []uuid.UUID) error
}

// DatasetRepository stores parsed datasets as opaque blobs. Datasets are
// replaced wholesale or deleted, never partially mutated.
type DatasetRepository interface {
	Create(ctx context.Context, ds domain.Dataset) error
	GetByID(ctx context.Context, id string) (domain.Dataset, error)
	List(ctx context.Context) ([]domain.Dataset, error)
	Delete(ctx context.Context, id string) error
}

// ImportLogRepository records row and batch level import failures.
type ImportLogRepository interface {
	Record(ctx context.Context, entry domain.ImportLogEntry) error
	List(ctx context.Context, userID uuid.UUID, datasetID string, limit, offset int) ([]domain.ImportLogEntry, error)
}
