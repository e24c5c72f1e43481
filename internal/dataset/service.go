package dataset

import (
	"context"
	"log"

	"github.com/warmloop/warmloop/internal/auth"
	"github.com/warmloop/warmloop/internal/domain"
	"github.com/warmloop/warmloop/internal/repository"
)

// Service parses uploaded files into datasets and manages their lifecycle.
type Service struct {
	repo repository.DatasetRepository
}

// NewService creates a new dataset service.
func NewService(repo repository.DatasetRepository) *Service {
	return &Service{repo: repo}
}

// Import parses the uploaded file and persists the resulting dataset.
// Requires an authenticated user before any write happens.
func (s *Service) Import(ctx context.Context, fileName string, payload []byte) (domain.Dataset, error) {
	if _, err := auth.RequireUser(ctx); err != nil {
		return domain.Dataset{}, err
	}

	ds, err := Parse(fileName, payload)
	if err != nil {
		return domain.Dataset{}, err
	}

	if err := s.repo.Create(ctx, ds); err != nil {
		return domain.Dataset{}, err
	}

	log.Printf("[DATASET] imported %s (%d rows, %d columns)", ds.ID, ds.RowCount, len(ds.Columns))
	return ds, nil
}

// List returns all stored datasets, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Dataset, error) {
	return s.repo.List(ctx)
}

// Get returns one dataset by id.
func (s *Service) Get(ctx context.Context, id string) (domain.Dataset, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes a dataset wholesale.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := auth.RequireUser(ctx); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Export renders the dataset as CSV text for download.
func (s *Service) Export(ctx context.Context, id string) (string, string, error) {
	ds, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	return ds.Name + ".csv", ExportCSV(ds), nil
}
