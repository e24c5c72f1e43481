package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/warmloop/warmloop/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type datasetRepository struct {
	pool *pgxpool.Pool
}

// NewDatasetRepository wires a dataset repository backed by pgxpool.
// Datasets are stored as a single JSONB payload per row.
func NewDatasetRepository(pool *pgxpool.Pool) DatasetRepository {
	return &datasetRepository{pool: pool}
}

func (r *datasetRepository) Create(ctx context.Context, ds domain.Dataset) error {
	payload, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}

	_, err = r.pool.Exec(
		ctx,
		`INSERT INTO datasets (id, name, payload, created_at) VALUES ($1, $2, $3, $4)`,
		ds.ID,
		ds.Name,
		payload,
		ds.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store dataset: %w", err)
	}
	return nil
}

func (r *datasetRepository) GetByID(ctx context.Context, id string) (domain.Dataset, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT payload FROM datasets WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Dataset{}, fmt.Errorf("dataset %s: %w", id, ErrNotFound)
		}
		return domain.Dataset{}, fmt.Errorf("failed to get dataset: %w", err)
	}

	var ds domain.Dataset
	if err := json.Unmarshal(payload, &ds); err != nil {
		return domain.Dataset{}, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return ds, nil
}

func (r *datasetRepository) List(ctx context.Context) ([]domain.Dataset, error) {
	rows, err := r.pool.Query(ctx, `SELECT payload FROM datasets ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	datasets := []domain.Dataset{}
	for rows.Next() {
		var payload []byte
		if scanErr := rows.Scan(&payload); scanErr != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", scanErr)
		}
		var ds domain.Dataset
		if err := json.Unmarshal(payload, &ds); err != nil {
			return nil, fmt.Errorf("failed to decode dataset: %w", err)
		}
		datasets = append(datasets, ds)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate datasets: %w", rowsErr)
	}

	return datasets, nil
}

func (r *datasetRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	return nil
}
