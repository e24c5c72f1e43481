package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/warmloop/warmloop/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const leadColumns = `id, user_id, name, email, company, status, source, estimated_value, activities_last_30d, last_activity, score, created_at, updated_at`

type leadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository wires a lead repository backed by pgxpool.
func NewLeadRepository(pool *pgxpool.Pool) LeadRepository {
	return &leadRepository{pool: pool}
}

func (r *leadRepository) Create(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO leads (user_id, name, email, company, status, source, estimated_value, activities_last_30d, last_activity, score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+leadColumns,
		lead.UserID,
		lead.Name,
		lead.Email,
		lead.Company,
		string(lead.Status),
		lead.Source,
		lead.EstimatedValue,
		lead.ActivitiesLast30d,
		lead.LastActivity,
		lead.Score,
	)

	created, err := scanLead(row)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("failed to create lead: %w", err)
	}
	return created, nil
}

func (r *leadRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`,
		id,
	)

	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, fmt.Errorf("lead %s: %w", id, ErrNotFound)
		}
		return domain.Lead{}, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}

func (r *leadRepository) List(ctx context.Context, userID uuid.UUID) ([]domain.Lead, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT `+leadColumns+` FROM leads WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	return collectLeads(rows)
}

func (r *leadRepository) TopByScore(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Lead, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT `+leadColumns+` FROM leads WHERE user_id = $1 ORDER BY score DESC, created_at DESC LIMIT $2`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list top leads: %w", err)
	}
	defer rows.Close()

	return collectLeads(rows)
}

func (r *leadRepository) InsertBatch(ctx context.Context, leads []domain.Lead) ([]uuid.UUID, error) {
	if len(leads) == 0 {
		return nil, nil
	}

	const fieldsPerLead = 10
	placeholders := make([]string, 0, len(leads))
	args := make([]any, 0, len(leads)*fieldsPerLead)
	for i, lead := range leads {
		base := i * fieldsPerLead
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10,
		))
		args = append(args,
			lead.UserID,
			lead.Name,
			lead.Email,
			lead.Company,
			string(lead.Status),
			lead.Source,
			lead.EstimatedValue,
			lead.ActivitiesLast30d,
			lead.LastActivity,
			lead.Score,
		)
	}

	query := `INSERT INTO leads (user_id, name, email, company, status, source, estimated_value, activities_last_30d, last_activity, score) VALUES ` +
		strings.Join(placeholders, ", ") + ` RETURNING id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert lead batch: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0, len(leads))
	for rows.Next() {
		var id uuid.UUID
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan inserted lead id: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate inserted lead ids: %w", rowsErr)
	}

	return ids, nil
}

func (r *leadRepository) Update(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	row := r.pool.QueryRow(
		ctx,
		`UPDATE leads
		 SET name = $2, email = $3, company = $4, status = $5, source = $6,
		     estimated_value = $7, activities_last_30d = $8, last_activity = $9,
		     score = $10, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+leadColumns,
		lead.ID,
		lead.Name,
		lead.Email,
		lead.Company,
		string(lead.Status),
		lead.Source,
		lead.EstimatedValue,
		lead.ActivitiesLast30d,
		lead.LastActivity,
		lead.Score,
	)

	updated, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, fmt.Errorf("lead %s: %w", lead.ID, ErrNotFound)
		}
		return domain.Lead{}, fmt.Errorf("failed to update lead: %w", err)
	}
	return updated, nil
}

func (r *leadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	return nil
}

func (r *leadRepository) DeleteMany(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("failed to delete leads: %w", err)
	}
	return nil
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		lead           domain.Lead
		company        pgtype.Text
		status         string
		source         pgtype.Text
		estimatedValue pgtype.Float8
		activities     pgtype.Int4
		lastActivity   pgtype.Timestamptz
		createdAt      pgtype.Timestamptz
		updatedAt      pgtype.Timestamptz
	)

	if err := row.Scan(
		&lead.ID,
		&lead.UserID,
		&lead.Name,
		&lead.Email,
		&company,
		&status,
		&source,
		&estimatedValue,
		&activities,
		&lastActivity,
		&lead.Score,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Lead{}, err
	}

	lead.Status = domain.LeadStatus(status)
	if company.Valid {
		value := company.String
		lead.Company = &value
	}
	if source.Valid {
		value := source.String
		lead.Source = &value
	}
	if estimatedValue.Valid {
		value := estimatedValue.Float64
		lead.EstimatedValue = &value
	}
	if activities.Valid {
		value := int(activities.Int32)
		lead.ActivitiesLast30d = &value
	}
	if lastActivity.Valid {
		value := lastActivity.Time
		lead.LastActivity = &value
	}
	if createdAt.Valid {
		lead.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		lead.UpdatedAt = updatedAt.Time
	}

	return lead, nil
}

func collectLeads(rows pgx.Rows) ([]domain.Lead, error) {
	leads := []domain.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate leads: %w", rowsErr)
	}
	return leads, nil
}
