package leadimport

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/warmloop/warmloop/internal/auth"
	"github.com/warmloop/warmloop/internal/cache"
	"github.com/warmloop/warmloop/internal/domain"
	"github.com/warmloop/warmloop/internal/notify"
	"github.com/warmloop/warmloop/internal/repository"
	"github.com/warmloop/warmloop/internal/scoring"

	"github.com/google/uuid"
)

const defaultBatchSize = 500

// Service imports validated dataset rows into the leads collection. Cache
// and broker may be nil.
type Service struct {
	leadRepo   repository.LeadRepository
	logRepo    repository.ImportLogRepository
	statsCache *cache.Cache
	broker     *notify.Broker
	batchSize  int
}

// Option customizes a Service.
type Option func(*Service)

// WithBatchSize overrides the 500-row default. Values below one are ignored.
func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// NewService creates a new import service.
func NewService(leadRepo repository.LeadRepository, logRepo repository.ImportLogRepository, statsCache *cache.Cache, broker *notify.Broker, opts ...Option) *Service {
	service := &Service{
		leadRepo:   leadRepo,
		logRepo:    logRepo,
		statsCache: statsCache,
		broker:     broker,
		batchSize:  defaultBatchSize,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Request describes one import operation.
type Request struct {
	Dataset  domain.Dataset
	Mappings []domain.ColumnMapping
}

// Import validates the mapped rows and persists the valid ones in
// sequential fixed-size batches. A failed batch is counted and logged but
// does not abort later batches; partial success is a reported outcome, not
// an error. The returned InsertedIDs are the undo set for a later Undo
// call. Fails before any write when no user is authenticated.
func (s *Service) Import(ctx context.Context, req Request) (domain.ImportResult, error) {
	userID, err := auth.RequireUser(ctx)
	if err != nil {
		return domain.ImportResult{}, err
	}

	result := domain.ImportResult{
		InsertedIDs: []uuid.UUID{},
		Errors:      []string{},
	}

	results := ValidateRows(req.Dataset, req.Mappings)
	valid := make([]domain.RowValidation, 0, len(results))
	for i, rowResult := range results {
		if rowResult.Valid {
			valid = append(valid, rowResult)
			continue
		}
		rowNumber := i + 1
		s.logError(ctx, userID, req.Dataset.ID, &rowNumber, strings.Join(rowResult.Errors, "; "))
	}

	for start := 0; start < len(valid); start += s.batchSize {
		end := start + s.batchSize
		if end > len(valid) {
			end = len(valid)
		}
		batch := valid[start:end]
		batchNumber := start/s.batchSize + 1

		leads := make([]domain.Lead, 0, len(batch))
		for _, rowResult := range batch {
			leads = append(leads, buildLead(userID, rowResult.Row))
		}

		ids, insertErr := s.leadRepo.InsertBatch(ctx, leads)
		if insertErr != nil {
			message := fmt.Sprintf("batch %d: %v", batchNumber, insertErr)
			log.Printf("[IMPORT] dataset %s %s", req.Dataset.ID, message)
			result.Errors = append(result.Errors, message)
			result.FailedCount += len(batch)
			s.logError(ctx, userID, req.Dataset.ID, nil, message)
			continue
		}

		result.InsertedIDs = append(result.InsertedIDs, ids...)
		result.InsertedCount += len(ids)
		for _, id := range ids {
			s.broker.Publish(notify.Event{Action: notify.ActionInsert, LeadID: id})
		}
	}

	if result.InsertedCount > 0 {
		s.invalidateStats(ctx, userID)
	}

	log.Printf("[IMPORT] dataset %s inserted=%d failed=%d", req.Dataset.ID, result.InsertedCount, result.FailedCount)
	return result, nil
}

// Undo deletes exactly the ids returned by a previous import. The caller
// threads the id list from the ImportResult; there is no session state
// here, so calling Undo again with an empty list deletes nothing.
func (s *Service) Undo(ctx context.Context, ids []uuid.UUID) (int, error) {
	userID, err := auth.RequireUser(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.leadRepo.DeleteMany(ctx, ids); err != nil {
		return 0, fmt.Errorf("failed to undo import: %w", err)
	}
	for _, id := range ids {
		s.broker.Publish(notify.Event{Action: notify.ActionDelete, LeadID: id})
	}
	s.invalidateStats(ctx, userID)
	log.Printf("[IMPORT] undo removed %d leads", len(ids))
	return len(ids), nil
}

func (s *Service) invalidateStats(ctx context.Context, userID uuid.UUID) {
	if err := s.statsCache.Delete(ctx, cache.LeadStatsKey(userID)); err != nil {
		log.Printf("[IMPORT] stats cache invalidation failed: %v", err)
	}
}

// buildLead fills defaults for optional fields, then derives the score.
func buildLead(userID uuid.UUID, row map[string]any) domain.Lead {
	lead := domain.Lead{
		UserID: userID,
		Name:   strings.TrimSpace(fieldText(row[FieldName])),
		Status: domain.LeadStatusNew,
	}

	if email := fieldText(row[FieldEmail]); email != "" {
		lead.Email = email
	}
	if company := fieldText(row[FieldCompany]); company != "" {
		lead.Company = &company
	}
	if status := strings.TrimSpace(fieldText(row[FieldStatus])); status != "" {
		lead.Status = domain.LeadStatus(strings.ToLower(status))
	}
	if source := fieldText(row[FieldSource]); source != "" {
		lead.Source = &source
	}
	if value, ok := numberOf(row[FieldEstimatedValue]); ok {
		lead.EstimatedValue = &value
	}
	if count, ok := numberOf(row[FieldActivitiesLast30d]); ok {
		activities := int(count)
		lead.ActivitiesLast30d = &activities
	}

	factors := scoring.Factors{
		Email: lead.Email,
	}
	if lead.Source != nil {
		factors.Source = *lead.Source
	}
	if lead.EstimatedValue != nil {
		factors.EstimatedValue = *lead.EstimatedValue
	}
	if lead.ActivitiesLast30d != nil {
		factors.ActivitiesLast30d = *lead.ActivitiesLast30d
	}
	lead.Score = scoring.Compute(factors)

	return lead
}

func (s *Service) logError(ctx context.Context, userID uuid.UUID, datasetID string, rowNumber *int, message string) {
	if s.logRepo == nil || message == "" {
		return
	}
	entry := domain.ImportLogEntry{
		UserID:       userID,
		DatasetID:    datasetID,
		RowNumber:    rowNumber,
		ErrorMessage: message,
	}
	_ = s.logRepo.Record(ctx, entry)
}
