// Package leads implements lead CRUD on top of the repository, recomputing
// the score on every write from the merge of stored fields and the incoming
// change.
package leads

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/warmloop/warmloop/internal/auth"
	"github.com/warmloop/warmloop/internal/cache"
	"github.com/warmloop/warmloop/internal/domain"
	"github.com/warmloop/warmloop/internal/notify"
	"github.com/warmloop/warmloop/internal/repository"
	"github.com/warmloop/warmloop/internal/scoring"

	"github.com/google/uuid"
)

// Service coordinates lead persistence, scoring, caching, and change
// notification. Cache and broker may be nil.
type Service struct {
	repo   repository.LeadRepository
	cache  *cache.Cache
	broker *notify.Broker
}

// NewService creates a new leads service.
func NewService(repo repository.LeadRepository, statsCache *cache.Cache, broker *notify.Broker) *Service {
	return &Service{repo: repo, cache: statsCache, broker: broker}
}

// CreateInput is the caller-settable part of a lead. Score is derived, never
// accepted.
type CreateInput struct {
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Company           *string           `json:"company"`
	Status            domain.LeadStatus `json:"status"`
	Source            *string           `json:"source"`
	EstimatedValue    *float64          `json:"estimated_value"`
	ActivitiesLast30d *int              `json:"activities_last_30d"`
	LastActivity      *time.Time        `json:"last_activity"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name              *string            `json:"name"`
	Email             *string            `json:"email"`
	Company           *string            `json:"company"`
	Status            *domain.LeadStatus `json:"status"`
	Source            *string            `json:"source"`
	EstimatedValue    *float64           `json:"estimated_value"`
	ActivitiesLast30d *int               `json:"activities_last_30d"`
	LastActivity      *time.Time         `json:"last_activity"`
}

// Create inserts a new lead for the authenticated user with a freshly
// computed score.
func (s *Service) Create(ctx context.Context, input CreateInput) (domain.Lead, error) {
	userID, err := auth.RequireUser(ctx)
	if err != nil {
		return domain.Lead{}, err
	}

	status := input.Status
	if status == "" {
		status = domain.LeadStatusNew
	}
	if !status.Valid() {
		return domain.Lead{}, fmt.Errorf("invalid status %q", status)
	}

	lead := domain.Lead{
		UserID:            userID,
		Name:              input.Name,
		Email:             input.Email,
		Company:           input.Company,
		Status:            status,
		Source:            input.Source,
		EstimatedValue:    input.EstimatedValue,
		ActivitiesLast30d: input.ActivitiesLast30d,
		LastActivity:      input.LastActivity,
	}
	lead.Score = scoring.Compute(scoreFactors(lead))

	created, err := s.repo.Create(ctx, lead)
	if err != nil {
		return domain.Lead{}, err
	}

	s.afterWrite(ctx, userID, notify.ActionInsert, created.ID)
	return created, nil
}

// Update merges the partial input into the stored lead, revalidates status,
// recomputes the score from the merged fields, and persists the result. An
// update that only changes status still re-derives the score from the
// unchanged scoring fields.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (domain.Lead, error) {
	userID, err := auth.RequireUser(ctx)
	if err != nil {
		return domain.Lead{}, err
	}

	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Lead{}, err
	}

	if input.Name != nil {
		lead.Name = *input.Name
	}
	if input.Email != nil {
		lead.Email = *input.Email
	}
	if input.Company != nil {
		lead.Company = input.Company
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return domain.Lead{}, fmt.Errorf("invalid status %q", *input.Status)
		}
		lead.Status = *input.Status
	}
	if input.Source != nil {
		lead.Source = input.Source
	}
	if input.EstimatedValue != nil {
		lead.EstimatedValue = input.EstimatedValue
	}
	if input.ActivitiesLast30d != nil {
		lead.ActivitiesLast30d = input.ActivitiesLast30d
	}
	if input.LastActivity != nil {
		lead.LastActivity = input.LastActivity
	}

	lead.Score = scoring.Compute(scoreFactors(lead))

	updated, err := s.repo.Update(ctx, lead)
	if err != nil {
		return domain.Lead{}, err
	}

	s.afterWrite(ctx, userID, notify.ActionUpdate, updated.ID)
	return updated, nil
}

// Delete removes one lead.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	userID, err := auth.RequireUser(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx, userID, notify.ActionDelete, id)
	return nil
}

// Get returns one lead by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	if _, err := auth.RequireUser(ctx); err != nil {
		return domain.Lead{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// List returns the authenticated user's leads, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Lead, error) {
	userID, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, userID)
}

// TopLeads returns the highest scoring leads, default five.
func (s *Service) TopLeads(ctx context.Context, limit int) ([]domain.Lead, error) {
	userID, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}
	return s.repo.TopByScore(ctx, userID, limit)
}

// Stats aggregates dashboard metrics, read through the cache when one is
// configured.
func (s *Service) Stats(ctx context.Context) (domain.LeadStats, error) {
	userID, err := auth.RequireUser(ctx)
	if err != nil {
		return domain.LeadStats{}, err
	}

	key := cache.LeadStatsKey(userID)
	var cached domain.LeadStats
	if hit, cacheErr := s.cache.Get(ctx, key, &cached); cacheErr != nil {
		log.Printf("[LEADS] stats cache read failed: %v", cacheErr)
	} else if hit {
		return cached, nil
	}

	all, err := s.repo.List(ctx, userID)
	if err != nil {
		return domain.LeadStats{}, err
	}

	stats := computeStats(all)
	if cacheErr := s.cache.Set(ctx, key, stats); cacheErr != nil {
		log.Printf("[LEADS] stats cache write failed: %v", cacheErr)
	}
	return stats, nil
}

func computeStats(all []domain.Lead) domain.LeadStats {
	stats := domain.LeadStats{LeadsByStatus: []domain.LeadStatusCount{}}
	stats.TotalLeads = len(all)
	if len(all) == 0 {
		return stats
	}

	total := 0
	byStatus := make(map[string]int)
	for _, lead := range all {
		total += lead.Score
		byStatus[string(lead.Status)]++
	}
	stats.AverageScore = int(float64(total)/float64(len(all)) + 0.5)

	statuses := make([]string, 0, len(byStatus))
	for status := range byStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		stats.LeadsByStatus = append(stats.LeadsByStatus, domain.LeadStatusCount{
			Status: status,
			Count:  byStatus[status],
		})
	}
	return stats
}

func (s *Service) afterWrite(ctx context.Context, userID uuid.UUID, action notify.Action, id uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.LeadStatsKey(userID)); err != nil {
		log.Printf("[LEADS] stats cache invalidation failed: %v", err)
	}
	if s.broker != nil {
		s.broker.Publish(notify.Event{Action: action, LeadID: id})
	}
}

func scoreFactors(lead domain.Lead) scoring.Factors {
	factors := scoring.Factors{Email: lead.Email}
	if lead.Source != nil {
		factors.Source = *lead.Source
	}
	if lead.EstimatedValue != nil {
		factors.EstimatedValue = *lead.EstimatedValue
	}
	if lead.ActivitiesLast30d != nil {
		factors.ActivitiesLast30d = *lead.ActivitiesLast30d
	}
	return factors
}
