package leads

import (
	"context"
	"errors"
	"testing"

	"github.com/warmloop/warmloop/internal/auth"
	"github.com/warmloop/warmloop/internal/domain"
	"github.com/warmloop/warmloop/internal/notify"
	"github.com/warmloop/warmloop/internal/repository"

	"github.com/google/uuid"
)

type stubLeadRepo struct {
	leads map[uuid.UUID]domain.Lead
}

func newStubLeadRepo() *stubLeadRepo {
	return &stubLeadRepo{leads: make(map[uuid.UUID]domain.Lead)}
}

func (s *stubLeadRepo) Create(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	lead.ID = uuid.New()
	s.leads[lead.ID] = lead
	return lead, nil
}

func (s *stubLeadRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, ok := s.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (s *stubLeadRepo) List(ctx context.Context, userID uuid.UUID) ([]domain.Lead, error) {
	var all []domain.Lead
	for _, lead := range s.leads {
		if lead.UserID == userID {
			all = append(all, lead)
		}
	}
	return all, nil
}

func (s *stubLeadRepo) TopByScore(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Lead, error) {
	all, _ := s.List(ctx, userID)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *stubLeadRepo) InsertBatch(ctx context.Context, leads []domain.Lead) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(leads))
	for _, lead := range leads {
		created, _ := s.Create(ctx, lead)
		ids = append(ids, created.ID)
	}
	return ids, nil
}

func (s *stubLeadRepo) Update(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	if _, ok := s.leads[lead.ID]; !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	s.leads[lead.ID] = lead
	return lead, nil
}

func (s *stubLeadRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.leads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.leads, id)
	return nil
}

func (s *stubLeadRepo) DeleteMany(ctx context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		delete(s.leads, id)
	}
	return nil
}

func authedContext(userID uuid.UUID) context.Context {
	return auth.ContextWithUserID(context.Background(), userID)
}

func ptr[T any](v T) *T { return &v }

func TestCreateComputesScoreAndDefaultsStatus(t *testing.T) {
	repo := newStubLeadRepo()
	service := NewService(repo, nil, nil)
	ctx := authedContext(uuid.New())

	lead, err := service.Create(ctx, CreateInput{
		Name:              "Alice",
		Email:             "alice@example.com",
		Source:            ptr("referral"),
		EstimatedValue:    ptr(10000.0),
		ActivitiesLast30d: ptr(5),
	})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	if lead.Status != domain.LeadStatusNew {
		t.Fatalf("expected default status new, got %s", lead.Status)
	}
	if lead.Score != 80 {
		t.Fatalf("expected score 80, got %d", lead.Score)
	}
}

func TestCreateRejectsInvalidStatus(t *testing.T) {
	service := NewService(newStubLeadRepo(), nil, nil)
	ctx := authedContext(uuid.New())

	_, err := service.Create(ctx, CreateInput{Name: "Bob", Status: domain.LeadStatus("frozen")})
	if err == nil {
		t.Fatalf("expected error for invalid status")
	}
}

func TestUpdateRecomputesScoreFromMergedFields(t *testing.T) {
	repo := newStubLeadRepo()
	service := NewService(repo, nil, nil)
	userID := uuid.New()
	ctx := authedContext(userID)

	lead, err := service.Create(ctx, CreateInput{
		Name:   "Alice",
		Email:  "alice@example.com",
		Source: ptr("referral"),
	})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	// referral 20 + valid email 10
	if lead.Score != 30 {
		t.Fatalf("expected score 30, got %d", lead.Score)
	}

	// A status-only update re-derives the score from the unchanged fields.
	updated, err := service.Update(ctx, lead.ID, UpdateInput{Status: ptr(domain.LeadStatusQualified)})
	if err != nil {
		t.Fatalf("update returned error: %v", err)
	}
	if updated.Status != domain.LeadStatusQualified {
		t.Fatalf("expected qualified, got %s", updated.Status)
	}
	if updated.Score != 30 {
		t.Fatalf("status-only update changed the score: %d", updated.Score)
	}

	// Raising the value moves the score.
	updated, err = service.Update(ctx, lead.ID, UpdateInput{EstimatedValue: ptr(10000.0)})
	if err != nil {
		t.Fatalf("update returned error: %v", err)
	}
	if updated.Score != 55 {
		t.Fatalf("expected score 55 after value bump, got %d", updated.Score)
	}
}

func TestUpdateMissingLead(t *testing.T) {
	service := NewService(newStubLeadRepo(), nil, nil)
	ctx := authedContext(uuid.New())

	_, err := service.Update(ctx, uuid.New(), UpdateInput{Name: ptr("Ghost")})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatsAggregation(t *testing.T) {
	repo := newStubLeadRepo()
	service := NewService(repo, nil, nil)
	userID := uuid.New()
	ctx := authedContext(userID)

	inputs := []CreateInput{
		{Name: "A", Email: "a@example.com", Source: ptr("referral")},            // 30
		{Name: "B", Company: ptr("Acme"), Status: domain.LeadStatusQualified},   // 0
		{Name: "C", Email: "c@example.com", Status: domain.LeadStatusQualified}, // 10
	}
	for _, input := range inputs {
		if _, err := service.Create(ctx, input); err != nil {
			t.Fatalf("create returned error: %v", err)
		}
	}

	stats, err := service.Stats(ctx)
	if err != nil {
		t.Fatalf("stats returned error: %v", err)
	}

	if stats.TotalLeads != 3 {
		t.Fatalf("expected 3 leads, got %d", stats.TotalLeads)
	}
	// (30 + 0 + 10) / 3 rounds to 13.
	if stats.AverageScore != 13 {
		t.Fatalf("expected average 13, got %d", stats.AverageScore)
	}

	counts := map[string]int{}
	for _, bucket := range stats.LeadsByStatus {
		counts[bucket.Status] = bucket.Count
	}
	if counts["new"] != 1 || counts["qualified"] != 2 {
		t.Fatalf("unexpected status buckets: %+v", stats.LeadsByStatus)
	}
}

func TestStatsEmpty(t *testing.T) {
	service := NewService(newStubLeadRepo(), nil, nil)
	ctx := authedContext(uuid.New())

	stats, err := service.Stats(ctx)
	if err != nil {
		t.Fatalf("stats returned error: %v", err)
	}
	if stats.TotalLeads != 0 || stats.AverageScore != 0 {
		t.Fatalf("unexpected empty stats: %+v", stats)
	}
	if stats.LeadsByStatus == nil {
		t.Fatalf("expected empty slice, not nil, for json encoding")
	}
}

func TestWritesPublishEvents(t *testing.T) {
	repo := newStubLeadRepo()
	broker := notify.NewBroker()
	service := NewService(repo, nil, broker)
	ctx := authedContext(uuid.New())

	var events []notify.Event
	unsubscribe := broker.Subscribe(func(evt notify.Event) {
		events = append(events, evt)
	})
	defer unsubscribe()

	lead, err := service.Create(ctx, CreateInput{Name: "Alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if _, err := service.Update(ctx, lead.ID, UpdateInput{Name: ptr("Alicia")}); err != nil {
		t.Fatalf("update returned error: %v", err)
	}
	if err := service.Delete(ctx, lead.ID); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	actions := []notify.Action{notify.ActionInsert, notify.ActionUpdate, notify.ActionDelete}
	for i, action := range actions {
		if events[i].Action != action {
			t.Fatalf("event %d action = %s, want %s", i, events[i].Action, action)
		}
		if events[i].LeadID != lead.ID {
			t.Fatalf("event %d lead id mismatch", i)
		}
	}
}

func TestOperationsRequireUser(t *testing.T) {
	service := NewService(newStubLeadRepo(), nil, nil)
	ctx := context.Background()

	if _, err := service.Create(ctx, CreateInput{Name: "X"}); !errors.Is(err, auth.ErrNotAuthenticated) {
		t.Fatalf("create: expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := service.List(ctx); !errors.Is(err, auth.ErrNotAuthenticated) {
		t.Fatalf("list: expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := service.Stats(ctx); !errors.Is(err, auth.ErrNotAuthenticated) {
		t.Fatalf("stats: expected ErrNotAuthenticated, got %v", err)
	}
}
