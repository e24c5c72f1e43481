package leadimport

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/warmloop/warmloop/internal/auth"
	"github.com/warmloop/warmloop/internal/domain"
	"github.com/warmloop/warmloop/internal/notify"

	"github.com/google/uuid"
)

type stubLeadRepo struct {
	batches    [][]domain.Lead
	failBatch  int
	deletedIDs []uuid.UUID
}

func (s *stubLeadRepo) Create(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	return lead, nil
}

func (s *stubLeadRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	return domain.Lead{}, errors.New("not implemented")
}

func (s *stubLeadRepo) List(ctx context.Context, userID uuid.UUID) ([]domain.Lead, error) {
	return nil, nil
}

func (s *stubLeadRepo) TopByScore(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Lead, error) {
	return nil, nil
}

func (s *stubLeadRepo) InsertBatch(ctx context.Context, leads []domain.Lead) ([]uuid.UUID, error) {
	s.batches = append(s.batches, leads)
	if s.failBatch == len(s.batches) {
		return nil, errors.New("connection reset")
	}
	ids := make([]uuid.UUID, len(leads))
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids, nil
}

func (s *stubLeadRepo) Update(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	return lead, nil
}

func (s *stubLeadRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (s *stubLeadRepo) DeleteMany(ctx context.Context, ids []uuid.UUID) error {
	s.deletedIDs = append(s.deletedIDs, ids...)
	return nil
}

type stubImportLogRepo struct {
	entries []domain.ImportLogEntry
}

func (s *stubImportLogRepo) Record(ctx context.Context, entry domain.ImportLogEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubImportLogRepo) List(ctx context.Context, userID uuid.UUID, datasetID string, limit, offset int) ([]domain.ImportLogEntry, error) {
	return s.entries, nil
}

func authedContext() context.Context {
	return auth.ContextWithUserID(context.Background(), uuid.New())
}

func datasetWithRows(n int) domain.Dataset {
	rows := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, map[string]any{
			"name":  fmt.Sprintf("Lead %d", i),
			"email": fmt.Sprintf("lead%d@example.com", i),
		})
	}
	return domain.Dataset{ID: "csv_123", Rows: rows}
}

func TestImportBatchesSequentially(t *testing.T) {
	leadRepo := &stubLeadRepo{}
	logRepo := &stubImportLogRepo{}
	service := NewService(leadRepo, logRepo, nil, nil)

	result, err := service.Import(authedContext(), Request{
		Dataset:  datasetWithRows(1200),
		Mappings: identityMappings("name", "email"),
	})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}

	if len(leadRepo.batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(leadRepo.batches))
	}
	sizes := []int{len(leadRepo.batches[0]), len(leadRepo.batches[1]), len(leadRepo.batches[2])}
	if sizes[0] != 500 || sizes[1] != 500 || sizes[2] != 200 {
		t.Fatalf("unexpected batch sizes: %v", sizes)
	}
	if result.InsertedCount != 1200 || result.FailedCount != 0 {
		t.Fatalf("unexpected result counts: %+v", result)
	}
	if len(result.InsertedIDs) != 1200 {
		t.Fatalf("expected 1200 inserted ids, got %d", len(result.InsertedIDs))
	}
}

func TestImportContinuesAfterFailedBatch(t *testing.T) {
	leadRepo := &stubLeadRepo{failBatch: 2}
	logRepo := &stubImportLogRepo{}
	service := NewService(leadRepo, logRepo, nil, nil)

	result, err := service.Import(authedContext(), Request{
		Dataset:  datasetWithRows(1200),
		Mappings: identityMappings("name", "email"),
	})
	if err != nil {
		t.Fatalf("a failed batch must not fail the import: %v", err)
	}

	if len(leadRepo.batches) != 3 {
		t.Fatalf("expected later batches to still run, got %d", len(leadRepo.batches))
	}
	if result.InsertedCount != 700 {
		t.Fatalf("expected 700 inserted, got %d", result.InsertedCount)
	}
	if result.FailedCount != 500 {
		t.Fatalf("expected 500 failed, got %d", result.FailedCount)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one batch error, got %v", result.Errors)
	}
	if len(logRepo.entries) != 1 {
		t.Fatalf("expected the batch failure logged, got %d entries", len(logRepo.entries))
	}
	if logRepo.entries[0].RowNumber != nil {
		t.Fatalf("batch failures carry no row number")
	}
}

func TestImportSkipsAndLogsInvalidRows(t *testing.T) {
	leadRepo := &stubLeadRepo{}
	logRepo := &stubImportLogRepo{}
	service := NewService(leadRepo, logRepo, nil, nil)

	ds := domain.Dataset{ID: "csv_9", Rows: []map[string]any{
		{"name": "Alice", "email": "alice@example.com"},
		{"name": "", "email": "broken"},
		{"name": "Carol", "company": "Acme"},
	}}

	result, err := service.Import(authedContext(), Request{
		Dataset:  ds,
		Mappings: identityMappings("name", "email", "company"),
	})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}

	if result.InsertedCount != 2 {
		t.Fatalf("expected 2 inserted, got %d", result.InsertedCount)
	}
	if len(logRepo.entries) != 1 {
		t.Fatalf("expected 1 logged row, got %d", len(logRepo.entries))
	}
	if logRepo.entries[0].RowNumber == nil || *logRepo.entries[0].RowNumber != 2 {
		t.Fatalf("expected row 2 logged, got %+v", logRepo.entries[0])
	}
}

func TestImportScoresLeads(t *testing.T) {
	leadRepo := &stubLeadRepo{}
	service := NewService(leadRepo, &stubImportLogRepo{}, nil, nil)

	ds := domain.Dataset{ID: "csv_1", Rows: []map[string]any{
		{"name": "Alice", "email": "alice@example.com", "source": "referral", "estimated_value": float64(10000), "activities_last_30d": float64(5)},
	}}

	_, err := service.Import(authedContext(), Request{
		Dataset:  ds,
		Mappings: identityMappings("name", "email", "source", "estimated_value", "activities_last_30d"),
	})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}

	lead := leadRepo.batches[0][0]
	if lead.Score != 80 {
		t.Fatalf("expected max score 80, got %d", lead.Score)
	}
	if lead.Status != domain.LeadStatusNew {
		t.Fatalf("expected default status new, got %s", lead.Status)
	}
}

func TestImportRequiresUser(t *testing.T) {
	leadRepo := &stubLeadRepo{}
	service := NewService(leadRepo, &stubImportLogRepo{}, nil, nil)

	_, err := service.Import(context.Background(), Request{Dataset: datasetWithRows(3), Mappings: identityMappings("name", "email")})
	if !errors.Is(err, auth.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if len(leadRepo.batches) != 0 {
		t.Fatalf("no writes may happen without a user")
	}
}

func TestImportPublishesInsertEvents(t *testing.T) {
	leadRepo := &stubLeadRepo{}
	broker := notify.NewBroker()
	service := NewService(leadRepo, &stubImportLogRepo{}, nil, broker)

	var events []notify.Event
	unsubscribe := broker.Subscribe(func(evt notify.Event) {
		events = append(events, evt)
	})
	defer unsubscribe()

	result, err := service.Import(authedContext(), Request{
		Dataset:  datasetWithRows(3),
		Mappings: identityMappings("name", "email"),
	})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("expected an insert event per imported lead, got %d", len(events))
	}
	for i, evt := range events {
		if evt.Action != notify.ActionInsert {
			t.Fatalf("event %d action = %s, want insert", i, evt.Action)
		}
		if evt.LeadID != result.InsertedIDs[i] {
			t.Fatalf("event %d lead id mismatch", i)
		}
	}
}

func TestImportFailedBatchPublishesNothing(t *testing.T) {
	leadRepo := &stubLeadRepo{failBatch: 1}
	broker := notify.NewBroker()
	service := NewService(leadRepo, &stubImportLogRepo{}, nil, broker)

	var events []notify.Event
	unsubscribe := broker.Subscribe(func(evt notify.Event) {
		events = append(events, evt)
	})
	defer unsubscribe()

	if _, err := service.Import(authedContext(), Request{
		Dataset:  datasetWithRows(3),
		Mappings: identityMappings("name", "email"),
	}); err != nil {
		t.Fatalf("import returned error: %v", err)
	}

	if len(events) != 0 {
		t.Fatalf("a failed batch must not publish events, got %d", len(events))
	}
}

func TestUndoPublishesDeleteEvents(t *testing.T) {
	leadRepo := &stubLeadRepo{}
	broker := notify.NewBroker()
	service := NewService(leadRepo, &stubImportLogRepo{}, nil, broker)

	var events []notify.Event
	unsubscribe := broker.Subscribe(func(evt notify.Event) {
		events = append(events, evt)
	})
	defer unsubscribe()

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	if _, err := service.Undo(authedContext(), ids); err != nil {
		t.Fatalf("undo returned error: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected a delete event per undone lead, got %d", len(events))
	}
	for i, evt := range events {
		if evt.Action != notify.ActionDelete {
			t.Fatalf("event %d action = %s, want delete", i, evt.Action)
		}
		if evt.LeadID != ids[i] {
			t.Fatalf("event %d lead id mismatch", i)
		}
	}
}

func TestUndoDeletesExactIDs(t *testing.T) {
	leadRepo := &stubLeadRepo{}
	service := NewService(leadRepo, &stubImportLogRepo{}, nil, nil)

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	deleted, err := service.Undo(authedContext(), ids)
	if err != nil {
		t.Fatalf("undo returned error: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deleted, got %d", deleted)
	}
	if len(leadRepo.deletedIDs) != 3 {
		t.Fatalf("expected exactly the given ids deleted, got %v", leadRepo.deletedIDs)
	}
	for i, id := range ids {
		if leadRepo.deletedIDs[i] != id {
			t.Fatalf("deleted id %d mismatch", i)
		}
	}
}

func TestUndoEmptyIsNoOp(t *testing.T) {
	leadRepo := &stubLeadRepo{}
	service := NewService(leadRepo, &stubImportLogRepo{}, nil, nil)

	deleted, err := service.Undo(authedContext(), nil)
	if err != nil {
		t.Fatalf("undo returned error: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("expected 0 deleted, got %d", deleted)
	}
	if len(leadRepo.deletedIDs) != 0 {
		t.Fatalf("no delete call expected for an empty id list")
	}
}
