package stores

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/openfroyo/confsync/pkg/engine"
	"github.com/openfroyo/confsync/pkg/gateway"
	"github.com/openfroyo/confsync/pkg/model"
)

// setupTestStore creates an in-memory SQLite store for testing
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(Config{
		Path: MemoryPath,
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func strPtr(s string) *string { return &s }

// TestStoreLifecycle tests database initialization and closure
func TestStoreLifecycle(t *testing.T) {
	store, err := NewSQLiteStore(Config{
		Path: filepath.Join(t.TempDir(), "confsync.db"),
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}

	// Migrating twice is a no-op
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store again: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestNewSQLiteStore_RequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(Config{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

// TestStoreMigrations tests database migrations
func TestStoreMigrations(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	tables := []string{"entities", "runs", "run_operations"}
	for _, table := range tables {
		query := "SELECT COUNT(*) FROM " + table
		var count int
		err := store.db.QueryRowContext(ctx, query).Scan(&count)
		if err != nil {
			t.Errorf("table %s does not exist or is not accessible: %v", table, err)
		}
	}
}

func TestGateway_CreateRetrieve(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	sw := &model.Switch{Scope: model.Scope{Tenant: "T1"}, Name: "S1", PhysicalSwitch: "P1", LinkType: strPtr("SIP")}
	created, err := store.Create(ctx, sw)
	if err != nil {
		t.Fatalf("failed to create: %v", err)
	}
	if created.ID == 0 {
		t.Error("expected an ID to be assigned")
	}

	retrieved, err := store.Retrieve(ctx, sw.Ref())
	if err != nil {
		t.Fatalf("failed to retrieve: %v", err)
	}
	if !model.Equal(retrieved.Entity, sw) {
		t.Errorf("expected %+v, got %+v", sw, retrieved.Entity)
	}
	if retrieved.ID != created.ID {
		t.Errorf("expected ID %d, got %d", created.ID, retrieved.ID)
	}

	if _, err := store.Create(ctx, sw); !errors.Is(err, gateway.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got: %v", err)
	}
}

func TestGateway_RetrieveNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Retrieve(context.Background(), model.NewReference(model.KindTenant, "", "Absent"))
	if !errors.Is(err, gateway.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestGateway_UpdateMerges(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	original := &model.Switch{Scope: model.Scope{Tenant: "T1"}, Name: "S1", PhysicalSwitch: "P1", LinkType: strPtr("SIP")}
	if _, err := store.Create(ctx, original); err != nil {
		t.Fatalf("failed to create: %v", err)
	}

	change := &model.Switch{Scope: model.Scope{Tenant: "T1"}, Name: "S1", DNRange: strPtr("1000-1999")}
	updated, err := store.Update(ctx, change, nil)
	if err != nil {
		t.Fatalf("failed to update: %v", err)
	}

	live := updated.Entity.(*model.Switch)
	if live.PhysicalSwitch != "P1" || live.LinkType == nil || *live.LinkType != "SIP" {
		t.Errorf("expected unset properties to be kept, got %+v", live)
	}
	if live.DNRange == nil || *live.DNRange != "1000-1999" {
		t.Errorf("expected dnRange to be set, got %+v", live)
	}

	if _, err := store.Update(ctx, &model.Tenant{Name: "Absent"}, nil); !errors.Is(err, gateway.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestGateway_RetrieveMany(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, e := range []model.Entity{
		&model.Switch{Scope: model.Scope{Tenant: "T2"}, Name: "B", PhysicalSwitch: "P1"},
		&model.Switch{Scope: model.Scope{Tenant: "T1"}, Name: "A", PhysicalSwitch: "P1"},
		&model.Tenant{Name: "T1"},
	} {
		if _, err := store.Create(ctx, e); err != nil {
			t.Fatalf("failed to create %s: %v", e.Ref(), err)
		}
	}

	all, err := store.RetrieveMany(ctx, model.KindSwitch, gateway.Filter{})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(all) != 2 || all[0].Ref.Key != "B" || all[1].Ref.Key != "A" {
		t.Errorf("expected switches in creation order, got %+v", all)
	}

	scoped, err := store.RetrieveMany(ctx, model.KindSwitch, gateway.Filter{Tenant: "T1"})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(scoped) != 1 || scoped[0].Ref.Tenant != "T1" {
		t.Errorf("expected one switch of T1, got %+v", scoped)
	}

	count, err := store.CountEntities(ctx)
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 entities, got %d", count)
	}
}

// TestRunCRUD tests Run CRUD operations
func TestRunCRUD(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	now := time.Now()

	// Create
	run := &Run{
		ID:           "run-001",
		PlanID:       "plan-001",
		DocumentPath: "/desired/state.yaml",
		Status:       engine.RunStatusRunning,
		StartedAt:    now,
	}

	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	// Read
	retrieved, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if retrieved.DocumentPath != run.DocumentPath || retrieved.Status != engine.RunStatusRunning {
		t.Errorf("expected %+v, got %+v", run, retrieved)
	}
	if retrieved.StartedAt.UnixMilli() != now.UnixMilli() {
		t.Errorf("expected StartedAt %v, got %v", now, retrieved.StartedAt)
	}
	if retrieved.CompletedAt != nil {
		t.Error("expected CompletedAt to be unset")
	}

	// Complete
	tally := engine.NewTally()
	tally.Add(engine.OperationCreate)
	tally.Add(engine.OperationUpdateReference)
	errMsg := "remote rejected"
	if err := store.CompleteRun(ctx, run.ID, engine.RunStatusFailed, tally, &errMsg); err != nil {
		t.Fatalf("failed to complete run: %v", err)
	}

	completed, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to get completed run: %v", err)
	}
	if completed.Status != engine.RunStatusFailed || completed.Created != 1 || completed.Updated != 1 {
		t.Errorf("unexpected completed run: %+v", completed)
	}
	if completed.Error == nil || *completed.Error != errMsg {
		t.Errorf("expected Error %s, got %v", errMsg, completed.Error)
	}
	if completed.CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}

	if err := store.CompleteRun(ctx, "absent", engine.RunStatusSucceeded, tally, nil); err == nil {
		t.Error("expected error completing an unknown run")
	}
	if err := store.CompleteRun(ctx, run.ID, engine.RunStatus("bogus"), tally, nil); err == nil {
		t.Error("expected error for an invalid status")
	}

	// Delete
	if err := store.DeleteRun(ctx, run.ID); err != nil {
		t.Fatalf("failed to delete run: %v", err)
	}
	if _, err := store.GetRun(ctx, run.ID); err == nil {
		t.Error("expected error getting a deleted run")
	}
}

func TestListRuns_MostRecentFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"old", "middle", "new"} {
		run := &Run{ID: id, PlanID: id, Status: engine.RunStatusSucceeded, StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.CreateRun(ctx, run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx, 2, 0)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "new" || runs[1].ID != "middle" {
		t.Errorf("expected [new middle], got %+v", runs)
	}

	rest, err := store.ListRuns(ctx, 10, 2)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(rest) != 1 || rest[0].ID != "old" {
		t.Errorf("expected [old], got %+v", rest)
	}
}

func TestRunOperations_CascadeDelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run := &Run{ID: "run-001", PlanID: "plan-001", Status: engine.RunStatusRunning, StartedAt: time.Now()}
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	for i, key := range []string{"T2", "T1"} {
		op := &RunOperation{
			RunID:     run.ID,
			Position:  i,
			Operation: engine.OperationCreate,
			Kind:      string(model.KindTenant),
			Key:       key,
			Status:    OperationStatusSucceeded,
			AppliedAt: time.Now(),
		}
		if err := store.RecordOperation(ctx, op); err != nil {
			t.Fatalf("failed to record operation: %v", err)
		}
	}

	ops, err := store.ListRunOperations(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to list operations: %v", err)
	}
	if len(ops) != 2 || ops[0].Key != "T2" || ops[1].Position != 1 {
		t.Errorf("expected operations in position order, got %+v", ops)
	}

	// Foreign key to runs
	orphan := &RunOperation{RunID: "absent", Operation: engine.OperationCreate, Kind: "Tenant", Key: "X", Status: OperationStatusSucceeded, AppliedAt: time.Now()}
	if err := store.RecordOperation(ctx, orphan); err == nil {
		t.Error("expected foreign key violation for an unknown run")
	}

	if err := store.DeleteRun(ctx, run.ID); err != nil {
		t.Fatalf("failed to delete run: %v", err)
	}
	ops, err = store.ListRunOperations(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to list operations: %v", err)
	}
	if len(ops) != 0 {
		t.Errorf("expected operations to be deleted with the run, got %d", len(ops))
	}
}

func TestRunRecorder_Import(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, &model.PhysicalSwitch{Name: "P1", Type: strPtr("SIPSwitch")}); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}
	doc, err := model.NewDocument(
		&model.Tenant{Name: "T1"},
		&model.Switch{Scope: model.Scope{Tenant: "T1"}, Name: "S1", PhysicalSwitch: "P1"},
	)
	if err != nil {
		t.Fatalf("failed to build document: %v", err)
	}

	recorder := NewRunRecorder(store, "desired.yaml", zerolog.Nop())
	plan, err := engine.NewPlanner(store, engine.WithApplyObserver(recorder)).Plan(ctx, doc)
	if err != nil {
		t.Fatalf("failed to plan: %v", err)
	}
	if err := plan.AutoConfirm(); err != nil {
		t.Fatalf("failed to confirm: %v", err)
	}
	if _, err := recorder.Start(ctx, plan); err != nil {
		t.Fatalf("failed to start run: %v", err)
	}

	tally, applyErr := plan.Apply(ctx)
	if applyErr != nil {
		t.Fatalf("failed to apply: %v", applyErr)
	}
	if err := recorder.Finish(ctx, tally, applyErr); err != nil {
		t.Fatalf("failed to finish run: %v", err)
	}

	run, err := store.GetRun(ctx, recorder.Run().ID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if run.Status != engine.RunStatusSucceeded || run.Created != 2 || run.PlanID != plan.ID {
		t.Errorf("unexpected run: %+v", run)
	}

	ops, err := store.ListRunOperations(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to list operations: %v", err)
	}
	if len(ops) != 2 || ops[0].Key != "T1" || ops[1].Key != "S1" {
		t.Errorf("unexpected operations: %+v", ops)
	}

	// A second import of the same document converges and writes nothing
	counted := gateway.NewCounting(store)
	again, err := engine.NewPlanner(counted).Plan(ctx, doc)
	if err != nil {
		t.Fatalf("failed to plan again: %v", err)
	}
	if again.Changes() {
		t.Errorf("expected no changes, got %v", again.Summary())
	}
	if err := again.AutoConfirm(); err != nil {
		t.Fatalf("failed to confirm again: %v", err)
	}
	tally, err = again.Apply(ctx)
	if err != nil {
		t.Fatalf("failed to apply again: %v", err)
	}
	if tally.Skipped() != 2 {
		t.Errorf("expected 2 skipped, got %d", tally.Skipped())
	}
	if stats := counted.Stats(); stats.Writes() != 0 || stats.Retrieves == 0 {
		t.Errorf("expected reads and no writes on a converged import, got %+v", stats)
	}
}

func TestRunRecorder_Cancelled(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	doc, err := model.NewDocument(&model.Tenant{Name: "T1"})
	if err != nil {
		t.Fatalf("failed to build document: %v", err)
	}
	plan, err := engine.NewPlanner(store).Plan(ctx, doc)
	if err != nil {
		t.Fatalf("failed to plan: %v", err)
	}

	recorder := NewRunRecorder(store, "desired.yaml", zerolog.Nop())
	if err := recorder.Finish(ctx, nil, nil); err == nil {
		t.Error("expected error finishing a run that was not started")
	}
	if _, err := recorder.Start(ctx, plan); err != nil {
		t.Fatalf("failed to start run: %v", err)
	}
	if err := recorder.Finish(ctx, nil, engine.ErrCancelled); err != nil {
		t.Fatalf("failed to finish run: %v", err)
	}

	run, err := store.GetRun(ctx, recorder.Run().ID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if run.Status != engine.RunStatusCancelled || run.Error != nil {
		t.Errorf("unexpected run: %+v", run)
	}
	count, err := store.CountEntities(ctx)
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no entities, got %d", count)
	}
}
