package state

import (
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(nil)
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)

	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	// Verify tables exist by querying them.
	for _, table := range []string{"runs", "snapshots"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		if err != nil {
			t.Errorf("table %s does not exist: %v", table, err)
			continue
		}
		_ = rows.Close()
	}
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	store := setupTestStore(t)

	run, err := store.CreateRun(RunKindIngest, "dev")
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	if run.ID == "" {
		t.Error("run ID should not be empty")
	}
	if run.Kind != RunKindIngest {
		t.Errorf("kind = %q, want ingest", run.Kind)
	}
	if run.Status != RunStatusRunning {
		t.Errorf("status = %q, want running", run.Status)
	}
	if run.CompletedAt != nil {
		t.Error("new run should not have a completion time")
	}

	if err := store.CompleteRun(run.ID, RunStatusCompleted, ""); err != nil {
		t.Fatalf("failed to complete run: %v", err)
	}

	got, err := store.GetRun(run.ID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if got.Status != RunStatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("completed run should have a completion time")
	}
	if got.Error != "" {
		t.Errorf("error = %q, want empty", got.Error)
	}
}

func TestSQLiteStore_FailedRun(t *testing.T) {
	store := setupTestStore(t)

	run, err := store.CreateRun(RunKindClean, "dev")
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	if err := store.CompleteRun(run.ID, RunStatusFailed, "all columns exceed the missing threshold"); err != nil {
		t.Fatalf("failed to fail run: %v", err)
	}

	got, err := store.GetRun(run.ID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if got.Status != RunStatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if got.Error == "" {
		t.Error("failed run should carry the error message")
	}
}

func TestSQLiteStore_GetLatestRun(t *testing.T) {
	store := setupTestStore(t)

	if run, err := store.GetLatestRun("dev"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	} else if run != nil {
		t.Errorf("expected nil run for empty store, got %+v", run)
	}

	first, err := store.CreateRun(RunKindIngest, "dev")
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	// Make the started_at ordering unambiguous.
	time.Sleep(10 * time.Millisecond)
	second, err := store.CreateRun(RunKindClean, "dev")
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	if _, err := store.CreateRun(RunKindIngest, "prod"); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	latest, err := store.GetLatestRun("dev")
	if err != nil {
		t.Fatalf("failed to get latest run: %v", err)
	}
	if latest == nil {
		t.Fatal("expected a latest run")
	}
	if latest.ID != second.ID {
		t.Errorf("latest run = %s, want %s (not %s)", latest.ID, second.ID, first.ID)
	}
	if latest.Environment != "dev" {
		t.Errorf("environment = %q, want dev", latest.Environment)
	}
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)

	for i := 0; i < 5; i++ {
		if _, err := store.CreateRun(RunKindIngest, "dev"); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
	}

	runs, err := store.ListRuns(3)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("expected 3 runs, got %d", len(runs))
	}
}

func TestSQLiteStore_SnapshotRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	snap, err := store.RecordSnapshot(&Snapshot{
		Hash:       "abc123",
		SourcePath: "data/policies.txt",
		Table:      "policies",
		Rows:       1000,
		Columns:    52,
	})
	if err != nil {
		t.Fatalf("failed to record snapshot: %v", err)
	}
	if snap.ID == 0 {
		t.Error("snapshot ID should be assigned")
	}
	if snap.CreatedAt.IsZero() {
		t.Error("snapshot should have a creation time")
	}

	got, err := store.GetSnapshotByHash("abc123")
	if err != nil {
		t.Fatalf("failed to get snapshot: %v", err)
	}
	if got == nil {
		t.Fatal("expected a snapshot")
	}
	if got.Rows != 1000 || got.Columns != 52 {
		t.Errorf("shape = %dx%d, want 1000x52", got.Rows, got.Columns)
	}

	if missing, err := store.GetSnapshotByHash("nope"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	} else if missing != nil {
		t.Errorf("expected nil for unknown hash, got %+v", missing)
	}
}

func TestSQLiteStore_SnapshotIdempotent(t *testing.T) {
	store := setupTestStore(t)

	first, err := store.RecordSnapshot(&Snapshot{Hash: "samehash", Table: "policies", Rows: 10, Columns: 2})
	if err != nil {
		t.Fatalf("failed to record snapshot: %v", err)
	}
	second, err := store.RecordSnapshot(&Snapshot{Hash: "samehash", Table: "policies", Rows: 10, Columns: 2})
	if err != nil {
		t.Fatalf("re-recording the same hash should not fail: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected the existing snapshot back, got IDs %d and %d", first.ID, second.ID)
	}

	snaps, err := store.ListSnapshots(10)
	if err != nil {
		t.Fatalf("failed to list snapshots: %v", err)
	}
	if len(snaps) != 1 {
		t.Errorf("expected 1 snapshot, got %d", len(snaps))
	}
}
