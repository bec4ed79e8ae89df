package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ops.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndRecent(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	records := []Record{
		{Operation: "outline", File: "a.ts", Language: "typescript", Timestamp: base, Duration: 12 * time.Millisecond, ResultCount: 4},
		{Operation: "extract", File: "b.py", Language: "python", Timestamp: base.Add(time.Minute), Fallback: true, ResultCount: 1},
		{Operation: "replace", File: "c.go", Language: "go", Timestamp: base.Add(2 * time.Minute), ErrorCode: "NOT_FOUND"},
	}
	for _, r := range records {
		if err := store.Save(r); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}

	// newest first
	if got[0].Operation != "replace" || got[2].Operation != "outline" {
		t.Errorf("order = %s, %s, %s", got[0].Operation, got[1].Operation, got[2].Operation)
	}
	if got[0].ErrorCode != "NOT_FOUND" {
		t.Errorf("error code = %q", got[0].ErrorCode)
	}
	if !got[1].Fallback {
		t.Error("fallback flag lost")
	}
	if got[2].Duration != 12*time.Millisecond {
		t.Errorf("duration = %v", got[2].Duration)
	}
	if got[0].ID == "" {
		t.Error("missing generated id")
	}
}

func TestRecentLimit(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := store.Save(Record{Operation: "outline", Timestamp: base.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestRecentByOperation(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	ops := []string{"outline", "extract", "outline", "replace"}
	for i, op := range ops {
		if err := store.Save(Record{Operation: op, Timestamp: base.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.RecentByOperation("outline", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, r := range got {
		if r.Operation != "outline" {
			t.Errorf("operation = %q", r.Operation)
		}
	}

	// empty filter behaves like Recent
	all, err := store.RecentByOperation("", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("len = %d, want 4", len(all))
	}
}

func TestSaveIsIdempotentPerID(t *testing.T) {
	store := openTestStore(t)

	r := Record{ID: "fixed", Operation: "outline", Timestamp: time.Now().UTC()}
	if err := store.Save(r); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(r); err != nil {
		t.Fatal(err)
	}

	got, err := store.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

func TestOpenRejectsDirectory(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatal("expected error for directory path")
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
