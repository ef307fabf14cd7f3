package balanced

import (
	"strings"
	"testing"
	"time"

	"github.com/balancelab/balance-core/internal/optimizer"
	"github.com/balancelab/balance-core/internal/report"
	"github.com/balancelab/balance-core/pkg/config"
	"github.com/balancelab/balance-core/pkg/param"
)

func testJob() *config.Job {
	return &config.Job{
		Name: "test-job",
		Bounds: param.Bounds{
			"damage": param.Range{Min: 0.5, Max: 2},
		},
		Engine: optimizer.Config{
			MaxTrials:          3,
			IterationsPerTrial: 2,
			InitialSamples:     1,
			RandomSeed:         1,
		},
	}
}

func TestRunStoreCreateAndGet(t *testing.T) {
	store := NewRunStore()

	rec, err := store.Create("run-1", testJob())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID != "run-1" || rec.Status != StatusPending {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.CreatedAtUnixMs == 0 {
		t.Error("created timestamp not set")
	}

	got, ok := store.Get("run-1")
	if !ok || got.ID != "run-1" {
		t.Fatalf("Get failed: %v %v", got, ok)
	}
	if _, ok := store.Get("missing"); ok {
		t.Fatal("Get returned a record for an unknown ID")
	}
}

func TestRunStoreGeneratesID(t *testing.T) {
	store := NewRunStore()
	rec, err := store.Create("", testJob())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(rec.ID, "run-") {
		t.Fatalf("unexpected generated ID: %q", rec.ID)
	}
}

func TestRunStoreRejectsDuplicate(t *testing.T) {
	store := NewRunStore()
	if _, err := store.Create("run-1", testJob()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create("run-1", testJob()); err == nil {
		t.Fatal("expected error for duplicate run ID")
	}
}

func TestRunStoreStatusTransitions(t *testing.T) {
	store := NewRunStore()
	store.Create("run-1", testJob())

	rec, err := store.SetStatus("run-1", StatusRunning, "")
	if err != nil {
		t.Fatalf("SetStatus running: %v", err)
	}
	if rec.StartedAtUnixMs == 0 {
		t.Error("started timestamp not set")
	}

	rec, err = store.SetStatus("run-1", StatusCompleted, "")
	if err != nil {
		t.Fatalf("SetStatus completed: %v", err)
	}
	if rec.EndedAtUnixMs == 0 {
		t.Error("ended timestamp not set")
	}

	// A terminal run cannot be reopened.
	if _, err := store.SetStatus("run-1", StatusRunning, ""); err == nil {
		t.Fatal("expected error reopening a terminal run")
	}

	if _, err := store.SetStatus("missing", StatusRunning, ""); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestRunStoreStatusError(t *testing.T) {
	store := NewRunStore()
	store.Create("run-1", testJob())
	rec, err := store.SetStatus("run-1", StatusFailed, "all trials failed")
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if rec.Error != "all trials failed" {
		t.Fatalf("Error = %q", rec.Error)
	}
}

func TestRunStoreProgressAndOutcome(t *testing.T) {
	store := NewRunStore()
	store.Create("run-1", testJob())

	if err := store.SetProgress("run-1", Progress{Fraction: 0.5, BestScore: 70}); err != nil {
		t.Fatalf("SetProgress: %v", err)
	}
	rec, _ := store.Get("run-1")
	if rec.Progress.Fraction != 0.5 || rec.Progress.BestScore != 70 {
		t.Fatalf("progress = %+v", rec.Progress)
	}

	rep := report.Build(nil, nil, nil, "completed", time.Second)
	history := optimizer.History{{Score: 70}}
	if err := store.SetOutcome("run-1", rep, history); err != nil {
		t.Fatalf("SetOutcome: %v", err)
	}
	rec, _ = store.Get("run-1")
	if rec.Report == nil || len(rec.History) != 1 {
		t.Fatalf("outcome not stored: %+v", rec)
	}

	if err := store.SetProgress("missing", Progress{}); err == nil {
		t.Fatal("expected error for unknown run")
	}
	if err := store.SetOutcome("missing", rep, nil); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestRunStoreListPagination(t *testing.T) {
	store := NewRunStore()
	for _, id := range []string{"run-a", "run-b", "run-c"} {
		if _, err := store.Create(id, testJob()); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	all := store.List(10, 0)
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}

	page := store.List(2, 0)
	if len(page) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(page))
	}
	rest := store.List(2, 2)
	if len(rest) != 1 {
		t.Fatalf("expected 1 run at offset 2, got %d", len(rest))
	}
	if got := store.List(2, 5); got != nil {
		t.Fatalf("expected no runs past the end, got %d", len(got))
	}
}
