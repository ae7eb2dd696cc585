package history_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"batterylog/internal/history"
	"batterylog/internal/testsupport"
)

func TestRecordAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHistory())
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first, err := store.Record(ctx, history.Run{
		RunID:        "run-1",
		Source:       "/evidence/system.logarchive",
		Mode:         history.ModeArchive,
		Found:        true,
		Value:        "87",
		Category:     "Live",
		TracePath:    "/evidence/system.logarchive/logdata.LiveData.tracev3",
		TraceDigest:  "blake3:00",
		AnchorOffset: 0x1234,
		FilesVisited: 1,
		FinalState:   "done",
		Elapsed:      1500 * time.Millisecond,
		CreatedAt:    base,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("expected id to be assigned")
	}
	if _, err := store.Record(ctx, history.Run{
		RunID:        "run-2",
		Source:       "live:/private/var/db/diagnostics",
		Mode:         history.ModeLive,
		FilesVisited: 4,
		FilesSkipped: 1,
		Deferred:     3,
		FinalState:   "no_result",
		CreatedAt:    base.Add(time.Second),
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	runs, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunID != "run-2" || runs[1].RunID != "run-1" {
		t.Fatalf("expected newest first, got %s, %s", runs[0].RunID, runs[1].RunID)
	}
	got := runs[1]
	if !got.Found || got.Value != "87" || got.Mode != history.ModeArchive || got.AnchorOffset != 0x1234 {
		t.Fatalf("unexpected round trip: %+v", got)
	}
	if got.Elapsed != 1500*time.Millisecond || !got.CreatedAt.Equal(base) {
		t.Fatalf("unexpected timing fields: %v %v", got.Elapsed, got.CreatedAt)
	}
	if runs[0].Value != "" || runs[0].Found || runs[0].Deferred != 3 {
		t.Fatalf("unexpected empty run: %+v", runs[0])
	}

	limited, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("List limited: %v", err)
	}
	if len(limited) != 1 || limited[0].RunID != "run-2" {
		t.Fatalf("unexpected limited list: %+v", limited)
	}

	latest, ok, err := store.LatestValue(ctx)
	if err != nil || !ok {
		t.Fatalf("LatestValue: ok=%v err=%v", ok, err)
	}
	if latest.RunID != "run-1" {
		t.Fatalf("expected latest found run, got %s", latest.RunID)
	}
}

func TestLatestValueEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	_, ok, err := store.LatestValue(context.Background())
	if err != nil || ok {
		t.Fatalf("expected no run, ok=%v err=%v", ok, err)
	}
}

func TestRecordRequiresRunID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	if _, err := store.Record(context.Background(), history.Run{FinalState: "done"}); err == nil {
		t.Fatal("expected error for missing run id")
	}
}

func TestReopenKeepsRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store, err := history.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Record(ctx, history.Run{RunID: "keep", FinalState: "done"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenHistory(t, cfg)
	runs, err := reopened.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "keep" {
		t.Fatalf("unexpected runs after reopen: %+v", runs)
	}
	if reopened.Path() != cfg.History.Path {
		t.Fatalf("path = %q", reopened.Path())
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureStateDir(); err != nil {
		t.Fatal(err)
	}
	db, err := sql.Open("sqlite", cfg.History.Path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("CREATE TABLE schema_version (version INTEGER NOT NULL); INSERT INTO schema_version VALUES (99)"); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	_, err = history.Open(context.Background(), cfg)
	if !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestRecordFailsWhileLocked(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	other := flock.New(cfg.HistoryLockPath())
	if ok, err := other.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer other.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := store.Record(ctx, history.Run{RunID: "blocked", FinalState: "done"}); err == nil {
		t.Fatal("expected lock contention error")
	}
}
