package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func openTemp(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sub", "history.db")
	db, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return db, path
}

func TestRecordsSuccessAndFailure(t *testing.T) {
	db, _ := openTemp(t)
	defer db.Close()
	ctx := context.Background()

	if err := db.Begin(ctx, "r1", 1.5, 3, "spotlight"); err != nil {
		t.Fatalf("begin r1: %v", err)
	}
	if err := db.Finish(ctx, "r1", Outcome{ResultID: "h1", ResultSize: 42}); err != nil {
		t.Fatalf("finish r1: %v", err)
	}
	if err := db.Begin(ctx, "r2", 0, 0, "mix"); err != nil {
		t.Fatalf("begin r2: %v", err)
	}
	if err := db.Finish(ctx, "r2", Outcome{Err: errors.New("overlay blend: exit 1")}); err != nil {
		t.Fatalf("finish r2: %v", err)
	}

	runs, err := db.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "r2" || runs[0].Status != StatusFailed || runs[0].Error != "overlay blend: exit 1" {
		t.Fatalf("unexpected newest run %+v", runs[0])
	}
	if runs[1].Status != StatusSucceeded || runs[1].ResultID != "h1" || runs[1].ResultSize != 42 || runs[1].StartA != 1.5 {
		t.Fatalf("unexpected first run %+v", runs[1])
	}
	if runs[1].FinishedAt == nil {
		t.Fatalf("finished_at not set")
	}
}

func TestFinishUnknown(t *testing.T) {
	db, _ := openTemp(t)
	defer db.Close()
	if err := db.Finish(context.Background(), "missing", Outcome{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestReopenMarksInterrupted(t *testing.T) {
	db, path := openTemp(t)
	if err := db.Begin(context.Background(), "r1", 0, 0, "spotlight"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	db.Close()

	db2, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()
	runs, err := db2.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != StatusFailed || runs[0].Error != "interrupted by restart" {
		t.Fatalf("runs=%+v", runs)
	}
}
