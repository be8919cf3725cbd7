package database

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"aisnippets/internal/domain"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	db, err := New(context.Background(), filepath.Join(t.TempDir(), "snippets.sqlite"), slog.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestDatabaseCreateAndFind(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	created, err := db.Create(ctx, domain.CreateSnippet{Text: "Hello world"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}
	if created.Summary != "" {
		t.Fatalf("expected empty summary, got %q", created.Summary)
	}

	found, err := db.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found == nil {
		t.Fatalf("expected snippet to be found")
	}
	if found.Text != "Hello world" {
		t.Fatalf("unexpected text %q", found.Text)
	}
	if !found.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("createdAt mismatch: got %v want %v", found.CreatedAt, created.CreatedAt)
	}
}

func TestDatabaseFindByIDUnknown(t *testing.T) {
	db := newTestDatabase(t)

	found, err := db.FindByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found != nil {
		t.Fatalf("expected nil snippet, got %#v", found)
	}
}

func TestDatabaseUpdateSummary(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	created, err := db.Create(ctx, domain.CreateSnippet{Text: "Hello world"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	summary := "Summary: Hello"
	updated, err := db.Update(ctx, created.ID, domain.UpdateSnippet{Summary: &summary})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated == nil {
		t.Fatalf("expected updated snippet")
	}
	if updated.Summary != summary {
		t.Fatalf("unexpected summary %q", updated.Summary)
	}
	if updated.Text != "Hello world" {
		t.Fatalf("expected text to stay unchanged, got %q", updated.Text)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("expected updatedAt to move forward: %v <= %v", updated.UpdatedAt, created.UpdatedAt)
	}

	missing, err := db.Update(ctx, "missing", domain.UpdateSnippet{Summary: &summary})
	if err != nil {
		t.Fatalf("Update missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown id")
	}
}

func TestDatabaseFindAllNewestFirst(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	for _, text := range []string{"First snippet", "Second snippet"} {
		if _, err := db.Create(ctx, domain.CreateSnippet{Text: text}); err != nil {
			t.Fatalf("Create: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	all, err := db.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 snippets, got %d", len(all))
	}
	if all[0].Text != "Second snippet" || all[1].Text != "First snippet" {
		t.Fatalf("unexpected ordering: %q, %q", all[0].Text, all[1].Text)
	}
}

func TestDatabaseDelete(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	created, err := db.Create(ctx, domain.CreateSnippet{Text: "to delete"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	deleted, err := db.Delete(ctx, created.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete: deleted=%v err=%v", deleted, err)
	}

	deleted, err = db.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete again: %v", err)
	}
	if deleted {
		t.Fatalf("expected second delete to report false")
	}
}

func TestDatabaseReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "snippets.sqlite")
	ctx := context.Background()

	db, err := New(ctx, path, slog.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	created, err := db.Create(ctx, domain.CreateSnippet{Text: "persisted", Summary: "kept"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err = db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := New(ctx, path, slog.Default())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	found, err := reopened.FindByID(ctx, created.ID)
	if err != nil || found == nil {
		t.Fatalf("FindByID after reopen: snippet=%v err=%v", found, err)
	}
	if found.Summary != "kept" {
		t.Fatalf("unexpected summary %q", found.Summary)
	}
}
