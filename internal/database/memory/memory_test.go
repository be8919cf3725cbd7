package memory

import (
	"context"
	"testing"
	"time"

	"aisnippets/internal/domain"
)

func TestStoreCreateFindUpdate(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, err := store.Create(ctx, domain.CreateSnippet{Text: "Hello world"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	found, _ := store.FindByID(ctx, created.ID)
	if found == nil || found.Text != "Hello world" {
		t.Fatalf("unexpected snippet %#v", found)
	}

	// returned snippets are copies
	found.Summary = "mutated"
	again, _ := store.FindByID(ctx, created.ID)
	if again.Summary != "" {
		t.Fatalf("expected stored snippet to be isolated, got %q", again.Summary)
	}

	summary := "Summary: Hello"
	updated, err := store.Update(ctx, created.ID, domain.UpdateSnippet{Summary: &summary})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Summary != summary || updated.Text != "Hello world" {
		t.Fatalf("unexpected update result %#v", updated)
	}
	if updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Fatalf("updatedAt went backwards")
	}
}

func TestStoreUnknownID(t *testing.T) {
	store := New()
	ctx := context.Background()

	if s, err := store.FindByID(ctx, "nope"); s != nil || err != nil {
		t.Fatalf("expected nil, nil; got %v, %v", s, err)
	}

	summary := "x"
	if s, err := store.Update(ctx, "nope", domain.UpdateSnippet{Summary: &summary}); s != nil || err != nil {
		t.Fatalf("expected nil, nil; got %v, %v", s, err)
	}

	if ok, err := store.Delete(ctx, "nope"); ok || err != nil {
		t.Fatalf("expected false, nil; got %v, %v", ok, err)
	}
}

func TestStoreFindAllNewestFirst(t *testing.T) {
	store := New()
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	ctx := context.Background()
	_, _ = store.Create(ctx, domain.CreateSnippet{Text: "First snippet"})
	_, _ = store.Create(ctx, domain.CreateSnippet{Text: "Second snippet"})

	all, err := store.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 2 || all[0].Text != "Second snippet" || all[1].Text != "First snippet" {
		t.Fatalf("unexpected ordering %#v", all)
	}
}

func TestStoreDeleteAndClear(t *testing.T) {
	store := New()
	ctx := context.Background()

	a, _ := store.Create(ctx, domain.CreateSnippet{Text: "a"})
	_, _ = store.Create(ctx, domain.CreateSnippet{Text: "b"})

	if ok, _ := store.Delete(ctx, a.ID); !ok {
		t.Fatalf("expected delete to succeed")
	}
	if store.Count() != 1 {
		t.Fatalf("expected 1 snippet, got %d", store.Count())
	}

	store.Clear()
	if store.Count() != 0 {
		t.Fatalf("expected empty store after clear")
	}

	all, _ := store.FindAll(ctx)
	if all == nil || len(all) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", all)
	}
}
