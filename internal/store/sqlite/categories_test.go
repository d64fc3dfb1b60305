package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/emberforum/ember-server/internal/domain"
	"github.com/emberforum/ember-server/internal/id"
	"github.com/emberforum/ember-server/internal/store"
)

func seedCategory(t *testing.T, s *Store, name, slug string) *domain.Category {
	t.Helper()
	now := time.Now().UTC()
	c := &domain.Category{
		ID:        id.MustGenerate("cat"),
		Name:      name,
		Slug:      slug,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateCategory(context.Background(), c); err != nil {
		t.Fatalf("seed category %q: %v", name, err)
	}
	return c
}

func TestListCategories_ActiveFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	active := seedCategory(t, s, "Active", "active")
	inactive := seedCategory(t, s, "Retired", "retired")
	inactive.IsActive = false
	inactive.Touch()
	if err := s.UpdateCategory(ctx, inactive); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	got, err := s.ListCategories(ctx, false)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(got) != 1 || got[0].ID != active.ID {
		t.Errorf("active list = %d items, want only %s", len(got), active.ID)
	}

	all, err := s.ListCategories(ctx, true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("full list = %d items, want 2", len(all))
	}
}

func TestDeleteCategory_DetachesPosts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s)
	cat := seedCategory(t, s, "Temp", "temp")

	now := time.Now().UTC()
	p := &domain.Post{
		ID:         id.MustGenerate("post"),
		Title:      "In category",
		Slug:       "in-category",
		Content:    "body",
		AuthorID:   user.ID,
		CategoryID: cat.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.CreatePost(ctx, p); err != nil {
		t.Fatalf("create post: %v", err)
	}

	if err := s.DeleteCategory(ctx, cat.ID, true); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	got, err := s.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if got.CategoryID != "" {
		t.Errorf("post still references category %q", got.CategoryID)
	}
}

func TestCountPostsInCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s)
	cat := seedCategory(t, s, "Busy", "busy")

	for i := 0; i < 3; i++ {
		now := time.Now().UTC()
		p := &domain.Post{
			ID:         id.MustGenerate("post"),
			Title:      "Post",
			Slug:       id.MustGenerate("slug"),
			Content:    "body",
			AuthorID:   user.ID,
			CategoryID: cat.ID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.CreatePost(ctx, p); err != nil {
			t.Fatalf("create post %d: %v", i, err)
		}
	}

	n, err := s.CountPostsInCategory(ctx, cat.ID)
	if err != nil {
		t.Fatalf("count posts: %v", err)
	}
	if n != 3 {
		t.Errorf("post count = %d, want 3", n)
	}

	if _, err := s.GetCategoryBySlug(ctx, "missing"); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound for missing slug, got %v", err)
	}
}
