package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/emberforum/ember-server/internal/domain"
	"github.com/emberforum/ember-server/internal/id"
	"github.com/emberforum/ember-server/internal/store"
	"github.com/emberforum/ember-server/internal/store/sqlite"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := testLogger()
	s, err := sqlite.Open(dbPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createTestUser(t *testing.T, s store.Store) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	user := &domain.User{
		ID:           id.MustGenerate("usr"),
		Email:        id.MustGenerate("mail") + "@example.com",
		DisplayName:  "Test User",
		PasswordHash: "x",
		Role:         domain.RoleMember,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func createTestPost(t *testing.T, s store.Store, authorID string, published bool) *domain.Post {
	t.Helper()
	now := time.Now().UTC()
	post := &domain.Post{
		ID:        id.MustGenerate("post"),
		Title:     "Test Post",
		Slug:      id.MustGenerate("slug"),
		Content:   "body",
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if published {
		post.PublishedAt = &now
	}
	require.NoError(t, s.CreatePost(context.Background(), post))
	return post
}

func createTestTag(t *testing.T, s store.Store, name, slug string) *domain.Tag {
	t.Helper()
	now := time.Now().UTC()
	tag := &domain.Tag{
		ID:        id.MustGenerate("tag"),
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateTag(context.Background(), tag))
	return tag
}
