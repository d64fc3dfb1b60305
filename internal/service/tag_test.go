package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberforum/ember-server/internal/errors"
)

func newTestTagService(t *testing.T) *TagService {
	t.Helper()
	return NewTagService(newTestStore(t), 0, testLogger())
}

func TestCreateTag(t *testing.T) {
	svc := newTestTagService(t)
	ctx := context.Background()

	result, err := svc.CreateTag(ctx, "Science Fiction", "")
	require.NoError(t, err)
	assert.Equal(t, "Science Fiction", result.Tag.Name)
	assert.Equal(t, "science-fiction", result.Tag.Slug)
	assert.Empty(t, result.Warnings)

	got, err := svc.GetTagBySlug(ctx, "science-fiction")
	require.NoError(t, err)
	assert.Equal(t, result.Tag.ID, got.ID)
}

func TestCreateTag_EmptyName(t *testing.T) {
	svc := newTestTagService(t)

	_, err := svc.CreateTag(context.Background(), "   ", "")
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestCreateTag_ExactDuplicate(t *testing.T) {
	svc := newTestTagService(t)
	ctx := context.Background()

	_, err := svc.CreateTag(ctx, "Technology", "")
	require.NoError(t, err)

	// Same name in a different case is still the same tag.
	_, err = svc.CreateTag(ctx, "technology", "")
	assert.True(t, errors.Is(err, errors.ErrAlreadyExists))
}

func TestCreateTag_NearDuplicateWarns(t *testing.T) {
	svc := newTestTagService(t)
	ctx := context.Background()

	seeded, err := svc.CreateTag(ctx, "Technology", "")
	require.NoError(t, err)

	// A one-letter typo should clear the warning threshold but still create.
	result, err := svc.CreateTag(ctx, "Technolgy", "")
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, seeded.Tag.ID, result.Warnings[0].TagID)
	assert.GreaterOrEqual(t, result.Warnings[0].Score, 85)
}

func TestCreateTag_DistinctNameNoWarning(t *testing.T) {
	svc := newTestTagService(t)
	ctx := context.Background()

	_, err := svc.CreateTag(ctx, "New", "")
	require.NoError(t, err)

	// "News" is one edit from "New", but the typo floor sits below the
	// default warning threshold; created without a warning.
	result, err := svc.CreateTag(ctx, "News", "")
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
}

func TestFindSimilarTags(t *testing.T) {
	svc := newTestTagService(t)
	ctx := context.Background()

	_, err := svc.CreateTag(ctx, "Technology", "")
	require.NoError(t, err)
	_, err = svc.CreateTag(ctx, "Biotechnology", "")
	require.NoError(t, err)
	_, err = svc.CreateTag(ctx, "Cooking", "")
	require.NoError(t, err)

	matches, err := svc.FindSimilarTags(ctx, "Technology", 0)
	require.NoError(t, err)

	// Exact match scores 100 and sorts first; unrelated names fall below
	// the reporting floor entirely.
	require.NotEmpty(t, matches)
	assert.Equal(t, "technology", matches[0].Slug)
	assert.Equal(t, 100, matches[0].Score)
	for i := 1; i < len(matches); i++ {
		assert.LessOrEqual(t, matches[i].Score, matches[i-1].Score)
		assert.NotEqual(t, "cooking", matches[i].Slug)
	}

	// A limit keeps only the best matches.
	top, err := svc.FindSimilarTags(ctx, "Technology", 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "technology", top[0].Slug)
}

func TestFindSimilarTags_EmptyName(t *testing.T) {
	svc := newTestTagService(t)

	matches, err := svc.FindSimilarTags(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestBulkCreateTags(t *testing.T) {
	svc := newTestTagService(t)
	ctx := context.Background()

	// "news" resolves to the tag just created for "News" instead of
	// duplicating it; an empty name fails without touching the rest.
	result, err := svc.BulkCreateTags(ctx, []string{"News", "news", "New", ""}, "")
	require.NoError(t, err)

	require.Len(t, result.Created, 2)
	assert.Equal(t, "News", result.Created[0].Name)
	assert.Equal(t, "New", result.Created[1].Name)

	require.Len(t, result.Existing, 1)
	assert.Equal(t, result.Created[0].ID, result.Existing[0].ID)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, "empty name", result.Failed[0].Reason)
}

func TestBulkCreateTags_ReusesExisting(t *testing.T) {
	svc := newTestTagService(t)
	ctx := context.Background()

	seeded, err := svc.CreateTag(ctx, "Go", "")
	require.NoError(t, err)

	result, err := svc.BulkCreateTags(ctx, []string{"Go", "Python"}, "")
	require.NoError(t, err)

	require.Len(t, result.Created, 1)
	assert.Equal(t, "Python", result.Created[0].Name)
	require.Len(t, result.Existing, 1)
	assert.Equal(t, seeded.Tag.ID, result.Existing[0].ID)
}

func TestBulkCreateTags_FailureDoesNotAbort(t *testing.T) {
	svc := newTestTagService(t)
	ctx := context.Background()

	// A mid-batch failure is recorded for that name only; names after it
	// are still processed.
	result, err := svc.BulkCreateTags(ctx, []string{"Go", strings.Repeat("x", 60), "Rust"}, "")
	require.NoError(t, err)

	require.Len(t, result.Created, 2)
	assert.Equal(t, "Go", result.Created[0].Name)
	assert.Equal(t, "Rust", result.Created[1].Name)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, strings.Repeat("x", 60), result.Failed[0].Name)
}

func TestMergeTags_TargetInSources(t *testing.T) {
	svc := newTestTagService(t)
	ctx := context.Background()

	target, err := svc.CreateTag(ctx, "Go", "")
	require.NoError(t, err)

	_, err = svc.MergeTags(ctx, []string{target.Tag.ID}, target.Tag.ID)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestMergeTags_MissingSource(t *testing.T) {
	svc := newTestTagService(t)
	ctx := context.Background()

	target, err := svc.CreateTag(ctx, "Go", "")
	require.NoError(t, err)

	_, err = svc.MergeTags(ctx, []string{"tag-missing"}, target.Tag.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestMergeTags(t *testing.T) {
	s := newTestStore(t)
	svc := NewTagService(s, 0, testLogger())
	ctx := context.Background()

	source := createTestTag(t, s, "Golang", "golang")
	target := createTestTag(t, s, "Go", "go")

	author := createTestUser(t, s)
	post := createTestPost(t, s, author.ID, true)
	require.NoError(t, s.SetPostTags(ctx, post.ID, []string{source.ID}))

	merged, err := svc.MergeTags(ctx, []string{source.ID}, target.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, merged.ID)
	assert.Equal(t, 1, merged.PostCount)

	_, err = svc.GetTag(ctx, source.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestDeleteTag_WithPostsRefused(t *testing.T) {
	s := newTestStore(t)
	svc := NewTagService(s, 0, testLogger())
	ctx := context.Background()

	tag := createTestTag(t, s, "Go", "go")
	author := createTestUser(t, s)
	post := createTestPost(t, s, author.ID, true)
	require.NoError(t, s.SetPostTags(ctx, post.ID, []string{tag.ID}))

	// Refused without force; the tag survives and the count comes back.
	result, err := svc.DeleteTag(ctx, tag.ID, false)
	require.NoError(t, err)
	assert.False(t, result.Deleted)
	assert.True(t, result.HasPosts)
	assert.Equal(t, 1, result.PostCount)

	_, err = svc.GetTag(ctx, tag.ID)
	require.NoError(t, err)

	// Force goes through.
	result, err = svc.DeleteTag(ctx, tag.ID, true)
	require.NoError(t, err)
	assert.True(t, result.Deleted)

	_, err = svc.GetTag(ctx, tag.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestDeleteTag_Unused(t *testing.T) {
	s := newTestStore(t)
	svc := NewTagService(s, 0, testLogger())
	ctx := context.Background()

	tag := createTestTag(t, s, "Go", "go")

	result, err := svc.DeleteTag(ctx, tag.ID, false)
	require.NoError(t, err)
	assert.True(t, result.Deleted)
	assert.False(t, result.HasPosts)
	assert.Zero(t, result.PostCount)
}

func TestDeleteTag_NotFound(t *testing.T) {
	svc := newTestTagService(t)

	_, err := svc.DeleteTag(context.Background(), "tag-missing", false)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestIsTooSimilar(t *testing.T) {
	svc := newTestTagService(t)
	ctx := context.Background()

	_, err := svc.CreateTag(ctx, "Technology", "")
	require.NoError(t, err)

	tooClose, err := svc.IsTooSimilar(ctx, "Technolgy")
	require.NoError(t, err)
	assert.True(t, tooClose)

	distinct, err := svc.IsTooSimilar(ctx, "Cooking")
	require.NoError(t, err)
	assert.False(t, distinct)
}
