package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberforum/ember-server/internal/domain"
	"github.com/emberforum/ember-server/internal/service"
	"github.com/emberforum/ember-server/internal/store"
)

func TestCreateTag_API(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "tagger@example.com")

	resp := ts.api.Post("/api/v1/tags",
		"Authorization: Bearer "+token,
		map[string]any{"name": "Science Fiction"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := decodeEnvelope[service.CreateTagResult](t, resp.Body.Bytes())
	assert.True(t, envelope.Success)
	assert.Equal(t, "Science Fiction", envelope.Data.Tag.Name)
	assert.Equal(t, "science-fiction", envelope.Data.Tag.Slug)
	assert.Empty(t, envelope.Data.Warnings)

	// Anonymous creation is refused.
	resp = ts.api.Post("/api/v1/tags", map[string]any{"name": "Anonymous"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCreateTag_API_DuplicateAndWarnings(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "tagger@example.com")

	resp := ts.api.Post("/api/v1/tags",
		"Authorization: Bearer "+token,
		map[string]any{"name": "Technology"})
	require.Equal(t, http.StatusOK, resp.Code)

	// Same name ignoring case conflicts.
	resp = ts.api.Post("/api/v1/tags",
		"Authorization: Bearer "+token,
		map[string]any{"name": "technology"})
	assert.Equal(t, http.StatusConflict, resp.Code, resp.Body.String())

	// A near-duplicate is created but flagged.
	resp = ts.api.Post("/api/v1/tags",
		"Authorization: Bearer "+token,
		map[string]any{"name": "Technolgy"})
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[service.CreateTagResult](t, resp.Body.Bytes())
	require.Len(t, envelope.Data.Warnings, 1)
	assert.Equal(t, "Technology", envelope.Data.Warnings[0].Name)
	assert.GreaterOrEqual(t, envelope.Data.Warnings[0].Score, 85)
}

func TestListAndFindSimilarTags_API(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "tagger@example.com")

	for _, name := range []string{"Technology", "Biotechnology", "Cooking"} {
		resp := ts.api.Post("/api/v1/tags",
			"Authorization: Bearer "+token,
			map[string]any{"name": name})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	}

	resp := ts.api.Get("/api/v1/tags?limit=10")
	require.Equal(t, http.StatusOK, resp.Code)
	list := decodeEnvelope[store.PaginatedResult[*domain.Tag]](t, resp.Body.Bytes())
	assert.Equal(t, 3, list.Data.Total)

	resp = ts.api.Get("/api/v1/tags/similar?name=Technology")
	require.Equal(t, http.StatusOK, resp.Code)

	similar := decodeEnvelope[struct {
		Matches []domain.SimilarTag `json:"matches"`
	}](t, resp.Body.Bytes())
	require.NotEmpty(t, similar.Data.Matches)
	assert.Equal(t, "Technology", similar.Data.Matches[0].Name)
	assert.Equal(t, 100, similar.Data.Matches[0].Score)
	for _, m := range similar.Data.Matches {
		assert.NotEqual(t, "Cooking", m.Name)
	}

	// The limit caps the match list.
	resp = ts.api.Get("/api/v1/tags/similar?name=Technology&limit=1")
	require.Equal(t, http.StatusOK, resp.Code)
	capped := decodeEnvelope[struct {
		Matches []domain.SimilarTag `json:"matches"`
	}](t, resp.Body.Bytes())
	require.Len(t, capped.Data.Matches, 1)
	assert.Equal(t, "Technology", capped.Data.Matches[0].Name)
}

func TestBulkCreateTags_API(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "tagger@example.com")

	resp := ts.api.Post("/api/v1/tags/bulk",
		"Authorization: Bearer "+token,
		map[string]any{"names": []string{"Go", "go", "Rust", ""}})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := decodeEnvelope[service.BulkCreateTagsResult](t, resp.Body.Bytes())
	assert.Len(t, envelope.Data.Created, 2)
	require.Len(t, envelope.Data.Existing, 1)
	assert.Equal(t, "Go", envelope.Data.Existing[0].Name)
	assert.Len(t, envelope.Data.Failed, 1)
}

func TestMergeAndDeleteTags_API_AdminOnly(t *testing.T) {
	ts := setupTestServer(t)
	adminToken, _ := ts.registerUser(t, "admin@example.com")
	memberToken, _ := ts.registerUser(t, "member@example.com")

	resp := ts.api.Post("/api/v1/tags",
		"Authorization: Bearer "+adminToken,
		map[string]any{"name": "Target"})
	require.Equal(t, http.StatusOK, resp.Code)
	target := decodeEnvelope[service.CreateTagResult](t, resp.Body.Bytes())

	resp = ts.api.Post("/api/v1/tags",
		"Authorization: Bearer "+adminToken,
		map[string]any{"name": "Source"})
	require.Equal(t, http.StatusOK, resp.Code)
	source := decodeEnvelope[service.CreateTagResult](t, resp.Body.Bytes())

	// Members cannot merge.
	resp = ts.api.Post("/api/v1/tags/merge",
		"Authorization: Bearer "+memberToken,
		map[string]any{
			"source_ids": []string{source.Data.Tag.ID},
			"target_id":  target.Data.Tag.ID,
		})
	assert.Equal(t, http.StatusForbidden, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/tags/merge",
		"Authorization: Bearer "+adminToken,
		map[string]any{
			"source_ids": []string{source.Data.Tag.ID},
			"target_id":  target.Data.Tag.ID,
		})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// Source is gone after the merge.
	resp = ts.api.Get("/api/v1/tags/" + source.Data.Tag.ID)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	// Members cannot delete either.
	resp = ts.api.Delete("/api/v1/tags/"+target.Data.Tag.ID, "Authorization: Bearer "+memberToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Delete("/api/v1/tags/"+target.Data.Tag.ID, "Authorization: Bearer "+adminToken)
	require.Equal(t, http.StatusOK, resp.Code)

	deleted := decodeEnvelope[service.DeleteTagResult](t, resp.Body.Bytes())
	assert.True(t, deleted.Data.Deleted)
}
