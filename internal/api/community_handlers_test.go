package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberforum/ember-server/internal/domain"
	"github.com/emberforum/ember-server/internal/service"
)

// createCommunity creates a community through the API and returns it.
func (ts *testServer) createCommunity(t *testing.T, token, name string, private bool) domain.Community {
	t.Helper()

	resp := ts.api.Post("/api/v1/communities",
		"Authorization: Bearer "+token,
		map[string]any{"name": name, "is_private": private})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := decodeEnvelope[domain.Community](t, resp.Body.Bytes())
	return envelope.Data
}

func TestCreateCommunity_API(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := ts.registerUser(t, "founder@example.com")

	community := ts.createCommunity(t, token, "Gophers United", false)
	assert.Equal(t, "gophers-united", community.Slug)
	assert.Equal(t, userID, community.CreatorID)
	assert.Equal(t, 1, community.MemberCount)

	// The slug resolves back to the same community.
	resp := ts.api.Get("/api/v1/communities/by-slug/gophers-united")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	fetched := decodeEnvelope[domain.Community](t, resp.Body.Bytes())
	assert.Equal(t, community.ID, fetched.Data.ID)
}

func TestJoinPublicCommunity_API(t *testing.T) {
	ts := setupTestServer(t)
	founderToken, _ := ts.registerUser(t, "founder@example.com")
	joinerToken, _ := ts.registerUser(t, "joiner@example.com")

	community := ts.createCommunity(t, founderToken, "Open Club", false)

	resp := ts.api.Post("/api/v1/communities/"+community.ID+"/join",
		"Authorization: Bearer "+joinerToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	joined := decodeEnvelope[service.JoinResult](t, resp.Body.Bytes())
	assert.False(t, joined.Data.Pending)
	assert.Equal(t, domain.MembershipApproved, joined.Data.Member.Status)

	// Joining twice conflicts.
	resp = ts.api.Post("/api/v1/communities/"+community.ID+"/join",
		"Authorization: Bearer "+joinerToken)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestPrivateJoinApprovalFlow_API(t *testing.T) {
	ts := setupTestServer(t)
	founderToken, _ := ts.registerUser(t, "founder@example.com")
	joinerToken, joinerID := ts.registerUser(t, "joiner@example.com")

	community := ts.createCommunity(t, founderToken, "Secret Society", true)

	resp := ts.api.Post("/api/v1/communities/"+community.ID+"/join",
		"Authorization: Bearer "+joinerToken)
	require.Equal(t, http.StatusOK, resp.Code)
	joined := decodeEnvelope[service.JoinResult](t, resp.Body.Bytes())
	assert.True(t, joined.Data.Pending)

	// The requester cannot approve themselves.
	resp = ts.api.Post("/api/v1/communities/"+community.ID+"/members/"+joinerID+"/approve",
		"Authorization: Bearer "+joinerToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Post("/api/v1/communities/"+community.ID+"/members/"+joinerID+"/approve",
		"Authorization: Bearer "+founderToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	approved := decodeEnvelope[domain.CommunityMember](t, resp.Body.Bytes())
	assert.Equal(t, domain.MembershipApproved, approved.Data.Status)
}

func TestBanAndLeave_API(t *testing.T) {
	ts := setupTestServer(t)
	founderToken, _ := ts.registerUser(t, "founder@example.com")
	joinerToken, joinerID := ts.registerUser(t, "joiner@example.com")

	community := ts.createCommunity(t, founderToken, "Strict Club", false)

	resp := ts.api.Post("/api/v1/communities/"+community.ID+"/join",
		"Authorization: Bearer "+joinerToken)
	require.Equal(t, http.StatusOK, resp.Code)

	// The creator cannot leave.
	resp = ts.api.Post("/api/v1/communities/"+community.ID+"/leave",
		"Authorization: Bearer "+founderToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Post("/api/v1/communities/"+community.ID+"/members/"+joinerID+"/ban",
		"Authorization: Bearer "+founderToken)
	require.Equal(t, http.StatusOK, resp.Code)

	// Banned users cannot rejoin.
	resp = ts.api.Post("/api/v1/communities/"+community.ID+"/join",
		"Authorization: Bearer "+joinerToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestSetMemberRole_API(t *testing.T) {
	ts := setupTestServer(t)
	founderToken, _ := ts.registerUser(t, "founder@example.com")
	joinerToken, joinerID := ts.registerUser(t, "joiner@example.com")

	community := ts.createCommunity(t, founderToken, "Role Club", false)

	resp := ts.api.Post("/api/v1/communities/"+community.ID+"/join",
		"Authorization: Bearer "+joinerToken)
	require.Equal(t, http.StatusOK, resp.Code)

	// A plain member cannot assign roles.
	resp = ts.api.Put("/api/v1/communities/"+community.ID+"/members/"+joinerID+"/role",
		"Authorization: Bearer "+joinerToken,
		map[string]any{"role": "moderator"})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Put("/api/v1/communities/"+community.ID+"/members/"+joinerID+"/role",
		"Authorization: Bearer "+founderToken,
		map[string]any{"role": "moderator"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	promoted := decodeEnvelope[domain.CommunityMember](t, resp.Body.Bytes())
	assert.Equal(t, domain.CommunityRoleModerator, promoted.Data.Role)
}

func TestDeleteCommunity_API(t *testing.T) {
	ts := setupTestServer(t)
	founderToken, _ := ts.registerUser(t, "founder@example.com")
	otherToken, _ := ts.registerUser(t, "other@example.com")

	community := ts.createCommunity(t, founderToken, "Short Lived", false)

	resp := ts.api.Delete("/api/v1/communities/"+community.ID, "Authorization: Bearer "+otherToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Delete("/api/v1/communities/"+community.ID, "Authorization: Bearer "+founderToken)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/communities/" + community.ID)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
