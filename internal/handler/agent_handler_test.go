package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/motordesk/dealer-voice-service/internal/cache"
	"github.com/motordesk/dealer-voice-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAgentHandler(repo *fakeAgentRepo) (*AgentHandler, *mux.Router) {
	h := NewAgentHandler(&fakeRepoManager{agentRepo: repo}, cache.NewAgentCache(repo, nil, time.Minute))
	router := mux.NewRouter()
	h.SetupAgentRoutes(router)
	return h, router
}

func TestCreateAgent(t *testing.T) {
	_, router := newTestAgentHandler(newFakeAgentRepo())

	req := staffRequest(http.MethodPost, "/agents",
		`{"identity":"bob","first_name":"Bob","last_name":"Seller","role":"Broker"}`, "admin")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Agent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "bob", created.Identity)
	assert.Equal(t, domain.RoleBroker, created.Role)
}

func TestCreateAgentRejectsMissingFields(t *testing.T) {
	_, router := newTestAgentHandler(newFakeAgentRepo())

	req := staffRequest(http.MethodPost, "/agents", `{"identity":"bob"}`, "admin")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAgentRejectsDuplicateIdentity(t *testing.T) {
	repo := newFakeAgentRepo()
	_, err := repo.Create(context.Background(), &domain.CreateAgentRequest{
		Identity: "bob", FirstName: "Bob", LastName: "Seller", Role: domain.RoleBroker,
	})
	require.NoError(t, err)

	_, router := newTestAgentHandler(repo)

	req := staffRequest(http.MethodPost, "/agents",
		`{"identity":"bob","first_name":"Other","last_name":"Bob","role":"Assistant"}`, "admin")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateAgentTogglesIncomingCallFlag(t *testing.T) {
	repo := newFakeAgentRepo()
	created, err := repo.Create(context.Background(), &domain.CreateAgentRequest{
		Identity: "eve", FirstName: "Eve", LastName: "Helper", Role: domain.RoleAssistant,
	})
	require.NoError(t, err)

	_, router := newTestAgentHandler(repo)

	req := staffRequest(http.MethodPut, "/agents/"+created.ID, `{"can_receive_incoming_calls":true}`, "admin")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var updated domain.Agent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.True(t, updated.CanReceiveIncomingCalls)
	assert.True(t, updated.EligibleForIncomingCalls())
}

func TestUpdateUnknownAgentReturnsNotFound(t *testing.T) {
	_, router := newTestAgentHandler(newFakeAgentRepo())

	req := staffRequest(http.MethodPut, "/agents/missing", `{"first_name":"X"}`, "admin")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAgentDisablesInsteadOfRemoving(t *testing.T) {
	repo := newFakeAgentRepo()
	created, err := repo.Create(context.Background(), &domain.CreateAgentRequest{
		Identity: "bob", FirstName: "Bob", LastName: "Seller", Role: domain.RoleBroker,
	})
	require.NoError(t, err)

	_, router := newTestAgentHandler(repo)

	req := staffRequest(http.MethodDelete, "/agents/"+created.ID, "", "admin")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)

	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, stored.Disabled)
	assert.False(t, stored.EligibleForIncomingCalls())
}

func TestListAgentsExcludesDisabledByDefault(t *testing.T) {
	repo := newFakeAgentRepo()
	_, err := repo.Create(context.Background(), &domain.CreateAgentRequest{
		Identity: "bob", FirstName: "Bob", LastName: "Seller", Role: domain.RoleBroker,
	})
	require.NoError(t, err)
	gone, err := repo.Create(context.Background(), &domain.CreateAgentRequest{
		Identity: "old", FirstName: "Old", LastName: "Timer", Role: domain.RoleBroker,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(context.Background(), gone.ID))

	_, router := newTestAgentHandler(repo)

	req := staffRequest(http.MethodGet, "/agents", "", "admin")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var listed []domain.Agent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "bob", listed[0].Identity)
}
