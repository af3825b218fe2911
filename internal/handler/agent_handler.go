package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/motordesk/dealer-voice-service/internal/cache"
	"github.com/motordesk/dealer-voice-service/internal/domain"
	"github.com/motordesk/dealer-voice-service/internal/repository"
	"github.com/motordesk/dealer-voice-service/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AgentHandler serves staff administration of the agent directory. Every
// mutation invalidates the cached eligible-agent set so routing sees the
// change within one cache TTL at most.
type AgentHandler struct {
	repoManager repository.RepositoryManager
	agentCache  *cache.AgentCache
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(repoManager repository.RepositoryManager, agentCache *cache.AgentCache) *AgentHandler {
	return &AgentHandler{
		repoManager: repoManager,
		agentCache:  agentCache,
	}
}

// SetupAgentRoutes registers the agent administration routes
func (h *AgentHandler) SetupAgentRoutes(router *mux.Router) {
	router.HandleFunc("/agents", h.createAgent).Methods("POST")
	router.HandleFunc("/agents", h.listAgents).Methods("GET")
	router.HandleFunc("/agents/{id}", h.getAgent).Methods("GET")
	router.HandleFunc("/agents/{id}", h.updateAgent).Methods("PUT")
	router.HandleFunc("/agents/{id}", h.deleteAgent).Methods("DELETE")
}

// createAgent godoc
// @Summary Create an agent
// @Description Register a staff member in the agent directory
// @Tags agents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body domain.CreateAgentRequest true "Agent details"
// @Success 201 {object} domain.Agent
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/agents [post]
func (h *AgentHandler) createAgent(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Identity == "" || req.FirstName == "" || req.LastName == "" || req.Role == "" {
		writeJSONError(w, http.StatusBadRequest, "identity, first_name, last_name and role are required")
		return
	}

	existing, err := h.repoManager.Agent().GetByIdentity(r.Context(), req.Identity)
	if err == nil && existing != nil {
		writeJSONError(w, http.StatusConflict, "an agent with this identity already exists")
		return
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Base().Error("failed to check agent identity", zap.String("identity", req.Identity), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to create agent")
		return
	}

	agent, err := h.repoManager.Agent().Create(r.Context(), &req)
	if err != nil {
		logger.Base().Error("failed to create agent", zap.String("identity", req.Identity), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to create agent")
		return
	}

	h.agentCache.Invalidate(r.Context())
	logger.Base().Info("agent created", zap.String("agent_id", agent.ID), zap.String("identity", agent.Identity))
	writeJSON(w, http.StatusCreated, agent)
}

// listAgents godoc
// @Summary List agents
// @Description List directory agents, optionally including disabled ones
// @Tags agents
// @Produce json
// @Security BearerAuth
// @Param include_disabled query bool false "Include disabled agents"
// @Success 200 {array} domain.Agent
// @Router /api/agents [get]
func (h *AgentHandler) listAgents(w http.ResponseWriter, r *http.Request) {
	includeDisabled := r.URL.Query().Get("include_disabled") == "true"

	agents, err := h.repoManager.Agent().GetAll(r.Context(), includeDisabled)
	if err != nil {
		logger.Base().Error("failed to list agents", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to list agents")
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

// getAgent godoc
// @Summary Get an agent
// @Tags agents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Agent ID"
// @Success 200 {object} domain.Agent
// @Failure 404 {object} map[string]string
// @Router /api/agents/{id} [get]
func (h *AgentHandler) getAgent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	agent, err := h.repoManager.Agent().GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusNotFound, "agent not found")
			return
		}
		logger.Base().Error("failed to fetch agent", zap.String("agent_id", id), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to fetch agent")
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

// updateAgent godoc
// @Summary Update an agent
// @Description Update agent fields; omitted fields are left unchanged
// @Tags agents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Agent ID"
// @Param request body domain.UpdateAgentRequest true "Fields to update"
// @Success 200 {object} domain.Agent
// @Failure 404 {object} map[string]string
// @Router /api/agents/{id} [put]
func (h *AgentHandler) updateAgent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req domain.UpdateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	agent, err := h.repoManager.Agent().Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusNotFound, "agent not found")
			return
		}
		logger.Base().Error("failed to update agent", zap.String("agent_id", id), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to update agent")
		return
	}

	h.agentCache.Invalidate(r.Context())
	logger.Base().Info("agent updated", zap.String("agent_id", id))
	writeJSON(w, http.StatusOK, agent)
}

// deleteAgent godoc
// @Summary Disable an agent
// @Description Soft-delete an agent; disabled agents stop receiving routed calls but their history is kept
// @Tags agents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Agent ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string
// @Router /api/agents/{id} [delete]
func (h *AgentHandler) deleteAgent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	exists, err := h.repoManager.Agent().Exists(r.Context(), id)
	if err != nil {
		logger.Base().Error("failed to check agent existence", zap.String("agent_id", id), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to delete agent")
		return
	}
	if !exists {
		writeJSONError(w, http.StatusNotFound, "agent not found")
		return
	}

	if err := h.repoManager.Agent().Delete(r.Context(), id); err != nil {
		logger.Base().Error("failed to delete agent", zap.String("agent_id", id), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to delete agent")
		return
	}

	h.agentCache.Invalidate(r.Context())
	logger.Base().Info("agent disabled", zap.String("agent_id", id))
	w.WriteHeader(http.StatusNoContent)
}
