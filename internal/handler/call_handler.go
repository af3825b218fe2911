package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/motordesk/dealer-voice-service/internal/repository"
	"github.com/motordesk/dealer-voice-service/internal/services/routing"
	"github.com/motordesk/dealer-voice-service/pkg/logger"
	pkgtwilio "github.com/motordesk/dealer-voice-service/pkg/twilio"
	"go.uber.org/zap"
)

// CallHandler serves the staff-facing call operations: click-to-call
// origination and the recorded call history.
type CallHandler struct {
	dialer        *pkgtwilio.OutboundDialer
	repoManager   repository.RepositoryManager
	publicBaseURL string
}

// NewCallHandler creates a new call handler
func NewCallHandler(dialer *pkgtwilio.OutboundDialer, repoManager repository.RepositoryManager, publicBaseURL string) *CallHandler {
	return &CallHandler{
		dialer:        dialer,
		repoManager:   repoManager,
		publicBaseURL: publicBaseURL,
	}
}

// SetupCallRoutes registers the call routes
func (h *CallHandler) SetupCallRoutes(router *mux.Router) {
	router.HandleFunc("/calls/click-to-call", h.clickToCall).Methods("POST")
	router.HandleFunc("/calls/history", h.callHistory).Methods("GET")
}

// ClickToCallRequest is the staff request to originate a customer call.
type ClickToCallRequest struct {
	To string `json:"to"`
}

// clickToCall godoc
// @Summary Originate a customer call
// @Description Place an outbound call to the customer; when they answer, the authenticated staff member's softphone is bridged in
// @Tags staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ClickToCallRequest true "Destination number in E.164 form"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/calls/click-to-call [post]
func (h *CallHandler) clickToCall(w http.ResponseWriter, r *http.Request) {
	identity := StaffIdentityFromContext(r.Context())
	if identity == "" {
		writeJSONError(w, http.StatusUnauthorized, "missing staff identity")
		return
	}

	var req ClickToCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !routing.IsValidE164(req.To) {
		writeJSONError(w, http.StatusBadRequest, "destination must be a valid E.164 number")
		return
	}

	answerURL := h.publicBaseURL + "/voice/connect?identity=" + url.QueryEscape(identity)
	statusCallbackURL := h.publicBaseURL + "/voice/status"

	callSid, err := h.dialer.StartCall(req.To, answerURL, statusCallbackURL)
	if err != nil {
		logger.Base().Error("click-to-call origination failed",
			zap.String("identity", identity),
			zap.String("to", req.To),
			zap.Error(err),
		)
		writeJSONError(w, http.StatusServiceUnavailable, "failed to originate call")
		return
	}

	logger.Base().Info("click-to-call originated",
		zap.String("identity", identity),
		zap.String("to", req.To),
		zap.String("call_sid", callSid),
	)
	writeJSON(w, http.StatusOK, map[string]string{"call_sid": callSid})
}

// callHistory godoc
// @Summary List recorded call events
// @Description List recent call lifecycle events, optionally filtered to one call SID
// @Tags staff
// @Produce json
// @Security BearerAuth
// @Param call_sid query string false "Filter to one call SID"
// @Param limit query int false "Maximum rows to return (default 100, capped at 500)"
// @Success 200 {array} domain.CallEvent
// @Failure 500 {object} map[string]string
// @Router /api/calls/history [get]
func (h *CallHandler) callHistory(w http.ResponseWriter, r *http.Request) {
	if callSid := r.URL.Query().Get("call_sid"); callSid != "" {
		events, err := h.repoManager.CallEvent().GetByCallSid(r.Context(), callSid)
		if err != nil {
			logger.Base().Error("failed to fetch call events", zap.String("call_sid", callSid), zap.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "failed to fetch call events")
			return
		}
		writeJSON(w, http.StatusOK, events)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	events, err := h.repoManager.CallEvent().ListRecent(r.Context(), limit)
	if err != nil {
		logger.Base().Error("failed to list call events", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to list call events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}
