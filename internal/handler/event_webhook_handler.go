package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/motordesk/dealer-voice-service/internal/domain"
	"github.com/motordesk/dealer-voice-service/internal/repository"
	"github.com/motordesk/dealer-voice-service/internal/services/routing"
	"github.com/motordesk/dealer-voice-service/pkg/logger"
	"go.uber.org/zap"
)

// EventWebhookHandler records call lifecycle events delivered by the
// provider. These endpoints acknowledge with a small JSON body and never
// return markup.
type EventWebhookHandler struct {
	repoManager repository.RepositoryManager
}

// NewEventWebhookHandler creates a new event webhook handler
func NewEventWebhookHandler(repoManager repository.RepositoryManager) *EventWebhookHandler {
	return &EventWebhookHandler{repoManager: repoManager}
}

// SetupEventRoutes registers the lifecycle event routes. The router passed in
// must already carry the signature gate.
func (h *EventWebhookHandler) SetupEventRoutes(router *mux.Router) {
	router.HandleFunc("/status", h.handleStatusCallback).Methods("POST")
	router.HandleFunc("/after-call", h.handleAfterCall).Methods("POST")

	logger.Base().Info("voice lifecycle event routes registered")
}

// handleStatusCallback godoc
// @Summary Record a call lifecycle event
// @Description Append one immutable event row per delivery; duplicate deliveries append duplicate rows
// @Tags voice
// @Accept x-www-form-urlencoded
// @Produce json
// @Param X-Twilio-Signature header string true "Webhook signature"
// @Success 200 {object} map[string]bool
// @Failure 403 {string} string "Invalid signature"
// @Router /voice/status [post]
func (h *EventWebhookHandler) handleStatusCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.acknowledge(w)
		return
	}
	call := routing.ParseCallParams(r.PostForm)

	h.record(r, call, call.CallStatus)
	h.acknowledge(w)
}

// handleAfterCall godoc
// @Summary Record the outcome of a dialed leg
// @Description Append the final status and duration of the bridged leg once the dial completes
// @Tags voice
// @Accept x-www-form-urlencoded
// @Produce json
// @Param X-Twilio-Signature header string true "Webhook signature"
// @Success 200 {object} map[string]bool
// @Failure 403 {string} string "Invalid signature"
// @Router /voice/after-call [post]
func (h *EventWebhookHandler) handleAfterCall(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.acknowledge(w)
		return
	}
	call := routing.ParseCallParams(r.PostForm)

	// The dial action callback reports the bridged leg's outcome under
	// DialCallStatus; fall back to the parent leg's status when absent.
	status := r.PostForm.Get("DialCallStatus")
	if status == "" {
		status = call.CallStatus
	}
	if v := r.PostForm.Get("DialCallDuration"); v != "" && call.CallDuration == 0 {
		call.CallDuration = atoiOrZero(v)
	}

	h.record(r, call, status)
	h.acknowledge(w)
}

// record appends one event row. A storage failure is logged but never
// surfaced: the provider retries failed callbacks and re-delivery of an
// append-only event is harmless, while a non-2xx response would make it
// retry even successful ones.
func (h *EventWebhookHandler) record(r *http.Request, call routing.CallParams, status string) {
	event := &domain.CallEvent{
		CallSid:       call.CallSid,
		ParentCallSid: call.ParentCallSid,
		From:          call.From,
		To:            call.To,
		Direction:     call.Direction,
		Status:        status,
		RecordingURL:  call.RecordingURL,
		RecordingSid:  call.RecordingSid,
	}
	if call.CallDuration > 0 || status == domain.CallStatusCompleted {
		duration := call.CallDuration
		event.Duration = &duration
	}

	if err := h.repoManager.CallEvent().Create(r.Context(), event); err != nil {
		logger.Base().Error("failed to record call event",
			zap.String("call_sid", call.CallSid),
			zap.String("status", status),
			zap.Error(err),
		)
		return
	}

	logger.Base().Info("call event recorded",
		zap.String("call_sid", call.CallSid),
		zap.String("status", status),
		zap.String("direction", call.Direction),
	)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func (h *EventWebhookHandler) acknowledge(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]bool{"received": true}); err != nil {
		logger.Base().Error("failed to write acknowledgement", zap.Error(err))
	}
}
