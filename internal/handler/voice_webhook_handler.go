package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/motordesk/dealer-voice-service/internal/cache"
	"github.com/motordesk/dealer-voice-service/internal/services/routing"
	"github.com/motordesk/dealer-voice-service/internal/twiml"
	"github.com/motordesk/dealer-voice-service/pkg/logger"
	"go.uber.org/zap"
)

// VoiceWebhookHandler serves the call-control webhooks: the provider posts a
// form-encoded call snapshot and expects markup telling it what to do next.
// These endpoints return text/xml exclusively; event acknowledgements live in
// EventWebhookHandler.
type VoiceWebhookHandler struct {
	engine  *routing.Engine
	retries *cache.RetryCounter
}

// NewVoiceWebhookHandler creates a new voice webhook handler
func NewVoiceWebhookHandler(engine *routing.Engine, retries *cache.RetryCounter) *VoiceWebhookHandler {
	return &VoiceWebhookHandler{
		engine:  engine,
		retries: retries,
	}
}

// SetupVoiceRoutes registers the call-control webhook routes. The router
// passed in must already carry the signature gate.
func (h *VoiceWebhookHandler) SetupVoiceRoutes(router *mux.Router) {
	router.HandleFunc("/inbound", h.handleInboundCall).Methods("POST")
	router.HandleFunc("/gather", h.handleGatherResult).Methods("POST")
	router.HandleFunc("/connect", h.handleConnectAgent).Methods("POST")

	logger.Base().Info("voice call-control routes registered")
}

// handleInboundCall godoc
// @Summary Handle a new call leg
// @Description Decide the destination of a new inbound or client-originated call and respond with call-control markup
// @Tags voice
// @Accept x-www-form-urlencoded
// @Produce xml
// @Param X-Twilio-Signature header string true "Webhook signature"
// @Success 200 {string} string "Call-control markup"
// @Failure 403 {string} string "Invalid signature"
// @Router /voice/inbound [post]
func (h *VoiceWebhookHandler) handleInboundCall(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	call := routing.ParseCallParams(r.PostForm)

	logger.Base().Info("inbound call webhook",
		zap.String("call_sid", call.CallSid),
		zap.String("from", call.From),
		zap.String("to", call.To),
		zap.String("direction", call.Direction),
	)

	decision, err := h.engine.RouteInbound(r.Context(), call)
	if err != nil {
		logger.Base().Error("routing failed, speaking apology", zap.String("call_sid", call.CallSid), zap.Error(err))
		decision = routing.Decision{Kind: routing.DecisionSayGoodbye, Message: routing.MsgUpstreamApology}
	}

	h.writeMarkup(w, call.CallSid, decision)
}

// handleGatherResult godoc
// @Summary Handle IVR digit input
// @Description Route the caller based on the digit pressed, re-offering the menu a bounded number of times for unrecognized input
// @Tags voice
// @Accept x-www-form-urlencoded
// @Produce xml
// @Param X-Twilio-Signature header string true "Webhook signature"
// @Success 200 {string} string "Call-control markup"
// @Failure 403 {string} string "Invalid signature"
// @Router /voice/gather [post]
func (h *VoiceWebhookHandler) handleGatherResult(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	call := routing.ParseCallParams(r.PostForm)

	logger.Base().Info("gather result webhook",
		zap.String("call_sid", call.CallSid),
		zap.String("digits", call.Digits),
	)

	recognized := call.Digits == routing.DigitSales ||
		call.Digits == routing.DigitSupport ||
		call.Digits == routing.DigitInfo

	// Only spend re-prompt budget on unrecognized input.
	allowRetry := false
	if !recognized {
		allowRetry = h.retries.Next(r.Context(), call.CallSid)
	}

	decision, err := h.engine.RouteDigits(r.Context(), call, allowRetry)
	if err != nil {
		logger.Base().Error("digit routing failed, speaking apology", zap.String("call_sid", call.CallSid), zap.Error(err))
		decision = routing.Decision{Kind: routing.DecisionSayGoodbye, Message: routing.MsgUpstreamApology}
	}

	if recognized {
		h.retries.Reset(r.Context(), call.CallSid)
	}

	h.writeMarkup(w, call.CallSid, decision)
}

// handleConnectAgent godoc
// @Summary Bridge a click-to-call leg
// @Description When the customer answers a REST-created outbound leg, dial the initiating agent's softphone
// @Tags voice
// @Accept x-www-form-urlencoded
// @Produce xml
// @Param identity query string true "Voice client identity of the initiating agent"
// @Param X-Twilio-Signature header string true "Webhook signature"
// @Success 200 {string} string "Call-control markup"
// @Failure 403 {string} string "Invalid signature"
// @Router /voice/connect [post]
func (h *VoiceWebhookHandler) handleConnectAgent(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	call := routing.ParseCallParams(r.PostForm)
	identity := r.URL.Query().Get("identity")

	decision, err := h.engine.RouteConnect(r.Context(), identity)
	if err != nil {
		logger.Base().Error("connect routing failed, speaking apology",
			zap.String("call_sid", call.CallSid),
			zap.String("identity", identity),
			zap.Error(err),
		)
		decision = routing.Decision{Kind: routing.DecisionSayGoodbye, Message: routing.MsgUpstreamApology}
	}

	h.writeMarkup(w, call.CallSid, decision)
}

// writeMarkup renders the decision and writes it as the exclusive response
// body. Markup and JSON are never mixed on these endpoints.
func (h *VoiceWebhookHandler) writeMarkup(w http.ResponseWriter, callSid string, decision routing.Decision) {
	doc, err := twiml.Render(decision)
	if err != nil {
		logger.Base().Error("failed to render markup, falling back to apology",
			zap.String("call_sid", callSid),
			zap.String("kind", string(decision.Kind)),
			zap.Error(err),
		)
		doc, err = twiml.Render(routing.Decision{Kind: routing.DecisionSayGoodbye, Message: routing.MsgUpstreamApology})
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(doc)); err != nil {
		logger.Base().Error("failed to write markup response", zap.Error(err))
	}
}
