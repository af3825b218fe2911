package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/motordesk/dealer-voice-service/pkg/logger"
	pkgtwilio "github.com/motordesk/dealer-voice-service/pkg/twilio"
	"go.uber.org/zap"
)

// TokenHandler issues softphone access tokens to authenticated staff.
type TokenHandler struct {
	tokenService *pkgtwilio.AccessTokenService
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(tokenService *pkgtwilio.AccessTokenService) *TokenHandler {
	return &TokenHandler{tokenService: tokenService}
}

// SetupTokenRoutes registers the token routes
func (h *TokenHandler) SetupTokenRoutes(router *mux.Router) {
	router.HandleFunc("/token", h.issueToken).Methods("POST")
}

// issueToken godoc
// @Summary Issue a softphone access token
// @Description Issue a short-lived provider access token for the authenticated staff member's browser softphone
// @Tags staff
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/token [post]
func (h *TokenHandler) issueToken(w http.ResponseWriter, r *http.Request) {
	identity := StaffIdentityFromContext(r.Context())
	if identity == "" {
		writeJSONError(w, http.StatusUnauthorized, "missing staff identity")
		return
	}

	token, err := h.tokenService.IssueVoiceToken(identity)
	if err != nil {
		logger.Base().Error("failed to issue softphone token", zap.String("identity", identity), zap.Error(err))
		writeJSONError(w, http.StatusServiceUnavailable, "token service unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token":    token,
		"identity": identity,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Base().Error("failed to write json response", zap.Error(err))
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
