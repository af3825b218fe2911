package handler

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/motordesk/dealer-voice-service/internal/cache"
	"github.com/motordesk/dealer-voice-service/internal/config"
	"github.com/motordesk/dealer-voice-service/internal/repository"
	"github.com/motordesk/dealer-voice-service/internal/services/directory"
	"github.com/motordesk/dealer-voice-service/internal/services/routing"
	"github.com/motordesk/dealer-voice-service/pkg/logger"
	"github.com/motordesk/dealer-voice-service/pkg/redis"
	pkgtwilio "github.com/motordesk/dealer-voice-service/pkg/twilio"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HandlerManager wires the store, cache, routing engine and provider clients
// into HTTP handlers and owns route registration.
type HandlerManager struct {
	cfg         *config.VoiceGatewayConfig
	repoManager repository.RepositoryManager
	redisSvc    *redis.RedisService

	voiceHandler *VoiceWebhookHandler
	eventHandler *EventWebhookHandler
	tokenHandler *TokenHandler
	callHandler  *CallHandler
	agentHandler *AgentHandler

	sigValidator *pkgtwilio.SignatureValidator
	rateLimiter  *RateLimiter
}

// NewHandlerManager constructs the full dependency graph. The database is
// required; redis is optional and its absence degrades caching and the IVR
// retry bound rather than failing startup.
func NewHandlerManager(cfg *config.VoiceGatewayConfig) (*HandlerManager, error) {
	repoManager, err := repository.NewRepositoryManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository manager: %w", err)
	}

	redisSvc := connectRedis()
	// Assign through a typed nil check so a nil *RedisService never hides
	// inside a non-nil interface value.
	var redisIface redis.RedisServiceInterface
	if redisSvc != nil {
		redisIface = redisSvc
	}

	agentCache := cache.NewAgentCache(repoManager.Agent(), redisIface, cfg.AgentCacheTTL)
	retryCounter := cache.NewRetryCounter(redisIface, cfg.IVRMaxRetries)
	agentDirectory := directory.NewAgentDirectory(repoManager.Agent(), agentCache)

	engine := routing.NewEngine(agentDirectory, routing.Config{
		BusinessNumber:       cfg.BusinessNumber,
		SupportNumber:        cfg.SupportNumber,
		PublicBaseURL:        cfg.PublicBaseURL,
		ClientIdentityPrefix: cfg.ClientIdentityPrefix,
		OfficeInfoMessage:    config.OfficeInfoMessage,
	})

	sigValidator := pkgtwilio.NewSignatureValidator(cfg.TwilioAuthToken)
	tokenService := pkgtwilio.NewAccessTokenService(cfg.TwilioAccountSID, cfg.TwilioAPIKeySID, cfg.TwilioAPIKeySecret, cfg.TwimlAppSID)
	dialer := pkgtwilio.NewOutboundDialer(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.BusinessNumber)

	return &HandlerManager{
		cfg:          cfg,
		repoManager:  repoManager,
		redisSvc:     redisSvc,
		voiceHandler: NewVoiceWebhookHandler(engine, retryCounter),
		eventHandler: NewEventWebhookHandler(repoManager),
		tokenHandler: NewTokenHandler(tokenService),
		callHandler:  NewCallHandler(dialer, repoManager, cfg.PublicBaseURL),
		agentHandler: NewAgentHandler(repoManager, agentCache),
		sigValidator: sigValidator,
		rateLimiter:  NewRateLimiter(rate.Limit(10), 20),
	}, nil
}

// connectRedis attempts a redis connection from the environment. Failure is
// logged and tolerated.
func connectRedis() *redis.RedisService {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		logger.Base().Warn("REDIS_HOST not set, running without redis")
		return nil
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}

	svc, err := redis.NewRedisService(&redis.RedisConfig{
		Host:     host,
		Port:     port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
	if err != nil {
		logger.Base().Warn("redis unavailable, agent caching and menu retry bounds degraded", zap.Error(err))
		return nil
	}
	return svc
}

// SetupAllRoutes registers every route on the router: signature-gated
// provider webhooks under /voice, staff endpoints under /api behind bearer
// auth and rate limiting, and the health check.
func (hm *HandlerManager) SetupAllRoutes(router *mux.Router) {
	router.Use(GlobalLoggingMiddleware)
	if hm.cfg.EnableCORS {
		router.Use(CORSMiddleware)
	}

	voiceRouter := router.PathPrefix("/voice").Subrouter()
	voiceRouter.Use(SignatureMiddleware(hm.sigValidator, hm.cfg.PublicBaseURL))
	hm.voiceHandler.SetupVoiceRoutes(voiceRouter)
	hm.eventHandler.SetupEventRoutes(voiceRouter)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(hm.rateLimiter.Middleware)
	apiRouter.Use(StaffAuthMiddleware(hm.cfg.StaffJWTSecret))
	hm.tokenHandler.SetupTokenRoutes(apiRouter)
	hm.callHandler.SetupCallRoutes(apiRouter)
	hm.agentHandler.SetupAgentRoutes(apiRouter)

	router.HandleFunc("/health", hm.healthCheck).Methods("GET")

	logger.Base().Info("all routes registered")
}

// healthCheck godoc
// @Summary Health check
// @Description Report service liveness and dependency status
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (hm *HandlerManager) healthCheck(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	status := http.StatusOK
	if err := hm.repoManager.Ping(r.Context()); err != nil {
		dbStatus = "unavailable"
		status = http.StatusServiceUnavailable
	}

	redisStatus := "ok"
	if hm.redisSvc == nil {
		redisStatus = "disabled"
	}

	writeJSON(w, status, map[string]interface{}{
		"status":   dbStatus,
		"database": dbStatus,
		"redis":    redisStatus,
		"instance": hm.cfg.InstanceID,
	})
}

// Close releases the store and cache connections.
func (hm *HandlerManager) Close() {
	if hm.repoManager != nil {
		if err := hm.repoManager.Close(); err != nil {
			logger.Base().Error("failed to close repository manager", zap.Error(err))
		}
	}
	if hm.redisSvc != nil {
		if err := hm.redisSvc.Close(); err != nil {
			logger.Base().Error("failed to close redis client", zap.Error(err))
		}
	}
}
