package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/motordesk/dealer-voice-service/internal/config"
	"github.com/motordesk/dealer-voice-service/internal/handler"
	"github.com/motordesk/dealer-voice-service/pkg/logger"
	"go.uber.org/zap"
)

// Server represents the dealership voice gateway server
type Server struct {
	config         *config.VoiceGatewayConfig
	router         *mux.Router
	handlerManager *handler.HandlerManager
}

// NewServer creates a new voice gateway server
func NewServer(cfg *config.VoiceGatewayConfig) *Server {
	// Initialize zap logger and redirect stdlib log to it
	if _, err := logger.Init(os.Getenv("LOG_ENV")); err != nil {
		logger.Base().Error("Failed to initialize zap logger, falling back to std log")
	}

	router := mux.NewRouter()

	// Initialize handler manager - it will create all services internally
	handlerManager, err := handler.NewHandlerManager(cfg)
	if err != nil {
		logger.Base().Error("Failed to initialize handler manager", zap.Error(err))
		return nil
	}

	// Setup all routes through handler manager
	handlerManager.SetupAllRoutes(router)

	return &Server{
		config:         cfg,
		router:         router,
		handlerManager: handlerManager,
	}
}

// Start starts the voice gateway server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.config.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Base().Info("Starting server", zap.String("addr", addr))
	return server.ListenAndServe()
}

// Close releases the server's store and cache connections.
func (s *Server) Close() {
	s.handlerManager.Close()
}

// LoadConfigFromEnv loads the voice gateway configuration from environment
func LoadConfigFromEnv() *config.VoiceGatewayConfig {
	return &config.VoiceGatewayConfig{
		Port: getEnvOrDefault("VOICE_GATEWAY_PORT", "8080"),

		// Externally reachable base URL Twilio calls back into
		PublicBaseURL: getEnvOrDefault("PUBLIC_BASE_URL", ""),

		// Dealership numbers
		BusinessNumber: getEnvOrDefault("BUSINESS_NUMBER", ""),
		SupportNumber:  getEnvOrDefault("SUPPORT_NUMBER", ""),

		// Twilio credentials
		TwilioAccountSID:   getEnvOrDefault("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:    getEnvOrDefault("TWILIO_AUTH_TOKEN", ""),
		TwilioAPIKeySID:    getEnvOrDefault("TWILIO_API_KEY_SID", ""),
		TwilioAPIKeySecret: getEnvOrDefault("TWILIO_API_KEY_SECRET", ""),
		TwimlAppSID:        getEnvOrDefault("TWILIO_TWIML_APP_SID", ""),

		// Staff authentication
		StaffJWTSecret: getEnvOrDefault("STAFF_JWT_SECRET", ""),

		ClientIdentityPrefix: getEnvOrDefault("CLIENT_IDENTITY_PREFIX", config.DefaultClientIdentityPrefix),
		IVRMaxRetries:        getEnvAsIntOrDefault("IVR_MAX_RETRIES", config.DefaultIVRMaxRetries),
		AgentCacheTTL:        time.Duration(getEnvAsIntOrDefault("AGENT_CACHE_TTL_SECONDS", 30)) * time.Second,

		// Instance identifier for multi-pod monitoring
		InstanceID: getDynamicInstanceID(),

		EnableCORS: getEnvAsBoolOrDefault("ENABLE_CORS", true),
	}
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault gets environment variable as bool or returns default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDynamicInstanceID generates a unique identifier for this service
// instance: the system hostname (pod name in K8s) when available, otherwise
// a timestamp-based fallback.
func getDynamicInstanceID() string {
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return hostname
	}
	return fmt.Sprintf("dealer-voice-%d", time.Now().UnixNano())
}

func main() {
	// Load .env file for local development if it exists.
	// This will not override environment variables set by Helm/Docker.
	if err := godotenv.Load(); err != nil {
		log.Printf("Info: .env file not found or skipped (expected in production): %v", err)
	}

	cfg := LoadConfigFromEnv()

	server := NewServer(cfg)
	if server == nil {
		log.Fatal("Failed to create server")
	}
	defer server.Close()

	logger.Base().Info("Server initialized successfully",
		zap.String("port", cfg.Port),
		zap.String("instance_id", cfg.InstanceID))

	if err := server.Start(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
