package config

import "time"

// VoiceGatewayConfig holds the telephony gateway configuration, loaded from
// the environment at startup and injected into the handler manager.
type VoiceGatewayConfig struct {
	Port string

	// PublicBaseURL is the externally reachable base URL Twilio calls back
	// into, e.g. "https://voice.example-motors.com". Webhook signature
	// validation reconstructs callback URLs from it.
	PublicBaseURL string

	// BusinessNumber is the dealership's published E.164 number, used as
	// caller ID on outbound legs.
	BusinessNumber string

	// SupportNumber is the target dialed for the IVR support option.
	SupportNumber string

	// Twilio account credentials. AuthToken also keys webhook signature
	// verification.
	TwilioAccountSID string
	TwilioAuthToken  string

	// API key pair and TwiML application for issuing softphone access tokens.
	TwilioAPIKeySID    string
	TwilioAPIKeySecret string
	TwimlAppSID        string

	// StaffJWTSecret signs the bearer tokens staff members authenticate
	// internal endpoints with.
	StaffJWTSecret string

	// ClientIdentityPrefix marks call legs that originated from our own
	// voice client app rather than the PSTN.
	ClientIdentityPrefix string

	// IVRMaxRetries bounds how many times the menu is re-offered before the
	// call is ended gracefully.
	IVRMaxRetries int

	// AgentCacheTTL bounds how long the eligible-agent set may be served
	// from redis before re-reading the staff store.
	AgentCacheTTL time.Duration

	// InstanceID identifies this service instance in logs.
	InstanceID string

	EnableCORS bool
}

// OfficeInfoMessage is spoken for the IVR office-information option.
const OfficeInfoMessage = "Our showroom is open Monday through Saturday, nine A M to seven P M. Thank you for calling."

// DefaultClientIdentityPrefix is the prefix Twilio uses for client-originated
// call legs.
const DefaultClientIdentityPrefix = "client:"

// DefaultIVRMaxRetries is the menu re-prompt bound applied when none is
// configured.
const DefaultIVRMaxRetries = 2
