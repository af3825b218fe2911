package twilio

import (
	"fmt"

	"github.com/motordesk/dealer-voice-service/pkg/logger"
	"github.com/twilio/twilio-go/client/jwt"
)

// AccessTokenService issues signed, time-limited Twilio access tokens that
// grant a staff member's softphone permission to place and receive calls.
// Tokens are scoped to one identity and expire after the SDK default of
// one hour.
type AccessTokenService struct {
	accountSID   string
	apiKeySID    string
	apiKeySecret string
	appSID       string
	enabled      bool
}

// NewAccessTokenService creates a new access token service.
// If any credential is empty, the service is disabled.
func NewAccessTokenService(accountSID, apiKeySID, apiKeySecret, appSID string) *AccessTokenService {
	if accountSID == "" || apiKeySID == "" || apiKeySecret == "" {
		logger.Base().Warn("twilio api key credentials not provided, softphone token service disabled")
		return &AccessTokenService{enabled: false}
	}

	return &AccessTokenService{
		accountSID:   accountSID,
		apiKeySID:    apiKeySID,
		apiKeySecret: apiKeySecret,
		appSID:       appSID,
		enabled:      true,
	}
}

// IssueVoiceToken creates an access token carrying a voice grant for the
// given client identity, allowing incoming calls and outgoing calls through
// the configured TwiML application.
func (s *AccessTokenService) IssueVoiceToken(identity string) (string, error) {
	if !s.enabled {
		return "", fmt.Errorf("access token service is disabled")
	}
	if identity == "" {
		return "", fmt.Errorf("identity cannot be empty")
	}

	params := jwt.AccessTokenParams{
		AccountSid:    s.accountSID,
		SigningKeySid: s.apiKeySID,
		Secret:        s.apiKeySecret,
		Identity:      identity,
	}
	token := jwt.CreateAccessToken(params)

	voiceGrant := &jwt.VoiceGrant{
		Incoming: jwt.Incoming{Allow: true},
		Outgoing: jwt.Outgoing{
			ApplicationSid: s.appSID,
		},
	}
	token.AddGrant(voiceGrant)

	signed, err := token.ToJwt()
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// IsEnabled returns whether the service is enabled.
func (s *AccessTokenService) IsEnabled() bool {
	return s.enabled
}
