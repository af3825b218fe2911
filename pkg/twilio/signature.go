package twilio

import (
	"net/url"

	"github.com/motordesk/dealer-voice-service/pkg/logger"
	twilioclient "github.com/twilio/twilio-go/client"
	"go.uber.org/zap"
)

// SignatureHeader is the request header Twilio signs webhook deliveries with.
const SignatureHeader = "X-Twilio-Signature"

// SignatureValidator verifies that a webhook request genuinely originated
// from Twilio. The base string is the full callback URL with the form
// parameters appended in sorted key order; the SDK validator computes the
// HMAC-SHA1 over it with the account auth token and compares base64 digests
// in constant time. One canonical ordering is applied to every endpoint.
type SignatureValidator struct {
	validator twilioclient.RequestValidator
	enabled   bool
}

// NewSignatureValidator creates a signature validator for the given auth token.
// With an empty token the validator is disabled and accepts every request,
// which is only intended for local development.
func NewSignatureValidator(authToken string) *SignatureValidator {
	if authToken == "" {
		logger.Base().Warn("twilio auth token not configured, webhook signature validation disabled")
		return &SignatureValidator{enabled: false}
	}
	return &SignatureValidator{
		validator: twilioclient.NewRequestValidator(authToken),
		enabled:   true,
	}
}

// ValidateForm reports whether the signature matches the given callback URL
// and raw form-encoded body. It never returns an error: a missing header, a
// malformed body, or any comparison failure yields false.
func (v *SignatureValidator) ValidateForm(callbackURL string, body []byte, signature string) bool {
	if !v.enabled {
		return true
	}
	if signature == "" {
		return false
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		logger.Base().Warn("failed to parse webhook form body for signature check", zap.Error(err))
		return false
	}

	params := make(map[string]string, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			params[key] = vals[0]
		}
	}

	return v.validator.Validate(callbackURL, params, signature)
}

// IsEnabled returns whether signature validation is active.
func (v *SignatureValidator) IsEnabled() bool {
	return v.enabled
}
