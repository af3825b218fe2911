package twilio

import (
	"fmt"

	"github.com/motordesk/dealer-voice-service/pkg/logger"
	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// OutboundDialer places outbound calls through the Twilio REST API. It backs
// the click-to-call flow: the customer leg is created here, and when answered
// Twilio fetches call-control markup from our connect endpoint to bridge the
// agent's softphone in.
type OutboundDialer struct {
	client  *twilio.RestClient
	from    string
	enabled bool
}

// NewOutboundDialer creates a new outbound dialer.
// If accountSID or authToken is empty, the dialer is disabled.
func NewOutboundDialer(accountSID, authToken, businessNumber string) *OutboundDialer {
	if accountSID == "" || authToken == "" {
		logger.Base().Warn("twilio credentials not provided, outbound dialer disabled")
		return &OutboundDialer{enabled: false}
	}

	return &OutboundDialer{
		client:  twilio.NewRestClientWithParams(twilio.ClientParams{Username: accountSID, Password: authToken}),
		from:    businessNumber,
		enabled: true,
	}
}

// StartCall creates an outbound call leg to the given number. answerURL is
// fetched by Twilio for call-control markup once the callee answers, and
// statusCallbackURL receives lifecycle events for the leg. Returns the
// provider-assigned call SID.
func (d *OutboundDialer) StartCall(to, answerURL, statusCallbackURL string) (string, error) {
	if !d.enabled {
		return "", fmt.Errorf("outbound dialer is disabled")
	}

	params := &api.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(d.from)
	params.SetUrl(answerURL)
	params.SetStatusCallback(statusCallbackURL)
	params.SetStatusCallbackEvent([]string{"initiated", "ringing", "answered", "completed"})
	params.SetRecord(true)

	resp, err := d.client.Api.CreateCall(params)
	if err != nil {
		logger.Base().Error("failed to create outbound call", zap.String("to", to), zap.Error(err))
		return "", fmt.Errorf("failed to create outbound call: %w", err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	logger.Base().Info("outbound call created", zap.String("call_sid", sid), zap.String("to", to))
	return sid, nil
}

// IsEnabled returns whether the dialer is enabled.
func (d *OutboundDialer) IsEnabled() bool {
	return d.enabled
}
