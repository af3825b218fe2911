package routing

import (
	"context"
	"fmt"
	"strings"

	"github.com/motordesk/dealer-voice-service/internal/services/directory"
	"github.com/motordesk/dealer-voice-service/pkg/logger"
	"go.uber.org/zap"
)

// Spoken messages. Callers only ever hear these; technical failures are
// logged, never spoken.
const (
	MenuPrompt = "Thank you for calling. For sales, press one. " +
		"For support, press two. For showroom hours and directions, press three."
	MsgRejectInvalid   = "We could not complete your call. The destination number is missing or invalid. Goodbye."
	MsgNoAgents        = "We are sorry, all of our agents are currently busy. Please try again later. Goodbye."
	MsgRetryExceeded   = "We did not receive a valid selection. Please call back during business hours. Goodbye."
	MsgNoInput         = "We did not receive any input. Goodbye."
	MsgSalesConnect    = "Connecting you to our sales team."
	MsgSupportConnect  = "Connecting you to support."
	MsgUpstreamApology = "We are sorry, we are unable to take your call right now. Please try again later. Goodbye."
)

// IVR digit options.
const (
	DigitSales   = "1"
	DigitSupport = "2"
	DigitInfo    = "3"
)

// Config carries the routing-relevant settings.
type Config struct {
	// BusinessNumber is the dealership's published number, used as caller
	// ID on every dialed leg.
	BusinessNumber string
	// SupportNumber is the external target for the support menu option.
	SupportNumber string
	// PublicBaseURL prefixes the callback URLs attached to dial and gather
	// elements.
	PublicBaseURL string
	// ClientIdentityPrefix marks legs originating from our own voice
	// client app.
	ClientIdentityPrefix string
	// OfficeInfoMessage is spoken for the office-information option.
	OfficeInfoMessage string
}

// Engine computes exactly one Decision per validated webhook. It has no side
// effects beyond the directory read; persistence happens only in the
// status-callback path, never inline with routing.
type Engine struct {
	directory *directory.AgentDirectory
	cfg       Config
}

// NewEngine creates a routing engine.
func NewEngine(dir *directory.AgentDirectory, cfg Config) *Engine {
	if cfg.ClientIdentityPrefix == "" {
		cfg.ClientIdentityPrefix = "client:"
	}
	return &Engine{directory: dir, cfg: cfg}
}

// IsClientLeg reports whether the caller identity indicates a leg that
// originated from our own voice client app rather than the phone network.
func (e *Engine) IsClientLeg(from string) bool {
	return strings.HasPrefix(from, e.cfg.ClientIdentityPrefix)
}

// RouteInbound decides the destination for a new call leg, applying the
// rules in priority order:
//  1. client-originated leg with a well-formed external destination: dial
//     the number with business caller ID, recording, and status callbacks
//  2. client-originated leg with a missing or malformed destination: reject
//  3. inbound from an external number: dial a randomly selected eligible
//     agent, or speak the no-agents message when nobody is eligible
//  4. otherwise: offer the IVR menu
func (e *Engine) RouteInbound(ctx context.Context, call CallParams) (Decision, error) {
	if e.IsClientLeg(call.From) {
		if IsValidE164(call.To) {
			return Decision{
				Kind:              DecisionDialNumber,
				Number:            call.To,
				CallerID:          e.cfg.BusinessNumber,
				Record:            true,
				StatusCallbackURL: e.StatusCallbackURL(),
			}, nil
		}
		logger.Base().Warn("client leg with missing or malformed destination",
			zap.String("call_sid", call.CallSid),
			zap.String("from", call.From),
			zap.String("to", call.To),
		)
		return Decision{Kind: DecisionRejectInvalid, Message: MsgRejectInvalid}, nil
	}

	if call.Direction == "inbound" && IsValidE164(call.From) {
		return e.dialEligibleAgent(ctx, MsgSalesConnect)
	}

	return e.menuDecision(), nil
}

// RouteDigits decides the next leg after the caller pressed digits on the
// IVR menu. allowRetry reports whether the bounded re-prompt budget still
// permits offering the menu again for unrecognized input.
func (e *Engine) RouteDigits(ctx context.Context, call CallParams, allowRetry bool) (Decision, error) {
	switch call.Digits {
	case DigitSales:
		return e.dialEligibleAgent(ctx, MsgSalesConnect)
	case DigitSupport:
		if !IsValidE164(e.cfg.SupportNumber) {
			logger.Base().Error("support number not configured or malformed",
				zap.String("support_number", e.cfg.SupportNumber))
			return Decision{Kind: DecisionSayGoodbye, Message: MsgNoAgents}, nil
		}
		return Decision{
			Kind:              DecisionDialNumber,
			Message:           MsgSupportConnect,
			Number:            e.cfg.SupportNumber,
			CallerID:          e.cfg.BusinessNumber,
			Record:            true,
			StatusCallbackURL: e.StatusCallbackURL(),
		}, nil
	case DigitInfo:
		return Decision{Kind: DecisionSayGoodbye, Message: e.cfg.OfficeInfoMessage}, nil
	default:
		if allowRetry {
			return e.menuDecision(), nil
		}
		return Decision{Kind: DecisionSayGoodbye, Message: MsgRetryExceeded}, nil
	}
}

// RouteConnect decides the bridge leg of a click-to-call: once the customer
// answers the REST-created leg, dial the initiating agent's softphone.
func (e *Engine) RouteConnect(ctx context.Context, identity string) (Decision, error) {
	if identity == "" {
		return Decision{Kind: DecisionRejectInvalid, Message: MsgRejectInvalid}, nil
	}

	agent, err := e.directory.GetByIdentity(ctx, identity)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to resolve connect target: %w", err)
	}
	if agent == nil {
		logger.Base().Warn("connect requested for unknown identity", zap.String("identity", identity))
		return Decision{Kind: DecisionRejectInvalid, Message: MsgRejectInvalid}, nil
	}
	if !agent.EligibleForIncomingCalls() {
		logger.Base().Warn("connect target not eligible for calls", zap.String("identity", identity))
		return Decision{Kind: DecisionRejectInvalid, Message: MsgRejectInvalid}, nil
	}

	return Decision{
		Kind:              DecisionDialClient,
		AgentIdentity:     agent.Identity,
		CallerID:          e.cfg.BusinessNumber,
		Record:            true,
		StatusCallbackURL: e.StatusCallbackURL(),
	}, nil
}

// dialEligibleAgent consults the directory and dials one eligible agent, or
// speaks the no-agents message. An empty directory result is a defined
// outcome, not an error.
func (e *Engine) dialEligibleAgent(ctx context.Context, announce string) (Decision, error) {
	agent, err := e.directory.SelectAgent(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to select agent: %w", err)
	}
	if agent == nil {
		return Decision{Kind: DecisionSayGoodbye, Message: MsgNoAgents}, nil
	}

	return Decision{
		Kind:          DecisionDialAgent,
		Message:       announce,
		AgentIdentity: agent.Identity,
		CallerID:      e.cfg.BusinessNumber,
		Record:        true,
		ActionURL:     e.AfterCallURL(),
	}, nil
}

func (e *Engine) menuDecision() Decision {
	return Decision{
		Kind:    DecisionPlayMenu,
		Message: MenuPrompt,
		Menu: &MenuConfig{
			ActionURL:      e.cfg.PublicBaseURL + "/voice/gather",
			TimeoutSeconds: 5,
			NumDigits:      1,
		},
	}
}

// StatusCallbackURL is where the provider posts call lifecycle events.
func (e *Engine) StatusCallbackURL() string {
	return e.cfg.PublicBaseURL + "/voice/status"
}

// AfterCallURL is where the provider posts the outcome of a dialed leg.
func (e *Engine) AfterCallURL() string {
	return e.cfg.PublicBaseURL + "/voice/after-call"
}
