package routing

import (
	"net/url"
	"regexp"
	"strconv"
)

// DecisionKind identifies what the caller should experience next.
type DecisionKind string

const (
	// DecisionRejectInvalid speaks a rejection message and hangs up. Used
	// when a client-originated leg carries a missing or malformed target.
	DecisionRejectInvalid DecisionKind = "reject_invalid"
	// DecisionPlayMenu offers the touch-tone IVR menu.
	DecisionPlayMenu DecisionKind = "play_menu"
	// DecisionDialAgent bridges the caller to a staff softphone.
	DecisionDialAgent DecisionKind = "dial_agent"
	// DecisionDialNumber bridges the caller to an external phone number.
	DecisionDialNumber DecisionKind = "dial_number"
	// DecisionDialClient bridges an outbound REST leg back to the
	// initiating agent's softphone.
	DecisionDialClient DecisionKind = "dial_client"
	// DecisionSayGoodbye speaks a message and terminates: no eligible
	// agents, exhausted menu retries, or the office-information option.
	DecisionSayGoodbye DecisionKind = "say_goodbye"
)

// MenuConfig configures the digit-gathering element of a menu decision.
type MenuConfig struct {
	ActionURL      string
	TimeoutSeconds int
	NumDigits      int
}

// Decision is the single routing outcome computed for one webhook. It lives
// only for the lifetime of that request and is never persisted.
type Decision struct {
	Kind DecisionKind

	// Message is spoken before the action (the rejection text, the menu
	// prompt, or a connecting announcement preceding a dial).
	Message string

	// Dial targets; exactly one is set depending on Kind.
	AgentIdentity string
	Number        string

	CallerID          string
	Record            bool
	ActionURL         string
	StatusCallbackURL string

	Menu *MenuConfig
}

// CallParams are the webhook fields the routing engine consumes, parsed from
// the provider's form-encoded body. A call is reconstructed from these on
// every webhook; no call row is kept.
type CallParams struct {
	CallSid       string
	ParentCallSid string
	From          string
	To            string
	Direction     string
	CallStatus    string
	Digits        string
	CallDuration  int
	RecordingURL  string
	RecordingSid  string
}

// ParseCallParams extracts call parameters from form values.
func ParseCallParams(values url.Values) CallParams {
	duration := 0
	if v := values.Get("CallDuration"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			duration = parsed
		}
	}

	return CallParams{
		CallSid:       values.Get("CallSid"),
		ParentCallSid: values.Get("ParentCallSid"),
		From:          values.Get("From"),
		To:            values.Get("To"),
		Direction:     values.Get("Direction"),
		CallStatus:    values.Get("CallStatus"),
		Digits:        values.Get("Digits"),
		CallDuration:  duration,
		RecordingURL:  values.Get("RecordingUrl"),
		RecordingSid:  values.Get("RecordingSid"),
	}
}

var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// IsValidE164 reports whether s is a well-formed E.164 number with a leading
// country code.
func IsValidE164(s string) bool {
	return e164Pattern.MatchString(s)
}
