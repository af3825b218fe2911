package twiml

import (
	"fmt"
	"strconv"

	"github.com/motordesk/dealer-voice-service/internal/services/routing"
	"github.com/twilio/twilio-go/twiml"
)

// dialEvents are the lifecycle events requested on dialed legs.
const dialEvents = "initiated ringing answered completed"

// recordFromAnswer starts recording once the dialed leg answers.
const recordFromAnswer = "record-from-answer"

// Render converts a routing decision into the provider's call-control markup.
// Every response carries exactly one top-level Response element; call-control
// endpoints serve this and nothing else, never JSON.
func Render(d routing.Decision) (string, error) {
	var verbs []twiml.Element

	switch d.Kind {
	case routing.DecisionRejectInvalid, routing.DecisionSayGoodbye:
		verbs = append(verbs,
			&twiml.VoiceSay{Message: d.Message},
			&twiml.VoiceHangup{},
		)

	case routing.DecisionPlayMenu:
		if d.Menu == nil {
			return "", fmt.Errorf("menu decision without menu config")
		}
		gather := &twiml.VoiceGather{
			Input:     "dtmf",
			Action:    d.Menu.ActionURL,
			Method:    "POST",
			Timeout:   strconv.Itoa(d.Menu.TimeoutSeconds),
			NumDigits: strconv.Itoa(d.Menu.NumDigits),
			InnerElements: []twiml.Element{
				&twiml.VoiceSay{Message: d.Message},
			},
		}
		// If gathering yields nothing the document continues here.
		verbs = append(verbs,
			gather,
			&twiml.VoiceSay{Message: routing.MsgNoInput},
			&twiml.VoiceHangup{},
		)

	case routing.DecisionDialAgent:
		verbs = appendDial(verbs, d, &twiml.VoiceClient{
			Identity:             d.AgentIdentity,
			StatusCallback:       d.StatusCallbackURL,
			StatusCallbackEvent:  callbackEvents(d.StatusCallbackURL),
			StatusCallbackMethod: callbackMethod(d.StatusCallbackURL),
		})

	case routing.DecisionDialNumber:
		verbs = appendDial(verbs, d, &twiml.VoiceNumber{
			PhoneNumber:          d.Number,
			StatusCallback:       d.StatusCallbackURL,
			StatusCallbackEvent:  callbackEvents(d.StatusCallbackURL),
			StatusCallbackMethod: callbackMethod(d.StatusCallbackURL),
		})

	case routing.DecisionDialClient:
		verbs = appendDial(verbs, d, &twiml.VoiceClient{
			Identity:             d.AgentIdentity,
			StatusCallback:       d.StatusCallbackURL,
			StatusCallbackEvent:  callbackEvents(d.StatusCallbackURL),
			StatusCallbackMethod: callbackMethod(d.StatusCallbackURL),
		})

	default:
		return "", fmt.Errorf("unknown decision kind: %s", d.Kind)
	}

	return twiml.Voice(verbs)
}

// appendDial emits an optional announcement followed by a Dial wrapping the
// target noun.
func appendDial(verbs []twiml.Element, d routing.Decision, target twiml.Element) []twiml.Element {
	if d.Message != "" {
		verbs = append(verbs, &twiml.VoiceSay{Message: d.Message})
	}

	dial := &twiml.VoiceDial{
		CallerId:      d.CallerID,
		InnerElements: []twiml.Element{target},
	}
	if d.Record {
		dial.Record = recordFromAnswer
	}
	if d.ActionURL != "" {
		dial.Action = d.ActionURL
		dial.Method = "POST"
	}

	return append(verbs, dial)
}

func callbackEvents(statusCallbackURL string) string {
	if statusCallbackURL == "" {
		return ""
	}
	return dialEvents
}

func callbackMethod(statusCallbackURL string) string {
	if statusCallbackURL == "" {
		return ""
	}
	return "POST"
}
