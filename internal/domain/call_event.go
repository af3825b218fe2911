package domain

import "time"

// Call direction values as delivered by the provider.
const (
	DirectionInbound     = "inbound"
	DirectionOutboundAPI = "outbound-api"
)

// Call lifecycle statuses as delivered by the provider.
const (
	CallStatusRinging    = "ringing"
	CallStatusInProgress = "in-progress"
	CallStatusCompleted  = "completed"
	CallStatusNoAnswer   = "no-answer"
	CallStatusFailed     = "failed"
)

// CallEvent is one immutable record per status callback received from the
// provider, keyed by call SID and receipt time. Rows are only ever inserted;
// duplicate deliveries of the same SID and status append additional rows
// rather than being rejected.
type CallEvent struct {
	ID            string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CallSid       string    `json:"call_sid" gorm:"type:varchar(64);not null;index"`
	ParentCallSid string    `json:"parent_call_sid,omitempty" gorm:"type:varchar(64);index"`
	From          string    `json:"from" gorm:"column:from_number;type:varchar(255)"`
	To            string    `json:"to" gorm:"column:to_number;type:varchar(255)"`
	Direction     string    `json:"direction" gorm:"type:varchar(32)"`
	Status        string    `json:"status" gorm:"type:varchar(32);not null"`
	Duration      *int      `json:"duration,omitempty"`
	RecordingURL  string    `json:"recording_url,omitempty" gorm:"type:text"`
	RecordingSid  string    `json:"recording_sid,omitempty" gorm:"type:varchar(64)"`
	ReceivedAt    time.Time `json:"received_at" gorm:"not null;index"`
}

// TableName sets the table name for CallEvent.
func (CallEvent) TableName() string {
	return "call_events"
}
