package domain

import "time"

// AgentRole classifies a staff member within the dealership.
type AgentRole string

const (
	RoleAdmin      AgentRole = "Admin"
	RoleSupervisor AgentRole = "Supervisor"
	RoleBroker     AgentRole = "Broker"
	RoleAssistant  AgentRole = "Assistant"
)

// incomingCallRoles are the roles allowed to receive routed inbound calls
// regardless of the per-agent capability flag.
var incomingCallRoles = map[AgentRole]bool{
	RoleAdmin:      true,
	RoleSupervisor: true,
	RoleBroker:     true,
}

// Agent represents a dealership staff member reachable through the voice
// client. Identity matches the caller/callee identity string Twilio uses for
// client legs.
type Agent struct {
	ID                      string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Identity                string    `json:"identity" gorm:"type:varchar(255);not null;uniqueIndex"`
	FirstName               string    `json:"first_name" gorm:"type:varchar(255);not null"`
	LastName                string    `json:"last_name" gorm:"type:varchar(255);not null"`
	Email                   string    `json:"email" gorm:"type:varchar(255)"`
	Role                    AgentRole `json:"role" gorm:"type:varchar(64);not null;index"`
	CanReceiveIncomingCalls bool      `json:"can_receive_incoming_calls" gorm:"default:false"`
	Disabled                bool      `json:"disabled" gorm:"default:false"`
	CreatedAt               time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt               time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for Agent.
func (Agent) TableName() string {
	return "agents"
}

// EligibleForIncomingCalls reports whether this agent may be selected as a
// call target: not disabled, and either holding an eligible role or carrying
// the explicit capability flag.
func (a *Agent) EligibleForIncomingCalls() bool {
	if a.Disabled {
		return false
	}
	return incomingCallRoles[a.Role] || a.CanReceiveIncomingCalls
}

// CreateAgentRequest represents the request to create a new agent.
type CreateAgentRequest struct {
	Identity                string    `json:"identity" validate:"required"`
	FirstName               string    `json:"first_name" validate:"required"`
	LastName                string    `json:"last_name" validate:"required"`
	Email                   string    `json:"email,omitempty"`
	Role                    AgentRole `json:"role" validate:"required"`
	CanReceiveIncomingCalls bool      `json:"can_receive_incoming_calls,omitempty"`
}

// UpdateAgentRequest represents the request to update an agent. Nil fields
// are left unchanged.
type UpdateAgentRequest struct {
	FirstName               *string    `json:"first_name,omitempty"`
	LastName                *string    `json:"last_name,omitempty"`
	Email                   *string    `json:"email,omitempty"`
	Role                    *AgentRole `json:"role,omitempty"`
	CanReceiveIncomingCalls *bool      `json:"can_receive_incoming_calls,omitempty"`
	Disabled                *bool      `json:"disabled,omitempty"`
}
