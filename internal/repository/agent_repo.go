package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/motordesk/dealer-voice-service/internal/domain"
	"gorm.io/gorm"
)

// GormAgentRepository handles database operations for staff agents
type GormAgentRepository struct {
	db *gorm.DB
}

// NewGormAgentRepository creates a new agent repository
func NewGormAgentRepository(db *gorm.DB) *GormAgentRepository {
	return &GormAgentRepository{db: db}
}

// Create creates a new agent
func (r *GormAgentRepository) Create(ctx context.Context, req *domain.CreateAgentRequest) (*domain.Agent, error) {
	if req.Identity == "" {
		return nil, fmt.Errorf("identity cannot be empty")
	}

	agent := &domain.Agent{
		ID:                      uuid.New().String(),
		Identity:                req.Identity,
		FirstName:               req.FirstName,
		LastName:                req.LastName,
		Email:                   req.Email,
		Role:                    req.Role,
		CanReceiveIncomingCalls: req.CanReceiveIncomingCalls,
	}

	if err := r.db.WithContext(ctx).Create(agent).Error; err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return agent, nil
}

// GetByID retrieves an agent by ID
func (r *GormAgentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	var agent domain.Agent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&agent).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("agent not found %s: %w", id, err)
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return &agent, nil
}

// GetByIdentity retrieves an agent by its voice client identity
func (r *GormAgentRepository) GetByIdentity(ctx context.Context, identity string) (*domain.Agent, error) {
	var agent domain.Agent
	if err := r.db.WithContext(ctx).Where("identity = ?", identity).First(&agent).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("agent not found with identity %s: %w", identity, err)
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return &agent, nil
}

// GetAll retrieves all agents
func (r *GormAgentRepository) GetAll(ctx context.Context, includeDisabled bool) ([]*domain.Agent, error) {
	query := r.db.WithContext(ctx)
	if !includeDisabled {
		query = query.Where("disabled = ?", false)
	}

	var agents []*domain.Agent
	if err := query.Order("created_at ASC").Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("failed to get agents: %w", err)
	}
	return agents, nil
}

// GetEligibleForIncoming retrieves agents that may receive routed inbound
// calls: not disabled, and either holding an eligible role or carrying the
// capability flag. An empty result is a valid outcome, not an error.
func (r *GormAgentRepository) GetEligibleForIncoming(ctx context.Context) ([]*domain.Agent, error) {
	var agents []*domain.Agent
	if err := r.db.WithContext(ctx).
		Where("disabled = ?", false).
		Where("role IN ? OR can_receive_incoming_calls = ?",
			[]domain.AgentRole{domain.RoleAdmin, domain.RoleSupervisor, domain.RoleBroker}, true).
		Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("failed to get eligible agents: %w", err)
	}
	return agents, nil
}

// Update updates an existing agent
func (r *GormAgentRepository) Update(ctx context.Context, id string, req *domain.UpdateAgentRequest) (*domain.Agent, error) {
	agent, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.CanReceiveIncomingCalls != nil {
		updates["can_receive_incoming_calls"] = *req.CanReceiveIncomingCalls
	}
	if req.Disabled != nil {
		updates["disabled"] = *req.Disabled
	}

	if len(updates) == 0 {
		return agent, nil
	}

	if err := r.db.WithContext(ctx).Model(agent).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update agent: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Delete soft-deletes an agent by setting the disabled flag
func (r *GormAgentRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&domain.Agent{}).Where("id = ?", id).Update("disabled", true)
	if result.Error != nil {
		return fmt.Errorf("failed to delete agent: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("agent not found: %s", id)
	}
	return nil
}

// Exists checks if an agent exists by ID
func (r *GormAgentRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Agent{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check agent existence: %w", err)
	}
	return count > 0, nil
}
