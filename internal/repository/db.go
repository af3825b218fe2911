package repository

import (
	"context"

	"github.com/motordesk/dealer-voice-service/internal/domain"
	"gorm.io/gorm"
)

// AgentRepository defines the interface for staff agent operations
type AgentRepository interface {
	// Create operations
	Create(ctx context.Context, req *domain.CreateAgentRequest) (*domain.Agent, error)

	// Read operations
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	GetByIdentity(ctx context.Context, identity string) (*domain.Agent, error)
	GetAll(ctx context.Context, includeDisabled bool) ([]*domain.Agent, error)
	GetEligibleForIncoming(ctx context.Context) ([]*domain.Agent, error)

	// Update operations
	Update(ctx context.Context, id string, req *domain.UpdateAgentRequest) (*domain.Agent, error)

	// Delete operations (soft delete)
	Delete(ctx context.Context, id string) error

	// Utility operations
	Exists(ctx context.Context, id string) (bool, error)
}

// CallEventRepository defines the interface for the append-only call event
// log. There are deliberately no update or delete operations: events are
// immutable once written.
type CallEventRepository interface {
	Create(ctx context.Context, event *domain.CallEvent) error
	GetByCallSid(ctx context.Context, callSid string) ([]*domain.CallEvent, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.CallEvent, error)
}

// RepositoryManager combines all repositories
type RepositoryManager interface {
	Agent() AgentRepository
	CallEvent() CallEventRepository

	// Transaction support
	WithTx(ctx context.Context, fn func(ctx context.Context, repos RepositoryManager) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connection
	Close() error
}

// GormRepositoryManager implements RepositoryManager using GORM
type GormRepositoryManager struct {
	db            *gorm.DB
	agentRepo     *GormAgentRepository
	callEventRepo *GormCallEventRepository
}

// NewGormRepositoryManager creates a new GORM repository manager
func NewGormRepositoryManager(db *gorm.DB) *GormRepositoryManager {
	return &GormRepositoryManager{
		db:            db,
		agentRepo:     NewGormAgentRepository(db),
		callEventRepo: NewGormCallEventRepository(db),
	}
}

// Agent returns the agent repository
func (m *GormRepositoryManager) Agent() AgentRepository {
	return m.agentRepo
}

// CallEvent returns the call event repository
func (m *GormRepositoryManager) CallEvent() CallEventRepository {
	return m.callEventRepo
}

// WithTx executes a function within a database transaction
func (m *GormRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos RepositoryManager) error) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewGormRepositoryManager(tx))
	})
}

// Ping checks the database connection
func (m *GormRepositoryManager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (m *GormRepositoryManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
