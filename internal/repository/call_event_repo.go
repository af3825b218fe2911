package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/motordesk/dealer-voice-service/internal/domain"
	"gorm.io/gorm"
)

// GormCallEventRepository handles database operations for the append-only
// call event log
type GormCallEventRepository struct {
	db *gorm.DB
}

// NewGormCallEventRepository creates a new call event repository
func NewGormCallEventRepository(db *gorm.DB) *GormCallEventRepository {
	return &GormCallEventRepository{db: db}
}

// Create appends one immutable call event. Duplicate deliveries of the same
// call SID and status insert additional rows; deduplication is left to
// downstream reporting.
func (r *GormCallEventRepository) Create(ctx context.Context, event *domain.CallEvent) error {
	if event.CallSid == "" {
		return fmt.Errorf("call sid cannot be empty")
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now()
	}

	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create call event: %w", err)
	}
	return nil
}

// GetByCallSid retrieves all events for a call in receipt order
func (r *GormCallEventRepository) GetByCallSid(ctx context.Context, callSid string) ([]*domain.CallEvent, error) {
	var events []*domain.CallEvent
	if err := r.db.WithContext(ctx).
		Where("call_sid = ?", callSid).
		Order("received_at ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to get call events: %w", err)
	}
	return events, nil
}

// ListRecent retrieves the most recently received events for CRM history views
func (r *GormCallEventRepository) ListRecent(ctx context.Context, limit int) ([]*domain.CallEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var events []*domain.CallEvent
	if err := r.db.WithContext(ctx).
		Order("received_at DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list call events: %w", err)
	}
	return events, nil
}
