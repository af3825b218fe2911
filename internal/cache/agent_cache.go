package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/motordesk/dealer-voice-service/internal/domain"
	"github.com/motordesk/dealer-voice-service/internal/repository"
	"github.com/motordesk/dealer-voice-service/pkg/logger"
	"github.com/motordesk/dealer-voice-service/pkg/redis"
	"go.uber.org/zap"
)

const eligibleAgentsKey = "incoming"

// AgentCache serves the eligible-agent set from redis with a short TTL,
// reading through to the staff store on a miss. The cache is advisory:
// any redis failure falls back to the store so call routing keeps working.
type AgentCache struct {
	repo     repository.AgentRepository
	redisSvc redis.RedisServiceInterface
	ttl      time.Duration
}

// NewAgentCache creates an agent cache. redisSvc may be nil, in which case
// every lookup goes straight to the repository.
func NewAgentCache(repo repository.AgentRepository, redisSvc redis.RedisServiceInterface, ttl time.Duration) *AgentCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &AgentCache{
		repo:     repo,
		redisSvc: redisSvc,
		ttl:      ttl,
	}
}

// EligibleAgents returns the agents currently eligible to receive routed
// inbound calls.
func (c *AgentCache) EligibleAgents(ctx context.Context) ([]*domain.Agent, error) {
	if c.redisSvc != nil {
		key := c.redisSvc.GenerateKey(redis.ELIGIBLE_AGENTS, eligibleAgentsKey)
		if val, err := c.redisSvc.GetValue(ctx, key); err == nil {
			var agents []*domain.Agent
			if err := json.Unmarshal([]byte(val), &agents); err == nil {
				return agents, nil
			}
			logger.Base().Warn("failed to unmarshal cached eligible agents, falling back to store", zap.Error(err))
		} else if err != redis.ErrKeyNotExist {
			logger.Base().Warn("redis lookup for eligible agents failed, falling back to store", zap.Error(err))
		}
	}

	agents, err := c.repo.GetEligibleForIncoming(ctx)
	if err != nil {
		return nil, err
	}

	if c.redisSvc != nil {
		if data, err := json.Marshal(agents); err == nil {
			key := c.redisSvc.GenerateKey(redis.ELIGIBLE_AGENTS, eligibleAgentsKey)
			if err := c.redisSvc.SetValue(ctx, key, string(data), c.ttl); err != nil {
				logger.Base().Warn("failed to cache eligible agents", zap.Error(err))
			}
		}
	}

	return agents, nil
}

// Invalidate drops the cached eligible-agent set. Called after staff
// administration mutates an agent.
func (c *AgentCache) Invalidate(ctx context.Context) {
	if c.redisSvc == nil {
		return
	}
	key := c.redisSvc.GenerateKey(redis.ELIGIBLE_AGENTS, eligibleAgentsKey)
	if err := c.redisSvc.DelValue(ctx, key); err != nil {
		logger.Base().Warn("failed to invalidate agent cache", zap.Error(err))
	}
}
