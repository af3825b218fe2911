package cache

import (
	"context"
	"testing"
	"time"

	"github.com/motordesk/dealer-voice-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type countingAgentRepo struct {
	eligible []*domain.Agent
	calls    int
}

func (c *countingAgentRepo) Create(ctx context.Context, req *domain.CreateAgentRequest) (*domain.Agent, error) {
	return nil, nil
}

func (c *countingAgentRepo) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	return nil, gorm.ErrRecordNotFound
}

func (c *countingAgentRepo) GetByIdentity(ctx context.Context, identity string) (*domain.Agent, error) {
	return nil, gorm.ErrRecordNotFound
}

func (c *countingAgentRepo) GetAll(ctx context.Context, includeDisabled bool) ([]*domain.Agent, error) {
	return c.eligible, nil
}

func (c *countingAgentRepo) GetEligibleForIncoming(ctx context.Context) ([]*domain.Agent, error) {
	c.calls++
	return c.eligible, nil
}

func (c *countingAgentRepo) Update(ctx context.Context, id string, req *domain.UpdateAgentRequest) (*domain.Agent, error) {
	return nil, gorm.ErrRecordNotFound
}

func (c *countingAgentRepo) Delete(ctx context.Context, id string) error { return nil }

func (c *countingAgentRepo) Exists(ctx context.Context, id string) (bool, error) { return false, nil }

func TestAgentCacheReadsThroughOnMiss(t *testing.T) {
	repo := &countingAgentRepo{eligible: []*domain.Agent{{Identity: "bob", Role: domain.RoleBroker}}}
	c := NewAgentCache(repo, newFakeRedis(), time.Minute)

	agents, err := c.EligibleAgents(context.Background())

	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "bob", agents[0].Identity)
	assert.Equal(t, 1, repo.calls)
}

func TestAgentCacheServesSecondReadFromRedis(t *testing.T) {
	repo := &countingAgentRepo{eligible: []*domain.Agent{{Identity: "bob", Role: domain.RoleBroker}}}
	c := NewAgentCache(repo, newFakeRedis(), time.Minute)
	ctx := context.Background()

	_, err := c.EligibleAgents(ctx)
	require.NoError(t, err)

	agents, err := c.EligibleAgents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "bob", agents[0].Identity)
	assert.Equal(t, 1, repo.calls, "second read should be served from cache")
}

func TestAgentCacheInvalidateForcesStoreRead(t *testing.T) {
	repo := &countingAgentRepo{eligible: []*domain.Agent{{Identity: "bob", Role: domain.RoleBroker}}}
	c := NewAgentCache(repo, newFakeRedis(), time.Minute)
	ctx := context.Background()

	_, err := c.EligibleAgents(ctx)
	require.NoError(t, err)

	c.Invalidate(ctx)

	_, err = c.EligibleAgents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestAgentCacheWorksWithoutRedis(t *testing.T) {
	repo := &countingAgentRepo{eligible: []*domain.Agent{{Identity: "bob", Role: domain.RoleBroker}}}
	c := NewAgentCache(repo, nil, time.Minute)

	agents, err := c.EligibleAgents(context.Background())

	require.NoError(t, err)
	assert.Len(t, agents, 1)
}
