package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/motordesk/dealer-voice-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubAgentRepo struct {
	eligible []*domain.Agent
	byIdent  map[string]*domain.Agent
	err      error
}

func (s *stubAgentRepo) Create(ctx context.Context, req *domain.CreateAgentRequest) (*domain.Agent, error) {
	return nil, nil
}

func (s *stubAgentRepo) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubAgentRepo) GetByIdentity(ctx context.Context, identity string) (*domain.Agent, error) {
	if s.err != nil {
		return nil, s.err
	}
	if a, ok := s.byIdent[identity]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubAgentRepo) GetAll(ctx context.Context, includeDisabled bool) ([]*domain.Agent, error) {
	return s.eligible, s.err
}

func (s *stubAgentRepo) GetEligibleForIncoming(ctx context.Context) ([]*domain.Agent, error) {
	return s.eligible, s.err
}

func (s *stubAgentRepo) Update(ctx context.Context, id string, req *domain.UpdateAgentRequest) (*domain.Agent, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubAgentRepo) Delete(ctx context.Context, id string) error { return nil }

func (s *stubAgentRepo) Exists(ctx context.Context, id string) (bool, error) { return false, nil }

func TestSelectAgentReturnsNilWhenNobodyEligible(t *testing.T) {
	dir := NewAgentDirectory(&stubAgentRepo{}, nil)

	agent, err := dir.SelectAgent(context.Background())

	require.NoError(t, err)
	assert.Nil(t, agent)
}

func TestSelectAgentAlwaysPicksFromEligibleSet(t *testing.T) {
	eligible := []*domain.Agent{
		{Identity: "bob", Role: domain.RoleBroker},
		{Identity: "carol", Role: domain.RoleSupervisor},
		{Identity: "dave", Role: domain.RoleAdmin},
	}
	dir := NewAgentDirectory(&stubAgentRepo{eligible: eligible}, nil)
	dir.SetSeed(7)

	identities := map[string]bool{"bob": true, "carol": true, "dave": true}
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		agent, err := dir.SelectAgent(context.Background())
		require.NoError(t, err)
		require.NotNil(t, agent)
		assert.True(t, identities[agent.Identity], "selected %q outside eligible set", agent.Identity)
		seen[agent.Identity] = true
	}

	// 200 draws over 3 agents should touch every agent.
	assert.Len(t, seen, 3)
}

func TestSelectAgentPropagatesStoreError(t *testing.T) {
	dir := NewAgentDirectory(&stubAgentRepo{err: errors.New("connection refused")}, nil)

	agent, err := dir.SelectAgent(context.Background())

	assert.Error(t, err)
	assert.Nil(t, agent)
}

func TestGetByIdentityUnknownReturnsNil(t *testing.T) {
	dir := NewAgentDirectory(&stubAgentRepo{byIdent: map[string]*domain.Agent{}}, nil)

	agent, err := dir.GetByIdentity(context.Background(), "ghost")

	require.NoError(t, err)
	assert.Nil(t, agent)
}

func TestGetByIdentityFound(t *testing.T) {
	bob := &domain.Agent{Identity: "bob", Role: domain.RoleBroker}
	dir := NewAgentDirectory(&stubAgentRepo{byIdent: map[string]*domain.Agent{"bob": bob}}, nil)

	agent, err := dir.GetByIdentity(context.Background(), "bob")

	require.NoError(t, err)
	require.NotNil(t, agent)
	assert.Equal(t, "bob", agent.Identity)
}
