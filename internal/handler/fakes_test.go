package handler

import (
	"context"
	"errors"
	"time"

	"github.com/motordesk/dealer-voice-service/internal/domain"
	"github.com/motordesk/dealer-voice-service/internal/repository"
	"gorm.io/gorm"
)

type fakeCallEventRepo struct {
	events []*domain.CallEvent
	err    error
}

func (f *fakeCallEventRepo) Create(ctx context.Context, event *domain.CallEvent) error {
	if f.err != nil {
		return f.err
	}
	// Mirror the store contract: receipt time is stamped on insert.
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeCallEventRepo) GetByCallSid(ctx context.Context, callSid string) ([]*domain.CallEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	var matched []*domain.CallEvent
	for _, e := range f.events {
		if e.CallSid == callSid {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (f *fakeCallEventRepo) ListRecent(ctx context.Context, limit int) ([]*domain.CallEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && len(f.events) > limit {
		return f.events[:limit], nil
	}
	return f.events, nil
}

type fakeAgentRepo struct {
	agents map[string]*domain.Agent
}

func newFakeAgentRepo() *fakeAgentRepo {
	return &fakeAgentRepo{agents: make(map[string]*domain.Agent)}
}

func (f *fakeAgentRepo) Create(ctx context.Context, req *domain.CreateAgentRequest) (*domain.Agent, error) {
	agent := &domain.Agent{
		ID:                      "id-" + req.Identity,
		Identity:                req.Identity,
		FirstName:               req.FirstName,
		LastName:                req.LastName,
		Email:                   req.Email,
		Role:                    req.Role,
		CanReceiveIncomingCalls: req.CanReceiveIncomingCalls,
	}
	f.agents[agent.ID] = agent
	return agent, nil
}

func (f *fakeAgentRepo) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	if a, ok := f.agents[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAgentRepo) GetByIdentity(ctx context.Context, identity string) (*domain.Agent, error) {
	for _, a := range f.agents {
		if a.Identity == identity {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAgentRepo) GetAll(ctx context.Context, includeDisabled bool) ([]*domain.Agent, error) {
	var all []*domain.Agent
	for _, a := range f.agents {
		if !includeDisabled && a.Disabled {
			continue
		}
		all = append(all, a)
	}
	return all, nil
}

func (f *fakeAgentRepo) GetEligibleForIncoming(ctx context.Context) ([]*domain.Agent, error) {
	var eligible []*domain.Agent
	for _, a := range f.agents {
		if a.EligibleForIncomingCalls() {
			eligible = append(eligible, a)
		}
	}
	return eligible, nil
}

func (f *fakeAgentRepo) Update(ctx context.Context, id string, req *domain.UpdateAgentRequest) (*domain.Agent, error) {
	a, ok := f.agents[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if req.FirstName != nil {
		a.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		a.LastName = *req.LastName
	}
	if req.Email != nil {
		a.Email = *req.Email
	}
	if req.Role != nil {
		a.Role = *req.Role
	}
	if req.CanReceiveIncomingCalls != nil {
		a.CanReceiveIncomingCalls = *req.CanReceiveIncomingCalls
	}
	if req.Disabled != nil {
		a.Disabled = *req.Disabled
	}
	return a, nil
}

func (f *fakeAgentRepo) Delete(ctx context.Context, id string) error {
	a, ok := f.agents[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Disabled = true
	return nil
}

func (f *fakeAgentRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := f.agents[id]
	return ok, nil
}

type fakeRepoManager struct {
	agentRepo     repository.AgentRepository
	callEventRepo repository.CallEventRepository
	pingErr       error
}

func (f *fakeRepoManager) Agent() repository.AgentRepository { return f.agentRepo }

func (f *fakeRepoManager) CallEvent() repository.CallEventRepository { return f.callEventRepo }

func (f *fakeRepoManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos repository.RepositoryManager) error) error {
	return fn(ctx, f)
}

func (f *fakeRepoManager) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeRepoManager) Close() error { return nil }

var errStoreDown = errors.New("store unavailable")
