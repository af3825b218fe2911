package directory

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/motordesk/dealer-voice-service/internal/cache"
	"github.com/motordesk/dealer-voice-service/internal/domain"
	"github.com/motordesk/dealer-voice-service/internal/repository"
	"github.com/motordesk/dealer-voice-service/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AgentDirectory looks up dealership staff eligible to receive routed calls
// and picks a target among them. Selection is uniformly random over the
// eligible set on every call path, spreading call load without claiming an
// agent; two simultaneous calls may pick the same agent, which is accepted.
type AgentDirectory struct {
	repo       repository.AgentRepository
	agentCache *cache.AgentCache

	mu  sync.Mutex
	rng *rand.Rand
}

// NewAgentDirectory creates a new agent directory. agentCache may be nil,
// in which case eligibility queries go straight to the repository.
func NewAgentDirectory(repo repository.AgentRepository, agentCache *cache.AgentCache) *AgentDirectory {
	return &AgentDirectory{
		repo:       repo,
		agentCache: agentCache,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetSeed re-seeds the selection source. Tests use this for reproducibility.
func (d *AgentDirectory) SetSeed(seed int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rng = rand.New(rand.NewSource(seed))
}

// EligibleAgents returns the agents currently eligible for incoming calls.
// An empty slice is a valid outcome, not an error.
func (d *AgentDirectory) EligibleAgents(ctx context.Context) ([]*domain.Agent, error) {
	if d.agentCache != nil {
		return d.agentCache.EligibleAgents(ctx)
	}
	return d.repo.GetEligibleForIncoming(ctx)
}

// SelectAgent picks one eligible agent uniformly at random. Returns nil with
// no error when nobody is eligible.
func (d *AgentDirectory) SelectAgent(ctx context.Context) (*domain.Agent, error) {
	agents, err := d.EligibleAgents(ctx)
	if err != nil {
		return nil, err
	}
	if len(agents) == 0 {
		return nil, nil
	}

	d.mu.Lock()
	idx := d.rng.Intn(len(agents))
	d.mu.Unlock()

	selected := agents[idx]
	logger.Base().Info("agent selected for incoming call",
		zap.String("identity", selected.Identity),
		zap.Int("eligible_count", len(agents)),
	)
	return selected, nil
}

// GetByIdentity resolves a staff member by voice client identity. Used by the
// click-to-call connect leg to confirm the bridging target exists. Returns
// nil with no error when the identity is unknown.
func (d *AgentDirectory) GetByIdentity(ctx context.Context, identity string) (*domain.Agent, error) {
	agent, err := d.repo.GetByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return agent, nil
}
