// Package redis tracks live waking agents & recently observed devices.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wakequeue/wakequeue/internal/core/domain"
	"github.com/wakequeue/wakequeue/internal/core/port"
	"go.uber.org/zap"
)

// agentTTL is how long an agent stays listed without a fresh heartbeat.
const agentTTL = 30 * time.Second

type agentRegistry struct {
	client redis.UniversalClient
	log    *zap.Logger
}

// NewAgentRegistry creates a Redis-backed registry of live waking agents
func NewAgentRegistry(client redis.UniversalClient, log *zap.Logger) port.AgentRegistry {
	return &agentRegistry{
		client: client,
		log:    log,
	}
}

// RegisterAgent saves the agent state under a TTL key (heartbeat)
func (r *agentRegistry) RegisterAgent(ctx context.Context, agent *domain.Agent) error {
	data, err := json.Marshal(agent)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("agent:%s", agent.ID)
	return r.client.Set(ctx, key, data, agentTTL).Err()
}

func (r *agentRegistry) GetActiveAgents(ctx context.Context) ([]*domain.Agent, error) {
	keys, err := r.client.Keys(ctx, "agent:*").Result()
	if err != nil {
		return nil, err
	}

	var agents []*domain.Agent
	for _, key := range keys {
		val, err := r.client.Get(ctx, key).Result()
		if err != nil {
			continue // key expired between KEYS and GET
		}

		var agent domain.Agent
		if err := json.Unmarshal([]byte(val), &agent); err == nil {
			agents = append(agents, &agent)
		}
	}
	return agents, nil
}
