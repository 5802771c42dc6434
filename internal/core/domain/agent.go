package domain

import "time"

type AgentStatus string

const (
	AgentStatusActive   AgentStatus = "ACTIVE"
	AgentStatusDraining AgentStatus = "DRAINING"
)

// Agent represents a waking agent instance registered in the cache with a
// short TTL heartbeat
type Agent struct {
	ID            string      `json:"id"`
	Hostname      string      `json:"hostname"`
	Status        AgentStatus `json:"status"`
	ClaimLimit    int         `json:"claim_limit"`
	LastHeartbeat time.Time   `json:"last_heartbeat"`
}
