package fraud

import "time"

// AgentStatus enum
type AgentStatus string

const (
	AgentStopped AgentStatus = "stopped"
	AgentRunning AgentStatus = "running"
	AgentError   AgentStatus = "error"
)

// Agent is a configured simulated monitor. Status and counters are only
// changed by the manager that owns it; callers receive copies.
type Agent struct {
	ID              string      `json:"agent_id"`
	Name            string      `json:"name"`
	Status          AgentStatus `json:"status"`
	AccountIDs      []string    `json:"account_ids"`
	EventsProcessed int         `json:"events_processed"`
	AlertsGenerated int         `json:"alerts_generated"`
	CreatedAt       time.Time   `json:"created_at"`
	LastActivity    *time.Time  `json:"last_activity,omitempty"`
	LastError       string      `json:"last_error,omitempty"`
}

// Clone returns a deep copy safe to hand out of the registry.
func (a Agent) Clone() Agent {
	out := a
	out.AccountIDs = append([]string(nil), a.AccountIDs...)
	if a.LastActivity != nil {
		t := *a.LastActivity
		out.LastActivity = &t
	}
	return out
}
