// Package health provides ledger health monitoring and status reporting.
package health

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// LedgerHealth describes the chain held in memory and how much of it is durable.
type LedgerHealth struct {
	Status          SystemStatus `json:"status"`
	State           string       `json:"state"`
	Height          uint64       `json:"height"`
	HeadHash        string       `json:"head_hash,omitempty"`
	PersistedHeight uint64       `json:"persisted_height"`
	UnpersistedLag  uint64       `json:"unpersisted_lag"`
	Pending         int          `json:"pending"`
	HashAlgorithm   string       `json:"hash_algorithm"`
	LastWriteError  string       `json:"last_write_error,omitempty"`
}

// ComponentHealth is the result of pinging a backing service.
type ComponentHealth struct {
	Status SystemStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus               `json:"system_status"`
	Ledger       LedgerHealth               `json:"ledger"`
	Components   map[string]ComponentHealth `json:"components,omitempty"`
}
