package health

import (
	"context"
	"sync"
	"time"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/ledger"
)

// StatusSource reports ledger status. *ledger.Ledger satisfies it.
type StatusSource interface {
	Status() ledger.Status
}

// Checker pings a dependency such as the database.
type Checker func(ctx context.Context) error

// Monitor aggregates ledger and dependency health.
type Monitor struct {
	source  StatusSource
	timeout time.Duration

	mu     sync.RWMutex
	checks map[string]Checker
}

// NewMonitor creates a monitor for source.
func NewMonitor(source StatusSource) *Monitor {
	return &Monitor{
		source:  source,
		timeout: 2 * time.Second,
		checks:  make(map[string]Checker),
	}
}

// AddCheck registers a named dependency check.
func (m *Monitor) AddCheck(name string, check Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = check
}

// CheckHealth builds a report. The worst component status wins.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	report := HealthReport{
		Ledger: m.ledgerHealth(),
	}
	report.SystemStatus = report.Ledger.Status

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.checks) > 0 {
		report.Components = make(map[string]ComponentHealth, len(m.checks))
	}
	for name, check := range m.checks {
		cctx, cancel := context.WithTimeout(ctx, m.timeout)
		err := check(cctx)
		cancel()

		c := ComponentHealth{Status: StatusHealthy}
		if err != nil {
			c.Status = StatusDegraded
			c.Error = err.Error()
		}
		report.Components[name] = c
		report.SystemStatus = worst(report.SystemStatus, c.Status)
	}

	return report
}

func (m *Monitor) ledgerHealth() LedgerHealth {
	s := m.source.Status()
	h := LedgerHealth{
		Status:          StatusHealthy,
		State:           s.State.String(),
		Height:          s.Height,
		HeadHash:        s.HeadHash,
		PersistedHeight: uint64(s.PersistedCount),
		Pending:         s.Pending,
		HashAlgorithm:   string(s.Algorithm),
	}
	if s.Height > h.PersistedHeight {
		h.UnpersistedLag = s.Height - h.PersistedHeight
	}

	switch {
	case s.State != ledger.StateReady:
		h.Status = StatusCritical
	case s.LastWriteError != nil:
		h.Status = StatusDegraded
		h.LastWriteError = s.LastWriteError.Error()
	case h.UnpersistedLag > 0:
		h.Status = StatusDegraded
	}
	return h
}

func worst(a, b SystemStatus) SystemStatus {
	rank := map[SystemStatus]int{StatusHealthy: 0, StatusDegraded: 1, StatusCritical: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
