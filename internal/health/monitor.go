package health

import (
	"context"
	"time"

	"github.com/vietddude/orb/internal/adapter"
)

// Check probes a dependency such as the naming backend.
type Check func(ctx context.Context) error

// Monitor builds health reports from the adapter manager and dependency checks.
type Monitor struct {
	manager *adapter.Manager
	checks  map[string]Check
	timeout time.Duration
}

// NewMonitor creates a monitor for manager.
func NewMonitor(manager *adapter.Manager) *Monitor {
	return &Monitor{
		manager: manager,
		checks:  make(map[string]Check),
		timeout: 2 * time.Second,
	}
}

// AddCheck registers a named dependency check. Not safe for use after the
// server has started.
func (m *Monitor) AddCheck(name string, check Check) {
	m.checks[name] = check
}

// CheckHealth returns the current report.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	state := m.manager.State()
	report := HealthReport{
		SystemStatus: statusFor(state),
		ManagerState: string(state),
	}

	for _, a := range m.manager.Adapters() {
		policy := a.Policy()
		report.Adapters = append(report.Adapters, AdapterHealth{
			Name:      a.Name(),
			Lifespan:  string(policy.Lifespan),
			Retention: string(policy.Retention),
			Servants:  a.Len(),
			Destroyed: a.Destroyed(),
		})
	}

	if len(m.checks) > 0 {
		report.Checks = make(map[string]string, len(m.checks))
	}
	for name, check := range m.checks {
		checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := check(checkCtx)
		cancel()
		if err != nil {
			report.Checks[name] = err.Error()
			report.SystemStatus = StatusCritical
			continue
		}
		report.Checks[name] = "ok"
	}
	return report
}

func statusFor(state adapter.State) SystemStatus {
	switch state {
	case adapter.StateActive:
		return StatusHealthy
	case adapter.StateHolding, adapter.StateDiscarding:
		return StatusDegraded
	default:
		return StatusCritical
	}
}
