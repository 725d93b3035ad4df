package utils

import (
	"context"
	"sync"
	"time"
)

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Healthy      bool            `json:"healthy"`
	Dependencies map[string]bool `json:"dependencies"`
	CheckedAt    time.Time       `json:"checkedAt"`
}

// HealthMonitor keeps the latest dependency snapshot in memory.
type HealthMonitor struct {
	checks map[string]Checker

	mu      sync.RWMutex
	current HealthStatus
}

func NewHealthMonitor(checks map[string]Checker) *HealthMonitor {
	return &HealthMonitor{checks: checks}
}

// Status returns latest stored health snapshot.
func (m *HealthMonitor) Status() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Check runs every checker once and stores the result.
func (m *HealthMonitor) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy:      true,
		Dependencies: make(map[string]bool, len(m.checks)),
		CheckedAt:    time.Now().UTC(),
	}
	for name, check := range m.checks {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		ok := check(cctx) == nil
		cancel()
		status.Dependencies[name] = ok
		status.Healthy = status.Healthy && ok
	}

	m.mu.Lock()
	m.current = status
	m.mu.Unlock()
	return status
}

// Start performs periodic health checks until ctx is done.
func (m *HealthMonitor) Start(ctx context.Context, every time.Duration) {
	m.Check(ctx)
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Check(ctx)
			}
		}
	}()
}
