// pkg/resource/health.go
package resource

import (
	"context"
	"fmt"
)

// HealthCheck reports the manager unhealthy when memory is over the limit,
// goroutines pass 80% of the limit, or a supervised goroutine has panicked.
type HealthCheck struct {
	manager *Manager
}

// NewHealthCheck creates a health check for the manager.
func NewHealthCheck(manager *Manager) *HealthCheck {
	return &HealthCheck{manager: manager}
}

// Name returns the name of this health check.
func (h *HealthCheck) Name() string {
	return "resource"
}

// Check verifies that resource usage is within limits.
func (h *HealthCheck) Check(ctx context.Context) error {
	stats := h.manager.Stats()

	if stats.MaxMemoryMB > 0 && stats.MemoryUsageMB > stats.MaxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", stats.MemoryUsageMB, stats.MaxMemoryMB)
	}

	threshold := int64(float64(stats.MaxGoroutines) * 0.8)
	if stats.GoroutineCount > threshold {
		return fmt.Errorf("goroutine count %d exceeds 80%% threshold (%d/%d)",
			stats.GoroutineCount, threshold, stats.MaxGoroutines)
	}

	if stats.Panics > 0 {
		return fmt.Errorf("%d supervised goroutines panicked", stats.Panics)
	}

	return nil
}
