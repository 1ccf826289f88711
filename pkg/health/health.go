// Package health provides health check functionality for the simulation.
// It implements HTTP endpoints for liveness and readiness probes and a stats
// endpoint for headless runs.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-elastic/pkg/engine"
)

// Status values
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthCheck defines the interface for individual health checks.
type HealthCheck interface {
	// Name returns the unique name of this health check
	Name() string
	// Check performs the health check and returns an error if unhealthy
	Check(ctx context.Context) error
}

// HealthStatus represents the overall health status of the application.
type HealthStatus struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents the health status of an individual component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthChecker manages and executes health checks.
type HealthChecker struct {
	checks map[string]HealthCheck
	mu     sync.RWMutex
}

// NewHealthChecker creates a new health checker instance.
func NewHealthChecker(checks ...HealthCheck) *HealthChecker {
	hc := &HealthChecker{checks: make(map[string]HealthCheck)}
	for _, c := range checks {
		hc.AddCheck(c)
	}
	return hc
}

// AddCheck registers a health check, replacing any check with the same name.
func (hc *HealthChecker) AddCheck(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[check.Name()] = check
}

// RemoveCheck removes a health check by name.
func (hc *HealthChecker) RemoveCheck(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.checks, name)
}

// Names returns the registered check names in order.
func (hc *HealthChecker) Names() []string {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckHealth executes all registered health checks and returns the aggregated status.
// The overall status is healthy only if all individual checks pass.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	status := HealthStatus{
		Status: StatusHealthy,
		Checks: make(map[string]ComponentHealth, len(hc.checks)),
	}

	for name, check := range hc.checks {
		if err := check.Check(ctx); err != nil {
			status.Status = StatusUnhealthy
			status.Checks[name] = ComponentHealth{Status: StatusUnhealthy, Message: err.Error()}
			continue
		}
		status.Checks[name] = ComponentHealth{Status: StatusHealthy}
	}

	return status
}

// LivenessHandler returns 200 OK while the process can serve requests.
func (hc *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessHandler runs every check and answers 200 OK when all pass, or
// 503 Service Unavailable otherwise.
func (hc *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := hc.CheckHealth(ctx)

	code := http.StatusOK
	if health.Status != StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, health)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// SimulationState is the part of a simulation the health check reads.
type SimulationState interface {
	Snapshot() *engine.Snapshot
	LastError() error
}

// SimulationHealthCheck fails when the last tick reported an error or a body
// position or velocity is no longer finite.
type SimulationHealthCheck struct {
	sim SimulationState
}

// NewSimulationHealthCheck creates a health check for a simulation.
func NewSimulationHealthCheck(sim SimulationState) *SimulationHealthCheck {
	return &SimulationHealthCheck{sim: sim}
}

// Name returns the name of this health check.
func (s *SimulationHealthCheck) Name() string {
	return "simulation"
}

// Check verifies the simulation state.
func (s *SimulationHealthCheck) Check(ctx context.Context) error {
	if err := s.sim.LastError(); err != nil {
		return fmt.Errorf("last tick failed: %w", err)
	}
	snap := s.sim.Snapshot()
	if !snap.Finite() {
		return fmt.Errorf("non-finite body state at tick %d", snap.Tick)
	}
	return nil
}

// ErrAutosaveOpen is reported while the autosave circuit is open.
var ErrAutosaveOpen = errors.New("autosave circuit open")

// BreakerState is implemented by *statefile.Autosaver.
type BreakerState interface {
	State() gobreaker.State
}

// AutosaveHealthCheck fails while repeated save failures hold the autosave
// circuit breaker open.
type AutosaveHealthCheck struct {
	breaker BreakerState
}

// NewAutosaveHealthCheck creates a health check for an autosaver.
func NewAutosaveHealthCheck(breaker BreakerState) *AutosaveHealthCheck {
	return &AutosaveHealthCheck{breaker: breaker}
}

// Name returns the name of this health check.
func (a *AutosaveHealthCheck) Name() string {
	return "autosave"
}

// Check verifies the breaker is not open.
func (a *AutosaveHealthCheck) Check(ctx context.Context) error {
	if a.breaker.State() == gobreaker.StateOpen {
		return ErrAutosaveOpen
	}
	return nil
}
