package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-elastic/pkg/engine"
	"github.com/opd-ai/go-elastic/pkg/physics"
)

// mockHealthCheck implements HealthCheck for testing
type mockHealthCheck struct {
	name    string
	healthy bool
}

func (m *mockHealthCheck) Name() string {
	return m.name
}

func (m *mockHealthCheck) Check(ctx context.Context) error {
	if !m.healthy {
		return fmt.Errorf("mock health check failed")
	}
	return nil
}

// slowHealthCheck honours context cancellation
type slowHealthCheck struct {
	name  string
	delay time.Duration
}

func (s *slowHealthCheck) Name() string {
	return s.name
}

func (s *slowHealthCheck) Check(ctx context.Context) error {
	select {
	case <-time.After(s.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestHealthChecker_AddRemove(t *testing.T) {
	hc := NewHealthChecker(&mockHealthCheck{name: "b", healthy: true})
	hc.AddCheck(&mockHealthCheck{name: "a", healthy: true})
	hc.AddCheck(&mockHealthCheck{name: "a", healthy: false})

	names := hc.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names() = %v, expected [a b]", names)
	}
	if hc.CheckHealth(context.Background()).Checks["a"].Status != StatusUnhealthy {
		t.Error("expected the second check named a to replace the first")
	}

	hc.RemoveCheck("a")
	if len(hc.Names()) != 1 {
		t.Errorf("expected 1 check after removal, got %d", len(hc.Names()))
	}
}

func TestHealthChecker_CheckHealth(t *testing.T) {
	tests := []struct {
		name     string
		checks   []*mockHealthCheck
		expected string
	}{
		{name: "no_checks", checks: nil, expected: StatusHealthy},
		{
			name:     "all_healthy",
			checks:   []*mockHealthCheck{{name: "check1", healthy: true}, {name: "check2", healthy: true}},
			expected: StatusHealthy,
		},
		{
			name:     "one_unhealthy",
			checks:   []*mockHealthCheck{{name: "check1", healthy: true}, {name: "check2", healthy: false}},
			expected: StatusUnhealthy,
		},
		{
			name:     "all_unhealthy",
			checks:   []*mockHealthCheck{{name: "check1", healthy: false}, {name: "check2", healthy: false}},
			expected: StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker()
			for _, check := range tt.checks {
				hc.AddCheck(check)
			}

			status := hc.CheckHealth(context.Background())
			if status.Status != tt.expected {
				t.Errorf("Expected status %s, got %s", tt.expected, status.Status)
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("Expected %d check results, got %d", len(tt.checks), len(status.Checks))
			}
			for _, check := range tt.checks {
				result := status.Checks[check.name]
				healthy := result.Status == StatusHealthy
				if healthy != check.healthy {
					t.Errorf("Check %s: status %s", check.name, result.Status)
				}
				if !healthy && result.Message == "" {
					t.Errorf("Check %s: expected a failure message", check.name)
				}
			}
		})
	}
}

func TestHealthChecker_CheckHealthWithTimeout(t *testing.T) {
	hc := NewHealthChecker(&slowHealthCheck{name: "slow", delay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	status := hc.CheckHealth(ctx)
	if status.Status != StatusUnhealthy || status.Checks["slow"].Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy status due to timeout, got %+v", status)
	}
}

func TestHealthChecker_LivenessHandler(t *testing.T) {
	hc := NewHealthChecker(&mockHealthCheck{name: "broken"})

	w := httptest.NewRecorder()
	hc.LivenessHandler(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, w.Code)
	}
	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["status"] != "alive" {
		t.Errorf("Expected status 'alive', got %s", response["status"])
	}
}

func TestHealthChecker_ReadinessHandler(t *testing.T) {
	tests := []struct {
		name               string
		healthy            bool
		expectedStatusCode int
		expectedStatus     string
	}{
		{name: "healthy_service", healthy: true, expectedStatusCode: http.StatusOK, expectedStatus: StatusHealthy},
		{name: "unhealthy_service", healthy: false, expectedStatusCode: http.StatusServiceUnavailable, expectedStatus: StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker(&mockHealthCheck{name: "test", healthy: tt.healthy})

			w := httptest.NewRecorder()
			hc.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if w.Code != tt.expectedStatusCode {
				t.Errorf("Expected status code %d, got %d", tt.expectedStatusCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type application/json, got %s", ct)
			}
			var response HealthStatus
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if response.Status != tt.expectedStatus {
				t.Errorf("Expected status %s, got %s", tt.expectedStatus, response.Status)
			}
		})
	}
}

type fakeSimulation struct {
	snap *engine.Snapshot
	err  error
}

func (f *fakeSimulation) Snapshot() *engine.Snapshot { return f.snap }
func (f *fakeSimulation) LastError() error           { return f.err }

func TestSimulationHealthCheck(t *testing.T) {
	tests := []struct {
		name        string
		sim         *fakeSimulation
		expectError bool
	}{
		{
			name:        "finite_state",
			sim:         &fakeSimulation{snap: &engine.Snapshot{Bodies: []engine.BodyState{{Velocity: physics.Vector2D{X: 1}}}}},
			expectError: false,
		},
		{
			name:        "empty_field",
			sim:         &fakeSimulation{snap: &engine.Snapshot{}},
			expectError: false,
		},
		{
			name:        "tick_error",
			sim:         &fakeSimulation{snap: &engine.Snapshot{}, err: errors.New("coincident centres")},
			expectError: true,
		},
		{
			name:        "nan_velocity",
			sim:         &fakeSimulation{snap: &engine.Snapshot{Bodies: []engine.BodyState{{Velocity: physics.Vector2D{X: math.NaN()}}}}},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := NewSimulationHealthCheck(tt.sim)
			if check.Name() != "simulation" {
				t.Errorf("Expected name 'simulation', got %s", check.Name())
			}
			err := check.Check(context.Background())
			if (err != nil) != tt.expectError {
				t.Errorf("Check() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}

type fixedBreaker gobreaker.State

func (f fixedBreaker) State() gobreaker.State { return gobreaker.State(f) }

func TestAutosaveHealthCheck(t *testing.T) {
	tests := []struct {
		state       gobreaker.State
		expectError bool
	}{
		{gobreaker.StateClosed, false},
		{gobreaker.StateHalfOpen, false},
		{gobreaker.StateOpen, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			err := NewAutosaveHealthCheck(fixedBreaker(tt.state)).Check(context.Background())
			if (err != nil) != tt.expectError {
				t.Errorf("Check() error = %v, expectError %v", err, tt.expectError)
			}
			if tt.expectError && !errors.Is(err, ErrAutosaveOpen) {
				t.Errorf("expected ErrAutosaveOpen, got %v", err)
			}
		})
	}
}
