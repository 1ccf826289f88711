// pkg/resource/manager.go
package resource

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-elastic/pkg/config"
	"github.com/opd-ai/go-elastic/pkg/logging"
)

// ErrGoroutineLimit is returned when a supervised goroutine would exceed the limit.
var ErrGoroutineLimit = errors.New("goroutine limit exceeded")

// Limits bounds what a Manager lets the process use.
type Limits struct {
	MaxMemoryMB     int64
	MaxGoroutines   int
	ShutdownTimeout time.Duration
	CheckInterval   time.Duration
}

// LimitsFromConfig derives limits from the simulation configuration.
func LimitsFromConfig(cfg *config.SimulationConfig) Limits {
	return Limits{
		MaxMemoryMB:     cfg.Limits.MaxMemoryMB,
		MaxGoroutines:   cfg.Limits.MaxGoroutines,
		ShutdownTimeout: 5 * time.Second,
		CheckInterval:   10 * time.Second,
	}
}

// Manager supervises the background goroutines of a session (tick loop,
// rate samplers, autosaver) and watches memory use.
type Manager struct {
	limits Limits
	logger *logging.Logger

	active   atomic.Int64
	memoryMB atomic.Int64
	panics   atomic.Int64
	wg       sync.WaitGroup

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.RWMutex
	running bool
	names   map[string]int

	lastCheck time.Time
}

// NewManager creates a manager. Call Start to begin memory monitoring.
func NewManager(limits Limits, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		limits: limits,
		logger: logger.WithComponent("resource"),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		names:  make(map[string]int),
	}
}

// Start begins the monitoring loop.
func (m *Manager) Start() error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("resource manager already running")
	}
	m.running = true
	m.mu.Unlock()

	go m.monitoringLoop()

	m.logger.Info(m.ctx, "resource manager started",
		"max_memory_mb", m.limits.MaxMemoryMB,
		"max_goroutines", m.limits.MaxGoroutines,
		"check_interval", m.limits.CheckInterval.String(),
	)
	return nil
}

// StartGoroutine runs fn in a tracked goroutine. The goroutine's context is
// cancelled when either ctx or the manager is shut down. A panic in fn is
// logged and counted instead of crashing the process.
func (m *Manager) StartGoroutine(ctx context.Context, name string, fn func(context.Context)) error {
	if n := m.active.Load(); n >= int64(m.limits.MaxGoroutines) {
		m.logger.Warn(ctx, "goroutine limit reached", "name", name, "current", n, "limit", m.limits.MaxGoroutines)
		return fmt.Errorf("%w: %d/%d", ErrGoroutineLimit, n, m.limits.MaxGoroutines)
	}

	m.active.Add(1)
	m.wg.Add(1)
	m.mu.Lock()
	m.names[name]++
	m.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(m.ctx, cancel)

	go func() {
		defer func() {
			stop()
			cancel()
			m.mu.Lock()
			if m.names[name]--; m.names[name] <= 0 {
				delete(m.names, name)
			}
			m.mu.Unlock()
			m.active.Add(-1)
			m.wg.Done()
		}()
		defer func() {
			if r := recover(); r != nil {
				m.panics.Add(1)
				m.logger.Error(runCtx, "goroutine panic", fmt.Errorf("panic: %v", r), "name", name)
			}
		}()

		fn(runCtx)
	}()

	return nil
}

// CheckMemoryUsage compares heap allocation with the limit.
func (m *Manager) CheckMemoryUsage() error {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	current := int64(stats.Alloc / 1024 / 1024)
	m.memoryMB.Store(current)
	m.mu.Lock()
	m.lastCheck = time.Now()
	m.mu.Unlock()

	if m.limits.MaxMemoryMB > 0 && current > m.limits.MaxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", current, m.limits.MaxMemoryMB)
	}
	return nil
}

// Running returns the names of live supervised goroutines with their counts.
func (m *Manager) Running() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int, len(m.names))
	for k, v := range m.names {
		out[k] = v
	}
	return out
}

// Stats returns current resource usage.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	last := m.lastCheck
	m.mu.RUnlock()
	return Stats{
		GoroutineCount:  m.active.Load(),
		MaxGoroutines:   int64(m.limits.MaxGoroutines),
		MemoryUsageMB:   m.memoryMB.Load(),
		MaxMemoryMB:     m.limits.MaxMemoryMB,
		Panics:          m.panics.Load(),
		LastMemoryCheck: last,
	}
}

// Stats contains resource usage statistics.
type Stats struct {
	GoroutineCount  int64     `json:"goroutine_count"`
	MaxGoroutines   int64     `json:"max_goroutines"`
	MemoryUsageMB   int64     `json:"memory_usage_mb"`
	MaxMemoryMB     int64     `json:"max_memory_mb"`
	Panics          int64     `json:"panics"`
	LastMemoryCheck time.Time `json:"last_memory_check"`
}

// Shutdown cancels every supervised goroutine and waits for them, up to the
// shutdown timeout.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	wasRunning := m.running
	m.running = false
	m.mu.Unlock()

	m.logger.Info(ctx, "shutting down resource manager", "active", m.active.Load())
	m.cancel()

	timeout := m.limits.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if wasRunning {
		select {
		case <-m.done:
		case <-shutdownCtx.Done():
			m.logger.Warn(ctx, "monitoring loop did not stop in time")
		}
	}

	finished := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-shutdownCtx.Done():
		remaining := m.active.Load()
		m.logger.Warn(ctx, "shutdown timeout with goroutines still running", "remaining", remaining)
		return fmt.Errorf("shutdown timeout: %d goroutines still running", remaining)
	}
}

func (m *Manager) monitoringLoop() {
	defer close(m.done)

	interval := m.limits.CheckInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.CheckMemoryUsage(); err != nil {
				m.logger.Error(m.ctx, "memory limit exceeded", err)
			}
			m.logger.Debug(m.ctx, "resource usage",
				"goroutines", m.active.Load(),
				"memory_mb", m.memoryMB.Load(),
			)
		case <-m.ctx.Done():
			return
		}
	}
}
