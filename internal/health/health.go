// Package health runs component health checks and serves probe endpoints.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CheckStatus represents the result of a health check
type CheckStatus int

const (
	StatusHealthy CheckStatus = iota
	StatusDegraded
	StatusUnhealthy
	StatusUnknown
)

func (s CheckStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// CheckResult contains the result of a single health check
type CheckResult struct {
	Component string        `json:"component"`
	Status    CheckStatus   `json:"status"`
	Message   string        `json:"message,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
	Critical  bool          `json:"critical"`
}

// Checker defines the interface for health checks
type Checker interface {
	// Name returns the unique name of this health check
	Name() string

	// Check performs the health check and returns the result
	Check(ctx context.Context) CheckResult

	// IsCritical returns true if this check's failure should mark the
	// service as unhealthy
	IsCritical() bool

	// Timeout returns the maximum duration this check should take
	Timeout() time.Duration
}

// OverallHealth summarizes all checks into one status
type OverallHealth struct {
	Status     CheckStatus            `json:"status"`
	Ready      bool                   `json:"ready"`
	Timestamp  time.Time              `json:"timestamp"`
	Components map[string]CheckResult `json:"components"`
}

// Manager runs registered checkers on demand
type Manager struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	logger   *zap.Logger
}

// NewManager creates an empty health manager
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		checkers: make(map[string]Checker),
		logger:   logger,
	}
}

// Register adds a checker; a second registration under the same name
// replaces the first.
func (m *Manager) Register(c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers[c.Name()] = c
}

// Check runs all checkers concurrently and aggregates the results. A
// failed critical check makes the service unhealthy; a failed non-critical
// check only degrades it.
func (m *Manager) Check(ctx context.Context) OverallHealth {
	m.mu.RLock()
	checkers := make([]Checker, 0, len(m.checkers))
	for _, c := range m.checkers {
		checkers = append(checkers, c)
	}
	m.mu.RUnlock()

	results := make(map[string]CheckResult, len(checkers))
	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, c := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, c.Timeout())
			defer cancel()
			result := c.Check(checkCtx)
			mu.Lock()
			results[c.Name()] = result
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	overall := OverallHealth{
		Status:     StatusHealthy,
		Ready:      true,
		Timestamp:  time.Now().UTC(),
		Components: results,
	}
	for _, r := range results {
		if r.Status == StatusHealthy {
			continue
		}
		if r.Critical {
			overall.Status = StatusUnhealthy
			overall.Ready = false
		} else if overall.Status == StatusHealthy {
			overall.Status = StatusDegraded
		}
		m.logger.Warn("Health check not healthy",
			zap.String("component", r.Component),
			zap.String("status", r.Status.String()),
			zap.String("error", r.Error),
		)
	}
	return overall
}

// IsReady reports whether all critical checks pass.
func (m *Manager) IsReady(ctx context.Context) bool {
	return m.Check(ctx).Ready
}
