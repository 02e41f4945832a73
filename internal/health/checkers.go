package health

import (
	"context"
	"fmt"
	"time"

	"github.com/crucible-ai/crucible/internal/store"
)

// StoreChecker verifies the persistence backend is reachable. Critical:
// the service cannot accept work without its store.
type StoreChecker struct {
	store   store.Store
	backend string
}

// NewStoreChecker wraps a store for health checking.
func NewStoreChecker(s store.Store, backend string) *StoreChecker {
	return &StoreChecker{store: s, backend: backend}
}

func (c *StoreChecker) Name() string           { return "store" }
func (c *StoreChecker) IsCritical() bool       { return true }
func (c *StoreChecker) Timeout() time.Duration { return 5 * time.Second }

func (c *StoreChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Component: c.Name(),
		Critical:  true,
		Timestamp: start.UTC(),
	}
	if err := c.store.Ping(ctx); err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
	} else {
		result.Status = StatusHealthy
		result.Message = fmt.Sprintf("%s backend reachable", c.backend)
	}
	result.Duration = time.Since(start)
	return result
}

// AgentProber is the slice of the model caller that health checking needs.
type AgentProber interface {
	Availability(ctx context.Context) map[string]bool
}

// AgentChecker probes the configured agents. Non-critical: the service
// stays up with degraded agents, workflows just fail individually.
type AgentChecker struct {
	prober AgentProber
}

// NewAgentChecker wraps an agent prober for health checking.
func NewAgentChecker(p AgentProber) *AgentChecker {
	return &AgentChecker{prober: p}
}

func (c *AgentChecker) Name() string           { return "agents" }
func (c *AgentChecker) IsCritical() bool       { return false }
func (c *AgentChecker) Timeout() time.Duration { return 30 * time.Second }

func (c *AgentChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Component: c.Name(),
		Timestamp: start.UTC(),
	}

	availability := c.prober.Availability(ctx)
	down := 0
	for _, up := range availability {
		if !up {
			down++
		}
	}
	switch {
	case len(availability) == 0:
		result.Status = StatusUnknown
		result.Message = "no agents configured"
	case down == 0:
		result.Status = StatusHealthy
		result.Message = fmt.Sprintf("all %d agents reachable", len(availability))
	case down < len(availability):
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("%d of %d agents unreachable", down, len(availability))
	default:
		result.Status = StatusUnhealthy
		result.Message = "all agents unreachable"
	}
	result.Duration = time.Since(start)
	return result
}
