// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"time"

	"github.com/ManuGH/dlcat/internal/resilience"
)

// ServerSet is the part of the registry the readiness probe looks at.
type ServerSet interface {
	Ready() <-chan struct{}
	Len() int
}

// RegistryChecker reports whether initial enumeration has finished and how
// many media servers are known. Zero servers is degraded, not unhealthy.
type RegistryChecker struct {
	servers ServerSet
}

// NewRegistryChecker creates a checker for the server registry.
func NewRegistryChecker(servers ServerSet) *RegistryChecker {
	return &RegistryChecker{servers: servers}
}

func (c *RegistryChecker) Name() string {
	return "registry"
}

func (c *RegistryChecker) Check(_ context.Context) CheckResult {
	select {
	case <-c.servers.Ready():
	default:
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "initial server enumeration in progress",
		}
	}

	n := c.servers.Len()
	details := map[string]interface{}{"servers": n}
	if n == 0 {
		return CheckResult{
			Status:  StatusDegraded,
			Message: "no media servers found",
			Details: details,
		}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: "media servers available",
		Details: details,
	}
}

// VersionFunc asks the service manager for its version.
type VersionFunc func(ctx context.Context) (string, error)

// BusChecker verifies that the dLeyna manager answers on the bus.
type BusChecker struct {
	version VersionFunc
	timeout time.Duration
}

// NewBusChecker creates a bus reachability checker. A non-positive timeout
// defaults to two seconds.
func NewBusChecker(version VersionFunc, timeout time.Duration) *BusChecker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &BusChecker{version: version, timeout: timeout}
}

func (c *BusChecker) Name() string {
	return "bus"
}

func (c *BusChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	v, err := c.version(ctx)
	if err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Error:   err.Error(),
			Message: "service manager unreachable",
		}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: "service manager reachable",
		Details: map[string]interface{}{"version": v},
	}
}

// BreakerState exposes the state of a circuit breaker.
type BreakerState interface {
	State() resilience.State
}

// BreakerChecker reports an open or probing circuit breaker as degraded.
type BreakerChecker struct {
	name    string
	breaker BreakerState
}

// NewBreakerChecker creates a checker for the named breaker.
func NewBreakerChecker(name string, breaker BreakerState) *BreakerChecker {
	return &BreakerChecker{name: name, breaker: breaker}
}

func (c *BreakerChecker) Name() string {
	return c.name
}

func (c *BreakerChecker) Check(_ context.Context) CheckResult {
	state := c.breaker.State()
	res := CheckResult{
		Status:  StatusHealthy,
		Details: map[string]interface{}{"state": string(state)},
	}
	if state != resilience.StateClosed {
		res.Status = StatusDegraded
		res.Message = "circuit breaker " + string(state)
	}
	return res
}
