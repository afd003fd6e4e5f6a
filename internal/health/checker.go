// Package health runs on-demand component checks for the health endpoint.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

type HealthState string

const (
	HealthStateHealthy   HealthState = "healthy"
	HealthStateWarning   HealthState = "warning"
	HealthStateUnhealthy HealthState = "unhealthy"
)

// HealthCheck is one component probe.
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) ComponentHealth
}

type ComponentHealth struct {
	Name        string         `json:"name"`
	Status      HealthState    `json:"status"`
	Message     string         `json:"message,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	Duration    time.Duration  `json:"duration"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Error       string         `json:"error,omitempty"`
}

type HealthStatus struct {
	Overall    HealthState                `json:"overall"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version"`
	Uptime     string                     `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
}

// Checker runs every registered check in parallel when asked.
type Checker struct {
	version   string
	timeout   time.Duration
	logger    *logrus.Logger
	startedAt time.Time

	mu     sync.RWMutex
	checks []HealthCheck
}

func NewChecker(version string, timeout time.Duration, logger *logrus.Logger) *Checker {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		version:   version,
		timeout:   timeout,
		logger:    logger,
		startedAt: time.Now(),
	}
}

func (h *Checker) RegisterCheck(check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, check)
}

// Run executes all checks and folds them into an overall state: any unhealthy component makes
// the service unhealthy, any warning degrades it to warning.
func (h *Checker) Run(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	h.mu.RLock()
	checks := append([]HealthCheck(nil), h.checks...)
	h.mu.RUnlock()

	results := make([]ComponentHealth, len(checks))
	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			result := check.Check(ctx)
			result.Name = check.Name()
			result.LastChecked = start
			result.Duration = time.Since(start)
			results[i] = result
		}()
	}
	wg.Wait()

	status := HealthStatus{
		Overall:    HealthStateHealthy,
		Timestamp:  time.Now().UTC(),
		Version:    h.version,
		Uptime:     time.Since(h.startedAt).Round(time.Second).String(),
		Components: make(map[string]ComponentHealth, len(results)),
	}
	for _, r := range results {
		status.Components[r.Name] = r
		switch r.Status {
		case HealthStateUnhealthy:
			status.Overall = HealthStateUnhealthy
		case HealthStateWarning:
			if status.Overall == HealthStateHealthy {
				status.Overall = HealthStateWarning
			}
		}
		if r.Status != HealthStateHealthy {
			h.logger.WithFields(logrus.Fields{
				"component": r.Name,
				"status":    r.Status,
				"error":     r.Error,
			}).Warn("Health check not healthy")
		}
	}
	return status
}

// PingCheck reports unhealthy when ping fails. Used for the redis tier.
type PingCheck struct {
	name string
	ping func(ctx context.Context) error
}

func NewPingCheck(name string, ping func(ctx context.Context) error) *PingCheck {
	return &PingCheck{name: name, ping: ping}
}

func (c *PingCheck) Name() string { return c.name }

func (c *PingCheck) Check(ctx context.Context) ComponentHealth {
	if err := c.ping(ctx); err != nil {
		return ComponentHealth{Status: HealthStateUnhealthy, Message: "ping failed", Error: err.Error()}
	}
	return ComponentHealth{Status: HealthStateHealthy, Message: "reachable"}
}

// BreakerCheck reports the circuit breaker guarding an upstream. An open breaker is only a
// warning because the fallback source still serves data.
type BreakerCheck struct {
	name  string
	state func() gobreaker.State
}

func NewBreakerCheck(name string, state func() gobreaker.State) *BreakerCheck {
	return &BreakerCheck{name: name, state: state}
}

func (c *BreakerCheck) Name() string { return c.name }

func (c *BreakerCheck) Check(context.Context) ComponentHealth {
	state := c.state()
	result := ComponentHealth{
		Status:   HealthStateHealthy,
		Message:  "circuit " + state.String(),
		Metadata: map[string]any{"circuit_state": state.String()},
	}
	if state != gobreaker.StateClosed {
		result.Status = HealthStateWarning
	}
	return result
}

// FuncCheck reports arbitrary metadata and is always healthy, e.g. cache counters.
type FuncCheck struct {
	name     string
	metadata func() map[string]any
}

func NewFuncCheck(name string, metadata func() map[string]any) *FuncCheck {
	return &FuncCheck{name: name, metadata: metadata}
}

func (c *FuncCheck) Name() string { return c.name }

func (c *FuncCheck) Check(context.Context) ComponentHealth {
	return ComponentHealth{Status: HealthStateHealthy, Metadata: c.metadata()}
}
