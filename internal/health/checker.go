// Package health runs periodic liveness probes against the server's
// backing dependencies and serves the latest snapshot to /healthz.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds health check configuration.
type Config struct {
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
	FailThreshold int
}

// ProbeFunc checks one dependency, returning nil when it is reachable.
type ProbeFunc func(ctx context.Context) error

// Status is the latest observed state of one dependency.
type Status struct {
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs periodic dependency probes.
type Checker struct {
	mu         sync.Mutex
	probes     map[string]ProbeFunc
	statuses   map[string]Status
	failCounts map[string]int
	cfg        Config
	logger     *zap.Logger
}

// New creates a Checker.
func New(cfg Config, logger *zap.Logger) *Checker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = 30 * time.Second
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}
	return &Checker{
		probes:     make(map[string]ProbeFunc),
		statuses:   make(map[string]Status),
		failCounts: make(map[string]int),
		cfg:        cfg,
		logger:     logger,
	}
}

// AddProbe registers a dependency probe under the given name. The
// dependency starts out healthy until a probe says otherwise.
func (c *Checker) AddProbe(name string, fn ProbeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes[name] = fn
	c.statuses[name] = Status{Healthy: true, CheckedAt: time.Now().UTC()}
}

// Start runs the probe loop until stop is closed. It must not share a
// signal channel with the server's shutdown path: a signal is delivered
// to one receiver only.
func (c *Checker) Start(stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CheckAll(context.Background())
		case <-stop:
			return
		}
	}
}

// CheckAll probes every registered dependency once, concurrently.
func (c *Checker) CheckAll(ctx context.Context) {
	c.mu.Lock()
	names := make([]string, 0, len(c.probes))
	for name := range c.probes {
		names = append(names, name)
	}
	c.mu.Unlock()

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			c.runProbe(ctx, name)
		}(name)
	}
	wg.Wait()
}

func (c *Checker) runProbe(ctx context.Context, name string) {
	c.mu.Lock()
	fn := c.probes[name]
	c.mu.Unlock()

	probeCtx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	err := fn(probeCtx)
	cancel()

	now := time.Now().UTC()

	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.failCounts[name]
	if err == nil {
		c.failCounts[name] = 0
		c.statuses[name] = Status{Healthy: true, CheckedAt: now}
		if prev >= c.cfg.FailThreshold {
			c.logger.Info("health: recovered", zap.String("dependency", name))
		}
		return
	}

	c.failCounts[name]++
	count := c.failCounts[name]
	// A dependency is reported unhealthy only after FailThreshold
	// consecutive failures, so a single timeout does not flap /healthz.
	if count >= c.cfg.FailThreshold {
		c.statuses[name] = Status{Healthy: false, Error: err.Error(), CheckedAt: now}
	} else {
		prev := c.statuses[name]
		prev.CheckedAt = now
		c.statuses[name] = prev
	}
	if count == c.cfg.FailThreshold {
		c.logger.Warn("health: degraded",
			zap.String("dependency", name),
			zap.Int("fail_count", count),
			zap.Error(err),
		)
	}
}

// Snapshot returns a copy of the latest per-dependency statuses.
func (c *Checker) Snapshot() map[string]Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Status, len(c.statuses))
	for name, st := range c.statuses {
		out[name] = st
	}
	return out
}

// Healthy reports whether every dependency is currently healthy.
func (c *Checker) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, st := range c.statuses {
		if !st.Healthy {
			return false
		}
	}
	return true
}
