// Package health reports the state of a running visualizer over HTTP,
// next to its Prometheus metrics.
package health

import "time"

// NewChecker creates a checker whose uptime counts from now
func NewChecker() *Checker {
	return &Checker{
		checks:  make(map[string]CheckFunc),
		started: time.Now(),
	}
}

// Register adds or replaces a named check
func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Check runs every registered check. The worst status wins.
func (c *Checker) Check() Response {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	response := Response{
		Status:    StatusHealthy,
		Timestamp: now,
		Checks:    make(map[string]Check, len(c.checks)),
		Uptime:    now.Sub(c.started).Seconds(),
	}

	for name, checkFunc := range c.checks {
		start := time.Now()
		check := checkFunc()
		check.Duration = time.Since(start)
		check.LastChecked = start
		if check.Name == "" {
			check.Name = name
		}
		response.Checks[name] = check

		switch {
		case check.Status == StatusUnhealthy:
			response.Status = StatusUnhealthy
		case check.Status == StatusDegraded && response.Status != StatusUnhealthy:
			response.Status = StatusDegraded
		}
	}

	return response
}
