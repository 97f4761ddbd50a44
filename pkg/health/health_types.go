package health

import (
	"sync"
	"time"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check is the result of one component check
type Check struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	Duration    time.Duration  `json:"duration_ns"`
}

// CheckFunc performs a health check
type CheckFunc func() Check

// Checker runs the registered checks of a visualizer process
type Checker struct {
	checks  map[string]CheckFunc
	started time.Time
	mu      sync.RWMutex
}

// Response is the overall health report
type Response struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
	Uptime    float64          `json:"uptime_seconds"`
}
