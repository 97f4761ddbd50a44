package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dd0wney/kway-mergeviz/pkg/merge"
	"github.com/dd0wney/kway-mergeviz/pkg/playback"
)

func TestChecker_Empty(t *testing.T) {
	c := NewChecker()

	resp := c.Check()
	if resp.Status != StatusHealthy {
		t.Errorf("Expected healthy with no checks, got %s", resp.Status)
	}
	if len(resp.Checks) != 0 {
		t.Errorf("Expected no checks, got %d", len(resp.Checks))
	}
	if resp.Uptime < 0 {
		t.Errorf("Expected non-negative uptime, got %v", resp.Uptime)
	}
}

func TestChecker_WorstStatusWins(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy beats degraded", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			for i, s := range tt.statuses {
				status := s
				c.Register(string(rune('a'+i)), func() Check { return Check{Status: status} })
			}
			if got := c.Check().Status; got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestChecker_FillsNameAndTiming(t *testing.T) {
	c := NewChecker()
	c.Register("slow", func() Check {
		time.Sleep(time.Millisecond)
		return Check{Status: StatusHealthy}
	})

	check := c.Check().Checks["slow"]
	if check.Name != "slow" {
		t.Errorf("Expected name to default to the registered key, got %q", check.Name)
	}
	if check.Duration < time.Millisecond {
		t.Errorf("Expected duration >= 1ms, got %v", check.Duration)
	}
	if check.LastChecked.IsZero() {
		t.Error("Expected LastChecked to be set")
	}
}

func TestPlaybackCheck(t *testing.T) {
	eng, err := merge.New(merge.Config{Seed: 1, Streams: 2, StreamLength: 3})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	ctrl := playback.New(eng)
	ctrl.Step()

	check := PlaybackCheck(ctrl.Snapshot)()
	if check.Status != StatusHealthy {
		t.Errorf("Expected healthy, got %s", check.Status)
	}
	if check.Message != "RUNNING" {
		t.Errorf("Expected RUNNING, got %q", check.Message)
	}
	if check.Details["output_len"] != 1 || check.Details["comparisons"] != 1 {
		t.Errorf("Unexpected details: %v", check.Details)
	}
	if check.Details["mode"] != "manual" {
		t.Errorf("Expected manual mode, got %v", check.Details["mode"])
	}
}

func TestEventBusCheck(t *testing.T) {
	if got := EventBusCheck(func() uint64 { return 0 })().Status; got != StatusHealthy {
		t.Errorf("Expected healthy without drops, got %s", got)
	}
	if got := EventBusCheck(func() uint64 { return 3 })().Status; got != StatusDegraded {
		t.Errorf("Expected degraded with drops, got %s", got)
	}
}

func TestJournalCheck(t *testing.T) {
	if got := JournalCheck(func() error { return nil })().Status; got != StatusHealthy {
		t.Errorf("Expected healthy, got %s", got)
	}

	check := JournalCheck(func() error { return errors.New("disk full") })()
	if check.Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy, got %s", check.Status)
	}
	if check.Message != "disk full" {
		t.Errorf("Expected error message, got %q", check.Message)
	}
}

func TestRuntimeCheck(t *testing.T) {
	check := RuntimeCheck()()
	if check.Status != StatusHealthy {
		t.Errorf("Expected healthy, got %s", check.Status)
	}
	if n, ok := check.Details["goroutines"].(int); !ok || n < 1 {
		t.Errorf("Expected goroutine count, got %v", check.Details["goroutines"])
	}
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		wantCode int
	}{
		{"healthy", StatusHealthy, http.StatusOK},
		{"degraded", StatusDegraded, http.StatusOK},
		{"unhealthy", StatusUnhealthy, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			c.Register("component", func() Check { return Check{Status: tt.status} })

			rec := httptest.NewRecorder()
			c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("Expected code %d, got %d", tt.wantCode, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected JSON content type, got %q", ct)
			}

			var resp Response
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Status != tt.status {
				t.Errorf("Expected status %s, got %s", tt.status, resp.Status)
			}
		})
	}
}
