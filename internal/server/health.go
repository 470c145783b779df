// health.go - Health endpoint.
package server

import (
	"net/http"
	"os"
	"time"
)

type componentHealth struct {
	Status  string `json:"status"` // "up", "degraded" or "down"
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

type healthResp struct {
	Status     string                     `json:"status"` // "healthy", "degraded" or "unhealthy"
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]componentHealth `json:"components"`
}

type spoolDetails struct {
	Dir           string `json:"dir"`
	ArtifactCount int    `json:"artifact_count"`
	TotalBytes    int64  `json:"total_bytes"`
}

// handleHealth reports the spool directory and sweeper state.
// GET /healthz; 503 when the spool is unusable.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := healthResp{
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]componentHealth),
	}
	resp.Components["spool"] = s.checkSpool()
	resp.Components["sweeper"] = s.checkSweeper()

	resp.Status = "healthy"
	status := http.StatusOK
	for _, c := range resp.Components {
		switch c.Status {
		case "down":
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		case "degraded":
			if resp.Status == "healthy" {
				resp.Status = "degraded"
			}
		}
	}

	writeJSON(w, status, resp)
}

func (s *Service) checkSpool() componentHealth {
	info, err := os.Stat(s.spool.Dir())
	if err != nil || !info.IsDir() {
		return componentHealth{Status: "down", Message: "spool directory unavailable"}
	}

	artifacts, err := s.spool.ListRecent(s.cfg.Retention)
	if err != nil {
		return componentHealth{Status: "degraded", Message: "spool directory unreadable: " + err.Error()}
	}

	var total int64
	for _, a := range artifacts {
		total += a.Size
	}
	return componentHealth{
		Status: "up",
		Details: spoolDetails{
			Dir:           s.spool.Dir(),
			ArtifactCount: len(artifacts),
			TotalBytes:    total,
		},
	}
}

func (s *Service) checkSweeper() componentHealth {
	lastRun, lastErr, purged := s.sweep.snapshot()

	if lastRun.IsZero() {
		return componentHealth{Status: "up", Message: "no cycle yet"}
	}

	details := map[string]any{
		"last_run":     lastRun.UTC(),
		"purged_total": purged,
	}
	if lastErr != nil {
		details["last_error"] = lastErr.Error()
		return componentHealth{Status: "degraded", Message: "last cycle failed", Details: details}
	}

	// A sweeper silent for two intervals is stuck or dead.
	if time.Since(lastRun) > 2*s.cfg.SweepInterval {
		return componentHealth{Status: "degraded", Message: "sweeper stalled", Details: details}
	}
	return componentHealth{Status: "up", Details: details}
}
