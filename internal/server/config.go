// config.go - Service configuration.
package server

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultMaxUploadMB = 200

// Config holds everything the service needs at construction time.
type Config struct {
	Addr           string        // HTTP listen address
	SpoolDir       string        // shared upload directory
	MaxUploadBytes int64         // upload ceiling
	Cooldown       time.Duration // per-client upload cooldown
	Retention      time.Duration // artifact retention window
	SweepInterval  time.Duration // sweeper period
	SweepBackoff   time.Duration // sweeper delay after a failed cycle

	// DashboardConfig optionally points at the hosting dashboard's YAML
	// config; its upload limit, when present, overrides MaxUploadBytes.
	DashboardConfig string

	// AllowedOrigins restricts CORS; empty allows all.
	AllowedOrigins []string

	// ThrottlePerSec/ThrottleBurst configure the general per-IP request
	// limiter. ThrottlePerSec <= 0 disables it.
	ThrottlePerSec float64
	ThrottleBurst  int
}

// DefaultConfig returns the stock configuration the original deployment ran
// with: port 8000, 200 MB ceiling, 2s cooldown, 24h retention swept hourly.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8000",
		SpoolDir:       "/tmp/dashboard_uploads",
		MaxUploadBytes: defaultMaxUploadMB << 20,
		Cooldown:       2 * time.Second,
		Retention:      24 * time.Hour,
		SweepInterval:  time.Hour,
		SweepBackoff:   5 * time.Minute,
		ThrottlePerSec: 10,
		ThrottleBurst:  20,
	}
}

// dashboardConfig mirrors the slice of the dashboard's config file this
// service reads.
type dashboardConfig struct {
	Server struct {
		MaxUploadSizeMB int `yaml:"max_upload_size_mb"`
	} `yaml:"server"`
}

// resolveCeiling applies the dashboard's configured upload limit when its
// config file is present and readable. An unreachable or malformed file is
// logged and the configured ceiling stands; the dashboard config is a
// courtesy, not a dependency.
func (c *Config) resolveCeiling() {
	if c.DashboardConfig == "" {
		return
	}

	raw, err := os.ReadFile(c.DashboardConfig)
	if err != nil {
		log.Printf("service=config msg=%q path=%s err=%v", "dashboard_config_unreadable", c.DashboardConfig, err)
		return
	}

	var dc dashboardConfig
	if err := yaml.Unmarshal(raw, &dc); err != nil {
		log.Printf("service=config msg=%q path=%s err=%v", "dashboard_config_malformed", c.DashboardConfig, err)
		return
	}

	if dc.Server.MaxUploadSizeMB > 0 {
		c.MaxUploadBytes = int64(dc.Server.MaxUploadSizeMB) << 20
		log.Printf("service=config msg=%q max_upload_mb=%d", "ceiling_from_dashboard", dc.Server.MaxUploadSizeMB)
	}
}
