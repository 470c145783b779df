package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"upload-spool/internal/server"
)

func main() {
	cfg, err := configFromEnv()
	if err != nil {
		log.Printf("service=uploadd msg=%q err=%v", "bad_config", err)
		os.Exit(1)
	}

	svc, err := server.Shared(cfg)
	if err != nil {
		log.Printf("service=uploadd msg=%q err=%v", "init_failed", err)
		os.Exit(1)
	}

	if err := svc.Start(); err != nil {
		log.Printf("service=uploadd msg=%q err=%v", "start_failed", err)
		os.Exit(1)
	}

	// Start returns immediately; block here until asked to shut down and
	// make sure the spool is purged on the way out.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	log.Printf("service=uploadd msg=%q signal=%s", "shutting_down", sig.String())
	if err := svc.Stop(); err != nil {
		log.Printf("service=uploadd msg=%q err=%v", "shutdown_error", err)
		os.Exit(1)
	}
	log.Printf("service=uploadd msg=%q", "shutdown_complete")
}

// configFromEnv loads the service configuration from UPS_* environment
// variables on top of the built-in defaults.
func configFromEnv() (server.Config, error) {
	cfg := server.DefaultConfig()

	cfg.Addr = getenvDefault("UPS_ADDR", cfg.Addr)
	cfg.SpoolDir = getenvDefault("UPS_SPOOL_DIR", cfg.SpoolDir)
	cfg.DashboardConfig = os.Getenv("UPS_DASHBOARD_CONFIG")

	if v := os.Getenv("UPS_MAX_UPLOAD_MB"); v != "" {
		mb, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, err
		}
		cfg.MaxUploadBytes = mb << 20
	}

	var err error
	if cfg.Cooldown, err = durationEnv("UPS_COOLDOWN", cfg.Cooldown); err != nil {
		return cfg, err
	}
	if cfg.Retention, err = durationEnv("UPS_RETENTION", cfg.Retention); err != nil {
		return cfg, err
	}
	if cfg.SweepInterval, err = durationEnv("UPS_SWEEP_INTERVAL", cfg.SweepInterval); err != nil {
		return cfg, err
	}
	if cfg.SweepBackoff, err = durationEnv("UPS_SWEEP_BACKOFF", cfg.SweepBackoff); err != nil {
		return cfg, err
	}

	if v := os.Getenv("UPS_ALLOWED_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	return time.ParseDuration(v)
}

// getenvDefault reads an environment variable and returns a default value
// if not set.
func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
