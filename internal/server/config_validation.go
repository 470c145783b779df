// config_validation.go - Configuration validation.
//
// Validates the resolved configuration at construction time to fail fast
// with per-field messages rather than at first request.
package server

import (
	"errors"
	"fmt"
	"strings"
)

type configValidationError struct {
	field   string
	message string
}

func (e configValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.field, e.message)
}

type configValidator struct {
	errs []configValidationError
}

func (v *configValidator) addError(field, message string) {
	v.errs = append(v.errs, configValidationError{field: field, message: message})
}

func (v *configValidator) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration invalid (%d error(s)):", len(v.errs))
	for _, e := range v.errs {
		sb.WriteString("\n  " + e.Error())
	}
	return errors.New(sb.String())
}

// Validate checks the configuration, aggregating every problem into one
// error so the operator sees the full list at once.
func (c Config) Validate() error {
	v := &configValidator{}

	if c.Addr == "" {
		v.addError("addr", "listen address is required")
	}
	if c.SpoolDir == "" {
		v.addError("spool_dir", "spool directory is required")
	}
	if c.MaxUploadBytes <= 0 {
		v.addError("max_upload_bytes", "upload ceiling must be positive")
	}
	if c.Cooldown < 0 {
		v.addError("cooldown", "cooldown cannot be negative")
	}
	if c.Retention <= 0 {
		v.addError("retention", "retention window must be positive")
	}
	if c.SweepInterval <= 0 {
		v.addError("sweep_interval", "sweep interval must be positive")
	}
	if c.SweepBackoff <= 0 {
		v.addError("sweep_backoff", "sweep backoff must be positive")
	}
	if c.ThrottlePerSec > 0 && c.ThrottleBurst <= 0 {
		v.addError("throttle_burst", "burst must be positive when throttling is enabled")
	}

	return v.err()
}
