package config

import (
	"fmt"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"warning": true,
	"error": true,
}

// ValidationResult separates fatal problems (startup must abort) from
// warnings (clamped to a safe value and logged, startup proceeds).
type ValidationResult struct {
	Fatals   []error
	Warnings []error
}

// HasFatals reports whether the config must not be used to start the
// daemon.
func (r ValidationResult) HasFatals() bool {
	return len(r.Fatals) > 0
}

// ValidateTiered checks the config for invalid values, clamping
// dangerous zero/out-of-range values to safe defaults and collecting
// the clamp as a warning rather than a fatal.
func (c *Config) ValidateTiered() ValidationResult {
	var r ValidationResult

	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		r.Fatals = append(r.Fatals, fmt.Errorf("listen_port %d is out of range 1-65535", c.ListenPort))
	}
	if c.SendPort <= 0 || c.SendPort > 65535 {
		r.Fatals = append(r.Fatals, fmt.Errorf("send_port %d is out of range 1-65535", c.SendPort))
	}
	if c.DataDir == "" {
		r.Fatals = append(r.Fatals, fmt.Errorf("data_dir must not be empty"))
	}
	if c.HTTPBindAddr == "" {
		r.Fatals = append(r.Fatals, fmt.Errorf("http_bind_addr must not be empty"))
	}

	if c.RenderRateHz < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("render_rate_hz %d is below minimum 1, clamping to 30", c.RenderRateHz))
		c.RenderRateHz = 30
	} else if c.RenderRateHz > 240 {
		r.Warnings = append(r.Warnings, fmt.Errorf("render_rate_hz %d exceeds maximum 240, clamping", c.RenderRateHz))
		c.RenderRateHz = 240
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error), defaulting to info", c.LogLevel))
		c.LogLevel = "info"
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_format %q is not valid (use text or json), defaulting to text", c.LogFormat))
		c.LogFormat = "text"
	}

	if c.LogMaxSizeMB < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_max_size_mb %d is below minimum 1, clamping to 50", c.LogMaxSizeMB))
		c.LogMaxSizeMB = 50
	}
	if c.HistoryMaxSizeMB < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("history_max_size_mb %d is below minimum 1, clamping to 50", c.HistoryMaxSizeMB))
		c.HistoryMaxSizeMB = 50
	}

	if c.WorkerPoolSize < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("worker_pool_size %d is below minimum 1, clamping to 4", c.WorkerPoolSize))
		c.WorkerPoolSize = 4
	} else if c.WorkerPoolSize > 64 {
		r.Warnings = append(r.Warnings, fmt.Errorf("worker_pool_size %d exceeds maximum 64, clamping", c.WorkerPoolSize))
		c.WorkerPoolSize = 64
	}
	if c.WorkerPoolQueueSize < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("worker_pool_queue_size %d is below minimum 1, clamping to 64", c.WorkerPoolQueueSize))
		c.WorkerPoolQueueSize = 64
	}

	if c.RemotePresetsEnabled && c.RemotePresetsBucket == "" {
		r.Fatals = append(r.Fatals, fmt.Errorf("remote_presets_bucket is required when remote_presets_enabled is true"))
	}

	return r
}
