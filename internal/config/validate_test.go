package config

import (
	"strings"
	"testing"
)

func TestValidateTieredBadListenPortIsFatal(t *testing.T) {
	cfg := Default()
	cfg.ListenPort = 0
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("out-of-range listen_port should be fatal")
	}
}

func TestValidateTieredBadSendPortIsFatal(t *testing.T) {
	cfg := Default()
	cfg.SendPort = 70000
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("out-of-range send_port should be fatal")
	}
}

func TestValidateTieredEmptyDataDirIsFatal(t *testing.T) {
	cfg := Default()
	cfg.DataDir = ""
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("empty data_dir should be fatal")
	}
}

func TestValidateTieredEmptyHTTPBindAddrIsFatal(t *testing.T) {
	cfg := Default()
	cfg.HTTPBindAddr = ""
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("empty http_bind_addr should be fatal")
	}
}

func TestValidateTieredRemotePresetsWithoutBucketIsFatal(t *testing.T) {
	cfg := Default()
	cfg.RemotePresetsEnabled = true
	cfg.RemotePresetsBucket = ""
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("remote presets enabled without a bucket should be fatal")
	}
}

func TestValidateTieredRenderRateLowClamping(t *testing.T) {
	cfg := Default()
	cfg.RenderRateHz = 0
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped render_rate_hz should be a warning, not fatal: %v", result.Fatals)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected a warning for the clamped render rate")
	}
	if cfg.RenderRateHz != 30 {
		t.Fatalf("RenderRateHz = %d, want 30", cfg.RenderRateHz)
	}
}

func TestValidateTieredRenderRateHighClamping(t *testing.T) {
	cfg := Default()
	cfg.RenderRateHz = 9999
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped render_rate_hz should be a warning: %v", result.Fatals)
	}
	if cfg.RenderRateHz != 240 {
		t.Fatalf("RenderRateHz = %d, want 240", cfg.RenderRateHz)
	}
}

func TestValidateTieredUnknownLogLevelIsWarning(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("unknown log level should not be fatal")
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want info (defaulted)", cfg.LogLevel)
	}
}

func TestValidateTieredInvalidLogFormatIsWarning(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = "xml"
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("invalid log format should not be fatal")
	}
	if cfg.LogFormat != "text" {
		t.Fatalf("LogFormat = %q, want text (defaulted)", cfg.LogFormat)
	}
}

func TestValidateTieredLogMaxSizeClamping(t *testing.T) {
	cfg := Default()
	cfg.LogMaxSizeMB = 0
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("clamped log_max_size_mb should be a warning")
	}
	if cfg.LogMaxSizeMB != 50 {
		t.Fatalf("LogMaxSizeMB = %d, want 50", cfg.LogMaxSizeMB)
	}
}

func TestValidateTieredWorkerPoolClamping(t *testing.T) {
	cfg := Default()
	cfg.WorkerPoolSize = 0
	cfg.WorkerPoolQueueSize = 0
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("clamped worker pool settings should be warnings")
	}
	if cfg.WorkerPoolSize != 4 {
		t.Fatalf("WorkerPoolSize = %d, want 4", cfg.WorkerPoolSize)
	}
	if cfg.WorkerPoolQueueSize != 64 {
		t.Fatalf("WorkerPoolQueueSize = %d, want 64", cfg.WorkerPoolQueueSize)
	}
}

func TestValidateTieredWorkerPoolSizeUpperClamp(t *testing.T) {
	cfg := Default()
	cfg.WorkerPoolSize = 999
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("clamped worker pool size should be a warning")
	}
	if cfg.WorkerPoolSize != 64 {
		t.Fatalf("WorkerPoolSize = %d, want 64", cfg.WorkerPoolSize)
	}
}

func TestHasFatals(t *testing.T) {
	r := ValidationResult{}
	if r.HasFatals() {
		t.Fatal("HasFatals() on empty result should be false")
	}
	cfg := Default()
	cfg.ListenPort = -1
	r = cfg.ValidateTiered()
	if !r.HasFatals() {
		t.Fatal("HasFatals() should be true with a fatal error present")
	}
}

func TestValidDefaultConfigHasNoErrors(t *testing.T) {
	cfg := Default()
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("default config has fatals: %v", result.Fatals)
	}
	if len(result.Warnings) > 0 {
		t.Fatalf("default config has warnings: %v", result.Warnings)
	}
}

func TestValidateTieredWarningMentionsFieldName(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	result := cfg.ValidateTiered()
	found := false
	for _, err := range result.Warnings {
		if strings.Contains(err.Error(), "log_level") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a warning mentioning log_level")
	}
}
