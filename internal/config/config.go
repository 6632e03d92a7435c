// Package config loads and saves vmcd's configuration via viper, with
// platform-specific config/data directory resolution and tiered
// validation (fatal errors vs. clamped-with-warning).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"github.com/vmcd/vmcd/internal/logging"
)

var log = logging.L("config")

// Config holds every tunable of the vmcd daemon.
type Config struct {
	ListenHost string `mapstructure:"listen_host"`
	ListenPort int    `mapstructure:"listen_port"`
	SendHost   string `mapstructure:"send_host"`
	SendPort   int    `mapstructure:"send_port"`

	DataDir string `mapstructure:"data_dir"`

	RenderRateHz int `mapstructure:"render_rate_hz"`

	HTTPBindAddr string `mapstructure:"http_bind_addr"`

	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogWebhookURL string `mapstructure:"log_webhook_url"`

	HistoryEnabled    bool `mapstructure:"history_enabled"`
	HistoryMaxSizeMB  int  `mapstructure:"history_max_size_mb"`
	HistoryMaxBackups int  `mapstructure:"history_max_backups"`

	DebugStreamEnabled bool `mapstructure:"debug_stream_enabled"`

	MetricsEnabled bool `mapstructure:"metrics_enabled"`

	WorkerPoolSize      int `mapstructure:"worker_pool_size"`
	WorkerPoolQueueSize int `mapstructure:"worker_pool_queue_size"`

	RemotePresetsEnabled bool   `mapstructure:"remote_presets_enabled"`
	RemotePresetsBucket  string `mapstructure:"remote_presets_bucket"`
	RemotePresetsPrefix  string `mapstructure:"remote_presets_prefix"`
	RemotePresetsRegion  string `mapstructure:"remote_presets_region"`
	RemotePresetsEndpoint string `mapstructure:"remote_presets_endpoint"`
}

// Default returns the baseline configuration applied before a config
// file or environment overrides are layered on.
func Default() *Config {
	return &Config{
		ListenHost: "0.0.0.0",
		ListenPort: 39539,
		SendHost:   "127.0.0.1",
		SendPort:   39540,

		DataDir: GetDataDir(),

		RenderRateHz: 30,

		HTTPBindAddr: "127.0.0.1:8390",

		LogLevel:      "info",
		LogFormat:     "text",
		LogMaxSizeMB:  50,
		LogMaxBackups: 3,

		HistoryEnabled:    true,
		HistoryMaxSizeMB:  50,
		HistoryMaxBackups: 3,

		DebugStreamEnabled: true,
		MetricsEnabled:     true,

		WorkerPoolSize:      4,
		WorkerPoolQueueSize: 64,
	}
}

// Load reads config from cfgFile (or the platform default path/name),
// layers VMCD_*-prefixed environment variables on top, then validates,
// returning an error only for fatal problems. Non-fatal problems are
// clamped and logged as warnings.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("vmcd")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("VMCD")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	result := cfg.ValidateTiered()
	for _, err := range result.Warnings {
		log.Warn("config validation", "error", err)
	}
	if result.HasFatals() {
		for _, err := range result.Fatals {
			log.Error("config validation fatal", "error", err)
		}
		return nil, fmt.Errorf("config has fatal validation errors: %v", result.Fatals[0])
	}

	return cfg, nil
}

// Save writes cfg to the platform default config path.
func Save(cfg *Config) error {
	return SaveTo(cfg, "")
}

// SaveTo writes cfg as YAML to cfgFile, or the platform default path
// when cfgFile is empty.
func SaveTo(cfg *Config, cfgFile string) error {
	v := viper.New()
	v.Set("listen_host", cfg.ListenHost)
	v.Set("listen_port", cfg.ListenPort)
	v.Set("send_host", cfg.SendHost)
	v.Set("send_port", cfg.SendPort)
	v.Set("data_dir", cfg.DataDir)
	v.Set("render_rate_hz", cfg.RenderRateHz)
	v.Set("http_bind_addr", cfg.HTTPBindAddr)
	v.Set("log_level", cfg.LogLevel)
	v.Set("log_format", cfg.LogFormat)
	v.Set("log_file", cfg.LogFile)
	v.Set("log_max_size_mb", cfg.LogMaxSizeMB)
	v.Set("log_max_backups", cfg.LogMaxBackups)
	v.Set("log_webhook_url", cfg.LogWebhookURL)
	v.Set("history_enabled", cfg.HistoryEnabled)
	v.Set("history_max_size_mb", cfg.HistoryMaxSizeMB)
	v.Set("history_max_backups", cfg.HistoryMaxBackups)
	v.Set("debug_stream_enabled", cfg.DebugStreamEnabled)
	v.Set("metrics_enabled", cfg.MetricsEnabled)
	v.Set("worker_pool_size", cfg.WorkerPoolSize)
	v.Set("worker_pool_queue_size", cfg.WorkerPoolQueueSize)
	v.Set("remote_presets_enabled", cfg.RemotePresetsEnabled)
	v.Set("remote_presets_bucket", cfg.RemotePresetsBucket)
	v.Set("remote_presets_prefix", cfg.RemotePresetsPrefix)
	v.Set("remote_presets_region", cfg.RemotePresetsRegion)
	v.Set("remote_presets_endpoint", cfg.RemotePresetsEndpoint)

	var cfgPath string
	if cfgFile != "" {
		cfgPath = cfgFile
		dir := filepath.Dir(cfgPath)
		if dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return err
			}
		}
	} else {
		cfgPath = filepath.Join(configDir(), "vmcd.yaml")
		if err := os.MkdirAll(configDir(), 0700); err != nil {
			return err
		}
	}

	if err := v.WriteConfigAs(cfgPath); err != nil {
		return err
	}
	return os.Chmod(cfgPath, 0600)
}

// GetDataDir returns the platform-specific data directory (presets,
// rest pose, history).
func GetDataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "vmcd", "data")
	case "darwin":
		return filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "vmcd", "data")
	default:
		return "/var/lib/vmcd"
	}
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "vmcd")
	case "darwin":
		return filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "vmcd")
	default:
		return "/etc/vmcd"
	}
}
