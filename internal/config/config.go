// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"firestige.xyz/microburst/internal/core"
)

// GlobalConfig represents the top-level configuration.
// Maps to the `microburst:` root key in YAML.
type GlobalConfig struct {
	Capture  CaptureConfig  `mapstructure:"capture" yaml:"capture"`
	Detector DetectorConfig `mapstructure:"detector" yaml:"detector"`
	Filter   FilterConfig   `mapstructure:"filter" yaml:"filter"`
	Status   StatusConfig   `mapstructure:"status" yaml:"status"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// ─── Capture ───

// CaptureConfig selects and bounds the capture source.
type CaptureConfig struct {
	Path           string `mapstructure:"path" yaml:"path"`
	Stdin          bool   `mapstructure:"stdin" yaml:"stdin"`
	MaxRecordBytes int    `mapstructure:"max_record_bytes" yaml:"max_record_bytes"` // scratch buffer size
	LocalTime      bool   `mapstructure:"local_time" yaml:"local_time"`             // add host UTC offset to timestamps
}

// ─── Detector ───

// DetectorConfig selects the detector and carries per-detector options.
// Options are keyed by detector name and decoded by the detector registry.
type DetectorConfig struct {
	Mode       string                            `mapstructure:"mode" yaml:"mode"` // window | gap
	FlushOnEOF bool                              `mapstructure:"flush_on_eof" yaml:"flush_on_eof"`
	Options    map[string]map[string]interface{} `mapstructure:"options" yaml:"options"`
}

// ModeOptions returns the option map of the selected detector, never nil.
func (d *DetectorConfig) ModeOptions() map[string]interface{} {
	if d.Options == nil {
		d.Options = make(map[string]map[string]interface{})
	}
	opts, ok := d.Options[d.Mode]
	if !ok || opts == nil {
		opts = make(map[string]interface{})
		d.Options[d.Mode] = opts
	}
	return opts
}

// ─── Filter ───

// FilterConfig configures the IPv4 source-octet content filter.
type FilterConfig struct {
	Enabled       bool `mapstructure:"enabled" yaml:"enabled"`
	SrcOctetIndex int  `mapstructure:"src_octet_index" yaml:"src_octet_index"` // 0-3
	SrcOctetValue int  `mapstructure:"src_octet_value" yaml:"src_octet_value"` // 0-255
}

// ─── Status ───

// StatusConfig configures periodic progress logging.
type StatusConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level      string           `mapstructure:"level" yaml:"level"`     // trace / debug / info / warn / error
	Pattern    string           `mapstructure:"pattern" yaml:"pattern"` // %time %level %field %msg %n
	TimeFormat string           `mapstructure:"time_format" yaml:"time_format"`
	File       FileOutputConfig `mapstructure:"file" yaml:"file"`
}

// FileOutputConfig configures rotating file log output.
type FileOutputConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `microburst: ...`.
type configRoot struct {
	Microburst GlobalConfig `mapstructure:"microburst" yaml:"microburst"`
}

// Load loads configuration from file. An empty path yields the defaults.
// Env vars override keys with the MICROBURST_ prefix (e.g. MICROBURST_LOG_LEVEL).
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// The `microburst.` key prefix maps to `MICROBURST_` through the replacer.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Microburst

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration.
// All keys use the "microburst." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	// Capture defaults
	v.SetDefault("microburst.capture.stdin", false)
	v.SetDefault("microburst.capture.max_record_bytes", 262144)
	v.SetDefault("microburst.capture.local_time", true)

	// Detector defaults
	v.SetDefault("microburst.detector.mode", "window")
	v.SetDefault("microburst.detector.flush_on_eof", false)
	v.SetDefault("microburst.detector.options.window.time_bin_ns", 1000)
	v.SetDefault("microburst.detector.options.window.threshold_bps", 1e9)
	v.SetDefault("microburst.detector.options.window.min_duration_ns", 0)
	v.SetDefault("microburst.detector.options.window.min_bytes", 128*1024)
	v.SetDefault("microburst.detector.options.window.ring_capacity", 1<<20)
	v.SetDefault("microburst.detector.options.gap.gap_ns", 20000)

	// Filter defaults
	v.SetDefault("microburst.filter.enabled", false)
	v.SetDefault("microburst.filter.src_octet_index", 1)
	v.SetDefault("microburst.filter.src_octet_value", 2)

	// Status defaults
	v.SetDefault("microburst.status.enabled", false)
	v.SetDefault("microburst.status.interval", "1s")

	// Log defaults
	v.SetDefault("microburst.log.level", "info")
	v.SetDefault("microburst.log.pattern", "%time [%level] %msg %field\n")
	v.SetDefault("microburst.log.time_format", "2006-01-02 15:04:05")
	v.SetDefault("microburst.log.file.enabled", false)
	v.SetDefault("microburst.log.file.path", "microburst.log")
	v.SetDefault("microburst.log.file.max_size_mb", 100)
	v.SetDefault("microburst.log.file.max_age_days", 30)
	v.SetDefault("microburst.log.file.max_backups", 5)
	v.SetDefault("microburst.log.file.compress", true)
}

// ValidateAndApplyDefaults validates configuration and applies runtime defaults.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	// ── Log validation ──
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be trace/debug/info/warn/error): %w", cfg.Log.Level, core.ErrConfigInvalid)
	}
	if cfg.Log.File.Enabled && cfg.Log.File.Path == "" {
		return fmt.Errorf("log.file.path is required when log.file.enabled=true: %w", core.ErrConfigInvalid)
	}

	// ── Capture validation ──
	if cfg.Capture.MaxRecordBytes <= 0 {
		return fmt.Errorf("capture.max_record_bytes must be positive, got %d: %w", cfg.Capture.MaxRecordBytes, core.ErrConfigInvalid)
	}

	// ── Detector ──
	cfg.Detector.Mode = strings.ToLower(strings.TrimSpace(cfg.Detector.Mode))
	if cfg.Detector.Mode == "" {
		return fmt.Errorf("detector.mode is required: %w", core.ErrConfigInvalid)
	}

	// ── Filter validation ──
	if cfg.Filter.SrcOctetIndex < 0 || cfg.Filter.SrcOctetIndex > 3 {
		return fmt.Errorf("filter.src_octet_index must be 0-3, got %d: %w", cfg.Filter.SrcOctetIndex, core.ErrConfigInvalid)
	}
	if cfg.Filter.SrcOctetValue < 0 || cfg.Filter.SrcOctetValue > 255 {
		return fmt.Errorf("filter.src_octet_value must be 0-255, got %d: %w", cfg.Filter.SrcOctetValue, core.ErrConfigInvalid)
	}

	// ── Status ──
	if cfg.Status.Interval <= 0 {
		cfg.Status.Interval = time.Second
	}

	return nil
}

// Dump writes the configuration as YAML under the `microburst:` root key.
func Dump(cfg *GlobalConfig, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(configRoot{Microburst: *cfg}); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}
