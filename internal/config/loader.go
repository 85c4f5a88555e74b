package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr        string `json:"addr" yaml:"addr" toml:"addr"`
	WorkDir     string `json:"work_dir" yaml:"work_dir" toml:"work_dir"`
	FFmpegBin   string `json:"ffmpeg_bin" yaml:"ffmpeg_bin" toml:"ffmpeg_bin"`
	FFprobeBin  string `json:"ffprobe_bin" yaml:"ffprobe_bin" toml:"ffprobe_bin"`
	LibraryDir  string `json:"library_dir" yaml:"library_dir" toml:"library_dir"`
	HistoryDB   string `json:"history_db" yaml:"history_db" toml:"history_db"`
	MaxUploadMB int64  `json:"max_upload_mb" yaml:"max_upload_mb" toml:"max_upload_mb"`
	LogLevel    string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat   string `json:"log_format" yaml:"log_format" toml:"log_format"`

	Overlay OverlayConfig `json:"overlay" yaml:"overlay" toml:"overlay"`
	CORS    CORSConfig    `json:"cors" yaml:"cors" toml:"cors"`
}

// OverlayConfig holds the fixed composition constants.
type OverlayConfig struct {
	DurationSec float64 `json:"duration_sec" yaml:"duration_sec" toml:"duration_sec"`
	Codec       string  `json:"codec" yaml:"codec" toml:"codec"`
	// CRF and Threshold are pointers so an explicit 0 is kept; nil means
	// unset.
	CRF         *int    `json:"crf" yaml:"crf" toml:"crf"`
	Mode        string  `json:"mode" yaml:"mode" toml:"mode"`
	Threshold   *int    `json:"threshold" yaml:"threshold" toml:"threshold"`
}

// Int returns a pointer to v, for filling optional integer fields.
func Int(v int) *int { return &v }

// CORSConfig enables go-chi/cors when Enabled is set.
type CORSConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Addr:        ":8080",
		WorkDir:     "",
		FFmpegBin:   "ffmpeg",
		FFprobeBin:  "ffprobe",
		HistoryDB:   "~/.overlayd/history.db",
		MaxUploadMB: 512,
		LogLevel:    "info",
		LogFormat:   "console",
		Overlay: OverlayConfig{
			DurationSec: 2,
			Codec:       "libvpx",
			CRF:         Int(5),
			Mode:        "spotlight",
			Threshold:   Int(175),
		},
	}
}

// WithDefaults fills every unspecified field from Defaults.
func (c Config) WithDefaults() Config {
	d := Defaults()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.FFmpegBin == "" {
		c.FFmpegBin = d.FFmpegBin
	}
	if c.FFprobeBin == "" {
		c.FFprobeBin = d.FFprobeBin
	}
	if c.HistoryDB == "" {
		c.HistoryDB = d.HistoryDB
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = d.MaxUploadMB
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if c.Overlay.DurationSec <= 0 {
		c.Overlay.DurationSec = d.Overlay.DurationSec
	}
	if c.Overlay.Codec == "" {
		c.Overlay.Codec = d.Overlay.Codec
	}
	if c.Overlay.CRF == nil {
		c.Overlay.CRF = d.Overlay.CRF
	}
	if c.Overlay.Mode == "" {
		c.Overlay.Mode = d.Overlay.Mode
	}
	if c.Overlay.Threshold == nil {
		c.Overlay.Threshold = d.Overlay.Threshold
	}
	return c
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyEnv overlays OVERLAYD_* environment variables onto cfg.
func ApplyEnv(cfg Config, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	str := map[string]*string{
		"OVERLAYD_ADDR":         &cfg.Addr,
		"OVERLAYD_WORK_DIR":     &cfg.WorkDir,
		"OVERLAYD_FFMPEG":       &cfg.FFmpegBin,
		"OVERLAYD_FFPROBE":      &cfg.FFprobeBin,
		"OVERLAYD_LIBRARY_DIR":  &cfg.LibraryDir,
		"OVERLAYD_HISTORY_DB":   &cfg.HistoryDB,
		"OVERLAYD_LOG_LEVEL":    &cfg.LogLevel,
		"OVERLAYD_LOG_FORMAT":   &cfg.LogFormat,
		"OVERLAYD_OVERLAY_MODE": &cfg.Overlay.Mode,
	}
	for key, dst := range str {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	if v := strings.TrimSpace(getenv("OVERLAYD_MAX_UPLOAD_MB")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("OVERLAYD_MAX_UPLOAD_MB: %w", err)
		}
		cfg.MaxUploadMB = n
	}
	return cfg, nil
}
