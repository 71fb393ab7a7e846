// Package config provides hierarchical configuration management.
// Priority: defaults < system < user < project < env < flags
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/encodingman/encodingman/pkg/convert"
	"github.com/encodingman/encodingman/pkg/detect"
	"github.com/encodingman/encodingman/pkg/errors"
)

// SystemDefaultApp opens files with the operating system's handler.
const SystemDefaultApp = "system_default"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ENCODINGMAN_"

// Config holds all encodingman configuration.
type Config struct {
	Version int `yaml:"version"`

	DefaultApp          string   `yaml:"default_app"`          // system_default | path to executable
	TargetEncoding      string   `yaml:"target_encoding"`      // utf-8-bom | utf-8 | shift_jis
	ConfidenceThreshold float64  `yaml:"confidence_threshold"` // 0.0-1.0
	PreviewLines        int      `yaml:"preview_lines"`
	KeepTempFile        bool     `yaml:"keep_temp_file"`
	Mode                string   `yaml:"mode"`    // smart | threshold
	Workers             int      `yaml:"workers"` // 0 = auto
	TempDir             string   `yaml:"temp_dir"`
	Extensions          []string `yaml:"extensions"`

	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// TelemetryConfig for optional tracing.
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate"`
	Insecure    bool    `yaml:"insecure"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version:             1,
		DefaultApp:          SystemDefaultApp,
		TargetEncoding:      string(convert.DefaultTarget),
		ConfidenceThreshold: detect.DefaultThreshold,
		PreviewLines:        detect.DefaultPreviewLines,
		KeepTempFile:        false,
		Mode:                "smart",
		Workers:             0, // auto
		TempDir:             filepath.Join(os.TempDir(), "encodingman"),
		Extensions:          []string{".csv", ".tsv", ".txt"},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			ServiceName: "encodingman",
			SampleRate:  1.0,
			Insecure:    true,
		},
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() Config {
	out := *c
	out.Extensions = append([]string(nil), c.Extensions...)
	return out
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if _, err := convert.ParseTarget(c.TargetEncoding); err != nil {
		return err
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return invalid("confidence_threshold", c.ConfidenceThreshold, "must be between 0 and 1")
	}
	if c.PreviewLines < 0 {
		return invalid("preview_lines", c.PreviewLines, "must not be negative")
	}
	if c.Workers < 0 {
		return invalid("workers", c.Workers, "must not be negative")
	}
	if _, err := detect.ParseMode(c.Mode); err != nil {
		return invalid("mode", c.Mode, "must be smart or threshold")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", c.Log.Level, err.Error())
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return invalid("log.format", c.Log.Format, "must be text or json")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return invalid("telemetry.sample_rate", c.Telemetry.SampleRate, "must be between 0 and 1")
	}
	return nil
}

func invalid(key string, value interface{}, reason string) error {
	return errors.New(errors.CodeInvalidConfig, "invalid configuration value").
		WithContext("key", key).
		WithContext("value", value).
		WithContext("reason", reason)
}

// Manager handles configuration loading and merging.
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	paths    []string // Paths that were loaded
	userPath string
	search   []string
}

// NewManager creates a configuration manager using the standard locations.
func NewManager() *Manager {
	m := &Manager{config: Default()}
	m.userPath = defaultUserPath()
	m.search = m.defaultSearchPaths()
	return m
}

// NewManagerWithPaths creates a manager reading only the given files, in
// priority order, and saving to userPath.
func NewManagerWithPaths(userPath string, search ...string) *Manager {
	return &Manager{
		config:   Default(),
		userPath: userPath,
		search:   search,
	}
}

// Load loads configuration from all sources in priority order.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Start with defaults
	m.config = Default()
	m.paths = nil

	// Load from paths in order (later overrides earlier)
	for _, path := range m.search {
		if err := m.loadFile(path); err != nil {
			// Ignore missing files, but report errors for existing files
			if !os.IsNotExist(err) {
				return errors.Wrap(err, errors.CodeInvalidConfig, "cannot load configuration").
					WithContext("path", path)
			}
		} else {
			m.paths = append(m.paths, path)
		}
	}

	// Override with environment variables
	if err := m.loadEnv(); err != nil {
		return err
	}

	return m.config.Validate()
}

// defaultUserPath returns $XDG_CONFIG_HOME/encodingman/config.yaml or the
// platform equivalent.
func defaultUserPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "encodingman", "config.yaml")
}

// defaultSearchPaths returns config file paths in priority order.
func (m *Manager) defaultSearchPaths() []string {
	var paths []string

	// System config
	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/encodingman/config.yaml")
	}

	// User config
	paths = append(paths, m.userPath)

	// Project config (current directory)
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".encodingman.yaml"))
	}

	return paths
}

// overlay captures fields whose zero value is meaningful, so a later layer
// can set them back to zero.
type overlay struct {
	ConfidenceThreshold *float64 `yaml:"confidence_threshold"`
	PreviewLines        *int     `yaml:"preview_lines"`
	KeepTempFile        *bool    `yaml:"keep_temp_file"`
	Telemetry           struct {
		Enabled  *bool `yaml:"enabled"`
		Insecure *bool `yaml:"insecure"`
	} `yaml:"telemetry"`
}

// loadFile loads a single config file and merges it.
func (m *Manager) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var partial Config
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return err
	}
	var explicit overlay
	if err := yaml.Unmarshal(data, &explicit); err != nil {
		return err
	}

	m.merge(&partial, &explicit)
	return nil
}

// merge merges non-zero values from src, and explicitly set values from
// explicit, into config.
func (m *Manager) merge(src *Config, explicit *overlay) {
	if src.DefaultApp != "" {
		m.config.DefaultApp = src.DefaultApp
	}
	if src.TargetEncoding != "" {
		m.config.TargetEncoding = src.TargetEncoding
	}
	if src.Mode != "" {
		m.config.Mode = src.Mode
	}
	if src.Workers != 0 {
		m.config.Workers = src.Workers
	}
	if src.TempDir != "" {
		m.config.TempDir = src.TempDir
	}
	if len(src.Extensions) > 0 {
		m.config.Extensions = src.Extensions
	}

	if explicit.ConfidenceThreshold != nil {
		m.config.ConfidenceThreshold = *explicit.ConfidenceThreshold
	}
	if explicit.PreviewLines != nil {
		m.config.PreviewLines = *explicit.PreviewLines
	}
	if explicit.KeepTempFile != nil {
		m.config.KeepTempFile = *explicit.KeepTempFile
	}

	// Log
	if src.Log.Level != "" {
		m.config.Log.Level = src.Log.Level
	}
	if src.Log.Format != "" {
		m.config.Log.Format = src.Log.Format
	}

	// Telemetry
	if explicit.Telemetry.Enabled != nil {
		m.config.Telemetry.Enabled = *explicit.Telemetry.Enabled
	}
	if explicit.Telemetry.Insecure != nil {
		m.config.Telemetry.Insecure = *explicit.Telemetry.Insecure
	}
	if src.Telemetry.Endpoint != "" {
		m.config.Telemetry.Endpoint = src.Telemetry.Endpoint
	}
	if src.Telemetry.ServiceName != "" {
		m.config.Telemetry.ServiceName = src.Telemetry.ServiceName
	}
	if src.Telemetry.SampleRate != 0 {
		m.config.Telemetry.SampleRate = src.Telemetry.SampleRate
	}
}

// loadEnv loads configuration from environment variables, e.g.
// ENCODINGMAN_TARGET_ENCODING or ENCODINGMAN_LOG_LEVEL.
func (m *Manager) loadEnv() error {
	for _, key := range Keys() {
		v, ok := os.LookupEnv(EnvName(key))
		if !ok || v == "" {
			continue
		}
		if err := set(m.config, key, v); err != nil {
			return err
		}
	}
	return nil
}

// EnvName returns the environment variable overriding key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Snapshot returns an immutable copy of the current configuration. Each
// invocation of the pipeline works from one snapshot.
func (m *Manager) Snapshot() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.Clone()
}

// GetPaths returns the paths that were loaded.
func (m *Manager) GetPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.paths...)
}

// UserPath returns the file Save writes to.
func (m *Manager) UserPath() string {
	return m.userPath
}

// Set updates one key, given by its YAML name, and validates the result.
func (m *Manager) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.config.Clone()
	if err := next.Apply(key, value); err != nil {
		return err
	}
	m.config = &next
	return nil
}

// Save writes the current config to the user config file.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(m.userPath), 0755); err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "cannot create config directory")
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "cannot encode configuration")
	}

	if err := os.WriteFile(m.userPath, data, 0644); err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "cannot write configuration").
			WithContext("path", m.userPath)
	}
	return nil
}

// Keys lists the settable keys.
func Keys() []string {
	return []string{
		"default_app",
		"target_encoding",
		"confidence_threshold",
		"preview_lines",
		"keep_temp_file",
		"mode",
		"workers",
		"temp_dir",
		"extensions",
		"log.level",
		"log.format",
		"telemetry.enabled",
		"telemetry.endpoint",
		"telemetry.service_name",
		"telemetry.sample_rate",
		"telemetry.insecure",
	}
}

// Value returns the string form of a key.
func (c *Config) Value(key string) (string, error) {
	switch key {
	case "default_app":
		return c.DefaultApp, nil
	case "target_encoding":
		return c.TargetEncoding, nil
	case "confidence_threshold":
		return strconv.FormatFloat(c.ConfidenceThreshold, 'g', -1, 64), nil
	case "preview_lines":
		return strconv.Itoa(c.PreviewLines), nil
	case "keep_temp_file":
		return strconv.FormatBool(c.KeepTempFile), nil
	case "mode":
		return c.Mode, nil
	case "workers":
		return strconv.Itoa(c.Workers), nil
	case "temp_dir":
		return c.TempDir, nil
	case "extensions":
		return strings.Join(c.Extensions, ","), nil
	case "log.level":
		return c.Log.Level, nil
	case "log.format":
		return c.Log.Format, nil
	case "telemetry.enabled":
		return strconv.FormatBool(c.Telemetry.Enabled), nil
	case "telemetry.endpoint":
		return c.Telemetry.Endpoint, nil
	case "telemetry.service_name":
		return c.Telemetry.ServiceName, nil
	case "telemetry.sample_rate":
		return strconv.FormatFloat(c.Telemetry.SampleRate, 'g', -1, 64), nil
	case "telemetry.insecure":
		return strconv.FormatBool(c.Telemetry.Insecure), nil
	}
	return "", unknownKey(key)
}

// Apply sets one key on c and validates the result. c is left unchanged on
// error.
func (c *Config) Apply(key, value string) error {
	next := c.Clone()
	if err := set(&next, key, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func set(c *Config, key, value string) error {
	var err error
	switch key {
	case "default_app":
		c.DefaultApp = value
	case "target_encoding":
		c.TargetEncoding = value
	case "confidence_threshold":
		c.ConfidenceThreshold, err = strconv.ParseFloat(value, 64)
	case "preview_lines":
		c.PreviewLines, err = strconv.Atoi(value)
	case "keep_temp_file":
		c.KeepTempFile, err = strconv.ParseBool(value)
	case "mode":
		c.Mode = value
	case "workers":
		c.Workers, err = strconv.Atoi(value)
	case "temp_dir":
		c.TempDir = value
	case "extensions":
		c.Extensions = splitList(value)
	case "log.level":
		c.Log.Level = value
	case "log.format":
		c.Log.Format = value
	case "telemetry.enabled":
		c.Telemetry.Enabled, err = strconv.ParseBool(value)
	case "telemetry.endpoint":
		c.Telemetry.Endpoint = value
	case "telemetry.service_name":
		c.Telemetry.ServiceName = value
	case "telemetry.sample_rate":
		c.Telemetry.SampleRate, err = strconv.ParseFloat(value, 64)
	case "telemetry.insecure":
		c.Telemetry.Insecure, err = strconv.ParseBool(value)
	default:
		return unknownKey(key)
	}
	if err != nil {
		return errors.Wrapf(err, errors.CodeInvalidConfig, "cannot parse %s", key).
			WithContext("value", value)
	}
	return nil
}

func unknownKey(key string) error {
	return errors.New(errors.CodeInvalidConfig, fmt.Sprintf("unknown configuration key %q", key))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
