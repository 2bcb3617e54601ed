// Package config provides hierarchical configuration management.
// Priority: defaults < system < user < project < env < flags
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/checkflow/checkflow/pkg/conformance"
)

// Config holds all CheckFlow configuration.
type Config struct {
	Version int `yaml:"version"`

	Checking  CheckingConfig  `yaml:"checking"`
	Severity  SeverityConfig  `yaml:"severity"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Report    ReportConfig    `yaml:"report"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// CheckingConfig controls the conformance checker.
type CheckingConfig struct {
	// Strict requires zero deviations of any severity for conformance.
	Strict bool `yaml:"strict"`

	// Workers for parallel log checking. 0 = auto.
	Workers int `yaml:"workers"`
}

// SeverityConfig overrides entries of the default severity rule table.
type SeverityConfig struct {
	Rules []SeverityRule `yaml:"rules"`
}

// SeverityRule is one scoring override: a deviation kind, an activity
// name (or "default" for the kind-wide fallback) and the severity.
type SeverityRule struct {
	Kind     string `yaml:"kind"`
	Activity string `yaml:"activity"`
	Severity string `yaml:"severity"`
}

// IngestConfig controls event-log loading.
type IngestConfig struct {
	CaseIDField    string `yaml:"case_id_field"`
	ActivityField  string `yaml:"activity_field"`
	TimestampField string `yaml:"timestamp_field"`
	ResourceField  string `yaml:"resource_field"`
}

// ReportConfig controls result output.
type ReportConfig struct {
	Format    string `yaml:"format"` // console | json | markdown | xlsx
	OutputDir string `yaml:"output_dir"`

	// MaxCaseDetails caps per-case sections in rendered reports. 0 = all.
	MaxCaseDetails int `yaml:"max_case_details"`
}

// TelemetryConfig for optional tracing.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Checking: CheckingConfig{
			Strict:  false,
			Workers: 0, // auto
		},
		Ingest: IngestConfig{
			CaseIDField:    "case_id",
			ActivityField:  "activity",
			TimestampField: "timestamp",
			ResourceField:  "resource",
		},
		Report: ReportConfig{
			Format:         "console",
			OutputDir:      ".",
			MaxCaseDetails: 20,
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
		},
	}
}

// Scorer builds a severity scorer from the default table plus the
// configured overrides. Unknown kind or severity strings in an override
// make it fail rather than silently mis-score.
func (c *Config) Scorer() (*conformance.SeverityScorer, error) {
	scorer := conformance.NewSeverityScorer()
	for _, rule := range c.Severity.Rules {
		sev, ok := conformance.ParseSeverity(rule.Severity)
		if !ok {
			return nil, fmt.Errorf("severity rule for %q: unknown severity %q", rule.Kind, rule.Severity)
		}
		activity := rule.Activity
		if activity == "" {
			activity = conformance.DefaultRuleActivity
		}
		scorer.AddRule(conformance.DeviationKind(rule.Kind), activity, sev)
	}
	return scorer, nil
}

// Manager handles configuration loading and merging.
type Manager struct {
	mu     sync.RWMutex
	config *Config
	paths  []string
}

// NewManager creates a new configuration manager.
func NewManager() *Manager {
	return &Manager{config: Default()}
}

// Load loads configuration from all sources in priority order.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config = Default()
	m.paths = nil

	for _, path := range m.configPaths() {
		if err := m.loadFile(path); err != nil {
			if !os.IsNotExist(err) {
				return err
			}
		} else {
			m.paths = append(m.paths, path)
		}
	}

	m.loadEnv()
	return nil
}

// configPaths returns config file paths in priority order.
func (m *Manager) configPaths() []string {
	var paths []string

	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/checkflow/config.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".checkflow", "config.yaml"))
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".checkflow.yaml"))
	}

	return paths
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

	m.merge(&partial)
	return nil
}

// merge merges non-zero values from src into the config. Booleans merge
// as OR: a file can enable strict mode or telemetry but not disable
// what an earlier source enabled.
func (m *Manager) merge(src *Config) {
	if src.Checking.Strict {
		m.config.Checking.Strict = true
	}
	if src.Checking.Workers != 0 {
		m.config.Checking.Workers = src.Checking.Workers
	}

	if len(src.Severity.Rules) > 0 {
		m.config.Severity.Rules = append(m.config.Severity.Rules, src.Severity.Rules...)
	}

	if src.Ingest.CaseIDField != "" {
		m.config.Ingest.CaseIDField = src.Ingest.CaseIDField
	}
	if src.Ingest.ActivityField != "" {
		m.config.Ingest.ActivityField = src.Ingest.ActivityField
	}
	if src.Ingest.TimestampField != "" {
		m.config.Ingest.TimestampField = src.Ingest.TimestampField
	}
	if src.Ingest.ResourceField != "" {
		m.config.Ingest.ResourceField = src.Ingest.ResourceField
	}

	if src.Report.Format != "" {
		m.config.Report.Format = src.Report.Format
	}
	if src.Report.OutputDir != "" {
		m.config.Report.OutputDir = src.Report.OutputDir
	}
	if src.Report.MaxCaseDetails != 0 {
		m.config.Report.MaxCaseDetails = src.Report.MaxCaseDetails
	}

	if src.Telemetry.Enabled {
		m.config.Telemetry.Enabled = true
	}
	if src.Telemetry.Endpoint != "" {
		m.config.Telemetry.Endpoint = src.Telemetry.Endpoint
	}
}

// loadEnv loads configuration from environment variables.
func (m *Manager) loadEnv() {
	if v := os.Getenv("CHECKFLOW_STRICT"); v != "" {
		if strict, err := strconv.ParseBool(v); err == nil {
			m.config.Checking.Strict = strict
		}
	}
	if v := os.Getenv("CHECKFLOW_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			m.config.Checking.Workers = workers
		}
	}
	if v := os.Getenv("CHECKFLOW_FORMAT"); v != "" {
		m.config.Report.Format = v
	}
	if v := os.Getenv("CHECKFLOW_OTLP_ENDPOINT"); v != "" {
		m.config.Telemetry.Enabled = true
		m.config.Telemetry.Endpoint = v
	}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetPaths returns the paths that were loaded.
func (m *Manager) GetPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paths
}

// Save writes the current config to the user config file.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".checkflow")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0644)
}

// Global instance
var (
	globalManager *Manager
	globalOnce    sync.Once
)

// Global returns the global configuration manager.
func Global() *Manager {
	globalOnce.Do(func() {
		globalManager = NewManager()
		globalManager.Load()
	})
	return globalManager
}
