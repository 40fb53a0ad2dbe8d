package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Settings holds the defaults of the command line tool. Flags override them.
type Settings struct {
	// Store is the path of the SQLite database holding the remote state and
	// the import history.
	Store string `yaml:"store" validate:"required"`

	// LogLevel is the minimum log level.
	LogLevel string `yaml:"logLevel" validate:"oneof=trace debug info warn error"`

	// LogFormat is console or json.
	LogFormat string `yaml:"logFormat" validate:"oneof=console json"`

	// MetricsFile receives the metrics in Prometheus text format after each
	// command when set.
	MetricsFile string `yaml:"metricsFile,omitempty"`

	// TraceExporter is none, stdout or otlp.
	TraceExporter string `yaml:"traceExporter" validate:"oneof=none stdout otlp"`

	// OTLPEndpoint is the collector address used by the otlp exporter.
	OTLPEndpoint string `yaml:"otlpEndpoint,omitempty" validate:"required_if=TraceExporter otlp,omitempty,hostname_port"`

	// PolicyDirs are searched for .rego policies evaluated on every import.
	PolicyDirs []string `yaml:"policyDirs,omitempty" validate:"dive,required"`

	// SkipUnchangeableCheck lets import attempt updates of unchangeable
	// properties and leaves the decision to the remote system.
	SkipUnchangeableCheck bool `yaml:"skipUnchangeableCheck,omitempty"`
}

// DefaultSettingsPath returns $HOME/.confsync/settings.yaml.
func DefaultSettingsPath() string {
	return filepath.Join(homeDir(), ".confsync", "settings.yaml")
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() *Settings {
	return &Settings{
		Store:         filepath.Join(homeDir(), ".confsync", "confsync.db"),
		LogLevel:      "info",
		LogFormat:     "console",
		TraceExporter: "none",
	}
}

// LoadSettings reads settings from path over the defaults. A missing file
// yields the defaults.
func LoadSettings(path string) (*Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings %s: %w", path, err)
	}
	return settings, nil
}

// Validate checks the settings.
func (s *Settings) Validate() error {
	return validator.New().Struct(s)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
