package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/reactive/internal/errors"
)

const (
	// JSONFileName is the JSON configuration file name.
	JSONFileName = "reactive.json"

	// YAMLFileName is the YAML configuration file name.
	YAMLFileName = "reactive.yaml"

	// DefaultDevtoolsPort is the default inspector port.
	DefaultDevtoolsPort = 7070

	// DefaultDevtoolsHost is the default inspector host.
	DefaultDevtoolsHost = "localhost"

	// DefaultFlushBudget is the default maximum number of computation runs
	// in a single flush.
	DefaultFlushBudget = 100_000

	// DefaultPublishInterval is the default minimum interval between
	// snapshots pushed to inspector clients.
	DefaultPublishInterval = 250 * time.Millisecond

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "reactive"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "REACTIVE_"
)

// Config represents the complete tooling configuration.
type Config struct {
	Runtime  RuntimeConfig  `json:"runtime" yaml:"runtime"`
	Log      LogConfig      `json:"log" yaml:"log"`
	Devtools DevtoolsConfig `json:"devtools" yaml:"devtools"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
	Tracing  TracingConfig  `json:"tracing" yaml:"tracing"`
	Snapshot SnapshotConfig `json:"snapshot" yaml:"snapshot"`
	Bench    BenchConfig    `json:"bench" yaml:"bench"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// RuntimeConfig holds the options runtimes are created with.
type RuntimeConfig struct {
	// FlushBudget caps computation runs per flush. 0 disables the cap.
	FlushBudget int `json:"flushBudget" yaml:"flushBudget"`

	// GoroutineCheck panics when a runtime is used off its goroutine.
	GoroutineCheck bool `json:"goroutineCheck,omitempty" yaml:"goroutineCheck,omitempty"`
}

// LogConfig controls CLI logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// DevtoolsConfig controls the inspector server.
type DevtoolsConfig struct {
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty"`

	// PublishInterval is the minimum time between pushed snapshots (e.g. "250ms").
	PublishInterval string `json:"publishInterval,omitempty" yaml:"publishInterval,omitempty"`

	// AllowedOrigins restricts websocket origins. Empty allows any origin.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
}

// MetricsConfig controls Prometheus export.
type MetricsConfig struct {
	Disabled  bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Subsystem string `json:"subsystem,omitempty" yaml:"subsystem,omitempty"`
}

// TracingConfig controls OpenTelemetry spans.
type TracingConfig struct {
	Enabled    bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`
}

// SnapshotConfig controls graph export.
type SnapshotConfig struct {
	// Destination is a file path or s3://bucket/key.
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty"`

	// Compress enables zstd compression.
	Compress bool `json:"compress,omitempty" yaml:"compress,omitempty"`

	// Region overrides the AWS region for s3 destinations.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
}

// BenchConfig sets defaults for the bench command.
type BenchConfig struct {
	Profile    string `json:"profile,omitempty" yaml:"profile,omitempty"`
	Iterations int    `json:"iterations,omitempty" yaml:"iterations,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{
		Runtime: RuntimeConfig{FlushBudget: DefaultFlushBudget},
	}
	c.applyDefaults()
	return c
}

// Load reads configuration from reactive.json or reactive.yaml in dir.
// reactive.json wins if both exist.
func Load(dir string) (*Config, error) {
	for _, name := range []string{JSONFileName, YAMLFileName, "reactive.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New(errors.CodeConfigRead).
		WithDetail("No reactive.json or reactive.yaml found in " + dir).
		Wrap(os.ErrNotExist)
}

// LoadOrDefault is Load, falling back to defaults when no file exists.
// Environment overrides are applied in both cases.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if err != nil {
		if !stderrors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = New()
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadFile reads configuration from the specified file path. The format is
// chosen by extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeConfigRead).Wrap(err)
	}

	cfg := &Config{Runtime: RuntimeConfig{FlushBudget: DefaultFlushBudget}}
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New(errors.CodeConfigRead).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path, as YAML for .yaml/.yml paths and
// JSON otherwise.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New(errors.CodeConfigRead).Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigRead).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Devtools.Host == "" {
		c.Devtools.Host = DefaultDevtoolsHost
	}
	if c.Devtools.Port == 0 {
		c.Devtools.Port = DefaultDevtoolsPort
	}
	if c.Devtools.PublishInterval == "" {
		c.Devtools.PublishInterval = DefaultPublishInterval.String()
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = "github.com/vango-dev/reactive"
	}

	if c.Bench.Profile == "" {
		c.Bench.Profile = "standard"
	}
}

// ApplyEnv overrides fields from environment variables read through getenv.
//
// Recognised variables: REACTIVE_FLUSH_BUDGET, REACTIVE_GOROUTINE_CHECK,
// REACTIVE_LOG_LEVEL, REACTIVE_LOG_FORMAT, REACTIVE_DEVTOOLS_HOST,
// REACTIVE_DEVTOOLS_PORT, REACTIVE_SNAPSHOT_DESTINATION,
// REACTIVE_SNAPSHOT_COMPRESS, REACTIVE_TRACING_ENABLED.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	ints := map[string]*int{
		"FLUSH_BUDGET":  &c.Runtime.FlushBudget,
		"DEVTOOLS_PORT": &c.Devtools.Port,
	}
	for key, dst := range ints {
		if v := getenv(EnvPrefix + key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errors.New(errors.CodeConfigInvalid).
					WithDetail(EnvPrefix + key + " must be an integer, got " + strconv.Quote(v))
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"GOROUTINE_CHECK":   &c.Runtime.GoroutineCheck,
		"SNAPSHOT_COMPRESS": &c.Snapshot.Compress,
		"TRACING_ENABLED":   &c.Tracing.Enabled,
	}
	for key, dst := range bools {
		if v := getenv(EnvPrefix + key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return errors.New(errors.CodeConfigInvalid).
					WithDetail(EnvPrefix + key + " must be a boolean, got " + strconv.Quote(v))
			}
			*dst = b
		}
	}

	strs := map[string]*string{
		"LOG_LEVEL":            &c.Log.Level,
		"LOG_FORMAT":           &c.Log.Format,
		"DEVTOOLS_HOST":        &c.Devtools.Host,
		"SNAPSHOT_DESTINATION": &c.Snapshot.Destination,
	}
	for key, dst := range strs {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Runtime.FlushBudget < 0 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("runtime.flushBudget must not be negative")
	}
	if c.Devtools.Port < 0 || c.Devtools.Port > 65535 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("devtools.port must be between 0 and 65535")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("log.level must be one of debug, info, warn, error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("log.format must be text or json")
	}
	if _, err := c.PublishInterval(); err != nil {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("devtools.publishInterval: " + err.Error())
	}
	if c.Bench.Iterations < 0 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("bench.iterations must not be negative")
	}
	return nil
}

// PublishInterval parses Devtools.PublishInterval.
func (c *Config) PublishInterval() (time.Duration, error) {
	if c.Devtools.PublishInterval == "" {
		return DefaultPublishInterval, nil
	}
	d, err := time.ParseDuration(c.Devtools.PublishInterval)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", c.Devtools.PublishInterval)
	}
	return d, nil
}

// DevtoolsAddress returns the listen address of the inspector.
func (c *Config) DevtoolsAddress() string {
	return c.Devtools.Host + ":" + strconv.Itoa(c.Devtools.Port)
}

// DevtoolsURL returns the base URL of the inspector.
func (c *Config) DevtoolsURL() string {
	return "http://" + c.DevtoolsAddress()
}
