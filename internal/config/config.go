package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/FranckPachot/rick-DocBench-sub000/pkg/errors"
	"github.com/FranckPachot/rick-DocBench-sub000/pkg/types"
)

// Configuration is the complete benchmark run configuration.
type Configuration struct {
	Target  TargetConfig  `yaml:"target"`
	Run     RunConfig     `yaml:"run"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// TargetConfig selects the backend under measurement.
type TargetConfig struct {
	Adapter    string                 `yaml:"adapter"`
	Connection types.ConnectionConfig `yaml:"connection"`
}

// RunConfig shapes the benchmark phases.
type RunConfig struct {
	WarmupIterations int           `yaml:"warmup_iterations"`
	Iterations       int           `yaml:"iterations"`
	Concurrency      int           `yaml:"concurrency"`
	BulkSize         int           `yaml:"bulk_size"`
	SweepMaxAge      time.Duration `yaml:"sweep_max_age"`
}

// MetricsConfig shapes the collector.
type MetricsConfig struct {
	SignificantDigits int  `yaml:"significant_digits"`
	Prometheus        bool `yaml:"prometheus"`
}

// LoggingConfig shapes the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NewDefault returns a configuration with sensible defaults.
func NewDefault() *Configuration {
	return &Configuration{
		Target: TargetConfig{
			Adapter: "mongodb",
			Connection: types.ConnectionConfig{
				URI:            "mongodb://localhost:27017",
				Database:       "docbench",
				Collection:     "docbench",
				ConnectTimeout: 10 * time.Second,
				SocketTimeout:  30 * time.Second,
				PoolSize:       8,
			},
		},
		Run: RunConfig{
			WarmupIterations: 100,
			Iterations:       1000,
			Concurrency:      4,
			BulkSize:         100,
			SweepMaxAge:      time.Minute,
		},
		Metrics: MetricsConfig{
			SignificantDigits: 3,
			Prometheus:        false,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// LoadFromFile loads configuration from a YAML file.
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return errors.Newf(errors.ErrCodeConfigLoad, "failed to read config file: %v", err).WithCause(err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Newf(errors.ErrCodeConfigLoad, "failed to parse config file: %v", err).WithCause(err)
	}

	return nil
}

// LoadFromEnv overlays configuration from DOCBENCH_* environment variables.
func (c *Configuration) LoadFromEnv() {
	if val := os.Getenv("DOCBENCH_ADAPTER"); val != "" {
		c.Target.Adapter = val
	}
	if val := os.Getenv("DOCBENCH_URI"); val != "" {
		c.Target.Connection.URI = val
	}
	if val := os.Getenv("DOCBENCH_DATABASE"); val != "" {
		c.Target.Connection.Database = val
	}
	if val := os.Getenv("DOCBENCH_COLLECTION"); val != "" {
		c.Target.Connection.Collection = val
	}
	if val := os.Getenv("DOCBENCH_USERNAME"); val != "" {
		c.Target.Connection.Username = val
	}
	if val := os.Getenv("DOCBENCH_PASSWORD"); val != "" {
		c.Target.Connection.Password = val
	}
	if val := os.Getenv("DOCBENCH_ITERATIONS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Run.Iterations = n
		}
	}
	if val := os.Getenv("DOCBENCH_WARMUP_ITERATIONS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Run.WarmupIterations = n
		}
	}
	if val := os.Getenv("DOCBENCH_CONCURRENCY"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Run.Concurrency = n
		}
	}
	if val := os.Getenv("DOCBENCH_LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
	if val := os.Getenv("DOCBENCH_PROMETHEUS"); val != "" {
		c.Metrics.Prometheus = strings.ToLower(val) == "true"
	}
}

// Validate checks the whole configuration and aggregates every problem
// into a single configuration error, not just the first.
func (c *Configuration) Validate() error {
	var problems []error

	switch c.Target.Adapter {
	case "mongodb", "postgres":
	case "":
		problems = append(problems, fmt.Errorf("target.adapter is required"))
	default:
		problems = append(problems, fmt.Errorf("unknown target.adapter: %q (must be mongodb or postgres)", c.Target.Adapter))
	}

	if c.Target.Connection.URI == "" {
		problems = append(problems, fmt.Errorf("target.connection.uri is required"))
	}
	if c.Target.Connection.Database == "" {
		problems = append(problems, fmt.Errorf("target.connection.database is required"))
	}
	if c.Target.Connection.PoolSize < 0 {
		problems = append(problems, fmt.Errorf("target.connection.pool_size must not be negative"))
	}

	if c.Run.Iterations <= 0 {
		problems = append(problems, fmt.Errorf("run.iterations must be greater than 0"))
	}
	if c.Run.WarmupIterations < 0 {
		problems = append(problems, fmt.Errorf("run.warmup_iterations must not be negative"))
	}
	if c.Run.Concurrency <= 0 {
		problems = append(problems, fmt.Errorf("run.concurrency must be greater than 0"))
	}
	if c.Run.BulkSize <= 0 {
		problems = append(problems, fmt.Errorf("run.bulk_size must be greater than 0"))
	}

	if c.Metrics.SignificantDigits < 1 || c.Metrics.SignificantDigits > 5 {
		problems = append(problems, fmt.Errorf("metrics.significant_digits must be between 1 and 5"))
	}

	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	logLevelValid := false
	for _, level := range validLogLevels {
		if c.Logging.Level == level {
			logLevelValid = true
			break
		}
	}
	if !logLevelValid {
		problems = append(problems, fmt.Errorf("invalid logging.level: %s (must be one of: %s)",
			c.Logging.Level, strings.Join(validLogLevels, ", ")))
	}

	if len(problems) > 0 {
		return errors.NewConfigValidation(problems)
	}
	return nil
}
