// Package config loads dlcheck configuration.
// Priority: defaults < config file < env < flags (applied by the command).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	dlcheck "github.com/reoring/dlcheck"
)

// Config holds all dlcheck configuration.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Schema     SchemaConfig     `yaml:"schema"`
	HTTP       HTTPConfig       `yaml:"http"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Validation ValidationConfig `yaml:"validation"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | console
}

// SchemaConfig selects the schema registry.
type SchemaConfig struct {
	File  string `yaml:"file"` // empty = built-in reference registry
	Watch bool   `yaml:"watch"`
}

// HTTPConfig for the validation server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// KafkaConfig for the consume command.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// ValidationConfig tunes the validator.
type ValidationConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Log:        LogConfig{Level: "info", Format: "json"},
		HTTP:       HTTPConfig{Addr: ":8080"},
		Kafka:      KafkaConfig{Topic: "datalayer-events", GroupID: "dlcheck"},
		Validation: ValidationConfig{MaxDepth: dlcheck.DefaultMaxDepth},
	}
}

// Load returns the defaults, merged with the YAML file at path when path is
// non-empty, then overridden by DLCHECK_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var partial Config
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return err
	}
	c.merge(&partial)
	return nil
}

// merge copies non-zero values from src.
func (c *Config) merge(src *Config) {
	if src.Log.Level != "" {
		c.Log.Level = src.Log.Level
	}
	if src.Log.Format != "" {
		c.Log.Format = src.Log.Format
	}
	if src.Schema.File != "" {
		c.Schema.File = src.Schema.File
	}
	if src.Schema.Watch {
		c.Schema.Watch = true
	}
	if src.HTTP.Addr != "" {
		c.HTTP.Addr = src.HTTP.Addr
	}
	if len(src.Kafka.Brokers) > 0 {
		c.Kafka.Brokers = src.Kafka.Brokers
	}
	if src.Kafka.Topic != "" {
		c.Kafka.Topic = src.Kafka.Topic
	}
	if src.Kafka.GroupID != "" {
		c.Kafka.GroupID = src.Kafka.GroupID
	}
	if src.Validation.MaxDepth != 0 {
		c.Validation.MaxDepth = src.Validation.MaxDepth
	}
}

func (c *Config) loadEnv() error {
	c.Log.Level = envOrDefault("DLCHECK_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOrDefault("DLCHECK_LOG_FORMAT", c.Log.Format)
	c.Schema.File = envOrDefault("DLCHECK_SCHEMA_FILE", c.Schema.File)
	c.HTTP.Addr = envOrDefault("DLCHECK_HTTP_ADDR", c.HTTP.Addr)
	c.Kafka.Topic = envOrDefault("DLCHECK_KAFKA_TOPIC", c.Kafka.Topic)
	c.Kafka.GroupID = envOrDefault("DLCHECK_KAFKA_GROUP", c.Kafka.GroupID)

	if v := os.Getenv("DLCHECK_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("DLCHECK_MAX_DEPTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DLCHECK_MAX_DEPTH: %w", err)
		}
		c.Validation.MaxDepth = n
	}
	if v := os.Getenv("DLCHECK_WATCH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DLCHECK_WATCH: %w", err)
		}
		c.Schema.Watch = b
	}
	return nil
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log format must be json or console, got %q", c.Log.Format)
	}
	if c.Validation.MaxDepth <= 0 {
		return fmt.Errorf("config: max depth must be positive, got %d", c.Validation.MaxDepth)
	}
	if c.Schema.Watch && c.Schema.File == "" {
		return fmt.Errorf("config: schema watch requires a schema file")
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
