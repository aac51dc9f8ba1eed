package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the lead-gen API server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Workflow WorkflowConfig
}

type ServerConfig struct {
	Port int
	Env  string
	// BaseURL is this application's externally reachable URL, used to build
	// the callback URL handed to the workflow engine.
	BaseURL string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// WorkflowConfig configures the external workflow engine integration.
// TriggerURL is optional: when empty, job creation degrades to inserting a
// pending job with no outbound trigger.
type WorkflowConfig struct {
	TriggerURL     string
	CallbackSecret string
	TriggerTimeout time.Duration
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:    envInt("LEADGEN_PORT", 8080),
			Env:     envString("LEADGEN_ENV", "development"),
			BaseURL: strings.TrimRight(os.Getenv("LEADGEN_BASE_URL"), "/"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Workflow: WorkflowConfig{
			TriggerURL:     os.Getenv("WORKFLOW_TRIGGER_URL"),
			CallbackSecret: os.Getenv("WORKFLOW_CALLBACK_SECRET"),
			TriggerTimeout: envDuration("WORKFLOW_TRIGGER_TIMEOUT", 30*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WorkflowEnabled reports whether an external workflow trigger is configured.
func (c *Config) WorkflowEnabled() bool {
	return c.Workflow.TriggerURL != ""
}

// CallbackURL is the inbound endpoint the workflow engine calls back on.
func (c *Config) CallbackURL() string {
	return c.Server.BaseURL + "/webhooks/workflow"
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Workflow.TriggerURL != "" {
		if !isHTTPURL(c.Workflow.TriggerURL) {
			return fmt.Errorf("WORKFLOW_TRIGGER_URL must start with http:// or https://, got %q", c.Workflow.TriggerURL)
		}
		if c.Server.BaseURL == "" {
			return fmt.Errorf("LEADGEN_BASE_URL is required when WORKFLOW_TRIGGER_URL is set")
		}
		if c.Workflow.CallbackSecret == "" {
			return fmt.Errorf("WORKFLOW_CALLBACK_SECRET is required when WORKFLOW_TRIGGER_URL is set")
		}
	}

	if c.Server.BaseURL != "" && !isHTTPURL(c.Server.BaseURL) {
		return fmt.Errorf("LEADGEN_BASE_URL must start with http:// or https://, got %q", c.Server.BaseURL)
	}

	return nil
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
