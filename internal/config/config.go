// Package config loads the service configuration: a YAML file with
// environment overrides for the settings that differ per deployment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Tafzeel99/todo-agent/internal/core/domain"
)

const (
	envConfigPath = "TASKBOT_CONFIG"
	envHTTPAddr   = "TASKBOT_HTTP_ADDR"
	envDBPath     = "TASKBOT_DB_PATH"

	defaultConfigPath = "taskbot.yaml"
)

// Duration decodes YAML values like "5s" or "200ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the full service configuration.
type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	DBPath   string `yaml:"db_path"`

	// ContextRefs is how many task references each conversation remembers;
	// ContextConversations caps conversations held in memory.
	ContextRefs          int `yaml:"context_refs"`
	ContextConversations int `yaml:"context_conversations"`

	// StoreTimeout bounds every task store call.
	StoreTimeout Duration `yaml:"store_timeout"`

	// DefaultLanguage is used when neither the message nor the conversation
	// history decides one.
	DefaultLanguage domain.Language `yaml:"default_language"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		HTTPAddr:             ":8080",
		DBPath:               "taskbot.db",
		ContextRefs:          5,
		ContextConversations: 256,
		StoreTimeout:         Duration(5 * time.Second),
		DefaultLanguage:      domain.LangEnglish,
	}
}

// Load reads the YAML file named by TASKBOT_CONFIG (default taskbot.yaml),
// falls back to defaults when the file is absent, then applies environment
// overrides. A present but malformed file is an error, not a silent default.
func Load() (Config, error) {
	path := os.Getenv(envConfigPath)
	if path == "" {
		path = defaultConfigPath
	}

	cfg := Default()
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Defaults are a valid deployment.
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if addr := os.Getenv(envHTTPAddr); addr != "" {
		cfg.HTTPAddr = addr
	}
	if db := os.Getenv(envDBPath); db != "" {
		cfg.DBPath = db
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("http_addr must not be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.ContextRefs <= 0 {
		return fmt.Errorf("context_refs must be positive")
	}
	if c.ContextConversations <= 0 {
		return fmt.Errorf("context_conversations must be positive")
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("store_timeout must be positive")
	}
	if !domain.ValidLanguage(c.DefaultLanguage) {
		return fmt.Errorf("default_language %q is not supported", c.DefaultLanguage)
	}
	return nil
}
