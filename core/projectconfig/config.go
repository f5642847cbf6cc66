package projectconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

const DefaultPath = ".scribe/config.yaml"

const (
	DefaultLogDir      = ".scribe"
	DefaultHistoryName = "history.jsonl"
	DefaultPendingName = "pending"
	DefaultTailLimit   = 20
)

type Config struct {
	Log  LogDefaults  `yaml:"log"`
	Tail TailDefaults `yaml:"tail"`
}

type LogDefaults struct {
	Dir     string `yaml:"dir"`
	History string `yaml:"history"`
	Pending string `yaml:"pending"`
}

type TailDefaults struct {
	DefaultLimit int `yaml:"default_limit"`
}

// Load reads an optional project config. A missing file yields defaults when
// allowMissing is set; the audit core must keep working in repositories that
// never opted into configuration.
func Load(path string, allowMissing bool) (Config, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return Config{}, fmt.Errorf("project config path is required")
	}

	// #nosec G304 -- project config path is explicit local user input.
	content, err := os.ReadFile(trimmedPath)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read project config: %w", err)
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return Default(), nil
	}

	var configuration Config
	if err := yaml.Unmarshal(content, &configuration); err != nil {
		return Config{}, fmt.Errorf("parse project config: %w", err)
	}
	configuration.normalize()
	return configuration, nil
}

// Default returns the configuration used when no project config exists.
func Default() Config {
	var configuration Config
	configuration.normalize()
	return configuration
}

func (c *Config) normalize() {
	c.Log.Dir = strings.TrimSpace(c.Log.Dir)
	if c.Log.Dir == "" {
		c.Log.Dir = DefaultLogDir
	}
	c.Log.History = strings.TrimSpace(c.Log.History)
	if c.Log.History == "" {
		c.Log.History = DefaultHistoryName
	}
	c.Log.Pending = strings.TrimSpace(c.Log.Pending)
	if c.Log.Pending == "" {
		c.Log.Pending = DefaultPendingName
	}
	if c.Tail.DefaultLimit <= 0 {
		c.Tail.DefaultLimit = DefaultTailLimit
	}
}
