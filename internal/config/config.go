// Package config handles loading and managing configuration for the todo CLI.
// It supports loading from YAML files, environment variables, and hardcoded defaults.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the todo CLI.
type Config struct {
	// APIURL is the base URL of the remote task service
	APIURL string `yaml:"api_url"`

	// ChatURL is the chat endpoint (defaults to APIURL + "/chat")
	ChatURL string `yaml:"chat_url"`

	// Source optionally overrides APIURL with a source spec,
	// e.g. "todolist:path=~/tasks.md"
	Source string `yaml:"source"`

	// RequestTimeout bounds every request to the task service and chat endpoint
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// RedisURL enables the Redis chat transcript when set
	RedisURL string `yaml:"redis_url"`

	// ChatSession names the transcript kept in Redis
	ChatSession string `yaml:"chat_session"`

	// DefaultView is the task list rendering (dashboard, legacy)
	DefaultView string `yaml:"default_view"`

	// Notifications enables desktop notifications when tasks are completed
	Notifications bool `yaml:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds the diagnostic log settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	FilePath   string `yaml:"file_path"`
	JSON       bool   `yaml:"json"`
	Console    bool   `yaml:"console"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Default configuration values
const (
	DefaultAPIURL         = "http://localhost:8000"
	DefaultRequestTimeout = 10 * time.Second
	DefaultRedisURL       = ""
	DefaultChatSession    = "default"
	DefaultDefaultView    = "dashboard"
	DefaultNotifications  = false
	DefaultLogLevel       = "warn"
)

// Views lists the accepted values of DefaultView.
var Views = []string{"dashboard", "legacy"}

var (
	globalConfig *Config
	configOnce   sync.Once
	configErr    error
)

// Get returns the global configuration, loading it if necessary.
// This function is safe for concurrent use.
func Get() (*Config, error) {
	configOnce.Do(func() {
		globalConfig, configErr = Load()
	})
	return globalConfig, configErr
}

// MustGet returns the global configuration, panicking if loading fails.
func MustGet() *Config {
	cfg, err := Get()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	return cfg
}

// Default returns a configuration holding only the hardcoded defaults.
func Default() *Config {
	return &Config{
		APIURL:         DefaultAPIURL,
		RequestTimeout: DefaultRequestTimeout,
		RedisURL:       DefaultRedisURL,
		ChatSession:    DefaultChatSession,
		DefaultView:    DefaultDefaultView,
		Notifications:  DefaultNotifications,
		Logging: LoggingConfig{
			Level:      DefaultLogLevel,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     7,
			Compress:   true,
		},
	}
}

// Load reads configuration from files and environment variables.
// Priority (highest to lowest):
// 1. Environment variables
// 2. ~/.config/todoapp/config.yaml
// 3. ~/.config/todoapp/config.yml
// 4. ~/.todoapp.yaml
// 5. Hardcoded defaults
func Load() (*Config, error) {
	cfg := Default()

	// Lowest priority file first; later files overwrite earlier ones.
	paths := ConfigPaths()
	for i := len(paths) - 1; i >= 0; i-- {
		if data, err := os.ReadFile(paths[i]); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}
	}

	// Override with environment variables (highest priority)
	cfg.applyEnvOverrides()

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvOverrides() {
	if val := os.Getenv("TODOAPP_API_URL"); val != "" {
		c.APIURL = val
	}

	if val := os.Getenv("TODOAPP_CHAT_URL"); val != "" {
		c.ChatURL = val
	}

	if val := os.Getenv("TODOAPP_SOURCE"); val != "" {
		c.Source = val
	}

	// Request timeout
	if val := os.Getenv("TODOAPP_REQUEST_TIMEOUT"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.RequestTimeout = duration
		} else if secs, err := strconv.Atoi(val); err == nil {
			// Support plain seconds for convenience
			c.RequestTimeout = time.Duration(secs) * time.Second
		}
	}

	// Redis URL (support both REDIS_URL and TODOAPP_REDIS_URL)
	if val := os.Getenv("TODOAPP_REDIS_URL"); val != "" {
		c.RedisURL = val
	} else if val := os.Getenv("REDIS_URL"); val != "" {
		c.RedisURL = val
	}

	if val := os.Getenv("TODOAPP_CHAT_SESSION"); val != "" {
		c.ChatSession = val
	}

	if val := os.Getenv("TODOAPP_DEFAULT_VIEW"); val != "" {
		c.DefaultView = val
	}

	if val := os.Getenv("TODOAPP_NOTIFICATIONS"); val != "" {
		c.Notifications = parseBool(val)
	}

	// Logging
	if val := os.Getenv("TODOAPP_LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
	if val := os.Getenv("TODOAPP_LOG_FILE"); val != "" {
		c.Logging.FilePath = val
	}
}

func parseBool(val string) bool {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// ChatEndpoint returns the chat URL, derived from APIURL when unset.
func (c *Config) ChatEndpoint() string {
	if c.ChatURL != "" {
		return c.ChatURL
	}
	base := strings.TrimRight(c.APIURL, "/")
	if base == "" {
		base = DefaultAPIURL
	}
	return base + "/chat"
}

// SourceSpec returns the task source spec: Source when set, otherwise the
// REST service at APIURL.
func (c *Config) SourceSpec() string {
	if c.Source != "" {
		return expandHome(c.Source)
	}
	if c.APIURL == "" {
		return DefaultAPIURL
	}
	return c.APIURL
}

// Timeout returns RequestTimeout, or the default when it is not positive.
func (c *Config) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return DefaultRequestTimeout
	}
	return c.RequestTimeout
}

// View returns DefaultView when it is a known view, otherwise "dashboard".
func (c *Config) View() string {
	for _, v := range Views {
		if strings.EqualFold(c.DefaultView, v) {
			return v
		}
	}
	return DefaultDefaultView
}

// expandHome replaces "~/" in path= parameters with the home directory.
func expandHome(spec string) string {
	if !strings.Contains(spec, "~/") {
		return spec
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return spec
	}
	return strings.ReplaceAll(spec, "~/", homeDir+string(filepath.Separator))
}

// Reload forces a reload of the configuration.
// This resets the global singleton and returns the newly loaded config.
func Reload() (*Config, error) {
	configOnce = sync.Once{}
	return Get()
}

// ConfigPaths returns the paths where config files are searched, highest
// priority first.
func ConfigPaths() []string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(homeDir, ".config", "todoapp", "config.yaml"),
		filepath.Join(homeDir, ".config", "todoapp", "config.yml"),
		filepath.Join(homeDir, ".todoapp.yaml"),
	}
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// WriteExample writes an example configuration file to the specified path.
func WriteExample(path string) error {
	example := `# todo configuration file
# Place this file at ~/.config/todoapp/config.yaml or ~/.todoapp.yaml

# Base URL of the task service
api_url: http://localhost:8000

# Chat endpoint (defaults to api_url + /chat)
chat_url: ""

# Optional task source overriding api_url, e.g. "todolist:path=~/tasks.md"
source: ""

# Per-request timeout (Go duration format, e.g., "10s", "1m")
request_timeout: 10s

# Redis connection URL for the chat transcript (empty keeps it in memory)
redis_url: ""

# Name of the chat transcript kept in Redis
chat_session: default

# Task list rendering: dashboard or legacy
default_view: dashboard

# Desktop notification when a task is completed
notifications: false

# Diagnostic log
logging:
  level: warn
  file_path: ""
  json: false
  console: false
  max_size: 10
  max_backups: 5
  max_age: 7
  compress: true
`
	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(example), 0644)
}
