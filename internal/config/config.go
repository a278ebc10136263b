package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the wayfinder API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	MapStore MapStoreConfig `yaml:"map_store"`
	SLAM     SLAMConfig     `yaml:"slam"`
	Vision   VisionConfig   `yaml:"vision"`
	Staging  StagingConfig  `yaml:"staging"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// MapStoreConfig selects the map database the frame index is loaded from.
type MapStoreConfig struct {
	Driver    string   `yaml:"driver"` // sqlite, redis, bolt (default: sqlite)
	Path      string   `yaml:"path"`   // sqlite/bolt database file
	Addrs     []string `yaml:"addrs"`  // redis addresses
	Password  string   `yaml:"password"`
	KeyPrefix string   `yaml:"key_prefix"`
}

// SLAMConfig holds settings for the external localization engine.
type SLAMConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSec     int    `yaml:"timeout_sec"`     // per-request localization deadline
	MaxConcurrent  int    `yaml:"max_concurrent"`  // concurrent engine calls (1 = serialize)
	ReadyCheckPath string `yaml:"ready_check_path"`
}

// VisionConfig holds settings for the optional scene describer.
type VisionConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// StagingConfig holds staged-upload settings.
type StagingConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 15
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Localization can take several seconds; keep headroom above the SLAM deadline.
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.MapStore.Driver == "" {
		c.MapStore.Driver = "sqlite"
	}
	if c.MapStore.KeyPrefix == "" {
		c.MapStore.KeyPrefix = "wayfinder:"
	}
	if c.SLAM.TimeoutSec <= 0 {
		c.SLAM.TimeoutSec = 30
	}
	if c.SLAM.MaxConcurrent <= 0 {
		c.SLAM.MaxConcurrent = 1
	}
	if c.Vision.Model == "" {
		c.Vision.Model = "gpt-4o-mini"
	}
	if c.Staging.Dir == "" {
		c.Staging.Dir = filepath.Join(os.TempDir(), "wayfinder-uploads")
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.MapStore.Driver {
	case "sqlite", "bolt":
		if c.MapStore.Path == "" {
			return fmt.Errorf("map_store.path is required for driver %q", c.MapStore.Driver)
		}
	case "redis":
		if len(c.MapStore.Addrs) == 0 {
			return fmt.Errorf("map_store.addrs is required for driver \"redis\"")
		}
	default:
		return fmt.Errorf("map_store.driver must be sqlite, redis or bolt, got %q", c.MapStore.Driver)
	}
	if c.SLAM.BaseURL == "" {
		return fmt.Errorf("slam.base_url is required")
	}
	if c.Vision.Enabled && c.Vision.APIKey == "" {
		return fmt.Errorf("vision.api_key is required when vision.enabled is true")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
