package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds everything editer reads at startup.
type Config struct {
	APIURL        string
	ShareBaseURL  string
	Store         string
	DataDir       string
	RedisURL      string
	RedisPrefix   string
	AutosaveDelay time.Duration
	LogFile       string
	LogLevel      string
}

const (
	defaultConfigPath    = "~/.config/editer/config.toml"
	defaultAPIURL        = "http://localhost:8000"
	defaultShareBaseURL  = "http://localhost:5173"
	defaultDataDir       = "~/.local/share/editer"
	defaultRedisURL      = "redis://localhost:6379/0"
	defaultRedisPrefix   = "editer:"
	defaultAutosaveDelay = 700 * time.Millisecond
	defaultLogFile       = "~/.local/state/editer/editer.log"
	defaultLogLevel      = "info"

	envPrefix = "EDITER_"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:        defaultAPIURL,
		ShareBaseURL:  defaultShareBaseURL,
		Store:         StoreFile,
		DataDir:       mustExpand(defaultDataDir),
		RedisURL:      defaultRedisURL,
		RedisPrefix:   defaultRedisPrefix,
		AutosaveDelay: defaultAutosaveDelay,
		LogFile:       mustExpand(defaultLogFile),
		LogLevel:      defaultLogLevel,
	}
}

// DefaultPath returns the config file used when none is given.
func DefaultPath() string {
	return defaultConfigPath
}

type rawConfig struct {
	APIURL        string `toml:"api_url"`
	ShareBaseURL  string `toml:"share_base_url"`
	Store         string `toml:"store"`
	DataDir       string `toml:"data_dir"`
	RedisURL      string `toml:"redis_url"`
	RedisPrefix   string `toml:"redis_prefix"`
	AutosaveDelay string `toml:"autosave_delay"`
	LogFile       string `toml:"log_file"`
	LogLevel      string `toml:"log_level"`
}

// Load reads the TOML config at path (the default location when empty),
// falling back to defaults when the file is missing, then applies EDITER_*
// environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw rawConfig
	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&raw)
	return build(raw)
}

// LoadEnvFile loads KEY=value pairs from a dotenv file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func applyEnv(raw *rawConfig) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"API_URL", &raw.APIURL},
		{"SHARE_BASE_URL", &raw.ShareBaseURL},
		{"STORE", &raw.Store},
		{"DATA_DIR", &raw.DataDir},
		{"REDIS_URL", &raw.RedisURL},
		{"REDIS_PREFIX", &raw.RedisPrefix},
		{"AUTOSAVE_DELAY", &raw.AutosaveDelay},
		{"LOG_FILE", &raw.LogFile},
		{"LOG_LEVEL", &raw.LogLevel},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(envPrefix + o.key); ok && strings.TrimSpace(v) != "" {
			*o.dst = v
		}
	}
}

func build(raw rawConfig) (Config, error) {
	cfg := Default()

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(raw.ShareBaseURL); v != "" {
		cfg.ShareBaseURL = strings.TrimRight(v, "/")
	}
	if strings.TrimSpace(raw.Store) != "" {
		if err := cfg.SetStore(raw.Store); err != nil {
			return Config{}, err
		}
	}
	if v := strings.TrimSpace(raw.DataDir); v != "" {
		cfg.DataDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.RedisURL); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(raw.RedisPrefix); v != "" {
		cfg.RedisPrefix = v
	}
	if v := strings.TrimSpace(raw.AutosaveDelay); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse autosave_delay: %w", err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("autosave_delay must be positive, got %s", d)
		}
		cfg.AutosaveDelay = d
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogLevel)); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

// SetStore selects the local store backend by name.
func (c *Config) SetStore(name string) error {
	v := strings.ToLower(strings.TrimSpace(name))
	switch v {
	case StoreFile, StoreRedis, StoreMemory:
		c.Store = v
		return nil
	default:
		return fmt.Errorf("unknown store %q (want file, redis or memory)", name)
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
