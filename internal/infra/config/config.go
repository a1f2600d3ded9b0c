package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ragchat/internal/domain"
)

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Breaker BreakerConfig `yaml:"breaker"`
	UI      UIConfig      `yaml:"ui"`
	Logger  LoggerConfig  `yaml:"logger"`
	Tracer  TracerConfig  `yaml:"tracer"`
}

// ServerConfig describes the assistant service the client talks to.
type ServerConfig struct {
	BaseURL      string        `yaml:"base_url"`
	UploadPath   string        `yaml:"upload_path"`
	ChatPath     string        `yaml:"chat_path"`
	CSRFToken    string        `yaml:"csrf_token"`  // may be "enc:..."
	CSRFHeader   string        `yaml:"csrf_header"` // header the token travels in
	UploadField  string        `yaml:"upload_field"`
	ConnTimeout  time.Duration `yaml:"conn_timeout"`
	RespTimeout  time.Duration `yaml:"resp_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"` // cap on response bodies read
}

// BreakerConfig configures the optional circuit breaker in front of the server.
// Disabled by default: every request then reaches the server.
type BreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// UIConfig holds terminal presentation settings.
type UIConfig struct {
	AgentName    string `yaml:"agent_name"`
	MaxMessages  int    `yaml:"max_messages"` // transcript entries kept on screen; 0 = unlimited
	ASCIISymbols bool   `yaml:"ascii_symbols"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// defaultStateDir returns $HOME/.ragchat, falling back to "." when $HOME
// cannot be determined.
func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".ragchat")
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:      "http://localhost:8000",
			UploadPath:   "/upload/",
			ChatPath:     "/chat/",
			CSRFHeader:   "X-CSRFToken",
			UploadField:  "files",
			ConnTimeout:  10 * time.Second,
			RespTimeout:  120 * time.Second,
			MaxBodyBytes: 4 << 20,
		},
		Breaker: BreakerConfig{
			Enabled:     false,
			MaxFailures: 5,
			Timeout:     30 * time.Second,
			Interval:    60 * time.Second,
		},
		UI: UIConfig{
			AgentName:   "Assistant",
			MaxMessages: 1000,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			// The TUI owns the terminal, so logs go to a file by default.
			Output: filepath.Join(defaultStateDir(), "ragchat.log"),
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
	}
}

// Load reads a YAML config file, loads .env, applies env var overrides,
// and decrypts secrets. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, domain.NewDomainError("Config.Load", domain.ErrConfigLoad, err.Error())
		}
	} else {
		if err := validatePermissions(path); err != nil {
			return nil, domain.NewDomainError("Config.Load", domain.ErrConfigLoad, err.Error())
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, domain.NewDomainError("Config.Load", domain.ErrConfigLoad, fmt.Sprintf("parse config: %v", err))
		}
	}

	ApplyEnvOverrides(cfg)

	if err := decryptSecrets(cfg, os.Getenv("RAGCHAT_CONFIG_KEY")); err != nil {
		return nil, fmt.Errorf("decrypt secrets: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides maps RAGCHAT_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RAGCHAT_SERVER_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("RAGCHAT_CSRF_TOKEN"); v != "" {
		cfg.Server.CSRFToken = v
	}
	if v := os.Getenv("RAGCHAT_RESP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.RespTimeout = d
		}
	}
	if v := os.Getenv("RAGCHAT_BREAKER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Breaker.Enabled = b
		}
	}
	if v := os.Getenv("RAGCHAT_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("RAGCHAT_LOGGER_OUTPUT"); v != "" {
		cfg.Logger.Output = v
	}
	if v := os.Getenv("RAGCHAT_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("RAGCHAT_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
	if v := os.Getenv("RAGCHAT_ASCII_SYMBOLS"); v == "1" || strings.EqualFold(v, "true") {
		cfg.UI.ASCIISymbols = true
	}
}

// validatePermissions checks the config file has restrictive permissions.
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	// Group and others may read, nothing more.
	if mode&0o033 != 0 {
		return fmt.Errorf("config file %s has insecure permissions %o (group and others may only read)", path, mode)
	}
	return nil
}
