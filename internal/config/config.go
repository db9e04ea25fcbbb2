package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds process settings. The persona itself lives in a separate YAML
// document; this file only says where to find it and how to reach the engine.
type Config struct {
	Persona  string         `toml:"persona"`
	LogLevel string         `toml:"log_level"`
	LLM      LLMConfig      `toml:"llm"`
	Server   ServerConfig   `toml:"server"`
	Trace    TraceConfig    `toml:"trace"`
	Services ServicesConfig `toml:"services"`
}

type LLMConfig struct {
	Model         string   `toml:"model"`
	BaseURL       string   `toml:"base_url"`
	APIKey        string   `toml:"api_key"`
	MaxIterations int      `toml:"max_iterations"`
	Timeout       Duration `toml:"timeout"`
}

type ServerConfig struct {
	Transport string `toml:"transport"`
	Addr      string `toml:"addr"`
}

type TraceConfig struct {
	Endpoint string `toml:"endpoint"`
	URLPath  string `toml:"url_path"`
	APIKey   string `toml:"api_key"`
}

type ServicesConfig struct {
	Brave BraveConfig `toml:"brave"`
}

type BraveConfig struct {
	APIKey string `toml:"api_key"`
}

// Duration decodes TOML strings such as "90s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	DefaultTimeout = 5 * time.Minute
)

// Defaults returns the settings used when neither a file nor the environment
// say otherwise. Model and max_iterations stay zero so the persona can supply them.
func Defaults() *Config {
	return &Config{
		LLM: LLMConfig{
			Timeout: Duration{DefaultTimeout},
		},
		Server: ServerConfig{
			Transport: TransportStdio,
			Addr:      ":8484",
		},
	}
}

// Load reads .env, the TOML settings file (if present) and environment
// overrides, in that order. An empty path means the default location.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = configPath()
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("settings file: %w", err)
	}

	if err := ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides copies recognised environment variables over cfg.
func ApplyEnvOverrides(cfg *Config) error {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&cfg.Persona, "FRANCISCO_CONFIG_PATH")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	setString(&cfg.LLM.BaseURL, "OPENAI_BASE_URL")
	setString(&cfg.LLM.Model, "FRANCISCO_MODEL")
	setString(&cfg.Trace.Endpoint, "FRANCISCO_TRACE_ENDPOINT")
	setString(&cfg.Services.Brave.APIKey, "BRAVE_API_KEY")

	if v := os.Getenv("FRANCISCO_MAX_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FRANCISCO_MAX_ITERATIONS: %w", err)
		}
		cfg.LLM.MaxIterations = n
	}
	if v := os.Getenv("FRANCISCO_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FRANCISCO_TIMEOUT: %w", err)
		}
		cfg.LLM.Timeout = Duration{d}
	}
	return nil
}

func configPath() string {
	dir, _ := os.UserConfigDir()
	return filepath.Join(dir, "francisco", "config.toml")
}
