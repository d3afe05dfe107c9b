package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the file is read.
const (
	EnvLogLevel       = "TRACKS_LOG_LEVEL"
	EnvRedisAddr      = "TRACKS_REDIS_ADDR"
	EnvMaxProgramSize = "TRACKS_MAX_PROGRAM_SIZE"
	EnvMaxSteps       = "TRACKS_MAX_STEPS"
)

// Config holds the settings of the tracks services.
type Config struct {
	Log    LogConfig    `yaml:"log" toml:"log" json:"log"`
	Server ServerConfig `yaml:"server" toml:"server" json:"server"`
	Redis  RedisConfig  `yaml:"redis" toml:"redis" json:"redis"`
	Limits LimitsConfig `yaml:"limits" toml:"limits" json:"limits"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level" json:"level"`
}

type ServerConfig struct {
	Port    int  `yaml:"port" toml:"port" json:"port"`
	Metrics bool `yaml:"metrics" toml:"metrics" json:"metrics"`
}

// RedisConfig enables the Redis session store when Addr is set.
type RedisConfig struct {
	Addr     string   `yaml:"addr" toml:"addr" json:"addr"`
	Password string   `yaml:"password" toml:"password" json:"password"`
	DB       int      `yaml:"db" toml:"db" json:"db"`
	Prefix   string   `yaml:"prefix" toml:"prefix" json:"prefix"`
	TTL      Duration `yaml:"ttl" toml:"ttl" json:"ttl"`
}

type LimitsConfig struct {
	MaxProgramSize int `yaml:"max_program_size" toml:"max_program_size" json:"max_program_size"`
	MaxCanvas      int `yaml:"max_canvas" toml:"max_canvas" json:"max_canvas"`
	// MaxSteps bounds the work of one run or session request (0 = unlimited).
	MaxSteps int `yaml:"max_steps" toml:"max_steps" json:"max_steps"`
}

// Duration is a time.Duration read from strings like "30m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Log:    LogConfig{Level: "info"},
		Server: ServerConfig{Port: 8080, Metrics: true},
		Redis:  RedisConfig{Prefix: "tracks:session:"},
		Limits: LimitsConfig{MaxProgramSize: 64 * 1024, MaxCanvas: 1024, MaxSteps: 1_000_000},
	}
}

// Load reads a configuration file (YAML, TOML or JSON, by extension) on top of the defaults.
// An empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// no file, defaults only
		case err != nil:
			return cfg, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := decode(path, data, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", name, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", name, err)
		}
	default:
		// Default to YAML
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", name, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv(EnvMaxProgramSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Limits.MaxProgramSize = n
		}
	}
	if v := os.Getenv(EnvMaxSteps); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Limits.MaxSteps = n
		}
	}
}
