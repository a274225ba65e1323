// Package config loads the application configuration from YAML, with
// environment variable overrides for secrets.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Backend selects where checkpoints are persisted.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
	BackendSQLite Backend = "sqlite"
)

// Config is the root application configuration.
type Config struct {
	Model      ModelConfig      `yaml:"model"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Tools      ToolsConfig      `yaml:"tools"`
	RAG        RAGConfig        `yaml:"rag"`
	Run        RunConfig        `yaml:"run"`
	LogLevel   string           `yaml:"log_level"`
}

// ModelConfig points at an OpenAI-compatible endpoint. IntentModel is the
// lightweight model used for classification; ChatModel handles everything
// else.
type ModelConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	ChatModel   string `yaml:"chat_model"`
	IntentModel string `yaml:"intent_model"`
}

// CheckpointConfig selects and parameterizes the checkpoint store.
type CheckpointConfig struct {
	Backend Backend       `yaml:"backend"`
	Redis   RedisConfig   `yaml:"redis"`
	SQLite  SQLiteConfig  `yaml:"sqlite"`
	TTL     time.Duration `yaml:"ttl"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// ToolsConfig holds third-party API credentials for the research tools.
type ToolsConfig struct {
	WeatherKey  string `yaml:"weather_key"`
	ExchangeKey string `yaml:"exchange_key"`
}

// RAGConfig tunes knowledge retrieval.
type RAGConfig struct {
	TopK           int     `yaml:"top_k"`
	ScoreThreshold float32 `yaml:"score_threshold"`
}

// RunConfig bounds one graph execution.
type RunConfig struct {
	MaxSteps int           `yaml:"max_steps"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			BaseURL:     "https://dashscope.aliyuncs.com/compatible-mode/v1",
			ChatModel:   "qwen-plus",
			IntentModel: "qwen-flash",
		},
		Checkpoint: CheckpointConfig{
			Backend: BackendMemory,
			SQLite:  SQLiteConfig{Path: "itinerai.db"},
		},
		RAG: RAGConfig{
			TopK:           3,
			ScoreThreshold: 0.7,
		},
		Run: RunConfig{
			MaxSteps: 20,
			Timeout:  2 * time.Minute,
		},
		LogLevel: "info",
	}
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error; the defaults plus environment overrides apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	} else if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv lets secrets come from the environment instead of the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("ITINERAI_API_KEY"); v != "" {
		c.Model.APIKey = v
	}
	if v := os.Getenv("ITINERAI_WEATHER_KEY"); v != "" {
		c.Tools.WeatherKey = v
	}
	if v := os.Getenv("ITINERAI_EXCHANGE_KEY"); v != "" {
		c.Tools.ExchangeKey = v
	}
}

// Validate rejects configurations that cannot possibly run.
func (c *Config) Validate() error {
	switch c.Checkpoint.Backend {
	case BackendMemory, BackendRedis, BackendSQLite:
	default:
		return errors.Errorf("unknown checkpoint backend %q", c.Checkpoint.Backend)
	}
	if c.Checkpoint.Backend == BackendRedis && c.Checkpoint.Redis.Addr == "" {
		return errors.New("redis backend requires an address")
	}
	if c.Checkpoint.Backend == BackendSQLite && c.Checkpoint.SQLite.Path == "" {
		return errors.New("sqlite backend requires a path")
	}
	if c.RAG.TopK < 0 {
		return errors.New("rag top_k must not be negative")
	}
	return nil
}

// NewLogger builds the application logger at the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", c.LogLevel)
	}

	zc := zap.NewProductionConfig()
	zc.Level = level
	logger, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return logger, nil
}
