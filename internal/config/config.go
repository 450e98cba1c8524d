// Package config loads engine and server settings from an optional YAML file
// with ASSIST_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables overriding file values. Each one maps to the config
// field of the same name.
const (
	EnvConfigFile    = "ASSIST_CONFIG"
	EnvListenAddr    = "ASSIST_LISTEN_ADDR"
	EnvCorpusDir     = "ASSIST_CORPUS_DIR"
	EnvRedisAddr     = "ASSIST_REDIS_ADDR"
	EnvRedisPassword = "ASSIST_REDIS_PASSWORD"
	EnvLogLevel      = "ASSIST_LOG_LEVEL"
	EnvLogFormat     = "ASSIST_LOG_FORMAT"
	EnvMaxLoops      = "ASSIST_MAX_FEEDBACK_LOOPS"
	EnvRetryBudget   = "ASSIST_RETRY_BUDGET"
	EnvStepLimit     = "ASSIST_STEP_LIMIT"
	EnvNodeTimeout   = "ASSIST_NODE_TIMEOUT"
	EnvMinConfidence = "ASSIST_MIN_CONFIDENCE"
)

// Engine holds the execution-graph tunables.
type Engine struct {
	MaxFeedbackLoops int           `yaml:"max_feedback_loops"`
	RetryBudget      int           `yaml:"retry_budget"`
	StepLimit        int           `yaml:"step_limit"`
	NodeTimeout      time.Duration `yaml:"node_timeout"`
	MinConfidence    float64       `yaml:"min_confidence"`
}

// Server holds the HTTP front-end settings.
type Server struct {
	ListenAddr      string        `yaml:"listen_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Redis holds the conversation-store connection settings. An empty Addr
// selects the in-memory store.
type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Config is the full application configuration.
type Config struct {
	CorpusDir string `yaml:"corpus_dir"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	Engine    Engine `yaml:"engine"`
	Server    Server `yaml:"server"`
	Redis     Redis  `yaml:"redis"`
}

// Default returns the configuration used when no file and no overrides are
// present.
func Default() Config {
	return Config{
		CorpusDir: "corpus",
		LogLevel:  "info",
		LogFormat: "text",
		Engine: Engine{
			MaxFeedbackLoops: 2,
			RetryBudget:      2,
			StepLimit:        32,
			NodeTimeout:      10 * time.Second,
			MinConfidence:    0.35,
		},
		Server: Server{
			ListenAddr:      ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Redis: Redis{
			TTL: 24 * time.Hour,
		},
	}
}

// Load reads the YAML file at path (skipped when empty or missing) and then
// applies environment overrides on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// Missing file falls back to defaults.
		default:
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(EnvListenAddr, &cfg.Server.ListenAddr)
	setString(EnvCorpusDir, &cfg.CorpusDir)
	setString(EnvRedisAddr, &cfg.Redis.Addr)
	setString(EnvRedisPassword, &cfg.Redis.Password)
	setString(EnvLogLevel, &cfg.LogLevel)
	setString(EnvLogFormat, &cfg.LogFormat)
	setInt(EnvMaxLoops, &cfg.Engine.MaxFeedbackLoops)
	setInt(EnvRetryBudget, &cfg.Engine.RetryBudget)
	setInt(EnvStepLimit, &cfg.Engine.StepLimit)
	setDuration(EnvNodeTimeout, &cfg.Engine.NodeTimeout)
	setFloat(EnvMinConfidence, &cfg.Engine.MinConfidence)
}

func (c Config) validate() error {
	if c.Engine.MaxFeedbackLoops < 0 {
		return fmt.Errorf("max_feedback_loops must be >= 0, got %d", c.Engine.MaxFeedbackLoops)
	}
	if c.Engine.StepLimit <= 0 {
		return fmt.Errorf("step_limit must be > 0, got %d", c.Engine.StepLimit)
	}
	if c.Engine.MinConfidence < 0 || c.Engine.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be within [0,1], got %v", c.Engine.MinConfidence)
	}
	return nil
}

func setString(env string, dst *string) {
	if val := os.Getenv(env); val != "" {
		*dst = val
	}
}

func setInt(env string, dst *int) {
	if val := os.Getenv(env); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func setFloat(env string, dst *float64) {
	if val := os.Getenv(env); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(env string, dst *time.Duration) {
	if val := os.Getenv(env); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
