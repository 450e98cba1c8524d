package main

import (
	"fmt"
	"log/slog"
	"os"

	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/zweadfx/assist"
	redisadapter "github.com/zweadfx/assist/internal/adapters/redis"
	"github.com/zweadfx/assist/internal/config"
	"github.com/zweadfx/assist/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "assist",
	Short: "Assist is a conversational basketball knowledge engine",
	Long: `Assist answers training, gear and rules questions by routing each
request through a verification-gated task graph over a local markdown corpus.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to the YAML config file")
	rootCmd.PersistentFlags().String("corpus", "", "Directory containing the knowledge corpus (overrides config)")
}

// loadConfig resolves the configuration for a command invocation: defaults,
// then file, then environment, then explicit flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if cmd.Flags().Changed("corpus") {
		cfg.CorpusDir, _ = cmd.Flags().GetString("corpus")
	}
	return cfg, nil
}

// buildEngine wires the full engine for a command: logger, conversation
// store (Redis when configured, in-memory otherwise) and graph tunables.
func buildEngine(cfg config.Config, logger *slog.Logger, extra ...assist.Option) (*assist.Engine, error) {
	opts := []assist.Option{
		assist.WithLogger(logger),
		assist.WithMaxFeedbackLoops(cfg.Engine.MaxFeedbackLoops),
		assist.WithRetryBudget(cfg.Engine.RetryBudget),
		assist.WithStepLimit(cfg.Engine.StepLimit),
		assist.WithNodeTimeout(cfg.Engine.NodeTimeout),
		assist.WithMinConfidence(cfg.Engine.MinConfidence),
	}

	if cfg.Redis.Addr != "" {
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		opts = append(opts,
			assist.WithStore(redisadapter.NewFromClient(client, redisadapter.WithTTL(cfg.Redis.TTL))),
			assist.WithLocker(redisadapter.NewLocker(client, "assist:")),
		)
		logger.Info("using redis conversation store", "addr", cfg.Redis.Addr)
	}

	opts = append(opts, extra...)
	return assist.NewOffline(cfg.CorpusDir, opts...)
}

func newLogger(cfg config.Config) *slog.Logger {
	return logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
}
