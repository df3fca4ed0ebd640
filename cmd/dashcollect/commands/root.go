// Package commands implements the dashcollect command line.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benvon/dashcollect/internal/config"
	"github.com/benvon/dashcollect/internal/logger"
	"github.com/benvon/dashcollect/internal/telemetry"
)

const (
	serviceName     = "dashcollect"
	shutdownTimeout = 5 * time.Second
)

type globalFlags struct {
	configPath string
	debug      bool
}

// NewRootCmd creates the dashcollect command tree.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "dashcollect",
		Short:         "Collect dashboard data from Basecamp and the local host",
		Long:          "Collectors that write JSON snapshots for a status dashboard: recent Basecamp activity and local host status",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newActivityCmd(flags))
	rootCmd.AddCommand(newHostCmd(flags))
	rootCmd.AddCommand(newConfigCmd(flags))

	return rootCmd
}

// environment is the per-run config, logger and tracer shared by collector commands.
type environment struct {
	cfg      *config.Config
	logger   *zap.Logger
	shutdown func(context.Context) error
}

func newEnvironment(ctx context.Context, flags *globalFlags, command string) (*environment, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if flags.debug {
		cfg.DebugMode = true
	}

	zapLogger, err := logger.New(cfg.LogFormat, cfg.DebugMode)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	runID := uuid.NewString()
	zapLogger = zapLogger.With(
		zap.String("run_id", runID),
		zap.String("command", command),
	)

	shutdown := telemetry.Setup(ctx, telemetry.Options{
		Enabled:     cfg.OTELEnabled,
		ServiceName: serviceName,
		Endpoint:    cfg.OTELEndpoint,
		Command:     command,
		RunID:       runID,
	}, zapLogger)

	return &environment{
		cfg:      cfg,
		logger:   zapLogger,
		shutdown: shutdown,
	}, nil
}

func (e *environment) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.shutdown(ctx); err != nil {
		e.logger.Warn("failed_to_shutdown_tracer", zap.Error(err))
	}
	_ = logger.Sync(e.logger)
}
