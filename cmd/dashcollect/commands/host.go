package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benvon/dashcollect/internal/hoststatus"
)

func newHostCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "host",
		Short: "Write a status snapshot of this host",
		Long:  "Read /proc, free, top and w and write <output_dir>/<hostname>.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newEnvironment(cmd.Context(), flags, "host")
			if err != nil {
				return err
			}
			defer env.close()

			cfg := env.cfg.Host
			if err := env.cfg.ValidateHost(); err != nil {
				return err
			}

			sys := hoststatus.NewLocalSystem(cfg.OSReleasePath, cfg.CommandTimeout, env.logger)
			collector := hoststatus.NewCollector(sys, hoststatus.Options{
				CPUInfoPath:         cfg.CPUInfoPath,
				MemInfoPath:         cfg.MemInfoPath,
				FreeCommand:         cfg.FreeCommand,
				TopCommand:          cfg.TopCommand,
				WhoCommand:          cfg.WhoCommand,
				NumericMemoryTotals: cfg.NumericMemoryTotals,
				OutputDir:           cfg.OutputDir,
			}, env.logger)

			if _, err := collector.Run(cmd.Context()); err != nil {
				env.logger.Error("host_collection_failed", zap.Error(err))
				return err
			}
			return nil
		},
	}
}
