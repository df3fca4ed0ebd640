package commands

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benvon/dashcollect/internal/activity"
	"github.com/benvon/dashcollect/internal/basecamp"
	"github.com/benvon/dashcollect/internal/config"
	"github.com/benvon/dashcollect/internal/recency"
)

func newActivityCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "activity",
		Short: "Collect open to-dos and recent discussions from Basecamp",
		Long:  "Fetch every project's remaining to-dos and the discussion comments inside the configured window, and write them as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newEnvironment(cmd.Context(), flags, "activity")
			if err != nil {
				return err
			}
			defer env.close()

			cfg := env.cfg.Activity
			if err := env.cfg.ValidateActivity(); err != nil {
				return err
			}

			opts := basecamp.Options{
				ProjectsURL: cfg.ProjectsURL,
				AccessToken: cfg.AccessToken,
				UserAgent:   cfg.UserAgent,
				RateLimit:   cfg.RateLimit,
				Timeout:     cfg.RequestTimeout,
			}
			if cfg.AccessToken == "" {
				creds, err := config.LoadCredentials(cfg.CredentialsFile)
				if err != nil {
					return err
				}
				opts.Credentials = creds
			}

			client, err := basecamp.NewClient(opts, env.logger)
			if err != nil {
				return err
			}

			collector := activity.NewCollector(client, activity.Options{
				AssumeSorted: cfg.AssumeSorted,
				PageSize:     cfg.TopicPageSize,
			}, env.logger)

			window := recency.NewWindow(time.Now(), cfg.Window)
			stats, err := collector.Run(cmd.Context(), window, cfg.OutputPath)
			if err != nil {
				if basecamp.IsUnauthorized(err) {
					env.logger.Error("basecamp_credentials_rejected",
						zap.String("credentials_file", cfg.CredentialsFile),
						zap.Bool("access_token", cfg.AccessToken != ""),
					)
				}
				env.logger.Error("activity_collection_failed", zap.Error(err))
				return err
			}
			env.logger.Info("activity_run_finished",
				zap.Int("projects", stats.Projects),
				zap.Int("threads", stats.Threads),
				zap.Int("skipped_threads", stats.SkippedThreads),
			)
			return nil
		},
	}
}
