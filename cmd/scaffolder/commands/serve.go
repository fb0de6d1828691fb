package commands

import (
	"github.com/spf13/cobra"

	"github.com/openfroyo/scaffolder/pkg/server"
)

func newServeCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the provisioning stream over HTTP",
		Long: `Start the HTTP front end.

Endpoints:
  GET /stream_create          provision a project, progress as server-sent events
  GET /api/catalog            catalog packages and their modules
  GET /api/timezones          selectable timezones
  GET /api/runs               run history (project, status, limit, offset)
  GET /api/runs/{id}          one run
  GET /api/runs/{id}/events   recorded progress events of a run
  GET /healthz                liveness and store health

With watch enabled in the config, catalog and policy files are reloaded
when they change.`,
		Example: `  # Serve on the configured address
  scaffolder serve

  # Override the listen address
  scaffolder serve --listen 0.0.0.0:8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			if listen == "" {
				listen = a.cfg.Server.Listen
			}

			if a.cfg.Watch {
				go func() {
					if err := a.catalog.Run(ctx); err != nil {
						a.logger.Error().Err(err).Msg("Catalog watcher stopped")
					}
				}()
				if len(a.cfg.PolicyPaths) > 0 {
					if err := a.policies.Watch(ctx, a.cfg.PolicyPaths); err != nil {
						a.logger.Warn().Err(err).Msg("Policy watching disabled")
					}
				}
			}

			var opts []server.Option
			if a.store != nil {
				opts = append(opts, server.WithHistory(a.store))
			}
			if a.cfg.Telemetry.Metrics.Enabled {
				opts = append(opts, server.WithMetrics(a.tel.Metrics))
			}

			a.logger.Info().
				Str("listen", listen).
				Str("projects_root", a.cfg.ProjectsRoot).
				Bool("history", a.store != nil).
				Bool("watch", a.cfg.Watch).
				Msg("Starting server")

			srv := server.New(a.pipeline, a.catalog, a.logger, opts...)
			return srv.ListenAndServe(ctx, listen, a.cfg.Server.ReadHeaderTimeout)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config)")

	return cmd
}
