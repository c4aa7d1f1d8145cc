package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/sessionkit/pkg/environment"
	"github.com/dmitrymomot/sessionkit/pkg/httpserver"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the demo HTTP server with session middleware",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var (
			sessCfg session.Config
			httpCfg httpserver.Config
		)
		if err := loadAll(&sessCfg, &httpCfg); err != nil {
			return err
		}

		b, err := openStore(ctx, app.Store, log)
		if err != nil {
			return err
		}

		mgr, err := session.NewFromConfig(sessCfg,
			session.WithStore(b.store),
			session.WithLogger(log),
			session.WithEnvironment(app.Env),
		)
		if err != nil {
			_ = b.close(ctx)
			return err
		}

		// The manager subscribes to store events in New, so monitors start after it.
		if b.background != nil {
			go b.background(ctx)
		}

		srv := httpserver.NewFromConfig(httpCfg,
			httpserver.WithLogger(log),
			httpserver.WithStopHook(b.close),
		)
		log.InfoContext(ctx, "starting sessiond",
			logger.Store(b.name),
			logger.Component("sessiond"),
			"version", Version,
		)
		return srv.Run(ctx, newRouter(mgr, environment.Normalize(app.Env), log, b.checks...))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
