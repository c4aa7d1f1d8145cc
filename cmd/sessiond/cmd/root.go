package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/sessionkit/pkg/config"
	"github.com/dmitrymomot/sessionkit/pkg/environment"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/requestid"
)

// Version is set at build time.
var Version = "dev"

type appConfig struct {
	Env   string `env:"APP_ENV" envDefault:"development"`
	Store string `env:"SESSION_STORE" envDefault:"memory"`
}

// envFileConfig is read before anything else so the file's values reach
// every later config type.
type envFileConfig struct {
	Path string `env:"APP_ENV_FILE"`
}

var (
	app     appConfig
	storeFl string
	envFl   string
	log     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:     "sessiond",
	Short:   "sessiond serves and inspects HTTP sessions",
	Long:    "A demo server for the session middleware and an operator tool for the configured session store.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var ef envFileConfig
		if err := config.Parse(&ef); err != nil {
			return err
		}
		if ef.Path != "" {
			if err := config.LoadEnv(ef.Path); err != nil {
				return err
			}
			if err := config.Reload(&app); err != nil {
				return err
			}
		} else if err := config.Load(&app); err != nil {
			return err
		}
		if storeFl != "" {
			app.Store = storeFl
		}
		if envFl != "" {
			app.Env = envFl
		}

		var logCfg logger.Config
		if err := config.Load(&logCfg); err != nil {
			return err
		}
		l, err := logger.NewFromConfig(logCfg, app.Env, "sessiond",
			logger.WithOutput(cmd.ErrOrStderr()),
			logger.WithContextExtractors(
				requestid.LoggerExtractor(),
				environment.LoggerExtractor(),
			),
		)
		if err != nil {
			return err
		}
		log = l
		logger.SetAsDefault(l)
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeFl, "store", "", "session store: memory, redis, postgres, mongo or bolt (default $SESSION_STORE)")
	rootCmd.PersistentFlags().StringVar(&envFl, "env", "", "application environment (default $APP_ENV)")
}
