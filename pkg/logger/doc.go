// Package logger builds *slog.Logger instances with functional options,
// environment presets and context extractors.
//
// New returns a JSON logger at INFO level by default. WithEnvironment
// switches to text + DEBUG for development. Context extractors inject
// request-scoped values (request id, environment) into every record logged
// with a context, so handlers only need to call the *Context logging methods.
//
// Attribute helpers such as Error, SessionID and Component keep key names
// consistent across packages.
//
// # Usage
//
//	var cfg logger.Config
//	_ = config.Load(&cfg)
//
//	log, err := logger.NewFromConfig(cfg, "production", "sessiond",
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	if err != nil {
//	    panic(err)
//	}
//	log.InfoContext(ctx, "session saved", logger.SessionID(id))
package logger
