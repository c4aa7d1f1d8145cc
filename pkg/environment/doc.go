// Package environment propagates the deployment environment (development,
// staging, production) through context.Context and structured logs.
//
// Normalize turns configuration strings such as "prod" or "dev" into one of
// the canonical Environment constants. Middleware attaches the environment to
// every request context and LoggerExtractor exposes it to slog loggers built
// by the logger package.
//
// # Usage
//
//	env := environment.Normalize(os.Getenv("APP_ENV"))
//	handler = environment.Middleware(env)(handler)
//
//	if environment.IsProduction(r.Context()) {
//	    // production-only behavior
//	}
package environment
