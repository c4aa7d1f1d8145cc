// Package requestid attaches a correlation id to every HTTP request.
//
// Middleware reuses a valid client-supplied X-Request-ID header or
// generates a KSUID, stores it in the request context and echoes it in the
// response. LoggerExtractor exposes the id to loggers built by the logger
// package so session logs can be correlated with the request that produced
// them.
//
// # Usage
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	handler = requestid.New(requestid.WithTrustIncoming(false))(handler)
//
// Invalid ids (empty, longer than 128 bytes, or containing characters other
// than letters, digits, '-' and '_') are replaced silently.
package requestid
