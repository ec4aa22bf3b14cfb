// Package requestid attaches correlation identifiers to HTTP requests.
//
// Middleware reuses a valid client-supplied "X-Request-ID" header or
// generates a UUID, stores it in the request context and echoes it in the
// response. LoggerExtractor plugs into the logger package so every log
// record carries the request ID:
//
//	log := logger.New(
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	router.Use(requestid.Middleware)
package requestid
