// Package log builds the crawler's slog loggers and the handler that keeps
// secrets out of their output.
//
// Crawled pages routinely link to URLs that carry credentials: session ids
// in query strings, user:password pairs in the authority, signed download
// tokens. Those URLs end up in "url" attributes on fetch and parse events,
// so the RedactingHandler rewrites them before they reach the writer:
//   - attributes whose key names a credential (cookie, authorization, token)
//     are replaced with MaskValue
//   - string values that look like bearer tokens, JWTs or private keys are
//     replaced with MaskValue
//   - URL values keep their scheme, host and path, but userinfo passwords
//     and credential-bearing query parameters are redacted
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Warn("fetch failed",
//	    "url", "https://www.ics.uci.edu/a?sid=42", // logged as sid=REDACTED
//	    "error", err,
//	)
//	slog.SetDefault(logger)
package log
