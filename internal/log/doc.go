// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (cookies, tokens, secrets)
//   - Redaction of credential-bearing query parameters in logged URLs
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Security Features
//
// The SecureHandler automatically sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Secret values detected by pattern matching (passwords, tokens, keys)
//   - Session identifiers and authentication tokens
//   - URL query parameters such as token, sig, and session_id
//
// A site crawler logs URLs constantly, and crawled sites often embed
// session tokens or signed credentials in link query strings. Even in
// verbose mode, those values are masked to prevent accidental exposure
// of secrets in logs that may be shared or stored.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("page fetched",
//	    "cookie", "session=abc123",  // Will be sanitized
//	    "url", "https://example.com/?token=abc",  // token value masked
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
