// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// Endpoint configurations may carry API keys or auth headers for protected
// autocomplete services. The SecureHandler masks such values (headers, tokens,
// credentials) before they reach any log output, even in verbose mode.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//	logger.Info("request sent",
//	    "x-api-key", "sk_live_abc123", // Will be sanitized
//	    "url", "http://example.com/v1/autocomplete",
//	)
package log
