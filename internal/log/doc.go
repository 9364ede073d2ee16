// Package log provides logging helpers built on the standard slog package.
//
// The RedactHandler wraps any slog.Handler and masks credential-bearing
// attributes before they reach the underlying handler. trawl attaches
// bearer tokens and cookies to outbound requests, and crawl targets are
// frequently pasted into bug reports together with verbose logs, so
// masking happens in the handler rather than at each call site.
//
// Usage:
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Info("request sent",
//	    "authorization", "Bearer abc123", // masked
//	    "url", "https://issues.example.org",
//	)
package log
