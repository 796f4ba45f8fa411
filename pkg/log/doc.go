/*
Package log provides structured logging for arachne using zerolog.

The log package wraps zerolog to give every component JSON or
human-readable console logging and a configurable severity threshold.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	siteLog := log.WithComponent("scheduler").With().Str("site_id", "site-a").Logger()
	siteLog.Warn().Str("reason", "corrupt_record").Msg("task dropped")

# Context loggers

WithComponent tags a logger with a subsystem name ("scheduler",
"worker", "store"); callers chain further fields (site_id, url,
dispatch_id) onto the returned logger at the call site, since which
fields apply varies by component.
*/
package log
