// Package worker implements the crawl loop: a fixed-size pool of
// goroutines drains due tasks from a *scheduler.Scheduler, dispatches
// each to the matching handler.Registry entry, and reports the outcome
// back to the scheduler so the next due time (or error backoff) is
// scheduled.
package worker
