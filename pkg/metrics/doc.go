// Package metrics defines and registers the Prometheus metrics exposed
// by the crawler: queue depth, dispatch counts and latency, handler
// errors and duration by scheme, site add/remove events, and estimator
// clamp hits. Handler returns the promhttp handler for /metrics, and
// Collector periodically samples gauges that don't change on their own
// between dispatch calls.
package metrics
