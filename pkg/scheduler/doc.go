// Package scheduler is the two-level dispatcher: it sits on top of
// pkg/store and decides, across every configured site and within each
// site's own task backlog, what gets crawled next. Every exported
// method runs under a single mutex and a single store transaction, so
// observers never see a half-applied dispatch decision.
package scheduler
