package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/arachne/pkg/estimator"
	"github.com/cuemby/arachne/pkg/log"
	"github.com/cuemby/arachne/pkg/metrics"
	"github.com/cuemby/arachne/pkg/store"
	"github.com/cuemby/arachne/pkg/task"
	"github.com/rs/zerolog"
)

// RevisitThreshold is the number of observations collected between
// revisit-cadence reassignments.
const RevisitThreshold = 5

// SiteParams are the per-site scheduling tunables the scheduler needs:
// politeness and revisit windows, as configured for a site.
type SiteParams struct {
	RequestWait        time.Duration
	ErrorWait          time.Duration
	DefaultRevisitWait time.Duration
	MinRevisitWait     time.Duration
	MaxRevisitWait     time.Duration
}

// SiteTable answers whether a site is currently configured and, if so,
// its scheduling parameters. Implemented by pkg/config.Table.
type SiteTable interface {
	Site(siteID string) (SiteParams, bool)
}

// Scheduler is the single coordination point between discovery and
// execution. Every exported method
// takes the same mutex and runs its store work inside one transaction.
type Scheduler struct {
	store  *store.Store
	sites  SiteTable
	logger zerolog.Logger
	mu     sync.Mutex
	clock  func() time.Time
	closed bool
}

// New constructs a Scheduler over an opened store and a site table.
func New(st *store.Store, sites SiteTable) *Scheduler {
	return &Scheduler{
		store:  st,
		sites:  sites,
		logger: log.WithComponent("scheduler"),
		clock:  time.Now,
	}
}

func (s *Scheduler) now() int64 { return s.clock().Unix() }

// PutNew enqueues a newly discovered directory at priority(0): due
// immediately, in the per-site map only — the site itself is already
// scheduled.
func (s *Scheduler) PutNew(t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	payload, err := encodeTask(t)
	if err != nil {
		return err
	}
	if err := s.store.PutTask(t.SiteID, s.now(), payload); err != nil {
		return fmt.Errorf("scheduler: put_new: %w", err)
	}
	return nil
}

// PutVisited records the first successful listing of a directory:
// revisit_wait is set to the site's default, which resets both
// counters, and the task is stored at priority(revisit_wait).
func (s *Scheduler) PutVisited(t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	params, ok := s.sites.Site(t.SiteID)
	if !ok {
		return fmt.Errorf("scheduler: put_visited: unknown site %q", t.SiteID)
	}
	t.SetRevisitWait(params.DefaultRevisitWait)
	return s.storeTask(t)
}

// PutRevisited records a revisit, applying changed to the task's
// counters. Once RevisitThreshold observations have accumulated, the
// estimator reassigns revisit_wait (clamped to the site's bounds),
// which resets the counters.
func (s *Scheduler) PutRevisited(t *task.Task, changed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	params, ok := s.sites.Site(t.SiteID)
	if !ok {
		return fmt.Errorf("scheduler: put_revisited: unknown site %q", t.SiteID)
	}
	t.ReportVisit(changed)
	if t.RevisitCount >= RevisitThreshold {
		next := estimator.Estimate(t.RevisitWait, t.RevisitCount, t.ChangeCount)
		clamped := clamp(next, params.MinRevisitWait, params.MaxRevisitWait)
		if clamped != next {
			bound := "min"
			if clamped < next {
				bound = "max"
			}
			metrics.EstimatorClampedTotal.WithLabelValues(bound).Inc()
		}
		t.SetRevisitWait(clamped)
	}
	return s.storeTask(t)
}

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

func (s *Scheduler) storeTask(t *task.Task) error {
	payload, err := encodeTask(t)
	if err != nil {
		return err
	}
	priority := s.now() + int64(t.RevisitWait/time.Second)
	if err := s.store.PutTask(t.SiteID, priority, payload); err != nil {
		return fmt.Errorf("scheduler: store task: %w", err)
	}
	return nil
}

// Get dispatches the next due task, implementing the two-level dispatch
// walk: advance past stale and not-yet-due sites without losing their
// scheduling slot, then atomically consume the chosen site's sites-map
// entry and per-site head.
func (s *Scheduler) Get() (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.DispatchLatency)

	now := s.now()
	var result *task.Task

	err := s.store.Update(func(tx *store.Tx) error {
		cur, err := tx.IterateSitesFromHead()
		if err != nil {
			return err
		}
		for {
			if !cur.Valid() {
				return ErrEmptyQueue
			}
			priority, err := cur.Priority()
			if err != nil {
				s.logger.Warn().Err(err).Msg("dropping corrupt sites entry")
				metrics.TasksDroppedTotal.WithLabelValues("corrupt_sites_entry").Inc()
				if delErr := cur.Delete(); delErr != nil {
					return delErr
				}
				if !cur.Next() {
					return ErrEmptyQueue
				}
				continue
			}
			if priority > now {
				return ErrEmptyQueue
			}
			siteID := cur.SiteID()

			if _, configured := s.sites.Site(siteID); !configured {
				s.logger.Info().Str("site_id", siteID).Msg("sweeping stale site entry")
				if err := cur.Delete(); err != nil {
					return err
				}
				if !cur.Next() {
					return ErrEmptyQueue
				}
				continue
			}

			taskPriority, payload, err := tx.PeekHead(siteID)
			if isCorruptEntry(err) {
				s.logger.Warn().Err(err).Str("site_id", siteID).Msg("dropping corrupt task key")
				metrics.TasksDroppedTotal.WithLabelValues("corrupt_task_key").Inc()
				if err := tx.PopHead(siteID); err != nil {
					return err
				}
				continue
			}
			if err != nil {
				if isEmptySite(err) {
					if !cur.Next() {
						return ErrEmptyQueue
					}
					continue
				}
				return err
			}
			if taskPriority > now {
				if !cur.Next() {
					return ErrEmptyQueue
				}
				continue
			}

			t, err := decodeTask(payload)
			if err != nil {
				s.logger.Warn().Err(err).Str("site_id", siteID).Msg("dropping corrupt task record")
				metrics.TasksDroppedTotal.WithLabelValues("corrupt_task_record").Inc()
				if err := tx.PopHead(siteID); err != nil {
					return err
				}
				continue
			}

			if err := cur.Delete(); err != nil {
				return err
			}
			if err := tx.PopHead(siteID); err != nil {
				return err
			}
			result = t
			return nil
		}
	})

	if err != nil {
		if err == ErrEmptyQueue {
			metrics.DispatchEmptyTotal.Inc()
		}
		return nil, err
	}
	metrics.DispatchTotal.Inc()
	return result, nil
}

func isEmptySite(err error) bool {
	if _, ok := err.(*store.ErrEmpty); ok {
		return true
	}
	if _, ok := err.(*store.ErrUnknownSite); ok {
		return true
	}
	return false
}

func isCorruptEntry(err error) bool {
	_, ok := err.(*store.ErrCorrupt)
	return ok
}

// ReportDone is called after a successful handler execution: the site
// re-enters the sites map at priority(request_wait). The worker, not
// this method, re-enqueues the task itself via PutNew/PutVisited/
// PutRevisited.
func (s *Scheduler) ReportDone(siteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	params, ok := s.sites.Site(siteID)
	if !ok {
		return fmt.Errorf("scheduler: report_done: unknown site %q", siteID)
	}
	priority := s.now() + int64(params.RequestWait/time.Second)
	if err := s.store.PutSite(priority, siteID); err != nil {
		return fmt.Errorf("scheduler: report_done: %w", err)
	}
	return nil
}

// ReportError is called after a handler failure: the site re-enters
// the sites map and the task is pushed back into the per-site map,
// both at priority(error_wait). The task's revisit counters are
// unchanged since the handler never produced a result.
func (s *Scheduler) ReportError(t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	params, ok := s.sites.Site(t.SiteID)
	if !ok {
		return fmt.Errorf("scheduler: report_error: unknown site %q", t.SiteID)
	}
	priority := s.now() + int64(params.ErrorWait/time.Second)

	payload, err := encodeTask(t)
	if err != nil {
		return err
	}
	return s.store.Update(func(tx *store.Tx) error {
		if err := tx.PutSite(priority, t.SiteID); err != nil {
			return fmt.Errorf("scheduler: report_error: %w", err)
		}
		if err := tx.PutTask(t.SiteID, priority, payload); err != nil {
			return fmt.Errorf("scheduler: report_error: %w", err)
		}
		return nil
	})
}

// AddSite registers siteID's per-site map and seeds a root task due
// immediately, the reconciliation step expected for a newly configured
// site. Idempotent: re-adding an already-registered
// site only re-seeds the root task.
func (s *Scheduler) AddSite(root *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	payload, err := encodeTask(root)
	if err != nil {
		return err
	}
	now := s.now()
	return s.store.Update(func(tx *store.Tx) error {
		if err := tx.RegisterSite(root.SiteID); err != nil {
			return fmt.Errorf("scheduler: add_site: %w", err)
		}
		if err := tx.PutTask(root.SiteID, now, payload); err != nil {
			return fmt.Errorf("scheduler: add_site: %w", err)
		}
		if err := tx.PutSite(now, root.SiteID); err != nil {
			return fmt.Errorf("scheduler: add_site: %w", err)
		}
		return nil
	})
}

// RemoveSite unregisters siteID's per-site map. The site's remaining
// sites-map entries are swept lazily by Get (the "site sweep" case),
// once the caller has also removed siteID from the SiteTable.
func (s *Scheduler) RemoveSite(siteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.store.UnregisterSite(siteID); err != nil {
		return fmt.Errorf("scheduler: remove_site: %w", err)
	}
	return nil
}

// Sync flushes durable buffers to disk.
func (s *Scheduler) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.store.Sync()
}

// Close shuts the scheduler down. Calls already past the mutex
// complete; calls that arrive afterward fail with ErrClosed.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.store.Close()
}

// Len returns the sum of per-site task bucket sizes.
func (s *Scheduler) Len() (int, error) {
	return s.store.Len()
}

// Inspect lists every task currently queued for siteID, in priority
// order, for the `queue inspect` operator command.
func (s *Scheduler) Inspect(siteID string) ([]*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	entries, err := s.store.ListTasks(siteID)
	if err != nil {
		return nil, fmt.Errorf("scheduler: inspect: %w", err)
	}
	out := make([]*task.Task, 0, len(entries))
	for _, e := range entries {
		t, err := decodeTask(e.Payload)
		if err != nil {
			s.logger.Warn().Err(err).Str("site_id", siteID).Msg("dropping corrupt task record during inspect")
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Forget deletes the queued task for siteID whose URL's canonical
// string equals url, the "forgotten by an operator tool" case a task
// can be explicitly destroyed by. It reports whether a matching task
// was found and removed.
func (s *Scheduler) Forget(siteID, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	entries, err := s.store.ListTasks(siteID)
	if err != nil {
		return false, fmt.Errorf("scheduler: forget: %w", err)
	}
	for _, e := range entries {
		t, err := decodeTask(e.Payload)
		if err != nil {
			continue
		}
		if t.URL.String() == url {
			if err := s.store.DeleteTask(siteID, e.Key); err != nil {
				return false, fmt.Errorf("scheduler: forget: %w", err)
			}
			return true, nil
		}
	}
	return false, nil
}
