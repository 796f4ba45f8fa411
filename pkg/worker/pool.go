package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cuemby/arachne/pkg/handler"
	"github.com/cuemby/arachne/pkg/log"
	"github.com/cuemby/arachne/pkg/metrics"
	"github.com/cuemby/arachne/pkg/scheduler"
	"github.com/cuemby/arachne/pkg/task"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config holds worker pool configuration.
type Config struct {
	// Concurrency is the number of goroutines draining the scheduler.
	Concurrency int
	// PollInterval is how long a goroutine sleeps after the scheduler
	// reports ErrEmptyQueue before trying again.
	PollInterval time.Duration
	// HandlerTimeout bounds a single handler.Execute call.
	HandlerTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.HandlerTimeout <= 0 {
		c.HandlerTimeout = 30 * time.Second
	}
	return c
}

// Pool is the crawl loop's worker pool: it drains due tasks from a
// Scheduler and dispatches each to the matching handler.Registry entry.
type Pool struct {
	sched    *scheduler.Scheduler
	registry *handler.Registry
	cfg      Config
	logger   zerolog.Logger
	changes  *changeTracker

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// NewPool constructs a worker pool over an already-opened scheduler and
// a populated handler registry.
func NewPool(sched *scheduler.Scheduler, registry *handler.Registry, cfg Config) *Pool {
	return &Pool{
		sched:    sched,
		registry: registry,
		cfg:      cfg.withDefaults(),
		logger:   log.WithComponent("worker"),
		changes:  newChangeTracker(),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the configured number of crawl goroutines. It returns
// immediately; call Stop to shut the pool down.
func (p *Pool) Start() {
	for i := 0; i < p.cfg.Concurrency; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

// Stop signals every goroutine to exit and waits for them to drain
// their current task.
func (p *Pool) Stop() {
	close(p.stopCh)
	p.wg.Wait()
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		t, err := p.sched.Get()
		if err != nil {
			if errors.Is(err, scheduler.ErrEmptyQueue) {
				select {
				case <-time.After(p.cfg.PollInterval):
				case <-p.stopCh:
					return
				}
				continue
			}
			if errors.Is(err, scheduler.ErrClosed) {
				return
			}
			p.logger.Error().Err(err).Msg("scheduler dispatch failed")
			select {
			case <-time.After(p.cfg.PollInterval):
			case <-p.stopCh:
				return
			}
			continue
		}

		p.process(t)
	}
}

// process executes one dispatched task and reports its outcome back to
// the scheduler, following the crawl loop:
// dispatch -> execute -> report_done/report_error, plus enqueuing any
// newly discovered child directories.
func (p *Pool) process(t *task.Task) {
	dispatchID := uuid.New().String()
	logger := p.logger.With().
		Str("dispatch_id", dispatchID).
		Str("site_id", t.SiteID).
		Str("url", t.URL.String()).
		Logger()

	h, err := p.registry.Lookup(t.URL.Scheme)
	if err != nil {
		// An unregistered scheme is treated as a permanent failure,
		// i.e. a found=false outcome rather than a retry.
		logger.Warn().Err(err).Msg("no handler for scheme, dropping task")
		p.finishNotFound(t)
		if err := p.sched.ReportDone(t.SiteID); err != nil {
			logger.Error().Err(err).Msg("report_done failed")
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.HandlerTimeout)
	timer := metrics.NewTimer()
	res, err := h.Execute(ctx, t)
	timer.ObserveDurationVec(metrics.HandlerDuration, t.URL.Scheme)
	cancel()

	if err != nil {
		kind := "transient"
		var perr *handler.PermanentError
		if errors.As(err, &perr) {
			kind = "permanent"
		}
		metrics.HandlerErrorsTotal.WithLabelValues(t.URL.Scheme, kind).Inc()

		if kind == "permanent" {
			logger.Info().Err(err).Msg("handler reported permanent failure")
			p.finishNotFound(t)
			if err := p.sched.ReportDone(t.SiteID); err != nil {
				logger.Error().Err(err).Msg("report_done failed")
			}
			return
		}

		logger.Warn().Err(err).Msg("handler execution failed, backing off")
		if err := p.sched.ReportError(t); err != nil {
			logger.Error().Err(err).Msg("report_error failed")
		}
		return
	}

	if !res.Found {
		p.finishNotFound(t)
	} else {
		for _, name := range res.DirEntryNames() {
			child := task.New(t.SiteID, t.URL.Join(name))
			if err := p.sched.PutNew(child); err != nil {
				logger.Error().Err(err).Str("child", name).Msg("put_new failed")
			}
		}

		changed := p.changes.observe(t.URL.Key(), res.DirEntryNames())
		if t.FirstVisit() {
			if err := p.sched.PutVisited(t); err != nil {
				logger.Error().Err(err).Msg("put_visited failed")
			}
		} else if err := p.sched.PutRevisited(t, changed); err != nil {
			logger.Error().Err(err).Msg("put_revisited failed")
		}
	}

	if err := p.sched.ReportDone(t.SiteID); err != nil {
		logger.Error().Err(err).Msg("report_done failed")
	}
}

// finishNotFound drops a task whose URL is no longer a listable
// directory: no reschedule, and its change snapshot (if any) is
// forgotten since it can no longer be compared against.
func (p *Pool) finishNotFound(t *task.Task) {
	p.changes.forget(t.URL.Key())
}
