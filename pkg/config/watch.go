package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cuemby/arachne/pkg/crawlurl"
	"github.com/cuemby/arachne/pkg/log"
	"github.com/cuemby/arachne/pkg/metrics"
	"github.com/cuemby/arachne/pkg/task"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Reconciler applies the scheduler-side effects of a site being added or
// removed. *scheduler.Scheduler satisfies this directly; pkg/config
// drives reconciliation without taking a dependency on the store's
// internals.
type Reconciler interface {
	AddSite(root *task.Task) error
	RemoveSite(siteID string) error
}

// Watcher reloads the site table file whenever it changes and
// reconciles the difference against a Reconciler: the set of on-disk
// per-site maps is reconciled against the configured sites on every
// reload.
//
// It watches the file's parent directory rather than the file itself,
// since editors and config-management tools commonly replace a file via
// rename rather than in-place write, which would otherwise orphan a
// watch held directly on the old inode.
type Watcher struct {
	path   string
	table  *Table
	rec    Reconciler
	fsw    *fsnotify.Watcher
	logger zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	doneCh chan struct{}
}

// NewWatcher constructs a Watcher over table, which should normally be
// empty (see NewTable): calling Reconcile once before Start then treats
// the whole file as the initial reconciliation, adding every configured
// site. Start only reacts to subsequent changes.
func NewWatcher(path string, table *Table, rec Reconciler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", dir, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:   path,
		table:  table,
		rec:    rec,
		fsw:    fsw,
		logger: log.WithComponent("config"),
		ctx:    ctx,
		cancel: cancel,
		doneCh: make(chan struct{}),
	}, nil
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

// Close stops watching and releases the underlying inotify/kqueue
// handle.
func (w *Watcher) Close() error {
	w.cancel()
	<-w.doneCh
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.ctx.Done():
			return
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != filepath.Clean(w.path) {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := w.Reconcile(); err != nil {
				w.logger.Warn().Err(err).Msg("config reload failed, keeping previous site table")
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("config watcher error")
		}
	}
}

// Reconcile reloads the site table file and applies any added or
// removed sites to the Reconciler. It is exported so callers can invoke
// it once at startup before Start begins watching for further changes.
func (w *Watcher) Reconcile() error {
	fresh, err := Load(w.path)
	if err != nil {
		return err
	}
	added, removed := w.table.replace(fresh.sites)

	for _, id := range added {
		site, ok := w.table.Get(id)
		if !ok {
			continue
		}
		root, err := crawlurl.Parse(site.RootURL, true)
		if err != nil {
			w.logger.Warn().Err(err).Str("site_id", id).Msg("site has invalid root_url, skipping")
			continue
		}
		if err := w.rec.AddSite(task.New(id, root)); err != nil {
			w.logger.Warn().Err(err).Str("site_id", id).Msg("failed to add site")
			continue
		}
		metrics.SiteEventsTotal.WithLabelValues("added").Inc()
		w.logger.Info().Str("site_id", id).Str("root_url", site.RootURL).Msg("site added")
	}
	for _, id := range removed {
		if err := w.rec.RemoveSite(id); err != nil {
			w.logger.Warn().Err(err).Str("site_id", id).Msg("failed to remove site")
			continue
		}
		metrics.SiteEventsTotal.WithLabelValues("removed").Inc()
		w.logger.Info().Str("site_id", id).Msg("site removed")
	}
	return nil
}
