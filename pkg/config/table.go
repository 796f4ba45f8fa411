package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/cuemby/arachne/pkg/scheduler"
	"gopkg.in/yaml.v3"
)

// fileFormat is the on-disk shape of the site table file.
type fileFormat struct {
	Sites []rawSite `yaml:"sites"`
}

// Table is the in-memory, concurrency-safe view of the configured
// sites. It implements scheduler.SiteTable, so a *Scheduler can be
// constructed directly against it.
type Table struct {
	mu    sync.RWMutex
	sites map[string]Site
}

// newTable builds a Table from already-validated sites.
func newTable(sites map[string]Site) *Table {
	return &Table{sites: sites}
}

// NewTable returns an empty Table. Pair it with Watcher.Reconcile to
// perform the initial load as the first reconciliation (every
// configured site arrives as an "added" site), rather than loading
// twice.
func NewTable() *Table {
	return &Table{sites: make(map[string]Site)}
}

// Load reads and validates the site table file at path, independent of
// any Watcher. Useful for one-off reads (e.g. CLI inspection commands)
// that don't need live reconciliation.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	sites, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return newTable(sites), nil
}

func parse(data []byte) (map[string]Site, error) {
	var raw fileFormat
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	sites := make(map[string]Site, len(raw.Sites))
	for _, r := range raw.Sites {
		site := r.toSite()
		if err := site.Validate(); err != nil {
			return nil, err
		}
		if _, dup := sites[site.SiteID]; dup {
			return nil, fmt.Errorf("duplicate site_id %q", site.SiteID)
		}
		sites[site.SiteID] = site
	}
	return sites, nil
}

// Site implements scheduler.SiteTable.
func (t *Table) Site(siteID string) (scheduler.SiteParams, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sites[siteID]
	if !ok {
		return scheduler.SiteParams{}, false
	}
	return scheduler.SiteParams{
		RequestWait:        s.RequestWait,
		ErrorWait:          s.ErrorWait,
		DefaultRevisitWait: s.DefaultRevisitWait,
		MinRevisitWait:     s.MinRevisitWait,
		MaxRevisitWait:     s.MaxRevisitWait,
	}, true
}

// Get returns the full site record, for callers (like the watcher) that
// need RootURL as well as the scheduling parameters.
func (t *Table) Get(siteID string) (Site, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sites[siteID]
	return s, ok
}

// All returns every configured site, in no particular order.
func (t *Table) All() []Site {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Site, 0, len(t.sites))
	for _, s := range t.sites {
		out = append(out, s)
	}
	return out
}

// Len returns the number of currently configured sites, for
// pkg/metrics.SiteCount.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sites)
}

// replace atomically swaps the table's contents, returning the set of
// site IDs added and removed relative to the previous contents.
func (t *Table) replace(sites map[string]Site) (added, removed []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id := range sites {
		if _, ok := t.sites[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range t.sites {
		if _, ok := sites[id]; !ok {
			removed = append(removed, id)
		}
	}
	t.sites = sites
	return added, removed
}
