package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cuemby/arachne/pkg/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconciler struct {
	mu      sync.Mutex
	added   []string
	removed []string
}

func (f *fakeReconciler) AddSite(root *task.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, root.SiteID)
	return nil
}

func (f *fakeReconciler) RemoveSite(siteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, siteID)
	return nil
}

func (f *fakeReconciler) snapshot() (added, removed []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.added...), append([]string(nil), f.removed...)
}

func TestWatcherInitialReconcileAddsConfiguredSites(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	table := NewTable()
	rec := &fakeReconciler{}

	w, err := NewWatcher(path, table, rec)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Reconcile())
	added, removed := rec.snapshot()
	assert.ElementsMatch(t, []string{"site-a", "site-b"}, added)
	assert.Empty(t, removed)
	assert.Equal(t, 2, table.Len())
}

func TestWatcherReactsToFileRewrite(t *testing.T) {
	path := writeConfig(t, `
sites:
  - site_id: site-a
    root_url: ftp://a.example.test/
    default_revisit_wait: 300
    min_revisit_wait: 60
    max_revisit_wait: 3600
    request_wait: 10
    error_wait: 120
`)
	table := NewTable()
	rec := &fakeReconciler{}

	w, err := NewWatcher(path, table, rec)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Reconcile())
	w.Start()

	require.NoError(t, os.WriteFile(path, []byte(`
sites:
  - site_id: site-b
    root_url: ftp://b.example.test/
    default_revisit_wait: 300
    min_revisit_wait: 60
    max_revisit_wait: 3600
    request_wait: 10
    error_wait: 120
`), 0644))

	assert.Eventually(t, func() bool {
		added, removed := rec.snapshot()
		return len(added) == 2 && len(removed) == 1
	}, 5*time.Second, 20*time.Millisecond)

	added, removed := rec.snapshot()
	assert.Contains(t, added, "site-b")
	assert.Contains(t, removed, "site-a")
}

func TestWatcherIgnoresUnrelatedFilesInDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sites.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0644))

	table := NewTable()
	rec := &fakeReconciler{}
	w, err := NewWatcher(path, table, rec)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Reconcile())
	w.Start()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("noise"), 0644))
	time.Sleep(100 * time.Millisecond)

	added, removed := rec.snapshot()
	assert.Len(t, added, 2)
	assert.Empty(t, removed)
}
