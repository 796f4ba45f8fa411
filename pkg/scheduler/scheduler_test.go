package scheduler

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cuemby/arachne/pkg/crawlurl"
	"github.com/cuemby/arachne/pkg/store"
	"github.com/cuemby/arachne/pkg/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSiteTable struct {
	mu    sync.Mutex
	sites map[string]SiteParams
}

func newFakeSiteTable() *fakeSiteTable {
	return &fakeSiteTable{sites: make(map[string]SiteParams)}
}

func (f *fakeSiteTable) add(id string, p SiteParams) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sites[id] = p
}

func (f *fakeSiteTable) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sites, id)
}

func (f *fakeSiteTable) Site(id string) (SiteParams, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.sites[id]
	return p, ok
}

func newTestScheduler(t *testing.T) (*Scheduler, *fakeSiteTable, *time.Time) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "arachne.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	sites := newFakeSiteTable()
	now := time.Unix(1_700_000_000, 0)
	sched := New(st, sites)
	sched.clock = func() time.Time { return now }
	return sched, sites, &now
}

func rootTask(t *testing.T, siteID, rawURL string) *task.Task {
	t.Helper()
	u, err := crawlurl.Parse(rawURL, true)
	require.NoError(t, err)
	return task.New(siteID, u)
}

func TestEmptyBootstrap(t *testing.T) {
	sched, sites, _ := newTestScheduler(t)
	sites.add("S", SiteParams{RequestWait: 60 * time.Second, DefaultRevisitWait: 300 * time.Second})

	root := rootTask(t, "S", "ftp://example.test/")
	require.NoError(t, sched.AddSite(root))

	got, err := sched.Get()
	require.NoError(t, err)
	assert.Equal(t, root.URL.String(), got.URL.String())
	assert.Equal(t, time.Duration(0), got.RevisitWait)

	_, err = sched.Get()
	assert.Equal(t, ErrEmptyQueue, err)
}

func TestPolitenessAlternatesSites(t *testing.T) {
	sched, sites, _ := newTestScheduler(t)
	params := SiteParams{RequestWait: 60 * time.Second, DefaultRevisitWait: 300 * time.Second}
	sites.add("A", params)
	sites.add("B", params)

	require.NoError(t, sched.AddSite(rootTask(t, "A", "ftp://a.test/")))
	require.NoError(t, sched.AddSite(rootTask(t, "B", "ftp://b.test/")))

	first, err := sched.Get()
	require.NoError(t, err)
	require.NoError(t, sched.ReportDone(first.SiteID))

	second, err := sched.Get()
	require.NoError(t, err)
	require.NoError(t, sched.ReportDone(second.SiteID))

	assert.NotEqual(t, first.SiteID, second.SiteID)
}

func TestErrorBackoff(t *testing.T) {
	sched, sites, now := newTestScheduler(t)
	sites.add("S", SiteParams{RequestWait: 10 * time.Second, ErrorWait: 120 * time.Second, DefaultRevisitWait: 300 * time.Second})
	require.NoError(t, sched.AddSite(rootTask(t, "S", "ftp://example.test/")))

	taskOut, err := sched.Get()
	require.NoError(t, err)
	require.NoError(t, sched.ReportError(taskOut))

	*now = now.Add(60 * time.Second)
	_, err = sched.Get()
	assert.Equal(t, ErrEmptyQueue, err)

	*now = now.Add(61 * time.Second) // total 121s, past error_wait
	again, err := sched.Get()
	require.NoError(t, err)
	assert.Equal(t, taskOut.URL.String(), again.URL.String())
	assert.Equal(t, taskOut.RevisitCount, again.RevisitCount)
	assert.Equal(t, taskOut.ChangeCount, again.ChangeCount)
}

func TestAdaptiveCadenceClampsAndResetsCounters(t *testing.T) {
	sched, sites, _ := newTestScheduler(t)
	sites.add("S", SiteParams{
		RequestWait:        10 * time.Second,
		DefaultRevisitWait: 100 * time.Second,
		MinRevisitWait:     10 * time.Second,
		MaxRevisitWait:     10000 * time.Second,
	})

	tk := rootTask(t, "S", "ftp://example.test/pub")
	require.NoError(t, sched.PutVisited(tk))
	assert.Equal(t, 100*time.Second, tk.RevisitWait)

	for i := 0; i < 5; i++ {
		require.NoError(t, sched.PutRevisited(tk, i < 3))
	}
	// n=5, k=3 -> exactly 100/-ln(2.5/5.5) ~= 126.8457s, rounds to 127s.
	assert.Equal(t, 127*time.Second, tk.RevisitWait)
	assert.Equal(t, 0, tk.RevisitCount)
	assert.Equal(t, 0, tk.ChangeCount)
}

func TestStaleSiteSwept(t *testing.T) {
	sched, sites, _ := newTestScheduler(t)
	sites.add("S", SiteParams{RequestWait: 10 * time.Second, DefaultRevisitWait: 100 * time.Second})
	require.NoError(t, sched.AddSite(rootTask(t, "S", "ftp://example.test/")))

	sites.remove("S")
	_, err := sched.Get()
	assert.Equal(t, ErrEmptyQueue, err)
}

func TestLenSumsAcrossSites(t *testing.T) {
	sched, sites, _ := newTestScheduler(t)
	sites.add("A", SiteParams{RequestWait: 10 * time.Second, DefaultRevisitWait: 100 * time.Second})
	sites.add("B", SiteParams{RequestWait: 10 * time.Second, DefaultRevisitWait: 100 * time.Second})
	require.NoError(t, sched.AddSite(rootTask(t, "A", "ftp://a.test/")))
	require.NoError(t, sched.AddSite(rootTask(t, "B", "ftp://b.test/")))

	n, err := sched.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestClosedSchedulerRejectsCalls(t *testing.T) {
	sched, sites, _ := newTestScheduler(t)
	sites.add("S", SiteParams{RequestWait: 10 * time.Second, DefaultRevisitWait: 100 * time.Second})
	require.NoError(t, sched.Close())

	_, err := sched.Get()
	assert.Equal(t, ErrClosed, err)
}

func TestInspectListsQueuedTasks(t *testing.T) {
	sched, sites, _ := newTestScheduler(t)
	sites.add("S", SiteParams{RequestWait: 10 * time.Second, DefaultRevisitWait: 100 * time.Second})
	require.NoError(t, sched.AddSite(rootTask(t, "S", "ftp://example.test/")))
	require.NoError(t, sched.PutNew(task.New("S", mustParseURL(t, "ftp://example.test/child"))))

	tasks, err := sched.Inspect("S")
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	urls := []string{tasks[0].URL.String(), tasks[1].URL.String()}
	assert.Contains(t, urls, "ftp://example.test/")
	assert.Contains(t, urls, "ftp://example.test/child")
}

func TestForgetRemovesMatchingTaskOnly(t *testing.T) {
	sched, sites, _ := newTestScheduler(t)
	sites.add("S", SiteParams{RequestWait: 10 * time.Second, DefaultRevisitWait: 100 * time.Second})
	require.NoError(t, sched.AddSite(rootTask(t, "S", "ftp://example.test/")))
	require.NoError(t, sched.PutNew(task.New("S", mustParseURL(t, "ftp://example.test/child"))))

	found, err := sched.Forget("S", "ftp://example.test/child")
	require.NoError(t, err)
	assert.True(t, found)

	tasks, err := sched.Inspect("S")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "ftp://example.test/", tasks[0].URL.String())

	found, err = sched.Forget("S", "ftp://example.test/gone")
	require.NoError(t, err)
	assert.False(t, found)
}

func mustParseURL(t *testing.T, raw string) crawlurl.URL {
	t.Helper()
	u, err := crawlurl.Parse(raw, false)
	require.NoError(t, err)
	return u
}
