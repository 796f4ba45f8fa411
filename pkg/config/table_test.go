package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
sites:
  - site_id: site-a
    root_url: ftp://a.example.test/
    default_revisit_wait: 300
    min_revisit_wait: 60
    max_revisit_wait: 3600
    request_wait: 10
    error_wait: 120
  - site_id: site-b
    root_url: file:///srv/share
    default_revisit_wait: 600
    min_revisit_wait: 120
    max_revisit_wait: 7200
    request_wait: 0
    error_wait: 60
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sites.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadParsesAndValidates(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	params, ok := table.Site("site-a")
	require.True(t, ok)
	assert.Equal(t, 300*time.Second, params.DefaultRevisitWait)
	assert.Equal(t, 10*time.Second, params.RequestWait)

	site, ok := table.Get("site-b")
	require.True(t, ok)
	assert.Equal(t, "file:///srv/share", site.RootURL)

	_, ok = table.Site("unknown")
	assert.False(t, ok)
}

func TestLoadRejectsInvalidSite(t *testing.T) {
	_, err := Load(writeConfig(t, `
sites:
  - site_id: bad
    root_url: ftp://bad.example.test/
    default_revisit_wait: 10
    min_revisit_wait: 100
    max_revisit_wait: 1000
    request_wait: 1
    error_wait: 1
`))
	assert.Error(t, err)
}

func TestLoadRejectsDuplicateSiteID(t *testing.T) {
	_, err := Load(writeConfig(t, `
sites:
  - site_id: dup
    root_url: ftp://one.example.test/
    default_revisit_wait: 10
    min_revisit_wait: 1
    max_revisit_wait: 100
    request_wait: 1
    error_wait: 10
  - site_id: dup
    root_url: ftp://two.example.test/
    default_revisit_wait: 10
    min_revisit_wait: 1
    max_revisit_wait: 100
    request_wait: 1
    error_wait: 10
`))
	assert.Error(t, err)
}

func TestTableReplaceDiffsAddedAndRemoved(t *testing.T) {
	table := NewTable()
	added, removed := table.replace(map[string]Site{
		"a": {SiteID: "a", RootURL: "ftp://a.example.test/"},
		"b": {SiteID: "b", RootURL: "ftp://b.example.test/"},
	})
	assert.ElementsMatch(t, []string{"a", "b"}, added)
	assert.Empty(t, removed)

	added, removed = table.replace(map[string]Site{
		"a": {SiteID: "a", RootURL: "ftp://a.example.test/"},
		"c": {SiteID: "c", RootURL: "ftp://c.example.test/"},
	})
	assert.ElementsMatch(t, []string{"c"}, added)
	assert.ElementsMatch(t, []string{"b"}, removed)
}
