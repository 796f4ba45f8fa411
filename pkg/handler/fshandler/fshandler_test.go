package fshandler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/arachne/pkg/crawlurl"
	"github.com/cuemby/arachne/pkg/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteListsDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte("x"), 0o644))

	u, err := crawlurl.Parse("file://"+dir, true)
	require.NoError(t, err)

	h := New()
	res, err := h.Execute(context.Background(), task.New("site-a", u))
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Len(t, res.Entries, 2)

	byName := map[string]bool{}
	for _, e := range res.Entries {
		byName[e.Name] = *e.Metadata.IsDir
	}
	assert.Equal(t, true, byName["sub"])
	assert.Equal(t, false, byName["file.txt"])
}

func TestExecuteNonDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	u, err := crawlurl.Parse("file://"+file, false)
	require.NoError(t, err)

	h := New()
	res, err := h.Execute(context.Background(), task.New("site-a", u))
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestExecuteMissingPath(t *testing.T) {
	u, err := crawlurl.Parse("file:///does/not/exist", false)
	require.NoError(t, err)

	h := New()
	res, err := h.Execute(context.Background(), task.New("site-a", u))
	require.NoError(t, err)
	assert.False(t, res.Found)
}
