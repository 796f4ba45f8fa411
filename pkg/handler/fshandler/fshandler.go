// Package fshandler implements the local-filesystem reference handler:
// found=true iff the path resolves to a directory the process can list.
package fshandler

import (
	"context"
	"os"

	"github.com/cuemby/arachne/pkg/handler"
	"github.com/cuemby/arachne/pkg/result"
	"github.com/cuemby/arachne/pkg/task"
)

// Handler lists directories on the local filesystem. The "site table"
// constructor argument is accepted for symmetry with other handlers but
// unused: local listings need no per-site configuration.
type Handler struct{}

// New constructs a filesystem handler.
func New() *Handler {
	return &Handler{}
}

// Scheme implements handler.Handler.
func (*Handler) Scheme() string { return "file" }

// Execute implements handler.Handler.
func (*Handler) Execute(ctx context.Context, t *task.Task) (*result.Result, error) {
	path := t.URL.Path

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &result.Result{SiteID: t.SiteID, URL: t.URL, Found: false}, nil
		}
		return nil, &handler.TransientError{Err: err}
	}
	if !info.IsDir() {
		return &result.Result{SiteID: t.SiteID, URL: t.URL, Found: false}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, &handler.TransientError{Err: err}
	}

	res := &result.Result{SiteID: t.SiteID, URL: t.URL, Found: true}
	for _, e := range entries {
		isDir := e.IsDir()
		if e.Type()&os.ModeSymlink != 0 {
			// Resolve symlinks the same way os.Stat would, rather than
			// trusting the (possibly stale) directory-entry type bit.
			if target, statErr := os.Stat(t.URL.Join(e.Name()).Path); statErr == nil {
				isDir = target.IsDir()
			}
		}
		res.Entries = append(res.Entries, result.Entry{
			Name:     e.Name(),
			Metadata: result.IsDir(isDir),
		})
	}
	return res, nil
}
