package ftphandler

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/arachne/pkg/handler"
	"github.com/cuemby/arachne/pkg/result"
	"github.com/cuemby/arachne/pkg/task"
)

const defaultPort = 21

// DialTimeout bounds how long connecting and authenticating may take
// before a task is reported as a transient failure.
var DialTimeout = 15 * time.Second

// Handler lists directories served over FTP.
type Handler struct{}

// New constructs an FTP handler.
func New() *Handler {
	return &Handler{}
}

// Scheme implements handler.Handler.
func (*Handler) Scheme() string { return "ftp" }

// Execute implements handler.Handler.
func (*Handler) Execute(ctx context.Context, t *task.Task) (*result.Result, error) {
	port := t.URL.Port
	if port == 0 {
		port = defaultPort
	}
	addr := fmt.Sprintf("%s:%d", t.URL.Host, port)

	dialCtx, cancel := context.WithTimeout(ctx, DialTimeout)
	c, err := dial(dialCtx, addr)
	cancel()
	if err != nil {
		return nil, &handler.TransientError{Err: err}
	}
	defer c.close()

	user, pass := "", ""
	if t.URL.HasAuth {
		user, pass = t.URL.Username, t.URL.Password
	}
	if err := c.login(user, pass); err != nil {
		return nil, &handler.TransientError{Err: err}
	}

	if err := c.changeDir(t.URL.Path); err != nil {
		if _, notFound := err.(*errNotFound); notFound {
			return &result.Result{SiteID: t.SiteID, URL: t.URL, Found: false}, nil
		}
		return nil, &handler.TransientError{Err: err}
	}

	lines, err := c.list("")
	if err != nil {
		return nil, &handler.TransientError{Err: err}
	}

	res := &result.Result{SiteID: t.SiteID, URL: t.URL, Found: true}
	for _, line := range lines {
		pl, ok := parseListLine(line)
		if !ok || pl.Name == "." || pl.Name == ".." {
			continue
		}
		isDir := pl.IsDir
		if isDir == nil {
			probed := c.probeIsDir(t.URL.Path, t.URL.Join(pl.Name).Path)
			isDir = &probed
		}
		res.Entries = append(res.Entries, result.Entry{
			Name:     pl.Name,
			Metadata: result.IsDir(*isDir),
		})
	}
	return res, nil
}

// probeIsDir resolves an unknown entry type (symlinks, and any line
// the listing-format parser could not classify) by attempting to CWD
// into it, the same fallback the reference Python implementation uses.
// It always restores the working directory to parent before returning.
func (c *conn) probeIsDir(parent, entryPath string) bool {
	isDir := c.changeDir(entryPath) == nil
	c.changeDir(parent)
	return isDir
}
