// Package handler defines the protocol-agnostic capability the
// scheduler's worker pool depends on to execute a task, and a registry
// mapping URL schemes to handler instances.
package handler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cuemby/arachne/pkg/result"
	"github.com/cuemby/arachne/pkg/task"
)

// Handler lists the content of the directory named by a task. Handlers
// must be safe for concurrent use by multiple workers, and must not
// retain state between calls beyond their immutable construction-time
// configuration.
type Handler interface {
	// Scheme returns the URL scheme this handler serves, e.g. "ftp".
	Scheme() string
	// Execute lists task's directory. A PermanentError return means the
	// URL is not a directory or no longer exists; any other error is
	// treated as transient.
	Execute(ctx context.Context, t *task.Task) (*result.Result, error)
}

// PermanentError means the task's URL resolves to something that is
// not, or is no longer, a listable directory. The worker reports this
// as a found=false result rather than retrying.
type PermanentError struct {
	Reason string
}

func (e *PermanentError) Error() string { return "handler: permanent: " + e.Reason }

// TransientError wraps a network or remote-site failure that should
// cause the task to be retried after the site's error backoff.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "handler: transient: " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// Registry maps case-insensitive URL scheme to Handler.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds h under its advertised scheme. Registering the same
// scheme twice replaces the previous handler.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[strings.ToLower(h.Scheme())] = h
}

// Lookup returns the handler for scheme, or an error if none is
// registered — a configuration error.
func (r *Registry) Lookup(scheme string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[strings.ToLower(scheme)]
	if !ok {
		return nil, fmt.Errorf("handler: no handler registered for scheme %q", scheme)
	}
	return h, nil
}
