package scheduler

import "errors"

// ErrEmptyQueue means no task is due anywhere. It is not a failure;
// callers poll again later.
var ErrEmptyQueue = errors.New("scheduler: empty queue")

// ErrClosed is returned by any method called after Close.
var ErrClosed = errors.New("scheduler: closed")
