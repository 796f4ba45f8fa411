package store

import bolt "go.etcd.io/bbolt"

// Tx bundles the store operations available within a single bbolt
// transaction, so callers that need several mutations to commit
// together (the scheduler's dispatch decision, its outcome-reporting
// methods) can compose them without re-entering the database.
type Tx struct {
	tx *bolt.Tx
}

// RegisterSite creates the per-site bucket if it does not already
// exist. Idempotent.
func (t *Tx) RegisterSite(siteID string) error {
	_, err := t.tx.CreateBucketIfNotExists(taskBucketName(siteID))
	return err
}

// UnregisterSite removes the per-site bucket. A bucket that was never
// created is a no-op.
func (t *Tx) UnregisterSite(siteID string) error {
	err := t.tx.DeleteBucket(taskBucketName(siteID))
	if err == bolt.ErrBucketNotFound {
		return nil
	}
	return err
}

// HasSite reports whether the per-site bucket exists.
func (t *Tx) HasSite(siteID string) bool {
	return t.tx.Bucket(taskBucketName(siteID)) != nil
}

// PutTask appends a task record under the given priority, with
// duplicates allowed (distinguished by an internal sequence number).
func (t *Tx) PutTask(siteID string, priority int64, payload []byte) error {
	b := t.tx.Bucket(taskBucketName(siteID))
	if b == nil {
		return &ErrUnknownSite{SiteID: siteID}
	}
	seq, err := b.NextSequence()
	if err != nil {
		return err
	}
	return b.Put(encodeKey(priority, seq), payload)
}

// PeekHead returns the lowest-keyed task for a site without removing
// it.
func (t *Tx) PeekHead(siteID string) (priority int64, payload []byte, err error) {
	b := t.tx.Bucket(taskBucketName(siteID))
	if b == nil {
		return 0, nil, &ErrUnknownSite{SiteID: siteID}
	}
	k, v := b.Cursor().First()
	if k == nil {
		return 0, nil, &ErrEmpty{Bucket: string(taskBucketName(siteID))}
	}
	priority, _, err = decodeKey(k)
	if err != nil {
		return 0, nil, &ErrCorrupt{Bucket: string(taskBucketName(siteID)), Reason: err}
	}
	out := make([]byte, len(v))
	copy(out, v)
	return priority, out, nil
}

// PopHead removes the lowest-keyed task for a site.
func (t *Tx) PopHead(siteID string) error {
	b := t.tx.Bucket(taskBucketName(siteID))
	if b == nil {
		return &ErrUnknownSite{SiteID: siteID}
	}
	c := b.Cursor()
	k, _ := c.First()
	if k == nil {
		return &ErrEmpty{Bucket: string(taskBucketName(siteID))}
	}
	return c.Delete()
}

// TaskBucketEmpty reports whether a site's task bucket has no entries.
// Returns true for a site that was never registered, so callers that
// already checked HasSite can use this directly.
func (t *Tx) TaskBucketEmpty(siteID string) bool {
	b := t.tx.Bucket(taskBucketName(siteID))
	if b == nil {
		return true
	}
	k, _ := b.Cursor().First()
	return k == nil
}

// TaskEntry is one record returned by ListTasks: its priority, its
// composite storage key (opaque, for use with DeleteTask), and its
// serialized payload.
type TaskEntry struct {
	Priority int64
	Key      []byte
	Payload  []byte
}

// ListTasks returns every task currently queued for siteID, in
// priority order, for operator inspection tools. Corrupt keys are
// skipped rather than aborting the walk.
func (t *Tx) ListTasks(siteID string) ([]TaskEntry, error) {
	b := t.tx.Bucket(taskBucketName(siteID))
	if b == nil {
		return nil, &ErrUnknownSite{SiteID: siteID}
	}
	var out []TaskEntry
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		priority, _, err := decodeKey(k)
		if err != nil {
			continue
		}
		key := make([]byte, len(k))
		copy(key, k)
		payload := make([]byte, len(v))
		copy(payload, v)
		out = append(out, TaskEntry{Priority: priority, Key: key, Payload: payload})
	}
	return out, nil
}

// DeleteTask removes a single task entry by its exact composite key,
// the operator "forget" primitive: `cmd/arachne queue forget` resolves
// a URL to a key via ListTasks, then calls this.
func (t *Tx) DeleteTask(siteID string, key []byte) error {
	b := t.tx.Bucket(taskBucketName(siteID))
	if b == nil {
		return &ErrUnknownSite{SiteID: siteID}
	}
	return b.Delete(key)
}

func (t *Tx) sitesBucket() (*bolt.Bucket, error) {
	return t.tx.CreateBucketIfNotExists(sitesBucketName)
}

// PutSite schedules a site for visit at the given priority.
func (t *Tx) PutSite(priority int64, siteID string) error {
	b, err := t.sitesBucket()
	if err != nil {
		return err
	}
	seq, err := b.NextSequence()
	if err != nil {
		return err
	}
	return b.Put(encodeKey(priority, seq), []byte(siteID))
}

// PeekSitesHead returns the earliest-due scheduled site without
// removing it.
func (t *Tx) PeekSitesHead() (priority int64, siteID string, err error) {
	b, err := t.sitesBucket()
	if err != nil {
		return 0, "", err
	}
	k, v := b.Cursor().First()
	if k == nil {
		return 0, "", &ErrEmpty{Bucket: "sites"}
	}
	priority, _, err = decodeKey(k)
	if err != nil {
		return 0, "", &ErrCorrupt{Bucket: "sites", Reason: err}
	}
	return priority, string(v), nil
}

// PopSitesHead removes the earliest-due scheduled site entry.
func (t *Tx) PopSitesHead() error {
	b, err := t.sitesBucket()
	if err != nil {
		return err
	}
	c := b.Cursor()
	k, _ := c.First()
	if k == nil {
		return &ErrEmpty{Bucket: "sites"}
	}
	return c.Delete()
}

// SitesCursor is a cursor over the sites bucket, ordered from the head,
// able to advance and delete the current entry in place. It backs the
// scheduler's dispatch walk, which must sweep stale site entries and
// skip not-yet-due ones without losing its place.
type SitesCursor struct {
	cursor   *bolt.Cursor
	key, val []byte
}

// IterateSitesFromHead opens a cursor positioned at the sites bucket's
// head.
func (t *Tx) IterateSitesFromHead() (*SitesCursor, error) {
	b, err := t.sitesBucket()
	if err != nil {
		return nil, err
	}
	c := b.Cursor()
	k, v := c.First()
	return &SitesCursor{cursor: c, key: k, val: v}, nil
}

// Valid reports whether the cursor is positioned on an entry.
func (c *SitesCursor) Valid() bool { return c.key != nil }

// Priority returns the current entry's priority. Valid must be true.
func (c *SitesCursor) Priority() (int64, error) {
	priority, _, err := decodeKey(c.key)
	if err != nil {
		return 0, &ErrCorrupt{Bucket: "sites", Reason: err}
	}
	return priority, nil
}

// SiteID returns the current entry's site id. Valid must be true.
func (c *SitesCursor) SiteID() string { return string(c.val) }

// Next advances the cursor, returning false once there is no further
// entry.
func (c *SitesCursor) Next() bool {
	c.key, c.val = c.cursor.Next()
	return c.key != nil
}

// Delete removes the entry currently under the cursor. The cursor
// position is preserved per bbolt semantics (pointing at the next
// entry after a subsequent Next call).
func (c *SitesCursor) Delete() error {
	return c.cursor.Delete()
}
