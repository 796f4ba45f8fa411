package store

import (
	"bytes"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Store is the durable, multi-site, time-priority task store.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the bbolt environment at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sitesBucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: initialize: %w", err)
	}
	return &Store{db: db}, nil
}

// Update runs fn within a single read-write bbolt transaction. All
// mutations fn performs via the supplied Tx commit together, or none do
// if fn (or the commit) fails — the atomicity a single scheduler
// decision requires.
func (s *Store) Update(fn func(*Tx) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&Tx{tx: tx})
	})
}

// View runs fn within a read-only bbolt transaction.
func (s *Store) View(fn func(*Tx) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(&Tx{tx: tx})
	})
}

// Sync flushes durable buffers to disk.
func (s *Store) Sync() error {
	return s.db.Sync()
}

// Close closes the environment.
func (s *Store) Close() error {
	return s.db.Close()
}

// Len returns the sum of per-site task bucket sizes.
func (s *Store) Len() (int, error) {
	var total int
	err := s.View(func(tx *Tx) error {
		return tx.tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			if !bytes.HasPrefix(name, []byte("task:")) {
				return nil
			}
			total += b.Stats().KeyN
			return nil
		})
	})
	return total, err
}

// The following are single-call convenience wrappers around the Tx
// methods of the same name, for callers that don't need to compose
// several mutations into one transaction.

func (s *Store) RegisterSite(siteID string) error {
	return s.Update(func(tx *Tx) error { return tx.RegisterSite(siteID) })
}

func (s *Store) UnregisterSite(siteID string) error {
	return s.Update(func(tx *Tx) error { return tx.UnregisterSite(siteID) })
}

func (s *Store) PutTask(siteID string, priority int64, payload []byte) error {
	return s.Update(func(tx *Tx) error { return tx.PutTask(siteID, priority, payload) })
}

func (s *Store) PeekHead(siteID string) (priority int64, payload []byte, err error) {
	err = s.View(func(tx *Tx) error {
		priority, payload, err = tx.PeekHead(siteID)
		return err
	})
	return priority, payload, err
}

func (s *Store) PopHead(siteID string) error {
	return s.Update(func(tx *Tx) error { return tx.PopHead(siteID) })
}

func (s *Store) PutSite(priority int64, siteID string) error {
	return s.Update(func(tx *Tx) error { return tx.PutSite(priority, siteID) })
}

func (s *Store) PeekSitesHead() (priority int64, siteID string, err error) {
	err = s.View(func(tx *Tx) error {
		priority, siteID, err = tx.PeekSitesHead()
		return err
	})
	return priority, siteID, err
}

func (s *Store) PopSitesHead() error {
	return s.Update(func(tx *Tx) error { return tx.PopSitesHead() })
}

func (s *Store) ListTasks(siteID string) (entries []TaskEntry, err error) {
	err = s.View(func(tx *Tx) error {
		entries, err = tx.ListTasks(siteID)
		return err
	})
	return entries, err
}

func (s *Store) DeleteTask(siteID string, key []byte) error {
	return s.Update(func(tx *Tx) error { return tx.DeleteTask(siteID, key) })
}

// IterateSitesFromHead runs fn with a cursor over the sites bucket,
// inside its own read-write transaction (so fn may delete entries).
func (s *Store) IterateSitesFromHead(fn func(*SitesCursor) error) error {
	return s.Update(func(tx *Tx) error {
		cur, err := tx.IterateSitesFromHead()
		if err != nil {
			return err
		}
		return fn(cur)
	})
}
