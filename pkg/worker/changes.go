package worker

import "sync"

// changeTracker is a best-effort, in-memory record of the most recent
// entry-name set seen for each directory URL, used to decide the
// PutRevisited `changed` flag. The durable Task record carries no
// entry list (see DESIGN.md's "changed detection" decision), so this is
// intentionally not durable: a process restart loses it, and the next
// revisit after a restart is conservatively reported as changed.
type changeTracker struct {
	mu   sync.Mutex
	seen map[string]map[string]struct{}
}

func newChangeTracker() *changeTracker {
	return &changeTracker{seen: make(map[string]map[string]struct{})}
}

// observe compares names against the previously recorded set for key,
// records names as the new set, and reports whether the set differed
// (a key with no prior recording is reported as changed).
func (c *changeTracker) observe(key string, names []string) (changed bool) {
	next := make(map[string]struct{}, len(names))
	for _, n := range names {
		next[n] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	prev, ok := c.seen[key]
	c.seen[key] = next
	if !ok {
		return true
	}
	return !sameSet(prev, next)
}

// forget drops any recorded snapshot for key, e.g. when its site is
// removed from configuration.
func (c *changeTracker) forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.seen, key)
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
