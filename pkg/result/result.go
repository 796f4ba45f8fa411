// Package result defines the listing outcome a handler produces for a
// single task.
package result

import "github.com/cuemby/arachne/pkg/crawlurl"

// EntryMetadata carries what a handler learned about a directory entry.
// IsDir is nil when the handler could not determine whether the entry
// is a directory.
type EntryMetadata struct {
	IsDir *bool
}

// Entry is one listed directory member.
type Entry struct {
	Name     string
	Metadata EntryMetadata
}

// Result is the outcome of listing a directory. Found is false when the
// URL existed as an entry but was not a directory, or no longer exists;
// in that case Entries is empty.
type Result struct {
	SiteID  string
	URL     crawlurl.URL
	Found   bool
	Entries []Entry
}

// DirEntryNames returns the names of entries known (or assumed unknown)
// to be directories, i.e. those whose IsDir is nil or true.
func (r *Result) DirEntryNames() []string {
	var names []string
	for _, e := range r.Entries {
		if e.Metadata.IsDir == nil || *e.Metadata.IsDir {
			names = append(names, e.Name)
		}
	}
	return names
}

func boolPtr(b bool) *bool { return &b }

// IsDir builds an EntryMetadata with a known directory flag.
func IsDir(v bool) EntryMetadata { return EntryMetadata{IsDir: boolPtr(v)} }

// UnknownIsDir builds an EntryMetadata whose directory status is
// unknown to the handler.
func UnknownIsDir() EntryMetadata { return EntryMetadata{} }
