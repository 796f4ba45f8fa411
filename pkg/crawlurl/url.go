package crawlurl

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// URL is an immutable, canonicalized location within a site.
//
// Equality and hashing are over the canonical string form: two URLs
// compare equal via Key iff String would produce the same text, even if
// their IsRoot flags differ.
type URL struct {
	Scheme   string
	Username string // empty if absent
	Password string // empty if absent
	HasAuth  bool
	Host     string // empty if absent (e.g. "file" URLs)
	Port     int    // 0 if absent
	Path     string // absolute, leading "/"
	IsRoot   bool
}

// Parse decodes a raw URL. raw is tried as UTF-8 first; if that produces
// invalid runes, it is re-decoded as Windows-1252 with replacement on
// any byte that still fails to map, per the fallback rule in the package
// doc comment.
func Parse(raw string, isRoot bool) (URL, error) {
	text := decodeText(raw)

	u, err := url.Parse(text)
	if err != nil {
		return URL{}, fmt.Errorf("crawlurl: parse %q: %w", raw, err)
	}
	if u.Scheme == "" {
		return URL{}, fmt.Errorf("crawlurl: %q has no scheme", raw)
	}

	out := URL{
		Scheme: strings.ToLower(u.Scheme),
		Host:   u.Hostname(),
		IsRoot: isRoot,
	}
	if u.User != nil {
		out.HasAuth = true
		out.Username = u.User.Username()
		out.Password, _ = u.User.Password()
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return URL{}, fmt.Errorf("crawlurl: %q has invalid port: %w", raw, err)
		}
		out.Port = port
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	out.Path = canonicalPath(path, isRoot)

	return out, nil
}

// decodeText returns text decoded as UTF-8 when valid, falling back to
// Windows-1252 (with replacement characters for undecodable bytes)
// otherwise.
func decodeText(raw string) string {
	if utf8.ValidString(raw) {
		return raw
	}
	decoded, err := charmap.Windows1252.NewDecoder().String(raw)
	if err != nil {
		// Windows1252 covers every byte value, so this path is only hit
		// for inputs already mangled beyond recovery; fall back to the
		// stdlib's lossy UTF-8 replacement.
		return strings.ToValidUTF8(raw, "�")
	}
	return decoded
}

// canonicalPath normalizes a path: a trailing slash is stripped unless
// the path is the root "/".
func canonicalPath(path string, isRoot bool) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if path != "/" {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	_ = isRoot
	return path
}

// String returns the canonical string form of the URL.
func (u URL) String() string {
	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	if u.HasAuth {
		b.WriteString(u.Username)
		if u.Password != "" {
			b.WriteByte(':')
			b.WriteString(u.Password)
		}
		b.WriteByte('@')
	}
	b.WriteString(u.Host)
	if u.Port != 0 {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(u.Port))
	}
	b.WriteString(u.Path)
	return b.String()
}

// Key returns the canonical string form, for use as a map key.
func (u URL) Key() string {
	return u.String()
}

// Dirname returns the path of the parent directory, or "/" at the root.
func (u URL) Dirname() string {
	if u.Path == "/" {
		return "/"
	}
	idx := strings.LastIndexByte(u.Path, '/')
	if idx <= 0 {
		return "/"
	}
	return u.Path[:idx]
}

// Basename returns the final path segment, or "/" at the root.
func (u URL) Basename() string {
	if u.Path == "/" {
		return "/"
	}
	idx := strings.LastIndexByte(u.Path, '/')
	return u.Path[idx+1:]
}

// Join returns a new, non-root URL whose path is the receiver's path
// with name appended as a child segment, independent of whether the
// receiver's path carries a trailing slash.
func (u URL) Join(name string) URL {
	name = strings.Trim(name, "/")
	base := u.Path
	if base == "/" {
		base = ""
	}
	child := u
	child.IsRoot = false
	child.Path = base + "/" + name
	return child
}
