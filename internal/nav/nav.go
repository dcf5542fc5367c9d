// Package nav models the editor's navigable address, the /edit/{shareId}
// path a document is reachable under.
package nav

import (
	"net/url"
	"strings"
	"sync"
)

const editPrefix = "/edit/"

// EditPath returns the address of a persisted document.
func EditPath(shareID string) string {
	shareID = strings.TrimSpace(shareID)
	if shareID == "" {
		return "/"
	}
	return editPrefix + shareID
}

// Parse extracts a share id from a command-line argument. It accepts a bare
// id ("abc123"), a path ("/edit/abc123") or a full URL. An empty result means
// the argument does not address a document.
func Parse(arg string) string {
	trimmed := strings.TrimSpace(arg)
	if trimmed == "" {
		return ""
	}
	if strings.Contains(trimmed, "://") {
		u, err := url.Parse(trimmed)
		if err != nil {
			return ""
		}
		trimmed = u.Path
	}
	if strings.HasPrefix(trimmed, "/") || strings.HasPrefix(trimmed, "edit/") {
		path := "/" + strings.TrimPrefix(trimmed, "/")
		if !strings.HasPrefix(path, editPrefix) {
			return ""
		}
		trimmed = strings.TrimPrefix(path, editPrefix)
	}
	trimmed = strings.Trim(trimmed, "/")
	if trimmed == "" || strings.ContainsAny(trimmed, "/?# ") {
		return ""
	}
	return trimmed
}

// Location holds the current address. It is safe for concurrent use.
type Location struct {
	mu   sync.RWMutex
	path string
}

// NewLocation starts at the address for shareID ("/" when empty).
func NewLocation(shareID string) *Location {
	return &Location{path: EditPath(shareID)}
}

// Path returns the current address.
func (l *Location) Path() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.path
}

// ShareID returns the share id embedded in the address, if any.
func (l *Location) ShareID() string {
	return Parse(l.Path())
}

// Replace rewrites the address in place without loading anything.
func (l *Location) Replace(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.path = path
}

// ShareURL joins base and the address for shareID.
func ShareURL(base, shareID string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	return base + EditPath(shareID)
}
