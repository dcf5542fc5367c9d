// Package share copies a document's share link to the system clipboard.
package share

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/five82/editer/internal/nav"
)

var (
	// ErrNotShareable is returned for documents that only exist locally.
	ErrNotShareable = errors.New("document is not saved online yet")
	// ErrClipboardDenied matches every clipboard write failure.
	ErrClipboardDenied = errors.New("clipboard access denied")
)

// DeniedError reports a clipboard failure together with the link the user
// should copy by hand.
type DeniedError struct {
	URL string
	Err error
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("copy share link: %v", e.Err)
}

func (e *DeniedError) Unwrap() []error {
	return []error{ErrClipboardDenied, e.Err}
}

// Clipboard writes text to a clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard uses the OS clipboard.
type SystemClipboard struct{}

// WriteAll implements Clipboard.
func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errors.New("no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}

// Sharer builds share links and copies them.
type Sharer struct {
	baseURL string
	clip    Clipboard
}

// New returns a Sharer for links under baseURL. A nil clip uses the system
// clipboard.
func New(baseURL string, clip Clipboard) *Sharer {
	if clip == nil {
		clip = SystemClipboard{}
	}
	return &Sharer{baseURL: baseURL, clip: clip}
}

// Link returns the share link for shareID.
func (s *Sharer) Link(shareID string) (string, error) {
	if strings.TrimSpace(shareID) == "" {
		return "", ErrNotShareable
	}
	return nav.ShareURL(s.baseURL, shareID), nil
}

// Share copies the link for shareID and returns it. On clipboard failure the
// link is still returned, wrapped in a *DeniedError.
func (s *Sharer) Share(shareID string) (string, error) {
	link, err := s.Link(shareID)
	if err != nil {
		return "", err
	}
	if err := s.clip.WriteAll(link); err != nil {
		return link, &DeniedError{URL: link, Err: err}
	}
	return link, nil
}
