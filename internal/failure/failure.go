// Package failure turns errors from the document API, the local store and
// the clipboard into user-facing messages.
package failure

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/five82/editer/internal/docapi"
	"github.com/five82/editer/internal/share"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindBadRequest
	KindServerError
	KindNetwork
	KindTimeout
	KindClipboardDenied
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindServerError:
		return "server_error"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindClipboardDenied:
		return "clipboard_denied"
	default:
		return "unknown"
	}
}

// Op names the action that failed; messages differ per action.
type Op int

const (
	OpLoad Op = iota
	OpSave
	OpShare
)

// Failure is a classified error ready to show to the user.
type Failure struct {
	Kind    Kind
	Message string
	Err     error
}

func (f Failure) Error() string {
	return f.Message
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Classify inspects err and returns its kind and message for op.
func Classify(err error, op Op) Failure {
	kind, status := kindOf(err)
	return Failure{Kind: kind, Message: message(kind, op, status, err), Err: err}
}

func kindOf(err error) (Kind, *docapi.StatusError) {
	if err == nil {
		return KindUnknown, nil
	}
	if errors.Is(err, share.ErrClipboardDenied) {
		return KindClipboardDenied, nil
	}

	var se *docapi.StatusError
	if errors.As(err, &se) {
		switch {
		case se.Status == http.StatusNotFound:
			return KindNotFound, se
		case se.Status == http.StatusBadRequest || se.Status == http.StatusUnprocessableEntity:
			return KindBadRequest, se
		case se.Status == http.StatusRequestTimeout || se.Status == http.StatusGatewayTimeout:
			return KindTimeout, se
		case se.Status >= 500:
			return KindServerError, se
		default:
			return KindUnknown, se
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout, nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout, nil
	}

	var re *docapi.RequestError
	if errors.As(err, &re) {
		return KindNetwork, nil
	}
	if netErr != nil {
		return KindNetwork, nil
	}
	return KindUnknown, nil
}

func message(kind Kind, op Op, se *docapi.StatusError, err error) string {
	switch kind {
	case KindNotFound:
		if op == OpSave {
			return "Document no longer exists on the server. Create a new online document to keep your changes."
		}
		return "Document not found. It may have been deleted or the link is incorrect."
	case KindBadRequest:
		if op == OpLoad {
			return "Invalid document ID. Please check the address."
		}
		return "The server rejected the document. Please check its content."
	case KindServerError:
		if op == OpLoad {
			return "Server error while loading document. Please try again later."
		}
		return "Server error while saving. Please try again later."
	case KindNetwork:
		return "Network error. Please check your connection and try again."
	case KindTimeout:
		return "Request timeout. Please try again."
	case KindClipboardDenied:
		var denied *share.DeniedError
		if errors.As(err, &denied) && denied.URL != "" {
			return "Couldn't copy to the clipboard. Copy the link manually: " + denied.URL
		}
		return "Couldn't copy to the clipboard. Copy the link manually."
	}

	if se != nil {
		return fmt.Sprintf("Server error (%d): %s", se.Status, se.StatusText)
	}
	if err == nil {
		return "Unknown error"
	}
	text := strings.TrimSpace(err.Error())
	if text == "" {
		text = "Unknown error"
	}
	return "Unexpected error: " + text
}
