package app

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/five82/editer/internal/state"
	"github.com/five82/editer/internal/storage"
)

const (
	defaultResubscribeDelay = time.Second
	maxBackoff              = 30 * time.Second
)

// Subscriber streams change notifications for a key.
type Subscriber interface {
	Subscribe(ctx context.Context, key string) (<-chan storage.Change, error)
}

// StartSync launches a background goroutine that applies temporary-document
// writes made by other editer processes sharing the store. It returns
// immediately; the returned channel is closed once the loop has exited.
// Lost subscriptions are re-established with exponential backoff. Backends
// without change notification end the loop at once.
func StartSync(ctx context.Context, docs *state.DocumentStore, sub Subscriber, logger *log.Logger, retry time.Duration) <-chan struct{} {
	if retry <= 0 {
		retry = defaultResubscribeDelay
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		failures := 0
		for {
			changes, err := sub.Subscribe(ctx, state.StorageKey)
			switch {
			case errors.Is(err, storage.ErrNotifyUnsupported):
				logger.Info("store has no change feed, cross-process sync disabled")
				return
			case err != nil:
				failures++
				logger.Warn("subscribe failed", "err", err, "failures", failures)
			default:
				failures = 0
				consume(changes, docs, logger)
				if ctx.Err() != nil {
					return
				}
				failures++
				logger.Warn("change feed closed, resubscribing")
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(calculateBackoff(failures-1, retry)):
			}
		}
	}()
	return done
}

func consume(changes <-chan storage.Change, docs *state.DocumentStore, logger *log.Logger) {
	for change := range changes {
		if docs.HandleStorageEvent(change.Value) {
			logger.Debug("applied document from another session", "bytes", len(change.Value))
		}
	}
}

// calculateBackoff doubles base for every failure past the first, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
