package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const fileSuffix = ".json"

// FileBackend stores each key as a JSON file in one directory. Every editer
// process pointed at the same directory shares the keys.
type FileBackend struct {
	dir    string
	logger *log.Logger
}

// NewFileBackend creates dir if needed.
func NewFileBackend(dir string, logger *log.Logger) (*FileBackend, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("store dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &FileBackend{dir: dir, logger: logger}, nil
}

// Dir returns the directory holding the key files.
func (b *FileBackend) Dir() string {
	return b.dir
}

// Get implements Backend.
func (b *FileBackend) Get(_ context.Context, key string) ([]byte, error) {
	path, err := b.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

// Set implements Backend. The value is written to a temporary file and
// renamed into place so readers never see a partial write.
func (b *FileBackend) Set(_ context.Context, key string, value []byte) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(b.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// Delete implements Backend.
func (b *FileBackend) Delete(_ context.Context, key string) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Subscribe implements Notifier by watching the store directory.
// Consecutive identical contents are reported once.
func (b *FileBackend) Subscribe(ctx context.Context, key string) (<-chan Change, error) {
	path, err := b.path(key)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(b.dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", b.dir, err)
	}

	ch := make(chan Change, subscriberBuffer)
	go func() {
		defer close(ch)
		defer func() { _ = watcher.Close() }()

		var last []byte
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) {
					continue
				}
				data, err := os.ReadFile(path)
				if errors.Is(err, os.ErrNotExist) {
					data = nil
				} else if err != nil {
					b.logger.Warn("read changed store file", "key", key, "err", err)
					continue
				}
				if last != nil && bytes.Equal(last, data) {
					continue
				}
				last = data
				select {
				case ch <- Change{Key: key, Value: data}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				b.logger.Warn("store watcher error", "err", err)
			}
		}
	}()
	return ch, nil
}

func (b *FileBackend) path(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" || strings.ContainsAny(trimmed, `/\`) || strings.Contains(trimmed, "..") {
		return "", fmt.Errorf("invalid store key %q", key)
	}
	return filepath.Join(filepath.Clean(b.dir), trimmed+fileSuffix), nil
}
