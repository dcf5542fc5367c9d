package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

var (
	// ErrNotFound is returned by backends when a key holds no value.
	ErrNotFound = errors.New("storage: key not found")
	// ErrNotifyUnsupported is returned by Subscribe when the backend cannot
	// report changes made by other processes.
	ErrNotifyUnsupported = errors.New("storage: backend does not support change notification")
)

// Backend is the raw key/value persistence mechanism.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Notifier is implemented by backends that can report writes made by other
// processes sharing the same keys.
type Notifier interface {
	Subscribe(ctx context.Context, key string) (<-chan Change, error)
}

// Change is a backend write notification. Value is the full serialized
// envelope, or nil when the key was deleted. Subscriptions end when the
// channel is closed.
type Change struct {
	Key   string
	Value []byte
}

// Store reads and writes versioned envelopes on top of a Backend.
type Store struct {
	backend    Backend
	name       string
	migrations Migrations
	version    string
	logger     *log.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithVersion overrides the schema version (CurrentVersion by default).
func WithVersion(version string) Option {
	return func(s *Store) {
		if version != "" {
			s.version = version
		}
	}
}

// WithLogger sets the logger used for degraded reads and writes.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a Store. name only labels errors and log lines.
func New(backend Backend, name string, migrations Migrations, opts ...Option) *Store {
	s := &Store{
		backend:    backend,
		name:       name,
		migrations: migrations,
		version:    CurrentVersion,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Version returns the schema version the store writes.
func (s *Store) Version() string {
	return s.version
}

// Load reads key and upgrades it to the current schema version. ok is false
// when nothing is stored. A non-nil error is advisory: env still holds
// whatever could be read (the raw, unmigrated envelope when a migration
// failed) and callers keep working with it.
func (s *Store) Load(ctx context.Context, key string) (env Envelope, ok bool, err error) {
	raw, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return Envelope{}, false, nil
	}
	if err != nil {
		return Envelope{}, false, fmt.Errorf("%s: read %s: %w", s.name, key, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return Envelope{}, false, nil
	}
	env, err = s.Parse(raw)
	if err != nil {
		if env.Fields == nil {
			return Envelope{}, false, err
		}
		return env, true, err
	}
	return env, true, nil
}

// Parse decodes a serialized envelope, such as a change notification
// payload, and applies pending migrations.
func (s *Store) Parse(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.logger.Warn("stored envelope is corrupt", "store", s.name, "err", err)
		return Envelope{}, fmt.Errorf("%s: decode envelope: %w", s.name, err)
	}
	migrated, err := s.migrate(env)
	if err != nil {
		s.logger.Warn("migration failed, using stored data as-is", "store", s.name, "from", env.Version, "err", err)
		return env, err
	}
	if migrated.Migrated {
		s.logger.Info("migrated stored envelope", "store", s.name, "from", env.Version, "to", migrated.Version)
	}
	return migrated, nil
}

func (s *Store) migrate(env Envelope) (out Envelope, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: migrate from %s: %v", s.name, env.Version, r)
		}
	}()
	return s.migrations.Apply(env, s.version), nil
}

// Save stamps env with the current version and writes it. If that write
// fails the un-versioned fields are written instead so user data is not
// lost; the returned error is then advisory.
func (s *Store) Save(ctx context.Context, key string, env Envelope) error {
	versioned := env.Clone()
	versioned.Version = s.version

	data, err := json.Marshal(versioned)
	if err == nil {
		err = s.backend.Set(ctx, key, data)
		if err == nil {
			return nil
		}
	}

	plain, perr := json.Marshal(env.fields())
	if perr != nil {
		return fmt.Errorf("%s: save %s: %w", s.name, key, errors.Join(err, perr))
	}
	if serr := s.backend.Set(ctx, key, plain); serr != nil {
		return fmt.Errorf("%s: save %s: %w", s.name, key, errors.Join(err, serr))
	}
	s.logger.Warn("saved without version tag", "store", s.name, "key", key, "err", err)
	return fmt.Errorf("%s: saved %s without version: %w", s.name, key, err)
}

// Clear removes key. Missing keys are not an error.
func (s *Store) Clear(ctx context.Context, key string) error {
	if err := s.backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%s: clear %s: %w", s.name, key, err)
	}
	return nil
}

// Subscribe streams writes to key made through the shared backend.
func (s *Store) Subscribe(ctx context.Context, key string) (<-chan Change, error) {
	n, ok := s.backend.(Notifier)
	if !ok {
		return nil, ErrNotifyUnsupported
	}
	return n.Subscribe(ctx, key)
}
