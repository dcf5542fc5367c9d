package storage

import (
	"bytes"
	"context"
	"sync"
)

const subscriberBuffer = 16

// MemoryBackend keeps values in process memory. Subscribers see every write,
// including their own process's, which makes it useful for simulating several
// editors sharing one store.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
	subs map[string]map[int]chan Change
	next int
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: make(map[string][]byte),
		subs: make(map[string]map[int]chan Change),
	}
}

// Get implements Backend.
func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(value), nil
}

// Set implements Backend.
func (b *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	b.data[key] = bytes.Clone(value)
	b.mu.Unlock()
	b.publish(Change{Key: key, Value: bytes.Clone(value)})
	return nil
}

// Delete implements Backend.
func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	_, existed := b.data[key]
	delete(b.data, key)
	b.mu.Unlock()
	if existed {
		b.publish(Change{Key: key})
	}
	return nil
}

// Subscribe implements Notifier.
func (b *MemoryBackend) Subscribe(ctx context.Context, key string) (<-chan Change, error) {
	ch := make(chan Change, subscriberBuffer)

	b.mu.Lock()
	id := b.next
	b.next++
	if b.subs[key] == nil {
		b.subs[key] = make(map[int]chan Change)
	}
	b.subs[key][id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs[key], id)
		b.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

func (b *MemoryBackend) publish(change Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[change.Key] {
		select {
		case ch <- change:
		default:
			// Slow subscriber; it will pick up the next write.
		}
	}
}
