// Package notify keeps the short-lived messages shown in the status footer.
package notify

import (
	"sync"
	"time"
)

// Level is the severity of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

const (
	DefaultDuration = 3 * time.Second
	ErrorDuration   = 5 * time.Second
	maxQueued       = 32
)

// Notification is a single message.
type Notification struct {
	ID        int
	Level     Level
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Center queues notifications. The zero value is ready to use.
type Center struct {
	mu     sync.Mutex
	items  []Notification
	nextID int
	now    func() time.Time
}

// NewCenter returns an empty Center.
func NewCenter() *Center {
	return &Center{}
}

func (c *Center) Success(msg string) int { return c.Add(LevelSuccess, msg, 0) }
func (c *Center) Info(msg string) int    { return c.Add(LevelInfo, msg, 0) }
func (c *Center) Warning(msg string) int { return c.Add(LevelWarning, msg, 0) }
func (c *Center) Error(msg string) int   { return c.Add(LevelError, msg, 0) }

// Add queues msg. A zero duration picks the default for level.
func (c *Center) Add(level Level, msg string, d time.Duration) int {
	if d <= 0 {
		d = DefaultDuration
		if level == LevelError {
			d = ErrorDuration
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	c.nextID++
	c.items = append(c.items, Notification{
		ID:        c.nextID,
		Level:     level,
		Message:   msg,
		CreatedAt: now,
		ExpiresAt: now.Add(d),
	})
	if len(c.items) > maxQueued {
		c.items = append([]Notification(nil), c.items[len(c.items)-maxQueued:]...)
	}
	return c.nextID
}

// Dismiss removes a notification; id 0 removes all of them.
func (c *Center) Dismiss(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == 0 {
		c.items = nil
		return
	}
	kept := c.items[:0]
	for _, n := range c.items {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	c.items = kept
}

// Active drops expired notifications and returns the rest, oldest first.
func (c *Center) Active(now time.Time) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.items[:0]
	for _, n := range c.items {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	c.items = kept
	if len(kept) == 0 {
		return nil
	}
	return append([]Notification(nil), kept...)
}

// Latest returns the newest active notification.
func (c *Center) Latest(now time.Time) (Notification, bool) {
	active := c.Active(now)
	if len(active) == 0 {
		return Notification{}, false
	}
	return active[len(active)-1], true
}

func (c *Center) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}
