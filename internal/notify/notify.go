// Package notify is the process-wide single-slot queue for transient
// user-facing messages. A new message pre-empts whatever is showing; the
// auto-dismiss timer restarts with it. There is no queueing and no
// coalescing of duplicates.
package notify

import (
	"sync"
	"time"
)

type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Info    Severity = "info"
	Warning Severity = "warning"
)

type Notification struct {
	Message  string
	Severity Severity
}

type Broadcaster struct {
	mu      sync.Mutex
	current *Notification
	timer   *time.Timer
	ttl     time.Duration
	seq     uint64
}

// NewBroadcaster creates a broadcaster whose notifications auto-dismiss
// after ttl, typically a few seconds.
func NewBroadcaster(ttl time.Duration) *Broadcaster {
	return &Broadcaster{ttl: ttl}
}

// Notify replaces the current notification and restarts the dismiss
// timer.
func (b *Broadcaster) Notify(message string, severity Severity) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = &Notification{Message: message, Severity: severity}
	b.seq++
	seq := b.seq

	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.ttl, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		// Only dismiss the notification this timer was armed for.
		if b.seq == seq {
			b.current = nil
		}
	})
}

// Dismiss hides the current notification immediately.
func (b *Broadcaster) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = nil
	b.seq++
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// Current returns the visible notification, or nil.
func (b *Broadcaster) Current() *Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return nil
	}
	snapshot := *b.current
	return &snapshot
}
