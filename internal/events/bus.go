package events

import (
	"log/slog"
	"sync"
	"time"
)

// Type enumerates progress events pushed to connected clients.
type Type string

const (
	TypePurchaseRecorded     Type = "purchase_recorded"
	TypeLessonValidated      Type = "lesson_validated"
	TypeCertificationGranted Type = "certification_granted"
)

// Event is a progress notification for one user.
type Event struct {
	Type       Type      `json:"type"`
	UserID     string    `json:"userId"`
	LessonID   string    `json:"lessonId,omitempty"`
	CursusID   string    `json:"cursusId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Bus is an in-process pub/sub channel fanning progress events out to
// per-user subscribers (the /ws/progress websocket). Slow subscribers drop
// events instead of blocking the publisher.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]chan Event // userID -> subscriber channels
	logger *slog.Logger
	closed bool
}

// NewBus creates a new event bus
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[string][]chan Event),
		logger: logger,
	}
}

// Publish delivers the event to every subscriber of its user. Never blocks.
func (b *Bus) Publish(ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	for _, ch := range b.subs[ev.UserID] {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("dropping progress event for slow subscriber",
				slog.String("user_id", ev.UserID),
				slog.String("type", string(ev.Type)),
			)
		}
	}
}

// Subscribe registers a subscriber for one user's events. The returned
// cancel function must be called when the subscriber goes away.
func (b *Bus) Subscribe(userID string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	b.mu.Lock()
	b.subs[userID] = append(b.subs[userID], ch)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		chans := b.subs[userID]
		for i, c := range chans {
			if c == ch {
				b.subs[userID] = append(chans[:i], chans[i+1:]...)
				break
			}
		}
		if len(b.subs[userID]) == 0 {
			delete(b.subs, userID)
		}
		close(ch)
	}
	return ch, cancel
}

// Close stops delivery; pending subscriber channels stay open until their
// cancel functions run.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}
