package engine

import (
	"sync"
	"time"

	"github.com/gmsas95/medremind/internal/medication"
)

// EventType names a state change
type EventType string

const (
	EventMedicineCreated EventType = "medicine.created"
	EventMedicineUpdated EventType = "medicine.updated"
	EventMedicineDeleted EventType = "medicine.deleted"
	EventLogCreated      EventType = "log.created"
	EventLogUpdated      EventType = "log.updated"
	EventAlertRaised     EventType = "alert.raised"
	EventAlertDismissed  EventType = "alert.dismissed"
)

// Event describes one committed mutation
type Event struct {
	Type       EventType                  `json:"type"`
	MedicineID string                     `json:"medicine_id,omitempty"`
	LogID      string                     `json:"log_id,omitempty"`
	Medicine   *medication.Medicine       `json:"medicine,omitempty"`
	Log        *medication.LogEntry       `json:"log,omitempty"`
	Alert      *medication.CaregiverAlert `json:"alert,omitempty"`
	At         time.Time                  `json:"at"`
}

// Broadcaster fans events out to subscribers. Sends never block; a
// subscriber whose buffer is full misses the event.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	next   int
	closed bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel of events and a func that unsubscribes and
// closes it.
func (b *Broadcaster) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
			b.mu.Unlock()
		})
	}
}

// Publish delivers ev to every subscriber with room. It returns how many
// received it.
func (b *Broadcaster) Publish(ev Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, ch := range b.subs {
		select {
		case ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

// Len returns the number of subscribers
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscriber channel
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
