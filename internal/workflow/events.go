package workflow

import (
	"sync"
	"time"
)

// EventType classifies workflow events
type EventType string

const (
	EventStarted  EventType = "started"
	EventStage    EventType = "stage"
	EventStatus   EventType = "status"
	EventTick     EventType = "tick"
	EventDownload EventType = "download"
	EventComplete EventType = "complete"
)

// Event is a sequenced progress update
type Event struct {
	Seq            int64        `json:"seq"`
	Timestamp      time.Time    `json:"timestamp"`
	RunID          string       `json:"run_id"`
	Type           EventType    `json:"type"`
	Stage          Stage        `json:"stage,omitempty"`
	Message        string       `json:"message,omitempty"`
	ElapsedSeconds int          `json:"elapsed_seconds"`
	ProfileName    string       `json:"profile_name,omitempty"`
	JobLink        string       `json:"job_link,omitempty"`
	Filename       string       `json:"filename,omitempty"`
	Outcome        Outcome      `json:"outcome,omitempty"`
	Kind           ErrorKind    `json:"kind,omitempty"`
	Error          string       `json:"error,omitempty"`
	Run            *PipelineRun `json:"run,omitempty"` // final snapshot, set on complete
}

// subscriberBuffer bounds each subscriber channel; events beyond it are dropped for that subscriber
const subscriberBuffer = 256

// EventBus keeps recent events for polling and fans them out to subscribers
type EventBus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
	subs      map[int]chan Event
	nextSub   int
	closed    bool
}

// NewEventBus creates a bounded in-memory event buffer
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}
	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
		subs:      make(map[int]chan Event),
	}
}

// Publish assigns sequence and timestamp, stores the event, and delivers it to subscribers.
// After Close it returns the event unsequenced and delivers nothing.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return event
	}

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return event
}

// Since returns events with sequence strictly greater than seq
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}

// Subscribe returns a channel receiving every event published from now on,
// and a function that unsubscribes and closes the channel.
func (b *EventBus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextSub
	b.nextSub++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Close closes every subscriber channel and ignores later publishes
func (b *EventBus) Close() {
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
