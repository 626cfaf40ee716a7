package room

import (
	"fmt"
	"time"
)

// MaxLogEvents is the number of recent events retained per room. Clients that
// poll less often than the eviction rate silently lose history; the next
// state fetch re-synchronizes them.
const MaxLogEvents = 300

// Kind discriminates the event payload type.
type Kind string

const (
	KindVideoUpdated Kind = "video-updated"
	KindPlayerSync   Kind = "player-sync"
	KindChatMessage  Kind = "chat-message"
)

// Event is one entry in a room's event log. At is unix milliseconds and is
// non-decreasing within a room; ID is "<at>-<seq>" where seq is a per-room
// monotonic counter, so IDs are unique and strictly ordered even when two
// events share a millisecond.
type Event struct {
	ID   string      `json:"id"`
	Type Kind        `json:"type"`
	Data interface{} `json:"data"`
	At   int64       `json:"at"`
}

// EventLog is a fixed-size ring of the most recent room events. It is not
// goroutine-safe on its own: the owning Room serializes access so that a
// state mutation and its event append form one atomic unit.
type EventLog struct {
	items  [MaxLogEvents]Event
	pos    int
	count  int
	seq    uint64
	lastAt int64
	now    func() time.Time
}

// NewEventLog creates an empty log using the given clock.
func NewEventLog(now func() time.Time) *EventLog {
	if now == nil {
		now = time.Now
	}
	return &EventLog{now: now}
}

// Append records an event of the given kind, stamping it with the current
// time and the next sequence number. If the log is full the oldest event is
// overwritten. Append always succeeds.
func (l *EventLog) Append(kind Kind, data interface{}) Event {
	at := l.now().UnixMilli()
	if at < l.lastAt {
		// Clock went backwards; hold the line so ordering stays intact.
		at = l.lastAt
	}
	l.lastAt = at
	l.seq++

	ev := Event{
		ID:   fmt.Sprintf("%d-%d", at, l.seq),
		Type: kind,
		Data: data,
		At:   at,
	}

	l.items[l.pos] = ev
	l.pos = (l.pos + 1) % MaxLogEvents
	if l.count < MaxLogEvents {
		l.count++
	}
	return ev
}

// Since returns all retained events that occurred strictly after the
// watermark (unix milliseconds), oldest first. A zero watermark returns the
// whole retained window.
func (l *EventLog) Since(watermark int64) []Event {
	result := make([]Event, 0, l.count)
	start := (l.pos - l.count + MaxLogEvents) % MaxLogEvents
	for i := 0; i < l.count; i++ {
		ev := l.items[(start+i)%MaxLogEvents]
		if ev.At > watermark {
			result = append(result, ev)
		}
	}
	return result
}

// Len returns the number of retained events.
func (l *EventLog) Len() int {
	return l.count
}

// LastAt returns the timestamp of the most recently appended event, or zero
// if nothing has been appended yet.
func (l *EventLog) LastAt() int64 {
	return l.lastAt
}
