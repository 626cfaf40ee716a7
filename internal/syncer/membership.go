package syncer

import "sync"

// State is the client's membership state for a room.
type State int

const (
	// NotJoined means no room is active; the watermark is zero and no
	// polling takes place.
	NotJoined State = iota
	// Joined means the room has been resolved and the poll loop is live.
	Joined
)

// Membership tracks one client-room membership: which room is active and the
// timestamp up to which its events have been processed. Leaving (or switching
// rooms) resets the watermark so no stale cursor leaks into the next room.
type Membership struct {
	mu        sync.Mutex
	state     State
	roomCode  string
	watermark int64
}

// Join activates a membership for the given (already normalized) room code
// with a zero watermark.
func (m *Membership) Join(roomCode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Joined
	m.roomCode = roomCode
	m.watermark = 0
}

// Leave deactivates the membership and discards the watermark.
func (m *Membership) Leave() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = NotJoined
	m.roomCode = ""
	m.watermark = 0
}

// Advance moves the watermark to the server-reported now. It is called after
// every poll, including empty ones, so the cursor never lags the server
// clock. Regressions are ignored to tolerate out-of-order poll completions.
func (m *Membership) Advance(serverNow int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if serverNow > m.watermark {
		m.watermark = serverNow
	}
}

// Watermark returns the last processed timestamp in unix milliseconds.
func (m *Membership) Watermark() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watermark
}

// State returns the current membership state.
func (m *Membership) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Room returns the active room code, or an empty string when not joined.
func (m *Membership) Room() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roomCode
}
