package room

import (
	"strings"
	"sync"
	"time"
)

// Registry maps normalized room codes to live rooms. Rooms are created
// lazily on first reference and are never evicted; callers own the registry
// and pass it by handle so tests can use isolated instances.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	now   func() time.Time
}

// NewRegistry creates an empty registry using the wall clock.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		now:   time.Now,
	}
}

// Normalize canonicalizes a room code: surrounding whitespace is stripped and
// the code is uppercased, so "abc", "ABC" and "AbC" name the same room.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Resolve returns the room for the given code, creating it on first
// reference. Resolution is idempotent: every call with an equivalent code
// returns the same instance.
func (g *Registry) Resolve(code string) *Room {
	key := Normalize(code)

	g.mu.RLock()
	r, ok := g.rooms[key]
	g.mu.RUnlock()
	if ok {
		return r
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.rooms[key]; ok {
		return r
	}
	r = newRoom(key, g.now)
	g.rooms[key] = r
	return r
}

// Count returns the number of rooms created so far.
func (g *Registry) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
