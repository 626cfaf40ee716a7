// Package syncer implements the client-side reconciliation protocol: it
// converts a room's polled events into local playback actions while
// suppressing the feedback loop that would otherwise echo those actions back
// to the server as fresh state.
package syncer

import (
	"sync"
	"time"

	"github.com/lockstep/watch-party/internal/room"
)

const (
	// DriftTolerance is the playback-position discrepancy, in seconds,
	// below which an incoming sync is ignored to avoid visible stutter
	// from redundant seeks.
	DriftTolerance = 1.0

	// SuppressWindow is how long locally observed playback changes are
	// withheld from the server after the reconciler touches the player.
	// Long enough for the playback engine to settle, short enough not to
	// swallow a genuine follow-up user action.
	SuppressWindow = 150 * time.Millisecond

	// PollInterval is the fixed cadence at which clients drain room events.
	PollInterval = time.Second
)

// Player is the local playback engine the reconciler drives. Load replaces
// the current media and implicitly resets the position to zero.
type Player interface {
	Position() float64
	Playing() bool
	Seek(seconds float64)
	Play()
	Pause()
	Load(videoURL string)
}

// Reconciler applies incoming room events to a Player and gates outbound
// state reports during the suppression window. It is goroutine-safe: polled
// events arrive on one goroutine while the player's own change notifications
// query ShouldReport from another.
type Reconciler struct {
	mu            sync.Mutex
	player        Player
	now           func() time.Time
	suppressUntil time.Time
}

// NewReconciler creates a reconciler driving the given player.
func NewReconciler(player Player) *Reconciler {
	return &Reconciler{player: player, now: time.Now}
}

// ApplyPlayerSync reconciles an incoming playback state against the player.
// Position is corrected only when the drift exceeds DriftTolerance, and
// play/pause is toggled only on mismatch; matching state is a no-op. The
// suppression flag is raised before the player is touched.
func (r *Reconciler) ApplyPlayerSync(state room.PlayerState) {
	r.suppress()

	drift := state.CurrentTime - r.player.Position()
	if drift > DriftTolerance || drift < -DriftTolerance {
		r.player.Seek(state.CurrentTime)
	}

	switch {
	case state.IsPlaying && !r.player.Playing():
		r.player.Play()
	case !state.IsPlaying && r.player.Playing():
		r.player.Pause()
	}
}

// ApplyVideoUpdate replaces the local media. Loading resets the playback
// cursor, which the player will report as local changes, so the suppression
// flag is raised here as well.
func (r *Reconciler) ApplyVideoUpdate(update room.VideoUpdate) {
	r.suppress()
	r.player.Load(update.VideoURL)
}

// ShouldReport reports whether a locally observed playback change may be
// pushed upstream. It is false while the suppression window is open.
func (r *Reconciler) ShouldReport() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.now().Before(r.suppressUntil)
}

func (r *Reconciler) suppress() {
	r.mu.Lock()
	r.suppressUntil = r.now().Add(SuppressWindow)
	r.mu.Unlock()
}
