package syncer

import (
	"testing"
	"time"

	"github.com/lockstep/watch-party/internal/room"
)

// recordingPlayer captures every call the reconciler makes.
type recordingPlayer struct {
	position float64
	playing  bool
	videoURL string
	calls    []string
}

func (p *recordingPlayer) Position() float64 { return p.position }
func (p *recordingPlayer) Playing() bool     { return p.playing }

func (p *recordingPlayer) Seek(seconds float64) {
	p.position = seconds
	p.calls = append(p.calls, "seek")
}

func (p *recordingPlayer) Play() {
	p.playing = true
	p.calls = append(p.calls, "play")
}

func (p *recordingPlayer) Pause() {
	p.playing = false
	p.calls = append(p.calls, "pause")
}

func (p *recordingPlayer) Load(videoURL string) {
	p.videoURL = videoURL
	p.position = 0
	p.playing = false
	p.calls = append(p.calls, "load")
}

func TestApplyPlayerSyncDrift(t *testing.T) {
	tests := []struct {
		name     string
		local    float64
		incoming float64
		wantSeek bool
	}{
		{"within tolerance", 10.0, 10.4, false},
		{"at tolerance", 10.0, 11.0, false},
		{"beyond tolerance", 10.0, 12.0, true},
		{"behind beyond tolerance", 12.0, 10.0, true},
		{"exact match", 10.0, 10.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &recordingPlayer{position: tt.local, playing: true}
			r := NewReconciler(p)

			r.ApplyPlayerSync(room.PlayerState{CurrentTime: tt.incoming, IsPlaying: true})

			sought := len(p.calls) > 0 && p.calls[0] == "seek"
			if sought != tt.wantSeek {
				t.Errorf("seek = %v, want %v (calls %v)", sought, tt.wantSeek, p.calls)
			}
			if tt.wantSeek && p.position != tt.incoming {
				t.Errorf("position = %v, want %v", p.position, tt.incoming)
			}
		})
	}
}

func TestApplyPlayerSyncPlayPauseToggle(t *testing.T) {
	p := &recordingPlayer{position: 5, playing: false}
	r := NewReconciler(p)

	r.ApplyPlayerSync(room.PlayerState{CurrentTime: 5, IsPlaying: true})
	if !p.playing {
		t.Fatal("player should be playing")
	}

	// Matching state must be a no-op.
	before := len(p.calls)
	r.ApplyPlayerSync(room.PlayerState{CurrentTime: 5, IsPlaying: true})
	if len(p.calls) != before {
		t.Errorf("matching sync issued calls: %v", p.calls[before:])
	}

	r.ApplyPlayerSync(room.PlayerState{CurrentTime: 5, IsPlaying: false})
	if p.playing {
		t.Fatal("player should be paused")
	}
}

func TestApplyVideoUpdateLoads(t *testing.T) {
	p := &recordingPlayer{position: 30, playing: true}
	r := NewReconciler(p)

	r.ApplyVideoUpdate(room.VideoUpdate{VideoURL: "https://example.com/b.mp4", By: "alice"})

	if p.videoURL != "https://example.com/b.mp4" {
		t.Errorf("videoURL = %q", p.videoURL)
	}
	if p.position != 0 || p.playing {
		t.Errorf("load did not reset playback: pos=%v playing=%v", p.position, p.playing)
	}
}

func TestSuppressionWindow(t *testing.T) {
	p := &recordingPlayer{}
	r := NewReconciler(p)

	current := time.UnixMilli(100000)
	r.now = func() time.Time { return current }

	if !r.ShouldReport() {
		t.Fatal("fresh reconciler should allow reporting")
	}

	r.ApplyPlayerSync(room.PlayerState{CurrentTime: 50, IsPlaying: true})
	if r.ShouldReport() {
		t.Error("reporting allowed immediately after sync")
	}

	current = current.Add(SuppressWindow - time.Millisecond)
	if r.ShouldReport() {
		t.Error("reporting allowed inside the suppression window")
	}

	current = current.Add(time.Millisecond)
	if !r.ShouldReport() {
		t.Error("reporting still blocked after the window elapsed")
	}
}

func TestSuppressionRenewedByEachApply(t *testing.T) {
	p := &recordingPlayer{}
	r := NewReconciler(p)

	current := time.UnixMilli(100000)
	r.now = func() time.Time { return current }

	r.ApplyVideoUpdate(room.VideoUpdate{VideoURL: "https://example.com/a.mp4"})
	current = current.Add(100 * time.Millisecond)
	r.ApplyPlayerSync(room.PlayerState{CurrentTime: 10, IsPlaying: true})

	// The second apply restarted the window.
	current = current.Add(100 * time.Millisecond)
	if r.ShouldReport() {
		t.Error("window should have been renewed by the second apply")
	}
	current = current.Add(51 * time.Millisecond)
	if !r.ShouldReport() {
		t.Error("renewed window should have elapsed")
	}
}
