package room

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSetVideoResetsPlayback(t *testing.T) {
	r := newRoom("MOVIE", time.Now)

	r.SetPlayback(42.5, true)
	ev := r.SetVideo("https://example.com/a.mp4", "alice")

	if ev.Type != KindVideoUpdated {
		t.Fatalf("event type = %q, want %q", ev.Type, KindVideoUpdated)
	}
	update, ok := ev.Data.(VideoUpdate)
	if !ok {
		t.Fatalf("event data is %T, want VideoUpdate", ev.Data)
	}
	if update.VideoURL != "https://example.com/a.mp4" || update.By != "alice" {
		t.Errorf("unexpected payload: %+v", update)
	}

	videoURL, player := r.Snapshot()
	if videoURL != "https://example.com/a.mp4" {
		t.Errorf("videoURL = %q", videoURL)
	}
	if player.CurrentTime != 0 || player.IsPlaying {
		t.Errorf("playback not reset: %+v", player)
	}
}

func TestSetPlaybackLastWriterWins(t *testing.T) {
	r := newRoom("MOVIE", fakeClock(time.UnixMilli(1000), time.Millisecond))

	r.SetPlayback(10, true)
	r.SetPlayback(5, false)
	state, _ := r.SetPlayback(99.5, true)

	if state.CurrentTime != 99.5 || !state.IsPlaying {
		t.Errorf("state = %+v, want currentTime=99.5 playing", state)
	}
	_, player := r.Snapshot()
	if player != state {
		t.Errorf("snapshot %+v disagrees with returned state %+v", player, state)
	}

	// Exactly one player-sync event per call, in call order.
	events, _ := r.EventsSince(0)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for i, ev := range events {
		if ev.Type != KindPlayerSync {
			t.Errorf("event %d type = %q", i, ev.Type)
		}
	}
	last := events[2].Data.(PlayerState)
	if last.CurrentTime != 99.5 {
		t.Errorf("last event carries %+v", last)
	}
}

func TestSetPlaybackClampsNegativePosition(t *testing.T) {
	r := newRoom("MOVIE", time.Now)
	state, _ := r.SetPlayback(-3.7, true)
	if state.CurrentTime != 0 {
		t.Errorf("CurrentTime = %v, want 0", state.CurrentTime)
	}
}

func TestPostChatRejectsEmpty(t *testing.T) {
	r := newRoom("MOVIE", time.Now)

	_, _, err := r.PostChat("alice", "")
	if err != ErrEmptyMessage {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}
	if events, _ := r.EventsSince(0); len(events) != 0 {
		t.Errorf("empty message appended %d events", len(events))
	}
	if len(r.ChatHistory()) != 0 {
		t.Error("empty message landed in chat history")
	}
}

func TestPostChatAppendsMessageAndEvent(t *testing.T) {
	r := newRoom("MOVIE", time.Now)

	msg, ev, err := r.PostChat("bob", "hello")
	if err != nil {
		t.Fatalf("PostChat: %v", err)
	}
	if msg.ID == "" {
		t.Error("message has no ID")
	}
	if msg.Username != "bob" || msg.Text != "hello" {
		t.Errorf("message = %+v", msg)
	}
	if ev.Type != KindChatMessage {
		t.Errorf("event type = %q", ev.Type)
	}
	if got := ev.Data.(ChatMessage); got.ID != msg.ID {
		t.Errorf("event payload ID %q != message ID %q", got.ID, msg.ID)
	}

	history := r.ChatHistory()
	if len(history) != 1 || history[0].ID != msg.ID {
		t.Errorf("history = %+v", history)
	}
}

func TestChatHistoryCap(t *testing.T) {
	r := newRoom("MOVIE", time.Now)

	total := MaxChatMessages + 25
	for i := 0; i < total; i++ {
		if _, _, err := r.PostChat("bob", fmt.Sprintf("msg %d", i)); err != nil {
			t.Fatalf("PostChat %d: %v", i, err)
		}
	}

	history := r.ChatHistory()
	if len(history) != MaxChatMessages {
		t.Fatalf("history length = %d, want %d", len(history), MaxChatMessages)
	}
	if got, want := history[0].Text, "msg 25"; got != want {
		t.Errorf("oldest retained message = %q, want %q", got, want)
	}
	if got, want := history[len(history)-1].Text, fmt.Sprintf("msg %d", total-1); got != want {
		t.Errorf("newest retained message = %q, want %q", got, want)
	}
}

func TestEventsSinceReturnsServerNow(t *testing.T) {
	frozen := time.UnixMilli(77777)
	r := newRoom("MOVIE", func() time.Time { return frozen })

	_, now := r.EventsSince(0)
	if now != 77777 {
		t.Errorf("now = %d, want 77777", now)
	}
}

func TestRoomConcurrentMutation(t *testing.T) {
	r := newRoom("MOVIE", time.Now)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.SetPlayback(float64(j), j%2 == 0)
				r.PostChat("user", fmt.Sprintf("w%d-%d", n, j))
				r.EventsSince(0)
				r.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	events, _ := r.EventsSince(0)
	for i := 1; i < len(events); i++ {
		if events[i].At < events[i-1].At {
			t.Fatalf("events out of order at %d", i)
		}
	}
	if len(r.ChatHistory()) != MaxChatMessages {
		t.Errorf("history length = %d, want %d", len(r.ChatHistory()), MaxChatMessages)
	}
}

func TestValidateChatText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"ok", "hello world", false},
		{"empty", "", true},
		{"max bytes", strings.Repeat("a", MaxChatBytes), true}, // also over char cap
		{"over bytes", strings.Repeat("a", MaxChatBytes+1), true},
		{"over chars", strings.Repeat("é", MaxChatChars+1), true},
		{"under both caps", strings.Repeat("a", MaxChatChars), false},
		{"invalid utf8", "hi\xff\xfe", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChatText(tt.text)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateChatText(%q...) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}
