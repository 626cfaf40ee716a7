// Package room implements the in-memory room synchronization core: per-room
// playback state, bounded chat history, and a bounded append-only event log
// that polling clients drain to stay converged. Rooms are ephemeral and live
// for the lifetime of the process.
package room

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxChatMessages is the number of chat messages retained per room; the
// oldest message is dropped once the cap is exceeded.
const MaxChatMessages = 500

// PlayerState is the last-known playback state of a room's video.
// UpdatedAt is unix milliseconds and non-decreasing within a room.
type PlayerState struct {
	CurrentTime float64 `json:"currentTime"`
	IsPlaying   bool    `json:"isPlaying"`
	UpdatedAt   int64   `json:"updatedAt"`
}

// ChatMessage is a single chat line. Immutable once appended.
type ChatMessage struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// VideoUpdate is the payload of a video-updated event.
type VideoUpdate struct {
	VideoURL string `json:"videoUrl"`
	By       string `json:"by"`
}

// Room holds the shared viewing state for one room code. All mutations take
// the room mutex so a state change and its event-log append land as one
// atomic unit; different rooms never contend with each other.
type Room struct {
	mu       sync.Mutex
	code     string
	videoURL string
	player   PlayerState
	chat     []ChatMessage
	log      *EventLog
	now      func() time.Time
}

func newRoom(code string, now func() time.Time) *Room {
	return &Room{
		code: code,
		log:  NewEventLog(now),
		now:  now,
	}
}

// Code returns the normalized room code.
func (r *Room) Code() string {
	return r.code
}

// Snapshot returns the current video reference and playback state.
func (r *Room) Snapshot() (videoURL string, player PlayerState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.videoURL, r.player
}

// SetVideo replaces the room's video reference and resets playback to a
// paused position zero. One video-updated event is appended.
func (r *Room) SetVideo(videoURL, by string) Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.videoURL = videoURL
	r.player = PlayerState{CurrentTime: 0, IsPlaying: false, UpdatedAt: r.stamp()}
	return r.log.Append(KindVideoUpdated, VideoUpdate{VideoURL: r.videoURL, By: by})
}

// SetPlayback overwrites the playback state (last-writer-wins; there is no
// merging). Negative positions are clamped to zero. One player-sync event
// carrying the new state is appended.
func (r *Room) SetPlayback(currentTime float64, isPlaying bool) (PlayerState, Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if currentTime < 0 {
		currentTime = 0
	}
	r.player = PlayerState{
		CurrentTime: currentTime,
		IsPlaying:   isPlaying,
		UpdatedAt:   r.stamp(),
	}
	return r.player, r.log.Append(KindPlayerSync, r.player)
}

// PostChat appends a chat message from author. Text must already be trimmed
// and validated (see ValidateChatText); an empty text returns ErrEmptyMessage
// and appends nothing. History is capped at MaxChatMessages, oldest first out.
func (r *Room) PostChat(author, text string) (ChatMessage, Event, error) {
	if text == "" {
		return ChatMessage{}, Event{}, ErrEmptyMessage
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	msg := ChatMessage{
		ID:        uuid.New().String(),
		Username:  author,
		Text:      text,
		Timestamp: r.stamp(),
	}
	r.chat = append(r.chat, msg)
	if len(r.chat) > MaxChatMessages {
		overflow := len(r.chat) - MaxChatMessages
		r.chat = append(r.chat[:0:0], r.chat[overflow:]...)
	}

	return msg, r.log.Append(KindChatMessage, msg), nil
}

// EventsSince returns the retained events that occurred strictly after the
// watermark, oldest first, plus the room's current time in unix milliseconds
// for the client to advance its watermark to.
func (r *Room) EventsSince(watermark int64) ([]Event, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log.Since(watermark), r.now().UnixMilli()
}

// ChatHistory returns a copy of the retained chat messages, oldest first.
func (r *Room) ChatHistory() []ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ChatMessage, len(r.chat))
	copy(out, r.chat)
	return out
}

// stamp returns the current unix-millisecond time, never earlier than the
// room's last playback update so UpdatedAt stays non-decreasing.
func (r *Room) stamp() int64 {
	ms := r.now().UnixMilli()
	if ms < r.player.UpdatedAt {
		return r.player.UpdatedAt
	}
	return ms
}
