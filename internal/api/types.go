// Package api exposes the watch-party HTTP JSON interface: account
// registration and login, bearer-token identity, and the per-room state,
// playback, chat, and event-poll endpoints that clients converge through.
package api

import "github.com/lockstep/watch-party/internal/room"

// ---------------------------------------------------------------------------
// Request bodies
// ---------------------------------------------------------------------------

// RegisterRequest is the body of POST /api/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SetVideoRequest is the body of POST /api/room/{code}/video. An empty URL
// means "no video set".
type SetVideoRequest struct {
	VideoURL string `json:"videoUrl"`
}

// SetPlayerRequest is the body of POST /api/room/{code}/player.
type SetPlayerRequest struct {
	CurrentTime float64 `json:"currentTime"`
	IsPlaying   bool    `json:"isPlaying"`
}

// ChatRequest is the body of POST /api/room/{code}/chat.
type ChatRequest struct {
	Text string `json:"text"`
}

// ---------------------------------------------------------------------------
// Response bodies
// ---------------------------------------------------------------------------

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenResponse is the successful login response.
type TokenResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// MeResponse identifies the authenticated user.
type MeResponse struct {
	Username string `json:"username"`
}

// StateResponse is the full room snapshot returned by GET .../state.
type StateResponse struct {
	RoomCode    string           `json:"roomCode"`
	VideoURL    string           `json:"videoUrl"`
	PlayerState room.PlayerState `json:"playerState"`
}

// OKResponse acknowledges a successful mutation.
type OKResponse struct {
	OK bool `json:"ok"`
}

// EventsResponse is the poll response: the events after the requested
// watermark plus the server's current time in unix milliseconds, which the
// client adopts as its next watermark.
type EventsResponse struct {
	Now    int64        `json:"now"`
	Events []room.Event `json:"events"`
}

// ErrorResponse carries a client-facing error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
