// Package client provides a Go client for the watch-party API. It handles
// login, room membership, the 1-second event poll loop, and reconciliation of
// incoming sync events against a local playback engine, including suppression
// of self-triggered feedback.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lockstep/watch-party/internal/room"
	"github.com/lockstep/watch-party/internal/syncer"
)

// Event is the wire form of one room event; Data is decoded per Type.
type Event struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
	At   int64           `json:"at"`
}

type eventsResponse struct {
	Now    int64   `json:"now"`
	Events []Event `json:"events"`
}

type stateResponse struct {
	RoomCode    string           `json:"roomCode"`
	VideoURL    string           `json:"videoUrl"`
	PlayerState room.PlayerState `json:"playerState"`
}

// Metrics tracks per-client traffic counters.
type Metrics struct {
	Polls         int64
	PollErrors    int64
	EventsApplied int64
}

// Client is one simulated or embedded watch-party participant. All methods
// are goroutine-safe; the poll loop runs on its own goroutine between Join
// and Leave.
type Client struct {
	baseURL string
	http    *http.Client
	player  syncer.Player
	rec     *syncer.Reconciler

	mu         sync.Mutex
	token      string
	username   string
	membership syncer.Membership
	cancelPoll context.CancelFunc

	onChat  func(room.ChatMessage)
	onVideo func(room.VideoUpdate)

	polling int32 // atomic in-flight guard: 0 = idle, 1 = poll outstanding

	polls         int64
	pollErrors    int64
	eventsApplied int64
}

// New creates a client for the server at baseURL driving the given player.
func New(baseURL string, player syncer.Player) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		player:  player,
		rec:     syncer.NewReconciler(player),
	}
}

// OnChat registers a handler invoked for every incoming chat message.
// Chat events are display-only; nothing is echoed back.
func (c *Client) OnChat(fn func(room.ChatMessage)) { c.onChat = fn }

// OnVideo registers a handler invoked when the room's video changes.
func (c *Client) OnVideo(fn func(room.VideoUpdate)) { c.onVideo = fn }

// Username returns the logged-in username, or empty before login.
func (c *Client) Username() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, username, password string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/register",
		map[string]string{"username": username, "password": password}, nil)
}

// Login authenticates and stores the bearer token for subsequent calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/login",
		map[string]string{"username": username, "password": password}, &resp)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.token = resp.Token
	c.username = resp.Username
	c.mu.Unlock()
	return nil
}

// Join enters a room: any previous membership is left first, the full room
// state is fetched and applied, and the poll loop starts at a zero watermark.
func (c *Client) Join(ctx context.Context, roomCode string) error {
	c.Leave()

	code := room.Normalize(roomCode)
	if code == "" {
		return fmt.Errorf("client: empty room code")
	}

	var state stateResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/room/"+code+"/state", nil, &state); err != nil {
		return err
	}

	if state.VideoURL != "" {
		c.rec.ApplyVideoUpdate(room.VideoUpdate{VideoURL: state.VideoURL})
		c.rec.ApplyPlayerSync(state.PlayerState)
	}

	pollCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.membership.Join(code)
	c.cancelPoll = cancel
	c.mu.Unlock()

	go c.pollLoop(pollCtx, code)
	return nil
}

// Leave exits the current room, cancels its poll loop, and discards the
// watermark. Safe to call when not joined.
func (c *Client) Leave() {
	c.mu.Lock()
	cancel := c.cancelPoll
	c.cancelPoll = nil
	c.membership.Leave()
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// SetVideo replaces the room's video for everyone.
func (c *Client) SetVideo(ctx context.Context, videoURL string) error {
	code := c.membership.Room()
	if code == "" {
		return fmt.Errorf("client: not in a room")
	}
	return c.doJSON(ctx, http.MethodPost, "/api/room/"+code+"/video",
		map[string]string{"videoUrl": videoURL}, nil)
}

// SendChat posts a chat message to the current room.
func (c *Client) SendChat(ctx context.Context, text string) error {
	code := c.membership.Room()
	if code == "" {
		return fmt.Errorf("client: not in a room")
	}
	return c.doJSON(ctx, http.MethodPost, "/api/room/"+code+"/chat",
		map[string]string{"text": text}, nil)
}

// NotifyPlayback reports a locally observed playback change (play, pause, or
// seek). During the suppression window, changes the reconciler itself caused
// are swallowed so they are not rebroadcast. Push failures are discarded;
// the next successful push or poll re-synchronizes.
func (c *Client) NotifyPlayback(ctx context.Context, currentTime float64, isPlaying bool) {
	if !c.rec.ShouldReport() {
		return
	}
	code := c.membership.Room()
	if code == "" {
		return
	}
	_ = c.doJSON(ctx, http.MethodPost, "/api/room/"+code+"/player",
		map[string]interface{}{"currentTime": currentTime, "isPlaying": isPlaying}, nil)
}

// Watermark returns the client's current event watermark.
func (c *Client) Watermark() int64 {
	return c.membership.Watermark()
}

// GetMetrics returns a snapshot of the client's traffic counters.
func (c *Client) GetMetrics() Metrics {
	return Metrics{
		Polls:         atomic.LoadInt64(&c.polls),
		PollErrors:    atomic.LoadInt64(&c.pollErrors),
		EventsApplied: atomic.LoadInt64(&c.eventsApplied),
	}
}

// pollLoop drains room events at the fixed cadence until the context is
// cancelled. Transient failures are swallowed and retried on the next tick;
// there is no backoff by design.
func (c *Client) pollLoop(ctx context.Context, code string) {
	ticker := time.NewTicker(syncer.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.pollOnce(ctx, code)
		}
	}
}

// pollOnce performs one watermark poll. If the previous poll is still
// outstanding the tick is skipped; polls are idempotent reads, so a skipped
// tick only delays convergence by one interval.
func (c *Client) pollOnce(ctx context.Context, code string) {
	if !atomic.CompareAndSwapInt32(&c.polling, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&c.polling, 0)

	since := c.membership.Watermark()
	var resp eventsResponse
	err := c.doJSON(ctx, http.MethodGet,
		fmt.Sprintf("/api/room/%s/events?since=%d", code, since), nil, &resp)
	atomic.AddInt64(&c.polls, 1)
	if err != nil {
		atomic.AddInt64(&c.pollErrors, 1)
		return
	}

	for _, ev := range resp.Events {
		c.apply(ev)
	}

	// Advance even when no events arrived so the watermark tracks the
	// server clock instead of lagging behind it.
	c.membership.Advance(resp.Now)
}

// apply routes one polled event to the reconciler or a display handler.
func (c *Client) apply(ev Event) {
	switch room.Kind(ev.Type) {
	case room.KindPlayerSync:
		var state room.PlayerState
		if err := json.Unmarshal(ev.Data, &state); err != nil {
			return
		}
		c.rec.ApplyPlayerSync(state)
	case room.KindVideoUpdated:
		var update room.VideoUpdate
		if err := json.Unmarshal(ev.Data, &update); err != nil {
			return
		}
		c.rec.ApplyVideoUpdate(update)
		if c.onVideo != nil {
			c.onVideo(update)
		}
	case room.KindChatMessage:
		var msg room.ChatMessage
		if err := json.Unmarshal(ev.Data, &msg); err != nil {
			return
		}
		if c.onChat != nil {
			c.onChat(msg)
		}
	default:
		return
	}
	atomic.AddInt64(&c.eventsApplied, 1)
}

// doJSON performs one API call, attaching the bearer token when present and
// decoding the response into out (which may be nil). Non-2xx responses are
// returned as errors carrying the server's message.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: marshal: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = resp.Status
		}
		return fmt.Errorf("client: %s %s: %s", method, path, apiErr.Error)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("client: decode response: %w", err)
		}
	}
	return nil
}
