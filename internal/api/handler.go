package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lockstep/watch-party/internal/account"
	"github.com/lockstep/watch-party/internal/messaging"
	"github.com/lockstep/watch-party/internal/metrics"
	"github.com/lockstep/watch-party/internal/mute"
	"github.com/lockstep/watch-party/internal/ratelimit"
	"github.com/lockstep/watch-party/internal/room"
)

// maxBodyBytes caps request bodies; nothing on this API legitimately exceeds it.
const maxBodyBytes = 1 << 20

// minPasswordLen is the registration password floor.
const minPasswordLen = 4

// Identity resolves bearer tokens to usernames and mints tokens on login.
// Implemented by session.Store; tests substitute a stub.
type Identity interface {
	Resolve(ctx context.Context, token string) (string, error)
	Create(ctx context.Context, username string) (string, error)
}

// Accounts is the credential boundary. Implemented by account.Store.
type Accounts interface {
	Create(ctx context.Context, username, password string) error
	Verify(ctx context.Context, username, password string) (string, error)
}

// Publisher fans appended events out to background workers. Implemented by
// messaging.Client; may be nil when no bus is configured.
type Publisher interface {
	PublishRoomEvent(notice messaging.EventNotice) error
}

// Handler holds the API's collaborators. Limiter, mutes, and publisher are
// optional: nil disables the corresponding policy.
type Handler struct {
	registry  *room.Registry
	accounts  Accounts
	identity  Identity
	limiter   *ratelimit.Limiter
	mutes     *mute.Store
	publisher Publisher
	startedAt time.Time
}

// NewHandler wires an API handler around an owned room registry.
func NewHandler(registry *room.Registry, accounts Accounts, identity Identity) *Handler {
	return &Handler{
		registry:  registry,
		accounts:  accounts,
		identity:  identity,
		startedAt: time.Now(),
	}
}

// SetLimiter enables request rate limiting.
func (h *Handler) SetLimiter(l *ratelimit.Limiter) { h.limiter = l }

// SetMutes enables chat mute enforcement.
func (h *Handler) SetMutes(m *mute.Store) { h.mutes = m }

// SetPublisher enables best-effort event fan-out to the message bus.
func (h *Handler) SetPublisher(p Publisher) { h.publisher = p }

// Router returns the configured HTTP mux.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/register", h.handleRegister)
	mux.HandleFunc("POST /api/login", h.handleLogin)
	mux.HandleFunc("GET /api/me", h.requireAuth(h.handleMe))

	mux.HandleFunc("GET /api/room/{code}/state", h.requireAuth(h.handleRoomState))
	mux.HandleFunc("POST /api/room/{code}/video", h.requireAuth(h.handleSetVideo))
	mux.HandleFunc("POST /api/room/{code}/player", h.requireAuth(h.handleSetPlayer))
	mux.HandleFunc("POST /api/room/{code}/chat", h.requireAuth(h.handleChat))
	mux.HandleFunc("GET /api/room/{code}/events", h.requireAuth(h.handleEvents))

	// Anything else under the room namespace: 401 without a credential,
	// 404 with one.
	mux.HandleFunc("/api/room/", h.requireAuth(func(w http.ResponseWriter, r *http.Request, _ string) {
		writeError(w, ErrNotFound, "Unknown room endpoint.")
	}))

	mux.HandleFunc("GET /health", h.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	return withLatency(mux)
}

// withLatency records request latency for every call.
func withLatency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		metrics.RequestLatency.Observe(time.Since(start).Seconds())
	})
}

// requireAuth resolves the bearer token and passes the username through.
// Requests without a resolvable credential get a 401.
func (h *Handler) requireAuth(next func(w http.ResponseWriter, r *http.Request, username string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, ErrUnauthorized, "Not authorized.")
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		username, err := h.identity.Resolve(r.Context(), token)
		if err != nil {
			writeError(w, ErrUnauthorized, "Not authorized.")
			return
		}
		next(w, r, username)
	}
}

// ---------------------------------------------------------------------------
// Account endpoints
// ---------------------------------------------------------------------------

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Username) == "" || len(req.Password) < minPasswordLen {
		writeError(w, ErrBadRequest, "Username and a password of at least 4 characters are required.")
		return
	}

	if err := h.accounts.Create(r.Context(), strings.TrimSpace(req.Username), req.Password); err != nil {
		if errors.Is(err, account.ErrDuplicate) {
			writeError(w, err, "Username already exists.")
			return
		}
		h.internalError(w, "register", err)
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "Account created."})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.allow(r.Context(), remoteAddr(r), ratelimit.RuleLogin) {
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "Too many login attempts."})
		return
	}

	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	username, err := h.accounts.Verify(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			writeError(w, err, "Invalid credentials.")
			return
		}
		h.internalError(w, "login", err)
		return
	}

	token, err := h.identity.Create(r.Context(), username)
	if err != nil {
		h.internalError(w, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: token, Username: username})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request, username string) {
	writeJSON(w, http.StatusOK, MeResponse{Username: username})
}

// ---------------------------------------------------------------------------
// Room endpoints
// ---------------------------------------------------------------------------

// resolveRoom normalizes the {code} path segment and resolves the room,
// creating it on first reference.
func (h *Handler) resolveRoom(w http.ResponseWriter, r *http.Request) (*room.Room, bool) {
	code := room.Normalize(r.PathValue("code"))
	if code == "" {
		writeError(w, ErrBadRequest, "Invalid room code.")
		return nil, false
	}
	rm := h.registry.Resolve(code)
	metrics.RoomsTotal.Set(float64(h.registry.Count()))
	return rm, true
}

func (h *Handler) handleRoomState(w http.ResponseWriter, r *http.Request, _ string) {
	rm, ok := h.resolveRoom(w, r)
	if !ok {
		return
	}
	videoURL, player := rm.Snapshot()
	writeJSON(w, http.StatusOK, StateResponse{
		RoomCode:    rm.Code(),
		VideoURL:    videoURL,
		PlayerState: player,
	})
}

func (h *Handler) handleSetVideo(w http.ResponseWriter, r *http.Request, username string) {
	rm, ok := h.resolveRoom(w, r)
	if !ok {
		return
	}

	var req SetVideoRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ev := rm.SetVideo(strings.TrimSpace(req.VideoURL), username)
	h.publish(rm.Code(), ev)
	metrics.EventsAppended.WithLabelValues(string(ev.Type)).Inc()
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (h *Handler) handleSetPlayer(w http.ResponseWriter, r *http.Request, username string) {
	rm, ok := h.resolveRoom(w, r)
	if !ok {
		return
	}

	if !h.allow(r.Context(), username, ratelimit.RulePlayer) {
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "Too many playback updates."})
		return
	}

	var req SetPlayerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	_, ev := rm.SetPlayback(req.CurrentTime, req.IsPlaying)
	h.publish(rm.Code(), ev)
	metrics.EventsAppended.WithLabelValues(string(ev.Type)).Inc()
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request, username string) {
	rm, ok := h.resolveRoom(w, r)
	if !ok {
		return
	}

	var req ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}

	text := strings.TrimSpace(req.Text)
	if err := room.ValidateChatText(text); err != nil {
		metrics.ChatBlocked.WithLabelValues("invalid").Inc()
		writeError(w, room.ErrEmptyMessage, "Empty or invalid message.")
		return
	}

	if h.mutes != nil {
		muted, remaining, _, err := h.mutes.IsMuted(r.Context(), username)
		if err != nil {
			// Fail open: a Redis outage must not silence the room.
			log.Printf("[api] mute check failed user=%s: %v (failing open)", username, err)
		} else if muted {
			metrics.ChatBlocked.WithLabelValues("muted").Inc()
			writeJSON(w, http.StatusForbidden, ErrorResponse{
				Error: "You are muted for " + remaining.Round(time.Second).String() + ".",
			})
			return
		}
	}

	if !h.allow(r.Context(), username, ratelimit.RuleChat) {
		metrics.ChatBlocked.WithLabelValues("rate_limited").Inc()
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "You are sending messages too fast."})
		return
	}

	_, ev, err := rm.PostChat(username, text)
	if err != nil {
		writeError(w, err, "Empty message.")
		return
	}
	h.publish(rm.Code(), ev)
	metrics.EventsAppended.WithLabelValues(string(ev.Type)).Inc()
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request, _ string) {
	rm, ok := h.resolveRoom(w, r)
	if !ok {
		return
	}

	since := int64(0)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, ErrBadRequest, "Invalid since parameter.")
			return
		}
		since = parsed
	}

	events, now := rm.EventsSince(since)
	outcome := "empty"
	if len(events) > 0 {
		outcome = "events"
	}
	metrics.PollsServed.WithLabelValues(outcome).Inc()

	writeJSON(w, http.StatusOK, EventsResponse{Now: now, Events: events})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Status string `json:"status"`
		Rooms  int    `json:"rooms"`
		Uptime string `json:"uptime"`
	}{
		Status: "ok",
		Rooms:  h.registry.Count(),
		Uptime: time.Since(h.startedAt).Round(time.Second).String(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// publish fans an appended event out to the bus, best-effort. Failures are
// logged and dropped: the poll loop is the delivery mechanism, the bus is not.
func (h *Handler) publish(roomCode string, ev room.Event) {
	if h.publisher == nil {
		return
	}
	notice, err := messaging.NewEventNotice(roomCode, ev)
	if err != nil {
		log.Printf("[api] event notice room=%s: %v", roomCode, err)
		return
	}
	if err := h.publisher.PublishRoomEvent(notice); err != nil {
		log.Printf("[api] publish room=%s event=%s: %v", roomCode, ev.ID, err)
	}
}

// allow consults the rate limiter, treating a nil limiter as unlimited.
func (h *Handler) allow(ctx context.Context, identifier string, rule ratelimit.Rule) bool {
	if h.limiter == nil {
		return true
	}
	allowed, _ := h.limiter.Allow(ctx, identifier, rule)
	return allowed
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	log.Printf("[api] %s: %v", op, err)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error."})
}

// decodeBody decodes a JSON request body, writing a 400 and returning false
// on malformed input.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, ErrBadRequest, "Invalid request body.")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error, message string) {
	writeJSON(w, statusFor(err), ErrorResponse{Error: message})
}

// remoteAddr extracts the client host for per-address limiting.
func remoteAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
