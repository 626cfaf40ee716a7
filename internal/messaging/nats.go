// Package messaging provides a NATS client wrapper for fanning room events
// out to background workers (currently the chat moderator). Publishing is
// best-effort: room mutations never block or fail on the message bus.
package messaging

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/lockstep/watch-party/internal/room"
)

// SubjectRoomEvents is the subject prefix for room event notices; one event
// is published to room.events.<code> per append.
const SubjectRoomEvents = "room.events"

// EventNotice is the payload published for every appended room event. Data
// is the kind-specific payload, JSON-encoded.
type EventNotice struct {
	RoomCode string          `json:"room_code"`
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data"`
	At       int64           `json:"at"`
}

// NewEventNotice converts an appended room event into its bus representation.
func NewEventNotice(roomCode string, ev room.Event) (EventNotice, error) {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return EventNotice{}, fmt.Errorf("messaging: marshal event data: %w", err)
	}
	return EventNotice{
		RoomCode: roomCode,
		ID:       ev.ID,
		Type:     string(ev.Type),
		Data:     data,
		At:       ev.At,
	}, nil
}

// Config holds NATS connection settings.
type Config struct {
	URL           string        // nats://localhost:4222
	Name          string        // client name for identification
	ReconnectWait time.Duration // time between reconnect attempts
	MaxReconnects int           // max reconnect attempts (-1 for infinite)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:           "nats://localhost:4222",
		Name:          "watch-party",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1, // infinite reconnects
	}
}

// Client wraps the NATS connection with helpers for the room event channel.
type Client struct {
	conn *nats.Conn
	mu   sync.Mutex
	subs []*nats.Subscription
}

// NewClient connects to NATS with the given config and returns a ready
// client. It returns an error if the initial connection fails.
func NewClient(config Config) (*Client, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.ReconnectWait(config.ReconnectWait),
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("[nats] disconnected: %v", err)
			} else {
				log.Printf("[nats] disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[nats] reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Printf("[nats] connection closed")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	log.Printf("[nats] connected to %s", nc.ConnectedUrl())

	return &Client{conn: nc}, nil
}

// PublishRoomEvent publishes an event notice to room.events.<code>.
func (c *Client) PublishRoomEvent(notice EventNotice) error {
	data, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("messaging: marshal notice: %w", err)
	}
	return c.conn.Publish(SubjectRoomEvents+"."+notice.RoomCode, data)
}

// SubscribeRoomEvents registers a handler for event notices from all rooms.
// Malformed payloads are logged and dropped.
func (c *Client) SubscribeRoomEvents(handler func(EventNotice)) error {
	subject := SubjectRoomEvents + ".*"
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		var notice EventNotice
		if err := json.Unmarshal(msg.Data, &notice); err != nil {
			log.Printf("[nats] bad event notice on %s: %v", msg.Subject, err)
			return
		}
		handler(notice)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return nil
}

// Close drains all active subscriptions and closes the NATS connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range c.subs {
		if err := sub.Drain(); err != nil {
			log.Printf("[nats] drain %s: %v", sub.Subject, err)
		}
	}
	c.subs = nil

	if err := c.conn.Drain(); err != nil {
		log.Printf("[nats] connection drain: %v", err)
	}

	log.Printf("[nats] client closed")
}
