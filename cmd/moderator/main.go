package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lockstep/watch-party/internal/messaging"
	"github.com/lockstep/watch-party/internal/moderation"
	"github.com/lockstep/watch-party/internal/mute"
	"github.com/lockstep/watch-party/internal/room"
)

func main() {
	log.Println("Starting watch-party moderation service...")

	// Redis setup.
	redisAddr := "localhost:6379"
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		redisAddr = v
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(ctx).Err(); err != nil {
		cancel()
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	cancel()

	// NATS setup.
	natsConfig := messaging.DefaultConfig()
	if v := os.Getenv("NATS_URL"); v != "" {
		natsConfig.URL = v
	}
	natsConfig.Name = "watchparty-moderator"

	natsClient, err := messaging.NewClient(natsConfig)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}

	filter := moderation.NewFilter()
	mutes := mute.NewStore(rdb)

	// Screen every chat message fanned out by the sync server; offenders
	// get escalating mutes. The message has already been delivered to the
	// room's event log; moderation silences the author going forward.
	err = natsClient.SubscribeRoomEvents(func(notice messaging.EventNotice) {
		if notice.Type != string(room.KindChatMessage) {
			return
		}

		var msg room.ChatMessage
		if err := json.Unmarshal(notice.Data, &msg); err != nil {
			log.Printf("[moderator] bad chat payload room=%s: %v", notice.RoomCode, err)
			return
		}

		result := filter.Check(msg.Text)
		if !result.Blocked {
			return
		}

		log.Printf("[moderator] FLAGGED room=%s user=%s reason=%s term=%q",
			notice.RoomCode, msg.Username, result.Reason, result.Term)

		muteCtx, muteCancel := context.WithTimeout(context.Background(), 3*time.Second)
		duration, err := mutes.Escalate(muteCtx, msg.Username, result.Reason)
		muteCancel()
		if err != nil {
			log.Printf("[moderator] mute escalation failed user=%s: %v", msg.Username, err)
			return
		}
		log.Printf("[moderator] muted user=%s for %s", msg.Username, duration)
	})
	if err != nil {
		log.Fatalf("failed to subscribe to room events: %v", err)
	}

	log.Printf("Watch-party moderation service running")
	log.Printf("  redis_addr: %s", redisAddr)
	log.Printf("  nats_url:   %s", natsConfig.URL)

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("received signal %v, shutting down...", sig)

	natsClient.Close()
	if err := rdb.Close(); err != nil {
		log.Printf("redis close error: %v", err)
	}
}
