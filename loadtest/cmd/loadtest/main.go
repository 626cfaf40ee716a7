// Package main is the watch-party load test. It fills a room with polling
// viewers, drives playback and chat from one leader client, and reports how
// quickly the viewers converge.
//
// Usage:
//
//	loadtest -server http://localhost:8080 -room LOAD1 -viewers 50 -duration 60s
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lockstep/watch-party/client"
	"github.com/lockstep/watch-party/internal/room"
	"github.com/lockstep/watch-party/loadtest/stats"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "base URL of the sync server")
	roomCode := flag.String("room", "LOAD1", "room code to join")
	viewers := flag.Int("viewers", 50, "number of polling viewers")
	duration := flag.Duration("duration", 60*time.Second, "how long to run")
	chatEvery := flag.Duration("chat-every", 5*time.Second, "leader chat message interval")
	flag.Parse()

	collector := stats.NewCollector()
	ctx, cancel := context.WithTimeout(context.Background(), *duration+30*time.Second)
	defer cancel()

	// Leader drives the room: sets the video, then toggles playback.
	leader, err := startViewer(ctx, *serverURL, *roomCode, collector)
	if err != nil {
		log.Fatalf("leader setup failed: %v", err)
	}
	if err := leader.SetVideo(ctx, "https://videos.example.com/loadtest.mp4"); err != nil {
		log.Fatalf("leader set video failed: %v", err)
	}

	// Spin up viewers.
	clients := make([]*client.Client, 0, *viewers)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < *viewers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := startViewer(ctx, *serverURL, *roomCode, collector)
			if err != nil {
				log.Printf("viewer setup failed: %v", err)
				collector.AddError()
				return
			}
			c.OnChat(func(msg room.ChatMessage) {
				collector.AddChatLatency(time.Since(time.UnixMilli(msg.Timestamp)))
			})
			mu.Lock()
			clients = append(clients, c)
			mu.Unlock()
		}()
	}
	wg.Wait()
	log.Printf("%d viewers polling room %s", len(clients), *roomCode)

	// Drive playback and chat until the clock runs out.
	deadline := time.After(*duration)
	playbackTicker := time.NewTicker(7 * time.Second)
	chatTicker := time.NewTicker(*chatEvery)
	defer playbackTicker.Stop()
	defer chatTicker.Stop()

	playing := false
	position := 0.0

drive:
	for {
		select {
		case <-deadline:
			break drive
		case <-playbackTicker.C:
			playing = !playing
			position += 7
			leader.NotifyPlayback(ctx, position, playing)
		case <-chatTicker.C:
			if err := leader.SendChat(ctx, "tick "+uuid.New().String()[:8]); err != nil {
				collector.AddError()
			}
		}
	}

	// Convergence check: every viewer's watermark should have advanced past
	// the moment the leader stopped pushing, meaning they drained the log.
	cutoff := time.Now().Add(-2 * time.Second).UnixMilli()
	converged := 0
	for _, c := range clients {
		m := c.GetMetrics()
		collector.AddPolls(m.Polls, m.PollErrors)
		if c.Watermark() >= cutoff {
			converged++
		}
		c.Leave()
	}

	collector.Report()
	fmt.Printf("Converged viewers: %d/%d\n", converged, len(clients))
}

// startViewer registers a throwaway account, logs in, and joins the room.
func startViewer(ctx context.Context, serverURL, roomCode string, collector *stats.Collector) (*client.Client, error) {
	username := "load-" + strings.ReplaceAll(uuid.New().String()[:13], "-", "")
	password := uuid.New().String()

	c := client.New(serverURL, newSimPlayer())
	if err := c.Register(ctx, username, password); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if err := c.Login(ctx, username, password); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	start := time.Now()
	if err := c.Join(ctx, roomCode); err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}
	collector.AddJoin(time.Since(start))
	return c, nil
}
