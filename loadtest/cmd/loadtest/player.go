package main

import (
	"sync"
	"time"
)

// simPlayer is an in-memory playback engine for load test viewers. While
// playing, the position advances with wall time, the way a real player would.
type simPlayer struct {
	mu        sync.Mutex
	videoURL  string
	position  float64
	playing   bool
	updatedAt time.Time
}

func newSimPlayer() *simPlayer {
	return &simPlayer{updatedAt: time.Now()}
}

// tick folds elapsed wall time into the position. Callers must hold the lock.
func (p *simPlayer) tick() {
	now := time.Now()
	if p.playing {
		p.position += now.Sub(p.updatedAt).Seconds()
	}
	p.updatedAt = now
}

func (p *simPlayer) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tick()
	return p.position
}

func (p *simPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *simPlayer) Seek(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tick()
	p.position = seconds
}

func (p *simPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tick()
	p.playing = true
}

func (p *simPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tick()
	p.playing = false
}

func (p *simPlayer) Load(videoURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.videoURL = videoURL
	p.position = 0
	p.playing = false
	p.updatedAt = time.Now()
}
