package room

import (
	"fmt"
	"sync"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc", "ABC"},
		{"ABC", "ABC"},
		{"AbC", "ABC"},
		{"  movie1  ", "MOVIE1"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveIsIdempotentAcrossCase(t *testing.T) {
	g := NewRegistry()

	a := g.Resolve("abc")
	b := g.Resolve("ABC")
	c := g.Resolve(" AbC ")

	if a != b || b != c {
		t.Fatal("equivalent codes resolved to different rooms")
	}
	if a.Code() != "ABC" {
		t.Errorf("room code = %q, want ABC", a.Code())
	}
	if g.Count() != 1 {
		t.Errorf("Count() = %d, want 1", g.Count())
	}
}

func TestResolveIsolatesRooms(t *testing.T) {
	g := NewRegistry()

	a := g.Resolve("ROOM1")
	b := g.Resolve("ROOM2")
	if a == b {
		t.Fatal("distinct codes resolved to the same room")
	}

	a.SetVideo("https://example.com/a.mp4", "alice")
	if url, _ := b.Snapshot(); url != "" {
		t.Errorf("mutation leaked across rooms: %q", url)
	}
}

func TestResolveConcurrentFirstReference(t *testing.T) {
	g := NewRegistry()

	const workers = 32
	rooms := make([]*Room, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			rooms[n] = g.Resolve("race")
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if rooms[i] != rooms[0] {
			t.Fatalf("worker %d got a different room instance", i)
		}
	}
	if g.Count() != 1 {
		t.Errorf("Count() = %d, want 1", g.Count())
	}
}

func TestRegistryCount(t *testing.T) {
	g := NewRegistry()
	for i := 0; i < 5; i++ {
		g.Resolve(fmt.Sprintf("room-%d", i))
	}
	if g.Count() != 5 {
		t.Errorf("Count() = %d, want 5", g.Count())
	}
}
