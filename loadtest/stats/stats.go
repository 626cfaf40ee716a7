// Package stats provides a goroutine-safe metrics collector that aggregates
// measurements from multiple load test viewers and prints a summary report
// with percentile distributions.
package stats

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// Collector aggregates metrics from load test viewers. All methods are
// goroutine-safe and can be called concurrently from many viewer goroutines.
type Collector struct {
	mu            sync.Mutex
	joinLatencies []time.Duration
	chatLatencies []time.Duration
	errors        int
	viewers       int
	polls         int64
	pollErrors    int64
	startTime     time.Time
}

// NewCollector creates a Collector with the start time set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// AddJoin records a successful room join with its latency.
func (c *Collector) AddJoin(d time.Duration) {
	c.mu.Lock()
	c.joinLatencies = append(c.joinLatencies, d)
	c.viewers++
	c.mu.Unlock()
}

// AddChatLatency records how long a chat message took to reach a viewer
// through the poll loop.
func (c *Collector) AddChatLatency(d time.Duration) {
	c.mu.Lock()
	c.chatLatencies = append(c.chatLatencies, d)
	c.mu.Unlock()
}

// AddError increments the error counter.
func (c *Collector) AddError() {
	c.mu.Lock()
	c.errors++
	c.mu.Unlock()
}

// AddPolls accumulates a viewer's poll counters.
func (c *Collector) AddPolls(polls, pollErrors int64) {
	c.mu.Lock()
	c.polls += polls
	c.pollErrors += pollErrors
	c.mu.Unlock()
}

// Report prints a formatted summary of the collected metrics to stdout.
func (c *Collector) Report() {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(c.startTime)

	fmt.Println("\n=== Load Test Results ===")
	fmt.Printf("Duration:    %s\n", elapsed.Round(time.Second))
	fmt.Printf("Viewers:     %d\n", c.viewers)
	fmt.Printf("Polls:       %d (errors: %d)\n", c.polls, c.pollErrors)
	fmt.Printf("Errors:      %d\n", c.errors)

	if len(c.joinLatencies) > 0 {
		fmt.Println("\n--- Join Latency ---")
		printPercentiles(c.joinLatencies)
	}

	if len(c.chatLatencies) > 0 {
		fmt.Println("\n--- Chat Propagation Latency ---")
		printPercentiles(c.chatLatencies)
	}

	fmt.Println()
}

// printPercentiles sorts the given durations and prints avg, p50, p95, p99,
// and max values along with the sample count.
func printPercentiles(durations []time.Duration) {
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	n := len(durations)
	p50 := durations[n/2]
	p95 := durations[int(math.Ceil(float64(n)*0.95))-1]
	p99 := durations[int(math.Ceil(float64(n)*0.99))-1]

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}
	avg := sum / time.Duration(n)

	fmt.Printf("  avg: %v  p50: %v  p95: %v  p99: %v  max: %v  (n=%d)\n",
		avg.Round(time.Millisecond),
		p50.Round(time.Millisecond),
		p95.Round(time.Millisecond),
		p99.Round(time.Millisecond),
		durations[n-1].Round(time.Millisecond),
		n,
	)
}
