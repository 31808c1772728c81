/*
reaper.go - Automated payment link expiry sweep

PURPOSE:
  Periodically deletes payment links whose TTL has elapsed so tokens for
  stale links stop resolving. Payment itself re-checks expiry, so the
  sweep is hygiene, not the source of correctness.

CONFIGURATION:
  - SweepInterval: How often to sweep (default: 1 minute)
  - Enabled: Whether the reaper is active (default: true)

USAGE:
  reaper := NewLinkReaper(store, clock)
  reaper.Start()
  // ... later
  reaper.Stop()

SEE ALSO:
  - handlers.go: PayLink re-validates expiry at payment time
  - coin/link.go: LinkManager expiry semantics
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/virtus/coin-engine/coin"
)

// LinkReaper deletes expired payment links on a fixed cadence.
type LinkReaper struct {
	Store         coin.Store
	Clock         coin.Clock
	SweepInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewLinkReaper creates a reaper with the default one-minute cadence.
func NewLinkReaper(store coin.Store, clock coin.Clock) *LinkReaper {
	return &LinkReaper{
		Store:         store,
		Clock:         clock,
		SweepInterval: 1 * time.Minute,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the background sweep.
func (lr *LinkReaper) Start() {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if !lr.Enabled {
		log.Println("[Reaper] Disabled, not starting")
		return
	}

	lr.ticker = time.NewTicker(lr.SweepInterval)
	lr.wg.Add(1)

	go lr.run()

	log.Printf("[Reaper] Started with sweep interval: %v", lr.SweepInterval)
}

// Stop stops the reaper and waits for an in-flight sweep to finish.
func (lr *LinkReaper) Stop() {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if lr.ticker != nil {
		lr.ticker.Stop()
		close(lr.stop)
		lr.wg.Wait()
		log.Println("[Reaper] Stopped")
	}
}

func (lr *LinkReaper) run() {
	defer lr.wg.Done()

	// Run immediately on start
	lr.sweep()

	for {
		select {
		case <-lr.ticker.C:
			lr.sweep()
		case <-lr.stop:
			return
		}
	}
}

func (lr *LinkReaper) sweep() {
	ctx := context.Background()
	now := lr.Clock.Now()

	purged, err := lr.Store.PurgeExpiredLinks(ctx, now)
	if err != nil {
		log.Printf("[Reaper] Error purging expired links: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("[Reaper] Purged %d expired payment link(s)", purged)
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (lr *LinkReaper) RunNow() {
	lr.sweep()
}
