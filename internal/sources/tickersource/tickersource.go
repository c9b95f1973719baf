// Package tickersource adapts a time.Ticker into a reactive source
// stream that fires the tick's timestamp on every interval.
package tickersource

import (
	"sync"
	"time"

	"github.com/nugget/reactived/internal/reactive"
)

// Source fires time.Time once per Interval, starting Interval after the
// node starts. It implements reactive.Source[time.Time].
type Source struct {
	Interval time.Duration

	mu      sync.Mutex
	ticker  *time.Ticker
	done    chan struct{}
	stopped chan struct{}
}

// New constructs a Source ticking every interval.
func New(interval time.Duration) *Source {
	return &Source{Interval: interval}
}

// Start implements reactive.Source: it starts the ticker and relays
// each tick via handle.Fire on a background goroutine, until Stop. The
// goroutine closes over its own local ticker/done rather than reading
// them back off s, so a Stop immediately followed by a Start (the
// stop/restart cycle a node goes through on 1->0->1 observer count) can
// never race the old goroutine against the new fields.
func (s *Source) Start(h reactive.SourceHandle[time.Time]) {
	ticker := time.NewTicker(s.Interval)
	done := make(chan struct{})
	stopped := make(chan struct{})

	s.mu.Lock()
	s.ticker = ticker
	s.done = done
	s.stopped = stopped
	s.mu.Unlock()

	go func() {
		defer close(stopped)
		for {
			select {
			case t := <-ticker.C:
				h.Fire(t)
			case <-done:
				return
			}
		}
	}()
}

// Stop implements reactive.Source: it stops the ticker, signals the
// relay goroutine to exit, and waits for it to actually do so before
// returning — so a subsequent Start never overlaps with the previous
// goroutine's select.
func (s *Source) Stop() {
	s.mu.Lock()
	ticker, done, stopped := s.ticker, s.done, s.stopped
	s.mu.Unlock()

	if ticker != nil {
		ticker.Stop()
	}
	if done != nil {
		close(done)
	}
	if stopped != nil {
		<-stopped
	}
}
