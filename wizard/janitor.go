/*
janitor.go - Background sweep of expired sessions

PURPOSE:
  Abandoned capture flows leave sessions behind until their idle
  deadline passes. Expiry is enforced on every touch regardless, so the
  janitor is purely about memory: it periodically drops sessions nobody
  will ever touch again.

USAGE:
  janitor := NewJanitor(engine.Sessions())
  janitor.Start()
  // ... on shutdown
  janitor.Stop()
*/
package wizard

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultSweepInterval is how often the janitor runs. A quarter of the
// idle timeout keeps the table small without mattering for correctness.
const DefaultSweepInterval = 30 * time.Second

// Janitor periodically sweeps expired sessions out of a Registry.
type Janitor struct {
	Sessions *Registry
	Interval time.Duration
	Logger   *slog.Logger

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewJanitor(sessions *Registry) *Janitor {
	return &Janitor{
		Sessions: sessions,
		Interval: DefaultSweepInterval,
		Logger:   slog.Default(),
		stop:     make(chan bool),
	}
}

// Start begins the sweep loop.
func (j *Janitor) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.ticker = time.NewTicker(j.Interval)
	j.wg.Add(1)
	go j.run()

	j.Logger.Debug("session janitor started", "interval", j.Interval)
}

// Stop halts the sweep loop and waits for it to finish.
func (j *Janitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.ticker != nil {
		j.ticker.Stop()
		close(j.stop)
		j.wg.Wait()
		j.Logger.Debug("session janitor stopped")
	}
}

func (j *Janitor) run() {
	defer j.wg.Done()

	for {
		select {
		case <-j.ticker.C:
			j.sweep()
		case <-j.stop:
			return
		}
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (j *Janitor) RunNow() {
	j.sweep()
}

func (j *Janitor) sweep() {
	if swept := j.Sessions.Sweep(); swept > 0 {
		j.Logger.Debug("swept expired sessions", "count", swept, "live", j.Sessions.Len())
	}
}
