// cleanup.go - Retention sweeper.
//
// A background task that purges artifacts older than the retention window on
// a fixed interval. Sweeper errors never escape: a failed cycle logs and
// retries after a shorter backoff instead of crashing the service.
package server

import (
	"context"
	"log"
	"sync"
	"time"
)

// SweeperConfig controls the retention sweeper.
type SweeperConfig struct {
	Interval time.Duration // delay between successful cycles
	Backoff  time.Duration // delay after a failed cycle
	MaxAge   time.Duration // retention window
}

// sweeperStatus is shared between the sweeper goroutine and the health
// endpoint.
type sweeperStatus struct {
	mu      sync.Mutex
	lastRun time.Time
	lastErr error
	purged  int64
}

func (st *sweeperStatus) observe(purged int, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.lastRun = time.Now()
	st.lastErr = err
	st.purged += int64(purged)
}

func (st *sweeperStatus) snapshot() (lastRun time.Time, lastErr error, purged int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lastRun, st.lastErr, st.purged
}

// startSweeper runs purge cycles until ctx is cancelled. The first cycle
// runs immediately. Cancellation is observed while sleeping, not just
// between cycles, so shutdown is never delayed by a full interval.
func startSweeper(ctx context.Context, spool *Spool, cfg SweeperConfig, st *sweeperStatus) {
	log.Printf("service=sweeper msg=%q interval=%s retention=%s", "starting", cfg.Interval, cfg.MaxAge)

	for {
		purged, err := spool.PurgeOlderThan(cfg.MaxAge)
		metricSweeperRunsTotal.Inc()
		st.observe(purged, err)

		delay := cfg.Interval
		if err != nil {
			metricSweeperErrorsTotal.Inc()
			log.Printf("service=sweeper msg=%q err=%v backoff=%s", "cycle_failed", err, cfg.Backoff)
			delay = cfg.Backoff
		} else if purged > 0 {
			metricArtifactsPurgedTotal.Add(float64(purged))
			log.Printf("service=sweeper msg=%q purged=%d", "cycle_complete", purged)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Printf("service=sweeper msg=%q", "shutting_down")
			return
		case <-timer.C:
		}
	}
}
