// cooldown.go - Per-client upload cooldown.
package server

import (
	"sync"
	"time"
)

// cooldownTracker records the last accepted upload per client address and
// rejects a new upload arriving inside the cooldown window.
//
// Entries are never evicted, so the map grows with the number of distinct
// client addresses seen over the process lifetime. That matches the upstream
// behavior and is bounded in practice by the dashboard's audience.
type cooldownTracker struct {
	mu           sync.Mutex
	cooldown     time.Duration
	lastAccepted map[string]time.Time
}

func newCooldownTracker(cooldown time.Duration) *cooldownTracker {
	return &cooldownTracker{
		cooldown:     cooldown,
		lastAccepted: make(map[string]time.Time),
	}
}

// allow reports whether client may start an upload at now. It does not
// mutate tracker state; a rejected or failed upload costs the client nothing.
func (c *cooldownTracker) allow(client string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	last, ok := c.lastAccepted[client]
	return !ok || now.Sub(last) >= c.cooldown
}

// record notes a completed upload. Called only after the artifact is fully
// on disk, so the cooldown window starts from accepted uploads alone.
func (c *cooldownTracker) record(client string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastAccepted[client] = now
}
