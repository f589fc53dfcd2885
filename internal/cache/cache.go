// Package cache holds small in-process caches with expiry.
package cache

import (
	"context"
	"time"
)

// Expirer is implemented by caches that can drop stale entries on demand.
type Expirer interface {
	PurgeExpired() int
}

// Janitor purges registered caches on a fixed interval.
type Janitor struct {
	caches []Expirer
}

func NewJanitor(caches ...Expirer) *Janitor {
	return &Janitor{caches: caches}
}

// Run purges every interval until ctx is done. It returns ctx.Err().
func (j *Janitor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.Purge()
		}
	}
}

// Purge runs one pass over all caches and returns how many entries went away.
func (j *Janitor) Purge() int {
	total := 0
	for _, c := range j.caches {
		total += c.PurgeExpired()
	}
	return total
}
