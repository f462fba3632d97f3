package main

import (
	"context"
	"log"
	"time"

	"tempest/internal/dispatcher"
)

// RunMetrics logs dispatcher registry sizes every interval until ctx is
// canceled. A tick where both counts are zero logs nothing.
func RunMetrics(ctx context.Context, d *dispatcher.Dispatcher, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := d.Stats()
			if stats.Users > 0 || stats.Games > 0 {
				log.Printf("[metrics] users=%d games=%d", stats.Users, stats.Games)
			}
		}
	}
}
