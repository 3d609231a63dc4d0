package utils

import (
	"context"
	"time"
)

// NewTicker emits ticks until ctx is done; the ticker is stopped afterwards.
func NewTicker(ctx context.Context, interval time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case tick := <-t.C:
				select {
				case ch <- tick:
				default:
				}
			}
		}
	}()
	return ch
}
