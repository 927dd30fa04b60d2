// Package clock renders the portal's live 12-hour clock.
package clock

import (
	"context"
	"time"
)

// DefaultInterval is the redraw period.
const DefaultInterval = time.Second

// Format renders t as "hh:mm:ss AM". The hour is zero-padded and midnight
// and noon both show as 12.
func Format(t time.Time) string {
	return t.Format("03:04:05 PM")
}

// Run renders the current time immediately and again on every tick until ctx
// is done. A non-positive interval uses DefaultInterval; a nil now uses
// time.Now.
func Run(ctx context.Context, interval time.Duration, now func() time.Time, render func(string)) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if now == nil {
		now = time.Now
	}

	render(Format(now()))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			render(Format(now()))
		}
	}
}
