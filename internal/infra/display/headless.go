package display

import (
	"context"
	"fmt"
	"time"
)

// HeadlessConfig drives a sketch without a window, for installations fed
// only by the remote and the tracker.
type HeadlessConfig struct {
	TPS int
	// Ticks stops the run after that many frames. Zero runs until ctx ends.
	Ticks uint64
}

// RunHeadless ticks the sketch at cfg.TPS until ctx is cancelled or the tick
// budget is spent. Frames are rendered and discarded.
func RunHeadless(ctx context.Context, sketch Sketch, cfg HeadlessConfig) error {
	if cfg.TPS <= 0 {
		cfg.TPS = 60
	}
	d := time.Second / time.Duration(cfg.TPS)
	if d <= 0 {
		return fmt.Errorf("invalid headless tps: %d", cfg.TPS)
	}

	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			sketch.OnTick(ctx)
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return nil
			}
		}
	}
}
