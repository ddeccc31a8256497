package application

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"lego-house/internal/domain"
)

// Sketch is what a host runtime drives: one call per rendered frame and
// one per key press, both from the same goroutine.
type Sketch interface {
	OnTick(ctx context.Context) image.Image
	OnKey(ctx context.Context, key rune)
}

// FrameBuffer is a Surface whose pixels can be handed to the host.
type FrameBuffer interface {
	Surface
	Image() image.Image
}

// HouseLocator consumes the pending house request every tick. It is called
// with HouseRequestNone when nothing is pending.
type HouseLocator interface {
	Apply(ctx context.Context, req domain.HouseRequest, tracked domain.TrackedPointSet) error
}

// Projection supplies the AR content projected onto the model.
type Projection interface {
	Frame(ctx context.Context) (image.Image, error)
}

const notifyInterval = time.Minute

// FrameLoop runs tracking, rendering and input dispatch once per tick and
// keeps the installation running through per-tick failures.
type FrameLoop struct {
	state      *InstallationState
	tracking   *TrackingAdapter
	renderer   *OverlayRenderer
	dispatcher *InputDispatcher
	house      HouseLocator
	projection Projection
	buffer     FrameBuffer
	notifier   Notifier
	logger     *slog.Logger

	remoteKeys <-chan rune

	mu           sync.Mutex
	lastNotified time.Time
}

func NewFrameLoop(
	state *InstallationState,
	tracking *TrackingAdapter,
	renderer *OverlayRenderer,
	dispatcher *InputDispatcher,
	house HouseLocator,
	projection Projection,
	buffer FrameBuffer,
	notifier Notifier,
	logger *slog.Logger,
) *FrameLoop {
	return &FrameLoop{
		state:      state,
		tracking:   tracking,
		renderer:   renderer,
		dispatcher: dispatcher,
		house:      house,
		projection: projection,
		buffer:     buffer,
		notifier:   notifier,
		logger:     logger,
	}
}

// UseRemoteKeys makes the loop drain keys queued by a remote input source at
// the start of every tick.
func (l *FrameLoop) UseRemoteKeys(keys <-chan rune) {
	l.remoteKeys = keys
}

func (l *FrameLoop) OnKey(ctx context.Context, key rune) {
	defer l.recoverPanic(ctx, "key")
	l.dispatcher.Handle(ctx, key)
}

func (l *FrameLoop) OnTick(ctx context.Context) image.Image {
	if err := l.tick(ctx); err != nil {
		l.fail(ctx, "tick", err)
	}
	return l.buffer.Image()
}

func (l *FrameLoop) tick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	l.drainRemoteKeys(ctx)

	tracked := l.tracking.Pull(ctx)
	l.state.setTracked(tracked)

	if err := l.house.Apply(ctx, l.state.TakeHouseRequest(), tracked); err != nil {
		// rendering still happens this tick
		l.logger.Error("house location", "error", err)
	}

	projected, err := l.projection.Frame(ctx)
	if err != nil {
		// markers and frame are still repainted without the projection
		l.renderer.Compose(l.buffer, tracked, nil)
		return fmt.Errorf("projection frame: %w", err)
	}

	l.renderer.Compose(l.buffer, tracked, projected)
	return nil
}

func (l *FrameLoop) drainRemoteKeys(ctx context.Context) {
	if l.remoteKeys == nil {
		return
	}
	for {
		select {
		case key, ok := <-l.remoteKeys:
			if !ok {
				l.remoteKeys = nil
				return
			}
			l.dispatcher.Handle(ctx, key)
		default:
			return
		}
	}
}

func (l *FrameLoop) recoverPanic(ctx context.Context, phase string) {
	if r := recover(); r != nil {
		l.fail(ctx, phase, fmt.Errorf("panic: %v", r))
	}
}

func (l *FrameLoop) fail(ctx context.Context, phase string, err error) {
	l.logger.Error("frame loop", "phase", phase, "error", err)

	l.mu.Lock()
	now := time.Now()
	if now.Sub(l.lastNotified) < notifyInterval {
		l.mu.Unlock()
		return
	}
	l.lastNotified = now
	l.mu.Unlock()

	if notifyErr := l.notifier.Notify(ctx, fmt.Sprintf("Installation %s failed: %s", phase, err)); notifyErr != nil {
		l.logger.Error("notifying failure", "error", notifyErr)
	}
}
