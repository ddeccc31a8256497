package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"lego-house/internal/domain"
)

// Subscriber is the subset of Client the tracker needs.
type Subscriber interface {
	Subscribe(topic string, handler MessageHandler) error
}

// DefaultStaleAfter is how long a received frame stays current when the
// tracker goes silent.
const DefaultStaleAfter = 2 * time.Second

// Tracker receives point groups published by the external tracker. The
// paho goroutine is the single writer and the frame loop the single
// reader; only the most recent frame is kept and it is served on every
// tick until a newer one arrives or it goes stale.
type Tracker struct {
	staleAfter time.Duration
	now        func() time.Time

	mu         sync.Mutex
	latest     []domain.PointGroup
	receivedAt time.Time
}

type TrackerOption func(*Tracker)

// WithStaleAfter drops the last frame once it is older than d. Zero keeps
// it forever.
func WithStaleAfter(d time.Duration) TrackerOption {
	return func(t *Tracker) { t.staleAfter = d }
}

// NewTracker subscribes to the tracking topic. Failing to subscribe is a
// startup error.
func NewTracker(sub Subscriber, topics Topics, opts ...TrackerOption) (*Tracker, error) {
	t := &Tracker{staleAfter: DefaultStaleAfter, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	if err := sub.Subscribe(topics.TrackingPoints(), t.handle); err != nil {
		return nil, fmt.Errorf("subscribing to tracker: %w", err)
	}
	return t, nil
}

// CurrentPoints returns the most recent frame, or nothing when none was
// received or the last one is stale.
func (t *Tracker) CurrentPoints(_ context.Context) []domain.PointGroup {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.latest == nil {
		return nil
	}
	if t.staleAfter > 0 && t.now().Sub(t.receivedAt) > t.staleAfter {
		t.latest = nil
		return nil
	}
	return t.latest
}

func (t *Tracker) handle(_ string, payload []byte) error {
	var groups []domain.PointGroup
	if err := json.Unmarshal(payload, &groups); err != nil {
		return fmt.Errorf("decoding tracked points: %w", err)
	}
	if groups == nil {
		groups = []domain.PointGroup{}
	}

	t.mu.Lock()
	t.latest = groups
	t.receivedAt = t.now()
	t.mu.Unlock()
	return nil
}
