package application

import (
	"context"

	"lego-house/internal/domain"
)

// Tracker is the external touch/marker tracker. CurrentPoints returns the
// groups seen since the last call; the slice must not be retained past the
// tick.
type Tracker interface {
	CurrentPoints(ctx context.Context) []domain.PointGroup
}

// TrackingAdapter pulls one frame of tracked points per tick and maps them
// into screen space. The mapping is 1:1; calibration happens upstream.
type TrackingAdapter struct {
	tracker Tracker
}

func NewTrackingAdapter(tracker Tracker) *TrackingAdapter {
	return &TrackingAdapter{tracker: tracker}
}

// Pull never fails: no points is an empty set.
func (a *TrackingAdapter) Pull(ctx context.Context) domain.TrackedPointSet {
	groups := a.tracker.CurrentPoints(ctx)
	set := make(domain.TrackedPointSet, 0, len(groups))
	for _, g := range groups {
		if g == nil {
			continue
		}
		out := make(domain.PointGroup, len(g))
		copy(out, g)
		set = append(set, out)
	}
	return set
}
