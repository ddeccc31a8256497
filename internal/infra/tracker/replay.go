// Package tracker holds tracker sources that do not need the broker.
package tracker

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"lego-house/internal/domain"
)

// Recording is the on-disk format of a replay file:
//
//	repeat: 2            # ticks each frame is held for
//	frames:
//	  - [[{x: 10, y: 20}, {x: 12, y: 20}]]
//	  - []
type Recording struct {
	Repeat int                   `yaml:"repeat"`
	Frames [][]domain.PointGroup `yaml:"frames"`
}

// Replay plays back a recorded tracking session in a loop. It lets the
// preview rig run without camera hardware.
type Replay struct {
	mu     sync.Mutex
	rec    Recording
	frame  int
	repeat int
}

// Open loads a recording. A missing or malformed file is a startup error.
func Open(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading replay file: %w", err)
	}

	var rec Recording
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing replay file %s: %w", path, err)
	}

	return NewReplay(rec), nil
}

func NewReplay(rec Recording) *Replay {
	if rec.Repeat < 1 {
		rec.Repeat = 1
	}
	return &Replay{rec: rec}
}

func (r *Replay) CurrentPoints(_ context.Context) []domain.PointGroup {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.rec.Frames) == 0 {
		return nil
	}

	groups := r.rec.Frames[r.frame]

	r.repeat++
	if r.repeat >= r.rec.Repeat {
		r.repeat = 0
		r.frame = (r.frame + 1) % len(r.rec.Frames)
	}

	return groups
}
