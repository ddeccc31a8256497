package house

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lego-house/internal/domain"
)

// Repository is the persistence the Locator needs. *Store implements it.
type Repository interface {
	Save(ctx context.Context, loc domain.HouseLocation) error
	Latest(ctx context.Context) (domain.HouseLocation, error)
}

// Locator owns the placement of the house overlay. It consumes one house
// request per tick: save persists, load restores, move makes the placement
// follow the first tracked group until the next save or load.
type Locator struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	location  domain.HouseLocation
	following bool
}

func NewLocator(repo Repository, initial domain.HouseLocation, logger *slog.Logger) *Locator {
	return &Locator{
		repo:     repo,
		logger:   logger,
		now:      time.Now,
		location: initial,
	}
}

func (l *Locator) Location() domain.HouseLocation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.location
}

func (l *Locator) Following() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.following
}

func (l *Locator) Apply(ctx context.Context, req domain.HouseRequest, tracked domain.TrackedPointSet) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch req {
	case domain.HouseRequestSave:
		l.following = false
		loc := l.location
		loc.SavedAt = l.now()
		if err := l.repo.Save(ctx, loc); err != nil {
			return fmt.Errorf("saving house: %w", err)
		}
		l.location = loc
		l.logger.Info("house location saved", "x", loc.X, "y", loc.Y)
		return nil

	case domain.HouseRequestLoad:
		l.following = false
		loc, err := l.repo.Latest(ctx)
		if errors.Is(err, ErrNoLocation) {
			l.logger.Info("no saved house location, keeping current")
			return nil
		}
		if err != nil {
			return fmt.Errorf("loading house: %w", err)
		}
		l.location = loc
		l.logger.Info("house location loaded", "x", loc.X, "y", loc.Y, "saved_at", loc.SavedAt)
		return nil

	case domain.HouseRequestMove:
		l.following = true
		l.logger.Info("house following tracked points")
	}

	if l.following {
		l.follow(tracked)
	}
	return nil
}

func (l *Locator) follow(tracked domain.TrackedPointSet) {
	for _, g := range tracked {
		if c, ok := g.Centroid(); ok {
			l.location.X, l.location.Y = c.X, c.Y
			return
		}
	}
}
