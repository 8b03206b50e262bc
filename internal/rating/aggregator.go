// Package rating implements the running-average rating aggregate for venues.
package rating

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/yttsai/venuebot/internal/database"
)

// ErrVenueNotFound re-exports the store sentinel so callers need not import
// the database package to classify a missed lookup.
var ErrVenueNotFound = database.ErrVenueNotFound

// Aggregator folds star ratings into a venue's running average. The
// read-modify-write on (star, count) is serialized per venue key: two
// concurrent ratings for the same venue never both read the same old
// aggregate and silently overwrite one another.
type Aggregator struct {
	store  database.Store
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*venueLock
}

// venueLock guards one venue key. refs counts the holders and waiters so the
// entry can be dropped from the map once the last one releases; ratings for
// forged or misspelled titles must not grow the map without bound.
type venueLock struct {
	mu   sync.Mutex
	refs int
}

// NewAggregator creates an Aggregator backed by the given store.
func NewAggregator(store database.Store, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Aggregator{
		store:  store,
		logger: logger.With("component", "aggregator"),
		locks:  make(map[string]*venueLock),
	}
}

func venueKey(category, region, title string) string {
	return category + "\x00" + region + "\x00" + title
}

// acquire locks the venue key, creating its lock entry on first use.
func (a *Aggregator) acquire(key string) *venueLock {
	a.mu.Lock()
	l, ok := a.locks[key]
	if !ok {
		l = &venueLock{}
		a.locks[key] = l
	}
	l.refs++
	a.mu.Unlock()

	l.mu.Lock()
	return l
}

// release unlocks the venue key and drops its lock entry when no other
// Apply holds or waits on it.
func (a *Aggregator) release(key string, l *venueLock) {
	l.mu.Unlock()

	a.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(a.locks, key)
	}
	a.mu.Unlock()
}

// Apply records one rating for the venue identified by exact title match
// within the (category, region) partition and returns the updated venue.
// Returns ErrVenueNotFound, with no update performed, if the title does not
// match any venue. A store write failure is returned to the caller and may
// be retried.
func (a *Aggregator) Apply(ctx context.Context, category, region, title string, ratingValue int) (*database.Venue, error) {
	if ratingValue < 1 || ratingValue > 5 {
		return nil, fmt.Errorf("rating %d out of range [1,5]", ratingValue)
	}

	key := venueKey(category, region, title)
	l := a.acquire(key)
	defer a.release(key, l)

	venue, err := a.store.GetVenue(ctx, category, region, title)
	if err != nil {
		if errors.Is(err, database.ErrVenueNotFound) {
			a.logger.InfoContext(ctx, "Rating submitted for unknown venue",
				"category", category, "region", region, "title", title)
			return nil, ErrVenueNotFound
		}
		return nil, fmt.Errorf("failed to load venue for rating: %w", err)
	}

	oldCount := venue.Count
	if oldCount < 0 {
		oldCount = 0
	}
	newCount := oldCount + 1
	newStar := round1((venue.Star*float64(oldCount) + float64(ratingValue)) / float64(newCount))

	if err := a.store.UpdateStarAndCount(ctx, category, region, title, newStar, newCount); err != nil {
		return nil, fmt.Errorf("failed to persist rating for %q: %w", title, err)
	}

	venue.Star = newStar
	venue.Count = newCount

	a.logger.InfoContext(ctx, "Rating recorded",
		"category", category, "region", region, "title", title,
		"rating", ratingValue, "star", newStar, "count", newCount)
	return venue, nil
}

// round1 rounds to one decimal place, matching the precision the venue cards
// display.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
