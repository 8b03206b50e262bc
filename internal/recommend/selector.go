// Package recommend implements venue selection for the two recommendation
// modes: a uniform random sample and a rank-ordered top list.
package recommend

import (
	"context"
	"io"
	"log/slog"

	"github.com/yttsai/venuebot/internal/database"
	"github.com/yttsai/venuebot/internal/session"
)

// Selector returns ordered candidate venue lists for a (category, region)
// partition. A datastore failure on this read path degrades to an empty
// result; the caller renders "no results" rather than erroring the turn.
type Selector struct {
	store  database.Store
	logger *slog.Logger
}

// NewSelector creates a Selector backed by the given store.
func NewSelector(store database.Store, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Selector{
		store:  store,
		logger: logger.With("component", "selector"),
	}
}

// Select returns up to k venues from the (category, region) partition.
// ModeSurprise draws a uniform random sample without replacement; any other
// mode (including ModeUnset) returns the k venues with the highest star,
// deterministically ordered for a fixed snapshot. An empty partition yields
// an empty slice, never an error.
func (s *Selector) Select(ctx context.Context, category, region string, mode session.Mode, k int) []database.Venue {
	var (
		venues []database.Venue
		err    error
	)

	switch mode {
	case session.ModeSurprise:
		venues, err = s.store.SampleRandom(ctx, category, region, k)
	default:
		venues, err = s.store.TopByStar(ctx, category, region, k)
	}

	if err != nil {
		s.logger.WarnContext(ctx, "Venue selection failed, returning empty result",
			"category", category, "region", region, "mode", mode.String(), "error", err)
		return nil
	}

	s.logger.DebugContext(ctx, "Selected venues",
		"category", category, "region", region, "mode", mode.String(), "count", len(venues))
	return venues
}
