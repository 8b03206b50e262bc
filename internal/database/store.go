package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrVenueNotFound indicates a lookup for a title with no matching venue
// in the requested (category, region) partition.
var ErrVenueNotFound = errors.New("venue not found")

// Store defines the interface for venue database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SampleRandom retrieves up to 'limit' venues from the (category, region)
	// partition in random order.
	SampleRandom(ctx context.Context, category, region string, limit int) ([]Venue, error)

	// TopByStar retrieves up to 'limit' venues from the (category, region)
	// partition ordered by star descending, ties broken by insertion order.
	TopByStar(ctx context.Context, category, region string, limit int) ([]Venue, error)

	// GetVenue retrieves a venue by exact title match within its partition.
	// Returns ErrVenueNotFound if no such venue exists.
	GetVenue(ctx context.Context, category, region, title string) (*Venue, error)

	// UpdateStarAndCount persists a recomputed rating aggregate for a venue.
	// Returns ErrVenueNotFound if no row was updated.
	UpdateStarAndCount(ctx context.Context, category, region, title string, star float64, count int) error

	// InsertVenue inserts a new venue record, defaulting blank display fields.
	InsertVenue(ctx context.Context, venue *Venue) error

	// CountVenues returns the total number of venue records.
	CountVenues(ctx context.Context) (int, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const venueColumns = `id, created_at, updated_at, category, region, title,
        phone, address, business_hours, map_link, image_link, star, count`

// SampleRandom retrieves up to 'limit' venues from a partition in random order.
func (s *sqlxStore) SampleRandom(ctx context.Context, category, region string, limit int) ([]Venue, error) {
	if err := validatePartition(category, region); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	var venues []Venue
	query := `
        SELECT ` + venueColumns + `
        FROM venues
        WHERE category = ? AND region = ?
        ORDER BY RANDOM()
        LIMIT ?;
    `

	err := s.db.SelectContext(ctx, &venues, query, category, region, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error sampling venues",
			"category", category, "region", region, "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to sample venues (%s, %s): %w", category, region, err)
	}

	s.logger.DebugContext(ctx, "Sampled venues",
		"category", category, "region", region, "count", len(venues))
	return venues, nil
}

// TopByStar retrieves up to 'limit' venues ordered by star descending.
// The id tie-break keeps the order deterministic for a fixed snapshot.
func (s *sqlxStore) TopByStar(ctx context.Context, category, region string, limit int) ([]Venue, error) {
	if err := validatePartition(category, region); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	var venues []Venue
	query := `
        SELECT ` + venueColumns + `
        FROM venues
        WHERE category = ? AND region = ?
        ORDER BY star DESC, id ASC
        LIMIT ?;
    `

	err := s.db.SelectContext(ctx, &venues, query, category, region, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting top-rated venues",
			"category", category, "region", region, "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get top-rated venues (%s, %s): %w", category, region, err)
	}

	s.logger.DebugContext(ctx, "Fetched top-rated venues",
		"category", category, "region", region, "count", len(venues))
	return venues, nil
}

// GetVenue retrieves a venue by exact title match within its partition.
func (s *sqlxStore) GetVenue(ctx context.Context, category, region, title string) (*Venue, error) {
	if err := validatePartition(category, region); err != nil {
		return nil, err
	}
	if title == "" {
		return nil, fmt.Errorf("title cannot be empty")
	}

	var venue Venue
	query := `
        SELECT ` + venueColumns + `
        FROM venues
        WHERE category = ? AND region = ? AND title = ?;
    `

	err := s.db.GetContext(ctx, &venue, query, category, region, title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting venue",
			"category", category, "region", region, "title", title, "error", err)
		return nil, fmt.Errorf("failed to get venue %q (%s, %s): %w", title, category, region, err)
	}

	return &venue, nil
}

// UpdateStarAndCount persists a recomputed rating aggregate for a venue.
func (s *sqlxStore) UpdateStarAndCount(ctx context.Context, category, region, title string, star float64, count int) error {
	if err := validatePartition(category, region); err != nil {
		return err
	}
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if star < 0 || star > 5 {
		return fmt.Errorf("star %v out of range [0,5]", star)
	}
	if count < 0 {
		return fmt.Errorf("count %d cannot be negative", count)
	}

	query := `
        UPDATE venues
        SET star = ?, count = ?, updated_at = ?
        WHERE category = ? AND region = ? AND title = ?;
    `

	result, err := s.db.ExecContext(ctx, query, star, count, time.Now().UTC(), category, region, title)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating venue rating",
			"category", category, "region", region, "title", title, "error", err)
		return fmt.Errorf("failed to update rating for %q (%s, %s): %w", title, category, region, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rating update result for %q: %w", title, err)
	}
	if affected == 0 {
		return ErrVenueNotFound
	}

	s.logger.DebugContext(ctx, "Venue rating updated",
		"category", category, "region", region, "title", title, "star", star, "count", count)
	return nil
}

// InsertVenue inserts a new venue record. Blank display fields are defaulted
// to their placeholder values; a venue seeded with a non-zero star but no
// count is treated as carrying a single rating.
func (s *sqlxStore) InsertVenue(ctx context.Context, venue *Venue) error {
	if venue == nil {
		return fmt.Errorf("cannot insert nil venue")
	}
	if err := validatePartition(venue.Category, venue.Region); err != nil {
		return err
	}

	if venue.Title == "" {
		venue.Title = PlaceholderTitle
	}
	if venue.Phone == "" {
		venue.Phone = PlaceholderPhone
	}
	if venue.Address == "" {
		venue.Address = PlaceholderAddress
	}
	if venue.BusinessHours == "" {
		venue.BusinessHours = PlaceholderBusinessHours
	}
	if venue.MapLink == "" {
		venue.MapLink = PlaceholderMapLink
	}
	if venue.Star > 0 && venue.Count == 0 {
		venue.Count = 1
	}

	now := time.Now().UTC()
	venue.CreatedAt = now
	venue.UpdatedAt = now

	query := `
        INSERT INTO venues (created_at, updated_at, category, region, title,
            phone, address, business_hours, map_link, image_link, star, count)
        VALUES (:created_at, :updated_at, :category, :region, :title,
            :phone, :address, :business_hours, :map_link, :image_link, :star, :count);
    `

	result, err := s.db.NamedExecContext(ctx, query, venue)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error inserting venue",
			"category", venue.Category, "region", venue.Region, "title", venue.Title, "error", err)
		return fmt.Errorf("failed to insert venue %q (%s, %s): %w",
			venue.Title, venue.Category, venue.Region, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		venue.ID = uint(id)
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after inserting venue",
			"title", venue.Title, "error", err)
	}

	s.logger.DebugContext(ctx, "Venue inserted",
		"category", venue.Category, "region", venue.Region, "title", venue.Title, "venue_id", venue.ID)
	return nil
}

// CountVenues returns the total number of venue records.
func (s *sqlxStore) CountVenues(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM venues;`); err != nil {
		return 0, fmt.Errorf("failed to count venues: %w", err)
	}
	return count, nil
}

// RunSQLMaintenance performs VACUUM and ANALYZE to keep the database healthy.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Running SQL maintenance (VACUUM, ANALYZE)")

	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		return fmt.Errorf("failed to run VACUUM: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "ANALYZE;"); err != nil {
		return fmt.Errorf("failed to run ANALYZE: %w", err)
	}

	s.logger.InfoContext(ctx, "SQL maintenance completed")
	return nil
}

func validatePartition(category, region string) error {
	if category == "" {
		return fmt.Errorf("category cannot be empty")
	}
	if region == "" {
		return fmt.Errorf("region cannot be empty")
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 3
	}
	if limit > 50 {
		return 50
	}
	return limit
}
