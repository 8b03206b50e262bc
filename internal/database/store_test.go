package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "venues_test.db")
	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { CloseDB(db) })

	return NewStore(db, nil)
}

func seedPartition(t *testing.T, store Store, category, region string, stars []float64) {
	t.Helper()

	for i, star := range stars {
		venue := &Venue{
			Category: category,
			Region:   region,
			Title:    fmt.Sprintf("%s-%s-%d", category, region, i+1),
			Star:     star,
		}
		if star > 0 {
			venue.Count = 1
		}
		if err := store.InsertVenue(context.Background(), venue); err != nil {
			t.Fatalf("InsertVenue failed: %v", err)
		}
	}
}

func TestInsertVenueDefaultsDisplayFields(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	venue := &Venue{Category: "food", Region: "南區", Title: "安安麵館"}
	if err := store.InsertVenue(context.Background(), venue); err != nil {
		t.Fatalf("InsertVenue failed: %v", err)
	}

	got, err := store.GetVenue(context.Background(), "food", "南區", "安安麵館")
	if err != nil {
		t.Fatalf("GetVenue failed: %v", err)
	}
	if got.Phone != PlaceholderPhone {
		t.Errorf("expected placeholder phone, got %q", got.Phone)
	}
	if got.Address != PlaceholderAddress {
		t.Errorf("expected placeholder address, got %q", got.Address)
	}
	if got.BusinessHours != PlaceholderBusinessHours {
		t.Errorf("expected placeholder business hours, got %q", got.BusinessHours)
	}
	if got.MapLink != PlaceholderMapLink {
		t.Errorf("expected placeholder map link, got %q", got.MapLink)
	}
	if got.Star != 0 || got.Count != 0 {
		t.Errorf("expected zero aggregate, got (%v, %d)", got.Star, got.Count)
	}
}

func TestInsertVenueSeededStarGetsCountOne(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	venue := &Venue{Category: "food", Region: "南區", Title: "預評分店", Star: 4.5}
	if err := store.InsertVenue(context.Background(), venue); err != nil {
		t.Fatalf("InsertVenue failed: %v", err)
	}

	got, err := store.GetVenue(context.Background(), "food", "南區", "預評分店")
	if err != nil {
		t.Fatalf("GetVenue failed: %v", err)
	}
	if got.Star != 4.5 || got.Count != 1 {
		t.Errorf("expected (4.5, 1), got (%v, %d)", got.Star, got.Count)
	}
}

func TestGetVenueNotFound(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedPartition(t, store, "food", "南區", []float64{3.0})

	_, err := store.GetVenue(context.Background(), "food", "南區", "不存在")
	if !errors.Is(err, ErrVenueNotFound) {
		t.Fatalf("expected ErrVenueNotFound, got %v", err)
	}

	// Same title in another partition is not a match.
	_, err = store.GetVenue(context.Background(), "food", "北區", "food-南區-1")
	if !errors.Is(err, ErrVenueNotFound) {
		t.Fatalf("expected ErrVenueNotFound across partitions, got %v", err)
	}
}

func TestTopByStarOrderAndTieBreak(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedPartition(t, store, "food", "南區", []float64{3.0, 4.5, 4.5, 2.0, 5.0})
	seedPartition(t, store, "food", "北區", []float64{5.0})

	venues, err := store.TopByStar(context.Background(), "food", "南區", 3)
	if err != nil {
		t.Fatalf("TopByStar failed: %v", err)
	}
	if len(venues) != 3 {
		t.Fatalf("expected 3 venues, got %d", len(venues))
	}

	wantTitles := []string{"food-南區-5", "food-南區-2", "food-南區-3"}
	for i, want := range wantTitles {
		if venues[i].Title != want {
			t.Errorf("position %d: expected %q, got %q", i, want, venues[i].Title)
		}
	}

	// Determinism across repeated calls on a fixed snapshot.
	for trial := 0; trial < 5; trial++ {
		again, err := store.TopByStar(context.Background(), "food", "南區", 3)
		if err != nil {
			t.Fatalf("TopByStar failed: %v", err)
		}
		for i := range venues {
			if again[i].ID != venues[i].ID {
				t.Fatalf("trial %d: non-deterministic order at %d", trial, i)
			}
		}
	}
}

func TestSampleRandomStaysInPartition(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedPartition(t, store, "snack", "東區", []float64{1, 2, 3, 4, 5})
	seedPartition(t, store, "snack", "西區", []float64{5})
	seedPartition(t, store, "food", "東區", []float64{5})

	for trial := 0; trial < 10; trial++ {
		venues, err := store.SampleRandom(context.Background(), "snack", "東區", 3)
		if err != nil {
			t.Fatalf("SampleRandom failed: %v", err)
		}
		if len(venues) != 3 {
			t.Fatalf("expected 3 venues, got %d", len(venues))
		}
		seen := make(map[uint]bool)
		for _, venue := range venues {
			if venue.Category != "snack" || venue.Region != "東區" {
				t.Fatalf("cross-partition leakage: (%s, %s)", venue.Category, venue.Region)
			}
			if seen[venue.ID] {
				t.Fatalf("duplicate venue id %d in sample", venue.ID)
			}
			seen[venue.ID] = true
		}
	}
}

func TestSampleRandomSmallPartition(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedPartition(t, store, "attraction", "安平區", []float64{4.0, 3.0})

	venues, err := store.SampleRandom(context.Background(), "attraction", "安平區", 3)
	if err != nil {
		t.Fatalf("SampleRandom failed: %v", err)
	}
	if len(venues) != 2 {
		t.Errorf("expected the whole 2-venue partition, got %d", len(venues))
	}
}

func TestSampleRandomEmptyPartition(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	venues, err := store.SampleRandom(context.Background(), "food", "無人區", 3)
	if err != nil {
		t.Fatalf("SampleRandom failed: %v", err)
	}
	if len(venues) != 0 {
		t.Errorf("expected empty result, got %d", len(venues))
	}
}

func TestUpdateStarAndCount(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedPartition(t, store, "food", "南區", []float64{4.0})

	title := "food-南區-1"
	if err := store.UpdateStarAndCount(context.Background(), "food", "南區", title, 3.5, 2); err != nil {
		t.Fatalf("UpdateStarAndCount failed: %v", err)
	}

	got, err := store.GetVenue(context.Background(), "food", "南區", title)
	if err != nil {
		t.Fatalf("GetVenue failed: %v", err)
	}
	if got.Star != 3.5 || got.Count != 2 {
		t.Errorf("expected (3.5, 2), got (%v, %d)", got.Star, got.Count)
	}
}

func TestUpdateStarAndCountMissingVenue(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	err := store.UpdateStarAndCount(context.Background(), "food", "南區", "幽靈店", 3.0, 1)
	if !errors.Is(err, ErrVenueNotFound) {
		t.Fatalf("expected ErrVenueNotFound, got %v", err)
	}
}

func TestUpdateStarAndCountValidatesRange(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedPartition(t, store, "food", "南區", []float64{4.0})

	if err := store.UpdateStarAndCount(context.Background(), "food", "南區", "food-南區-1", 5.5, 1); err == nil {
		t.Error("expected error for star above 5")
	}
	if err := store.UpdateStarAndCount(context.Background(), "food", "南區", "food-南區-1", 3.0, -1); err == nil {
		t.Error("expected error for negative count")
	}
}

func TestCountVenues(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedPartition(t, store, "food", "南區", []float64{1, 2})
	seedPartition(t, store, "snack", "東區", []float64{3})

	count, err := store.CountVenues(context.Background())
	if err != nil {
		t.Fatalf("CountVenues failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 venues, got %d", count)
	}
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := store.RunSQLMaintenance(context.Background()); err != nil {
		t.Fatalf("RunSQLMaintenance failed: %v", err)
	}
}
