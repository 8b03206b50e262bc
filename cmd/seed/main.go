// Package main imports venue records from a JSON file into the bot database.
// Venue records are created through this importer (or future ones); the bot
// itself only mutates rating aggregates.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/goccy/go-json"

	"github.com/yttsai/venuebot/internal/config"
	"github.com/yttsai/venuebot/internal/database"
	"github.com/yttsai/venuebot/internal/logger"
)

// seedVenue mirrors the export format of the venue spreadsheet.
type seedVenue struct {
	Category      string  `json:"category"`
	Region        string  `json:"region"`
	Title         string  `json:"title"`
	Phone         string  `json:"phone"`
	Address       string  `json:"address"`
	BusinessHours string  `json:"business_hours"`
	MapLink       string  `json:"map_link"`
	ImageLink     string  `json:"image_link"`
	Star          float64 `json:"star"`
	Count         int     `json:"count"`
}

func main() {
	os.Exit(run())
}

func run() int {
	seedPath := flag.String("file", "venues.json", "Path to the venue seed file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.Format == "json")

	data, err := os.ReadFile(*seedPath)
	if err != nil {
		log.Error("Failed to read seed file", "path", *seedPath, "error", err)
		return 1
	}

	var seeds []seedVenue
	if err := json.Unmarshal(data, &seeds); err != nil {
		log.Error("Failed to parse seed file", "path", *seedPath, "error", err)
		return 1
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	ctx := context.Background()
	imported := 0
	for _, seed := range seeds {
		venue := &database.Venue{
			Category:      seed.Category,
			Region:        seed.Region,
			Title:         seed.Title,
			Phone:         seed.Phone,
			Address:       seed.Address,
			BusinessHours: seed.BusinessHours,
			MapLink:       seed.MapLink,
			ImageLink:     seed.ImageLink,
			Star:          seed.Star,
			Count:         seed.Count,
		}
		if err := store.InsertVenue(ctx, venue); err != nil {
			log.Error("Failed to insert venue, skipping",
				"category", seed.Category, "region", seed.Region, "title", seed.Title, "error", err)
			continue
		}
		imported++
	}

	total, err := store.CountVenues(ctx)
	if err != nil {
		log.Warn("Failed to count venues after import", "error", err)
	}

	log.Info("Seed import finished", "imported", imported, "skipped", len(seeds)-imported, "total", total)
	return 0
}
