// Package tasks implements scheduled maintenance tasks for the venue bot.
// It includes task definitions, dependencies, and registration mechanisms.
package tasks

import (
	"log/slog"

	"github.com/yttsai/venuebot/internal/config"
	"github.com/yttsai/venuebot/internal/database"
	"github.com/yttsai/venuebot/internal/session"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Store    database.Store
	Sessions *session.Store
	Config   *config.Config
}
