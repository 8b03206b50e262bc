package tasks

import (
	"context"
	"time"
)

// newSessionSweepTask creates the scheduled task that drops idle sessions.
// Sessions are created lazily on the next event from a user, so sweeping
// bounds memory without breaking conversations that are truly idle.
func newSessionSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "session_sweep")
	maxIdle := deps.Config.Dialogue.SessionTTL

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting session sweep", "max_idle", maxIdle)
		startTime := time.Now()

		removed := deps.Sessions.Sweep(maxIdle)

		log.InfoContext(ctx, "Session sweep completed",
			"removed", removed,
			"remaining", deps.Sessions.Len(),
			"duration", time.Since(startTime))
		return nil
	}
}
