// Package scheduler runs the periodic artifact-workspace purge.
package scheduler

import (
	"log/slog"
	"time"

	"github.com/encryptoo/encryptoo/internal/artifact"
	"github.com/robfig/cron/v3"
)

// Run starts a background cron that removes artifact slots idle longer than
// ttl, hourly. Returns the cron so the caller can Stop it on shutdown.
func Run(store *artifact.Store, ttl time.Duration) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("@hourly", func() {
		removed, err := store.PurgeOlderThan(ttl)
		if err != nil {
			slog.Error("artifact purge", "error", err)
			return
		}
		if removed > 0 {
			slog.Info("artifact purge", "removed", removed, "ttl", ttl.String())
		}
	})
	if err != nil {
		// "@hourly" is a constant expression; this cannot fail at runtime.
		panic(err)
	}
	c.Start()
	return c
}
