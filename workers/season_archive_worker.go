package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"cultivation-system/services"
	"cultivation-system/utils"
)

// SeasonArchiveWorker periodically snapshots the active season's
// leaderboard to R2, so rankings survive season rollover and DB resets.
type SeasonArchiveWorker struct {
	Leaderboard *services.LeaderboardService
}

func NewSeasonArchiveWorker(lb *services.LeaderboardService) *SeasonArchiveWorker {
	return &SeasonArchiveWorker{Leaderboard: lb}
}

func (w *SeasonArchiveWorker) archiveOnce() error {
	season, err := w.Leaderboard.EnsureActiveSeason(time.Now())
	if err != nil {
		return fmt.Errorf("failed to resolve active season: %w", err)
	}

	entries, err := w.Leaderboard.Snapshot(season.ID)
	if err != nil {
		return fmt.Errorf("failed to snapshot season %s: %w", season.ID, err)
	}
	if len(entries) == 0 {
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"season":      season,
		"entries":     entries,
		"archived_at": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	key := fmt.Sprintf("seasons/%s/leaderboard-%s.json", season.ID, time.Now().UTC().Format("20060102T150405Z"))
	url, err := utils.UploadBytesToR2(key, "application/json", payload)
	if err != nil {
		return err
	}

	log.Printf("📦 Archived %d leaderboard entries for %s → %s", len(entries), season.ID, url)
	return nil
}

// Run polls on the given interval until the context is cancelled. Upload
// failures are logged and retried on the next tick.
func (w *SeasonArchiveWorker) Run(ctx context.Context, interval time.Duration) {
	log.Println("Starting season archive worker...")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Season archive worker stopped.")
			return
		case <-ticker.C:
			if err := w.archiveOnce(); err != nil {
				log.Printf("❌ Season archive failed: %v", err)
			}
		}
	}
}
