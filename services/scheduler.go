package services

import (
	"log"
	"time"

	"cultivation-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartCultivationScheduler settles idle accrual server-side for players
// seen in the last day. Settlement is time-delta based, so a skipped or
// late tick costs nobody any qi; the next settlement pays the full gap.
func (s *PlayerService) StartCultivationScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: settle recently active players
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			cutoff := time.Now().UTC().Add(-24 * time.Hour)
			var players []models.Player
			err := s.DB.Where("updated_at >= ? AND qi < max_qi", cutoff).
				Limit(500).
				Find(&players).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			settled := 0
			for _, p := range players {
				if _, _, err := s.Cultivate(p.ExternalUserID); err != nil {
					log.Printf("[Scheduler] Failed to settle player %s: %v", p.ID, err)
					continue
				}
				settled++
			}
			if settled > 0 {
				log.Printf("🧘 Settled cultivation for %d player(s)", settled)
			}
		}),
	)
}
