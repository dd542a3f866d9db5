package services

import (
	"fmt"
	"log"
	"time"

	"cultivation-system/models"
	"cultivation-system/utils"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LeaderboardService struct {
	DB *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{DB: db}
}

const topCacheTTL = 30 * time.Second

// EnsureActiveSeason returns the season covering now, lazily creating the
// deterministic quarter row. OnConflict DoNothing makes the first-call
// race insert exactly one row; both racers then read back the winner.
func (s *LeaderboardService) EnsureActiveSeason(now time.Time) (*models.Season, error) {
	id := models.SeasonIDFor(now)

	var season models.Season
	if err := s.DB.Where("id = ?", id).First(&season).Error; err == nil {
		return &season, nil
	}

	// Retire any stale active season before opening the new one.
	if err := s.DB.Model(&models.Season{}).
		Where("active = ? AND ends_at <= ?", true, now.UTC()).
		Update("active", false).Error; err != nil {
		return nil, err
	}

	start, end := models.SeasonBoundsFor(now)
	season = models.Season{
		ID:       id,
		Year:     now.UTC().Year(),
		Quarter:  (int(now.UTC().Month())-1)/3 + 1,
		StartsAt: start,
		EndsAt:   end,
		Active:   true,
	}
	if err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&season).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Where("id = ?", id).First(&season).Error; err != nil {
		return nil, err
	}
	log.Printf("🏆 Season active: %s (%s → %s)", season.ID,
		season.StartsAt.Format("2006-01-02"), season.EndsAt.Format("2006-01-02"))
	return &season, nil
}

// scoresFor recomputes the four columns from current player state. Pure,
// so refresh idempotence is testable without a database.
func scoresFor(p *models.Player) (realm, power, wealth, contribution int64) {
	realm = RealmScore(p.Realm, p.Level)
	power = PowerScore(p.Realm, p.Level, p.MaxQi)
	wealth = WealthScore(p.SpiritStones, p.Contribution)
	contribution = p.Contribution
	return
}

// Refresh upserts the (player, season) snapshot from current player state.
// Pull-based: scores are stale between refreshes by design.
func (s *LeaderboardService) Refresh(p *models.Player) (*models.LeaderboardEntry, error) {
	season, err := s.EnsureActiveSeason(time.Now())
	if err != nil {
		return nil, err
	}

	realmScore, powerScore, wealthScore, contributionScore := scoresFor(p)
	entry := models.LeaderboardEntry{
		ID:                uuid.NewString(),
		PlayerID:          p.ID,
		SeasonID:          season.ID,
		DisplayName:       p.DisplayName,
		DisplaySlug:       slug.Make(p.DisplayName),
		Realm:             p.Realm,
		Level:             p.Level,
		RealmScore:        realmScore,
		PowerScore:        powerScore,
		WealthScore:       wealthScore,
		ContributionScore: contributionScore,
		RefreshedAt:       time.Now().UTC(),
	}

	if err := s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "player_id"}, {Name: "season_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name", "display_slug", "realm", "level",
			"realm_score", "power_score", "wealth_score", "contribution_score",
			"refreshed_at",
		}),
	}).Create(&entry).Error; err != nil {
		return nil, err
	}

	utils.Cache.Invalidate(topCacheKey(season.ID))
	return &entry, nil
}

func topCacheKey(seasonID string) string {
	return fmt.Sprintf("leaderboard:top:%s", seasonID)
}

// Top returns the season's ranking by realm score, served through the TTL
// cache (limit differences share the one cached page).
func (s *LeaderboardService) Top(seasonID string, limit int) ([]models.LeaderboardEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}

	if cached, ok := utils.Cache.Get(topCacheKey(seasonID)); ok {
		entries := cached.([]models.LeaderboardEntry)
		if len(entries) >= limit {
			return entries[:limit], nil
		}
	}

	var entries []models.LeaderboardEntry
	if err := s.DB.Where("season_id = ?", seasonID).
		Order("realm_score DESC, power_score DESC").
		Limit(100).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	utils.Cache.Set(topCacheKey(seasonID), entries, topCacheTTL)

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Entry returns the player's own snapshot for the season.
func (s *LeaderboardService) Entry(seasonID, playerID string) (*models.LeaderboardEntry, error) {
	var entry models.LeaderboardEntry
	if err := s.DB.Where("season_id = ? AND player_id = ?", seasonID, playerID).
		First(&entry).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// Snapshot returns every entry of a season ordered by rank, for archival.
func (s *LeaderboardService) Snapshot(seasonID string) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	err := s.DB.Where("season_id = ?", seasonID).
		Order("realm_score DESC, power_score DESC").
		Find(&entries).Error
	return entries, err
}
