package models

import (
	"fmt"
	"time"
)

// Season is a quarter-based scoring window. The string PK ("2026-Q3") is
// derived deterministically from the calendar, so two racing creators
// compute the same row and the insert is an upsert-or-ignore.
type Season struct {
	ID      string `gorm:"primaryKey;type:varchar(16)" json:"id"`
	Year    int    `gorm:"not null" json:"year"`
	Quarter int    `gorm:"not null" json:"quarter"`

	StartsAt time.Time `gorm:"not null" json:"starts_at"`
	EndsAt   time.Time `gorm:"not null" json:"ends_at"`
	Active   bool      `gorm:"default:true;index" json:"active"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// SeasonIDFor returns the deterministic season key for a point in time.
// Quarters are taken in UTC, matching SeasonBoundsFor.
func SeasonIDFor(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
}

// SeasonBoundsFor returns the quarter's [start, end) window in UTC.
func SeasonBoundsFor(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	q := (int(t.Month()) - 1) / 3
	start := time.Date(t.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, 0)
	return start, end
}

// LeaderboardEntry is a denormalized per-(player, season) score snapshot,
// recomputed on explicit refresh. Derived data only; the player row stays
// authoritative.
type LeaderboardEntry struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	PlayerID string `gorm:"not null;uniqueIndex:idx_player_season" json:"player_id"`
	SeasonID string `gorm:"not null;uniqueIndex:idx_player_season" json:"season_id"`

	DisplayName string `json:"display_name"`
	DisplaySlug string `gorm:"index" json:"display_slug"`
	Realm       Realm  `gorm:"type:varchar(32)" json:"realm"`
	Level       int    `json:"level"`

	RealmScore        int64 `gorm:"index:,sort:desc" json:"realm_score"`
	PowerScore        int64 `json:"power_score"`
	WealthScore       int64 `json:"wealth_score"`
	ContributionScore int64 `json:"contribution_score"`

	RefreshedAt time.Time `json:"refreshed_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
