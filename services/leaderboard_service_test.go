package services

import (
	"testing"
	"time"

	"cultivation-system/models"
)

func TestSeasonIDDeterminism(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), "2026-Q1"},
		{time.Date(2026, time.March, 31, 23, 59, 59, 0, time.UTC), "2026-Q1"},
		{time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), "2026-Q2"},
		{time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC), "2026-Q3"},
		{time.Date(2026, time.December, 31, 23, 59, 59, 0, time.UTC), "2026-Q4"},
	}
	for _, tt := range tests {
		if got := models.SeasonIDFor(tt.date); got != tt.want {
			t.Errorf("SeasonIDFor(%s) = %s, want %s", tt.date.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestSeasonIDAgreesWithBoundsAcrossZones(t *testing.T) {
	// 2026-07-01 05:00 +10:00 is still June 30 in UTC, so the ID must say
	// Q2 even though the local calendar reads Q3.
	local := time.Date(2026, time.July, 1, 5, 0, 0, 0, time.FixedZone("UTC+10", 10*60*60))

	if got := models.SeasonIDFor(local); got != "2026-Q2" {
		t.Errorf("SeasonIDFor = %s, want 2026-Q2", got)
	}

	start, end := models.SeasonBoundsFor(local)
	if start != time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("start = %s, want April 1 UTC", start)
	}
	if !local.UTC().Before(end) || local.UTC().Before(start) {
		t.Error("the anchor must fall inside the bounds its ID names")
	}
}

func TestSeasonBoundsCoverTheQuarter(t *testing.T) {
	mid := time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)
	start, end := models.SeasonBoundsFor(mid)

	if start != time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("Q3 start = %s", start)
	}
	if end != time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("Q3 end = %s", end)
	}
	if !mid.After(start) || !mid.Before(end) {
		t.Error("the anchor date must fall inside its own season bounds")
	}

	// Adjacent quarters tile with no gap.
	_, q2End := models.SeasonBoundsFor(time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC))
	if q2End != start {
		t.Errorf("Q2 end %s != Q3 start %s", q2End, start)
	}
}

func TestScoresForIsDeterministic(t *testing.T) {
	p := &models.Player{
		Realm: models.RealmGoldenCore, Level: 4,
		MaxQi: 2250, SpiritStones: 800, Contribution: 430,
	}

	r1, p1, w1, c1 := scoresFor(p)
	r2, p2, w2, c2 := scoresFor(p)
	if r1 != r2 || p1 != p2 || w1 != w2 || c1 != c2 {
		t.Error("refreshing an unchanged player must yield identical scores")
	}

	if r1 != RealmScore(models.RealmGoldenCore, 4) {
		t.Errorf("realm score = %d", r1)
	}
	if c1 != 430 {
		t.Errorf("contribution score = %d, want raw contribution", c1)
	}
}

func TestScoresOrderPlayersByRealmFirst(t *testing.T) {
	junior := &models.Player{Realm: models.RealmQiRefining, Level: 9, SpiritStones: 1_000_000}
	senior := &models.Player{Realm: models.RealmFoundation, Level: 1}

	jr, _, _, _ := scoresFor(junior)
	sr, _, _, _ := scoresFor(senior)
	if jr >= sr {
		t.Errorf("realm must dominate level/wealth: junior %d, senior %d", jr, sr)
	}
}
