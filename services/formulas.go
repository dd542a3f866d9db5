package services

import (
	"time"

	"cultivation-system/models"
)

// Progression tuning constants. Relative values only; tunable via
// config/env later.
const (
	// RealmScoreStride keeps realm strictly above level in ordering:
	// score = ordinal*stride + level, with level always < stride.
	RealmScoreStride = 1_000_000

	// InnerDemonPenalty is the breakthrough-chance reduction per point of
	// accumulated inner demon.
	InnerDemonPenalty = 0.02

	// BaseCultivationSpeed is qi gained per minute at multiplier 1.0.
	BaseCultivationSpeed = 1.0

	// BreakthroughFailQiPenalty is the fraction of current qi lost on a
	// failed attempt.
	BreakthroughFailQiPenalty = 0.3
)

// RealmConfig holds the per-realm tuning used by eligibility, capacity and
// breakthrough resolution.
type RealmConfig struct {
	BaseChance      float64 // base breakthrough success chance
	MinQiPercentage float64 // fraction of maxQi required to attempt
	QiCost          float64 // fraction of maxQi consumed on success
	MaxLevel        int
	BaseMaxQi       float64 // capacity at level 1
	MaxQiPerLevel   float64 // capacity added per level above 1
}

var realmConfigs = map[models.Realm]RealmConfig{
	models.RealmMortal:         {BaseChance: 0.95, MinQiPercentage: 0.5, QiCost: 0.5, MaxLevel: 3, BaseMaxQi: 50, MaxQiPerLevel: 10},
	models.RealmQiRefining:     {BaseChance: 0.80, MinQiPercentage: 0.8, QiCost: 0.6, MaxLevel: 9, BaseMaxQi: 100, MaxQiPerLevel: 25},
	models.RealmFoundation:     {BaseChance: 0.65, MinQiPercentage: 0.8, QiCost: 0.6, MaxLevel: 9, BaseMaxQi: 400, MaxQiPerLevel: 80},
	models.RealmGoldenCore:     {BaseChance: 0.50, MinQiPercentage: 0.85, QiCost: 0.7, MaxLevel: 9, BaseMaxQi: 1_500, MaxQiPerLevel: 250},
	models.RealmNascentSoul:    {BaseChance: 0.35, MinQiPercentage: 0.85, QiCost: 0.7, MaxLevel: 9, BaseMaxQi: 5_000, MaxQiPerLevel: 800},
	models.RealmSpiritSevering: {BaseChance: 0.25, MinQiPercentage: 0.9, QiCost: 0.8, MaxLevel: 9, BaseMaxQi: 18_000, MaxQiPerLevel: 2_500},
	models.RealmVoidRefining:   {BaseChance: 0.15, MinQiPercentage: 0.9, QiCost: 0.8, MaxLevel: 9, BaseMaxQi: 60_000, MaxQiPerLevel: 8_000},
	models.RealmImmortal:       {BaseChance: 0, MinQiPercentage: 1, QiCost: 0, MaxLevel: 9, BaseMaxQi: 200_000, MaxQiPerLevel: 25_000},
}

// ConfigForRealm never fails; unknown realms get the QI_REFINING tuning so
// formulas stay total.
func ConfigForRealm(r models.Realm) RealmConfig {
	if cfg, ok := realmConfigs[r]; ok {
		return cfg
	}
	return realmConfigs[models.RealmQiRefining]
}

// MaxQiFor returns the qi capacity for a realm/level pair.
func MaxQiFor(r models.Realm, level int) float64 {
	cfg := ConfigForRealm(r)
	if level < 1 {
		level = 1
	}
	if level > cfg.MaxLevel {
		level = cfg.MaxLevel
	}
	return cfg.BaseMaxQi + float64(level-1)*cfg.MaxQiPerLevel
}

// RealmScore orders players strictly by realm before level. int64 keeps
// the full ordinal range far from overflow.
func RealmScore(r models.Realm, level int) int64 {
	if level < 0 {
		level = 0
	}
	if level >= RealmScoreStride {
		level = RealmScoreStride - 1
	}
	return int64(r.Ordinal())*RealmScoreStride + int64(level)
}

// BreakthroughChance is always within [0, 1]; out-of-range inputs are
// clamped, never rejected.
func BreakthroughChance(base, spiritRootMultiplier float64, innerDemon int64) float64 {
	if base < 0 {
		base = 0
	}
	if spiritRootMultiplier < 0 {
		spiritRootMultiplier = 0
	}
	if innerDemon < 0 {
		innerDemon = 0
	}
	chance := base*spiritRootMultiplier - float64(innerDemon)*InnerDemonPenalty
	return clamp01(chance)
}

// CultivationGain is the raw qi earned over elapsed wall time, before the
// capacity cap. Monotonically increasing in elapsed; never negative.
func CultivationGain(baseSpeed, spiritRootMultiplier, effectMultiplier float64, elapsed time.Duration) float64 {
	if baseSpeed < 0 {
		baseSpeed = 0
	}
	if spiritRootMultiplier < 0 {
		spiritRootMultiplier = 0
	}
	if effectMultiplier < 0 {
		effectMultiplier = 0
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return baseSpeed * spiritRootMultiplier * effectMultiplier * elapsed.Minutes()
}

// ApplyQiGain caps qi at capacity; overflow is discarded, not banked.
func ApplyQiGain(qi, maxQi, gain float64) float64 {
	if gain < 0 {
		gain = 0
	}
	if qi < 0 {
		qi = 0
	}
	next := qi + gain
	if next > maxQi {
		return maxQi
	}
	return next
}

// PowerScore is a stand-in combat metric derived from realm, level and qi
// capacity until a real combat system lands.
func PowerScore(r models.Realm, level int, maxQi float64) int64 {
	if level < 1 {
		level = 1
	}
	return int64(r.Ordinal()+1)*1000 + int64(level)*100 + int64(maxQi/10)
}

// WealthScore is a stand-in: liquid stones plus a contribution-weighted
// term.
func WealthScore(spiritStones, contribution int64) int64 {
	if spiritStones < 0 {
		spiritStones = 0
	}
	if contribution < 0 {
		contribution = 0
	}
	return spiritStones + contribution/10
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
