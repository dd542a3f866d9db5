package services

import (
	"errors"
	"testing"
	"time"

	"cultivation-system/models"
)

func qiRefiningPlayer() *models.Player {
	return &models.Player{
		ID:         "p1",
		Realm:      models.RealmQiRefining,
		Level:      1,
		SpiritRoot: models.SpiritRootTriple,
		Qi:         80,
		MaxQi:      100,
	}
}

func TestResolveBreakthroughForcedSuccess(t *testing.T) {
	p := qiRefiningPlayer()

	// qi=80 meets the 0.8 * maxQi threshold; roll 0 forces success.
	out, err := resolveBreakthrough(p, 0)
	if err != nil {
		t.Fatalf("expected eligible attempt, got %v", err)
	}
	if !out.Success {
		t.Fatal("roll 0 must succeed")
	}
	if p.Realm != models.RealmFoundation {
		t.Errorf("realm = %s, want FOUNDATION", p.Realm)
	}
	if p.Level != 1 {
		t.Errorf("level = %d, want reset to 1", p.Level)
	}
	wantQi := 80 - ConfigForRealm(models.RealmQiRefining).QiCost*100
	if p.Qi != wantQi {
		t.Errorf("qi = %v, want %v after cost debit", p.Qi, wantQi)
	}
	if p.MaxQi != MaxQiFor(models.RealmFoundation, 1) {
		t.Errorf("maxQi = %v, want new realm capacity %v", p.MaxQi, MaxQiFor(models.RealmFoundation, 1))
	}
	if out.FromRealm != models.RealmQiRefining || out.ToRealm != models.RealmFoundation {
		t.Errorf("outcome realms = %s → %s", out.FromRealm, out.ToRealm)
	}
}

func TestResolveBreakthroughForcedFailure(t *testing.T) {
	p := qiRefiningPlayer()

	out, err := resolveBreakthrough(p, 0.9999)
	if err != nil {
		t.Fatalf("expected eligible attempt, got %v", err)
	}
	if out.Success {
		t.Fatal("roll above chance must fail")
	}
	if p.Realm != models.RealmQiRefining {
		t.Errorf("failed attempt must never change realm, got %s", p.Realm)
	}
	wantQi := 80 * (1 - BreakthroughFailQiPenalty)
	if p.Qi != wantQi {
		t.Errorf("qi = %v, want %v after penalty", p.Qi, wantQi)
	}
	if p.InnerDemon != 1 {
		t.Errorf("innerDemon = %d, want 1", p.InnerDemon)
	}
}

func TestResolveBreakthroughIneligibleDoesNotMutate(t *testing.T) {
	p := qiRefiningPlayer()
	p.Qi = 79.9 // just under the 0.8 threshold

	_, err := resolveBreakthrough(p, 0)
	var insufficient *InsufficientError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientError, got %v", err)
	}
	if insufficient.Required != 80 || insufficient.Available != 79.9 {
		t.Errorf("error amounts = required %v / available %v", insufficient.Required, insufficient.Available)
	}
	if p.Qi != 79.9 || p.Realm != models.RealmQiRefining || p.InnerDemon != 0 {
		t.Error("ineligible attempt mutated player state")
	}
}

func TestResolveBreakthroughAtImmortalIsIllegal(t *testing.T) {
	p := qiRefiningPlayer()
	p.Realm = models.RealmImmortal
	p.MaxQi = MaxQiFor(models.RealmImmortal, 1)
	p.Qi = p.MaxQi

	_, err := resolveBreakthrough(p, 0)
	var illegal *IllegalStateError
	if !errors.As(err, &illegal) {
		t.Fatalf("expected IllegalStateError at the final realm, got %v", err)
	}
}

func TestSettleCultivationCapsAtMaxQi(t *testing.T) {
	now := time.Now().UTC()
	p := &models.Player{
		Realm:            models.RealmQiRefining,
		SpiritRoot:       models.SpiritRootHeavenly,
		Qi:               90,
		MaxQi:            100,
		LastCultivatedAt: now.Add(-48 * time.Hour), // long offline stretch
	}

	gained := settleCultivation(p, nil, now)
	if p.Qi != 100 {
		t.Errorf("qi = %v, want capped at 100", p.Qi)
	}
	if gained != 10 {
		t.Errorf("gained = %v, want 10 (overflow discarded)", gained)
	}
	if !p.LastCultivatedAt.Equal(now) {
		t.Error("settlement must stamp LastCultivatedAt")
	}
}

func TestSettleCultivationZeroElapsedIsIdempotent(t *testing.T) {
	now := time.Now().UTC()
	p := &models.Player{
		Realm:            models.RealmQiRefining,
		SpiritRoot:       models.SpiritRootTriple,
		Qi:               40,
		MaxQi:            100,
		LastCultivatedAt: now,
	}
	if gained := settleCultivation(p, nil, now); gained != 0 {
		t.Errorf("zero elapsed gained %v", gained)
	}
	if p.Qi != 40 {
		t.Errorf("qi changed on zero elapsed: %v", p.Qi)
	}
}

func TestSettleCultivationAppliesStatusEffects(t *testing.T) {
	now := time.Now().UTC()
	base := &models.Player{
		Realm:            models.RealmQiRefining,
		SpiritRoot:       models.SpiritRootTriple,
		Qi:               0,
		MaxQi:            10_000,
		LastCultivatedAt: now.Add(-10 * time.Minute),
	}
	boosted := *base

	settleCultivation(base, nil, now)
	settleCultivation(&boosted, []models.StatusEffect{
		{Modifier: 0.5, ExpiresAt: now.Add(time.Hour)},
		{Modifier: 9.9, ExpiresAt: now.Add(-time.Minute)}, // expired, ignored
	}, now)

	if boosted.Qi != base.Qi*1.5 {
		t.Errorf("boosted qi = %v, want %v", boosted.Qi, base.Qi*1.5)
	}
}

func TestEligibilityFor(t *testing.T) {
	p := qiRefiningPlayer()
	elig := EligibilityFor(p)
	if !elig.Eligible {
		t.Error("qi=80 of 100 at 0.8 threshold should be eligible")
	}
	if elig.NextRealm != string(models.RealmFoundation) {
		t.Errorf("next realm = %s", elig.NextRealm)
	}

	p.Realm = models.RealmImmortal
	if elig := EligibilityFor(p); elig.Eligible || elig.NextRealm != "" {
		t.Error("final realm must never be eligible")
	}
}

func TestCaveUpgradeCostScales(t *testing.T) {
	if CaveUpgradeCost(1) >= CaveUpgradeCost(3) {
		t.Error("upgrade cost should grow with level")
	}
	if CaveUpgradeCost(-1) != CaveUpgradeCost(1) {
		t.Error("invalid level should clamp to 1")
	}
}

func TestValidateStoneDebit(t *testing.T) {
	if err := validateStoneDebit(500, 500); err != nil {
		t.Errorf("exact balance should be spendable, got %v", err)
	}

	err := validateStoneDebit(100, 500)
	var insufficient *InsufficientError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientError, got %v", err)
	}
	if insufficient.Required != 500 || insufficient.Available != 100 {
		t.Errorf("unexpected shortfall: %+v", insufficient)
	}

	if err := validateStoneDebit(100, 0); err == nil {
		t.Error("zero debit should be rejected")
	}
	if err := validateStoneDebit(100, -10); err == nil {
		t.Error("negative debit should be rejected")
	}
}
