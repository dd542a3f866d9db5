package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"cultivation-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlayerService struct {
	DB   *gorm.DB
	Rand Rand
}

func NewPlayerService(db *gorm.DB, r Rand) *PlayerService {
	return &PlayerService{DB: db, Rand: r}
}

// EnsurePlayer returns the player for an external identity, creating the
// starting record if none exists (idempotent).
func (s *PlayerService) EnsurePlayer(externalUserID, displayName string) (*models.Player, error) {
	var p models.Player
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if displayName == "" {
		displayName = "Nameless Cultivator"
	}
	p = models.Player{
		ID:               uuid.NewString(),
		ExternalUserID:   externalUserID,
		DisplayName:      displayName,
		Realm:            models.RealmMortal,
		Level:            1,
		SpiritRoot:       models.SpiritRootTriple,
		Qi:               0,
		MaxQi:            MaxQiFor(models.RealmMortal, 1),
		LastCultivatedAt: time.Now().UTC(),
	}
	// A concurrent first request may have inserted already; fall back to
	// reading the winner's row.
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}},
		DoNothing: true,
	}).Create(&p).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PlayerService) GetPlayer(externalUserID string) (*models.Player, error) {
	var p models.Player
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// activeEffectMultiplier folds the player's unexpired status effects into
// a single cultivation-speed factor (base 1.0, additive modifiers).
func activeEffectMultiplier(effects []models.StatusEffect, now time.Time) float64 {
	mult := 1.0
	for _, e := range effects {
		if e.ActiveAt(now) {
			mult += e.Modifier
		}
	}
	if mult < 0 {
		mult = 0
	}
	return mult
}

// settleCultivation applies time-delta idle accrual to the player struct
// in place and returns the capped gain. Pure with respect to storage.
func settleCultivation(p *models.Player, effects []models.StatusEffect, now time.Time) float64 {
	elapsed := now.Sub(p.LastCultivatedAt)
	gain := CultivationGain(
		BaseCultivationSpeed,
		p.SpiritRoot.Multiplier(),
		activeEffectMultiplier(effects, now),
		elapsed,
	)
	before := p.Qi
	p.Qi = ApplyQiGain(p.Qi, p.MaxQi, gain)
	p.LastCultivatedAt = now
	return p.Qi - before
}

// Cultivate settles idle accrual since the last settlement. The row lock
// serializes it against a racing breakthrough attempt or task credit.
func (s *PlayerService) Cultivate(externalUserID string) (*models.Player, float64, error) {
	var settled *models.Player
	var gained float64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var p models.Player
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("external_user_id = ?", externalUserID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var effects []models.StatusEffect
		if err := tx.Where("player_id = ? AND expires_at > ?", p.ID, time.Now().UTC()).
			Find(&effects).Error; err != nil {
			return err
		}

		gained = settleCultivation(&p, effects, time.Now().UTC())
		if err := tx.Model(&models.Player{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"qi":                 p.Qi,
			"last_cultivated_at": p.LastCultivatedAt,
		}).Error; err != nil {
			return err
		}
		settled = &p
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return settled, gained, nil
}

// BreakthroughOutcome is the resolved result of one attempt.
type BreakthroughOutcome struct {
	Success   bool           `json:"success"`
	Chance    float64        `json:"chance"`
	FromRealm models.Realm   `json:"from_realm"`
	ToRealm   models.Realm   `json:"to_realm"`
	QiBefore  float64        `json:"qi_before"`
	QiAfter   float64        `json:"qi_after"`
	Player    *models.Player `json:"player"`
}

// resolveBreakthrough mutates the player struct for one attempt given a
// pre-drawn roll. Pure with respect to storage so the outcome rules are
// testable with forced rolls.
func resolveBreakthrough(p *models.Player, roll float64) (*BreakthroughOutcome, error) {
	cfg := ConfigForRealm(p.Realm)
	next, ok := p.Realm.Next()
	if !ok {
		return nil, &IllegalStateError{Entity: "player", State: string(p.Realm), Action: "breakthrough"}
	}

	required := cfg.MinQiPercentage * p.MaxQi
	if p.Qi < required {
		return nil, &InsufficientError{Resource: "qi", Required: required, Available: p.Qi}
	}

	chance := BreakthroughChance(cfg.BaseChance, p.SpiritRoot.Multiplier(), p.InnerDemon)
	out := &BreakthroughOutcome{
		Chance:    chance,
		FromRealm: p.Realm,
		QiBefore:  p.Qi,
	}

	if roll < chance {
		out.Success = true
		out.ToRealm = next
		p.Qi -= cfg.QiCost * p.MaxQi
		if p.Qi < 0 {
			p.Qi = 0
		}
		p.Realm = next
		p.Level = 1
		p.MaxQi = MaxQiFor(next, 1)
		if p.Qi > p.MaxQi {
			p.Qi = p.MaxQi
		}
	} else {
		out.ToRealm = p.Realm
		p.Qi -= p.Qi * BreakthroughFailQiPenalty
		p.InnerDemon++
	}
	out.QiAfter = p.Qi
	return out, nil
}

// AttemptBreakthrough runs one eligibility check, one random draw and the
// full state change as a single transactional update on the player row. A
// concurrent second attempt waits on the row lock and sees the applied
// result, never a half-applied one.
func (s *PlayerService) AttemptBreakthrough(externalUserID string) (*BreakthroughOutcome, error) {
	roll := s.Rand.Float64()
	var outcome *BreakthroughOutcome
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var p models.Player
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("external_user_id = ?", externalUserID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		out, err := resolveBreakthrough(&p, roll)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.Player{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"realm":       p.Realm,
			"level":       p.Level,
			"qi":          p.Qi,
			"max_qi":      p.MaxQi,
			"inner_demon": p.InnerDemon,
		}).Error; err != nil {
			return err
		}

		record := models.BreakthroughRecord{
			ID:        uuid.NewString(),
			PlayerID:  p.ID,
			FromRealm: out.FromRealm,
			ToRealm:   out.ToRealm,
			Success:   out.Success,
			Chance:    out.Chance,
			QiBefore:  out.QiBefore,
			QiAfter:   out.QiAfter,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		msg := fmt.Sprintf("Breakthrough failed; the dao remains distant (chance %.0f%%)", out.Chance*100)
		if out.Success {
			msg = fmt.Sprintf("Broke through to %s!", out.ToRealm.DisplayName())
		}
		if err := tx.Create(&models.EventLog{
			ID:       uuid.NewString(),
			PlayerID: p.ID,
			Kind:     "breakthrough",
			Message:  msg,
		}).Error; err != nil {
			return err
		}

		out.Player = &p
		outcome = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("⚡ Breakthrough: %s %s → %s (success=%t, chance=%.2f)",
		externalUserID, outcome.FromRealm, outcome.ToRealm, outcome.Success, outcome.Chance)
	return outcome, nil
}

// validateStoneDebit rejects nonsensical amounts and reports a shortfall
// before a debit is attempted.
func validateStoneDebit(balance, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("invalid debit amount %d", amount)
	}
	if balance < amount {
		return &InsufficientError{Resource: "spirit stones", Required: float64(amount), Available: float64(balance)}
	}
	return nil
}

// debitSpiritStones charges the player with a single conditional UPDATE
// and journals the purchase in the same transaction. The WHERE guard keeps
// overlapping debits from driving the balance negative.
func debitSpiritStones(tx *gorm.DB, p *models.Player, amount int64, reason string) error {
	if err := validateStoneDebit(p.SpiritStones, amount); err != nil {
		return err
	}
	res := tx.Model(&models.Player{}).
		Where("id = ? AND spirit_stones >= ?", p.ID, amount).
		Update("spirit_stones", gorm.Expr("spirit_stones - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &InsufficientError{Resource: "spirit stones", Required: float64(amount), Available: float64(p.SpiritStones)}
	}
	p.SpiritStones -= amount
	return tx.Create(&models.EventLog{
		ID:       uuid.NewString(),
		PlayerID: p.ID,
		Kind:     "purchase",
		Message:  fmt.Sprintf("Spent %d spirit stones (%s)", amount, reason),
	}).Error
}

// CaveUpgradeCost scales with the current level.
func CaveUpgradeCost(currentLevel int) int64 {
	if currentLevel < 1 {
		currentLevel = 1
	}
	return int64(currentLevel) * 500
}

// UpgradeCave charges stones through the shared debit path and bumps the
// cave level in one transaction.
func (s *PlayerService) UpgradeCave(externalUserID string) (*models.Player, error) {
	var upgraded *models.Player
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var p models.Player
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("external_user_id = ?", externalUserID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		cost := CaveUpgradeCost(p.CaveLevel)
		if err := debitSpiritStones(tx, &p, cost, fmt.Sprintf("cave upgrade to level %d", p.CaveLevel+1)); err != nil {
			return err
		}

		p.CaveLevel++
		if err := tx.Model(&models.Player{}).Where("id = ?", p.ID).
			Update("cave_level", p.CaveLevel).Error; err != nil {
			return err
		}
		upgraded = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return upgraded, nil
}

// GetHistory returns the recent journal for the player.
func (s *PlayerService) GetHistory(externalUserID string, limit int) ([]models.EventLog, error) {
	p, err := s.GetPlayer(externalUserID)
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var logs []models.EventLog
	err = s.DB.Where("player_id = ?", p.ID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// BreakthroughEligibility is the read-only snapshot handlers attach to the
// player payload.
type BreakthroughEligibility struct {
	Eligible   bool    `json:"eligible"`
	RequiredQi float64 `json:"required_qi"`
	Chance     float64 `json:"chance"`
	NextRealm  string  `json:"next_realm,omitempty"`
}

func EligibilityFor(p *models.Player) BreakthroughEligibility {
	cfg := ConfigForRealm(p.Realm)
	out := BreakthroughEligibility{
		RequiredQi: cfg.MinQiPercentage * p.MaxQi,
		Chance:     BreakthroughChance(cfg.BaseChance, p.SpiritRoot.Multiplier(), p.InnerDemon),
	}
	if next, ok := p.Realm.Next(); ok {
		out.NextRealm = string(next)
		out.Eligible = p.Qi >= out.RequiredQi
	}
	return out
}
