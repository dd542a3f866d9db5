package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cultivation-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventService struct {
	DB      *gorm.DB
	Content *ContentService
	Rand    Rand
}

func NewEventService(db *gorm.DB, content *ContentService, r Rand) *EventService {
	return &EventService{DB: db, Content: content, Rand: r}
}

// seedEvents back the offer path when no generation backend is configured.
var seedEvents = []models.GameEvent{
	{
		Title:       "A Wandering Merchant",
		Description: "An old merchant with a crooked smile offers you a sealed gourd. 'Lucky find, little friend. Or unlucky. Who can say?'",
		Choices: []models.EventChoice{
			{Text: "Buy the gourd for 50 spirit stones", Hint: "fortune favors the bold"},
			{Text: "Haggle over the price"},
			{Text: "Walk away"},
		},
	},
	{
		Title:       "Storm Over the Peak",
		Description: "Thunderclouds gather over your cave. The qi in the air turns wild and heavy.",
		Choices: []models.EventChoice{
			{Text: "Meditate amid the storm", Hint: "risk and reward"},
			{Text: "Seal the cave and wait it out"},
		},
	},
	{
		Title:       "A Junior in Trouble",
		Description: "A junior disciple is cornered by rogue cultivators on the mountain path.",
		Choices: []models.EventChoice{
			{Text: "Intervene openly"},
			{Text: "Create a distraction from hiding"},
			{Text: "Pretend you saw nothing", Hint: "the heart remembers"},
		},
	},
}

// OfferEvent creates and persists a new unresolved event for the player.
func (s *EventService) OfferEvent(ctx context.Context, p *models.Player) (*models.GameEvent, error) {
	if s.Content.Enabled() {
		event, err := s.Content.GenerateEvent(ctx, p)
		if err != nil {
			return nil, err
		}
		if err := s.DB.Create(event).Error; err != nil {
			return nil, err
		}
		return event, nil
	}

	seed := seedEvents[s.Rand.Intn(len(seedEvents))]
	event := seed // copy
	event.ID = uuid.NewString()
	event.PlayerID = p.ID
	if err := s.DB.Create(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// outcomeTable maps a draw to resolution deltas. Favorable outcomes get
// heavier weight; the occasional inner-demon hit keeps events honest.
var outcomeTable = []struct {
	Weight    int
	Favorable bool
	Narration string
	Deltas    models.EventDeltas
}{
	{
		Weight: 4, Favorable: true,
		Narration: "Fortune smiles. Your dantian warms with a rush of pure qi.",
		Deltas:    models.EventDeltas{Qi: 30, SpiritStones: 10},
	},
	{
		Weight: 3, Favorable: true,
		Narration: "A modest gain, but a gain nonetheless.",
		Deltas:    models.EventDeltas{Qi: 15, Contribution: 5},
	},
	{
		Weight: 2, Favorable: true,
		Narration: "Your insight deepens. For a time, cultivation comes easier.",
		Deltas: models.EventDeltas{
			Qi:     5,
			Effect: &models.EventEffect{Name: "Dao Insight", Modifier: 0.5, Minutes: 60},
		},
	},
	{
		Weight: 2, Favorable: false,
		Narration: "The encounter sours. You retreat, qi roiling in protest.",
		Deltas:    models.EventDeltas{Qi: -20},
	},
	{
		Weight: 1, Favorable: false,
		Narration: "A whisper of doubt takes root in your heart.",
		Deltas:    models.EventDeltas{Qi: -10, InnerDemon: 1},
	},
}

// drawOutcome picks from the static table; the chosen index seasons the
// draw so later (riskier) choices swing harder both ways.
func drawOutcome(r Rand, choiceIndex int) (models.EventDeltas, string, bool) {
	weights := make([]int, len(outcomeTable))
	for i, o := range outcomeTable {
		weights[i] = o.Weight
	}
	idx := WeightedPick(r, weights)
	out := outcomeTable[idx]
	deltas := out.Deltas
	scale := 1.0 + 0.25*float64(choiceIndex)
	deltas.Qi *= scale
	return deltas, out.Narration, out.Favorable
}

// applyEventDeltas mutates the player struct per the resolved deltas. Qi
// stays within [0, maxQi]; stones and contribution floor at zero rather
// than going negative.
func applyEventDeltas(p *models.Player, d *models.EventDeltas) {
	if d.Qi >= 0 {
		p.Qi = ApplyQiGain(p.Qi, p.MaxQi, d.Qi)
	} else {
		p.Qi += d.Qi
		if p.Qi < 0 {
			p.Qi = 0
		}
	}
	p.SpiritStones += d.SpiritStones
	if p.SpiritStones < 0 {
		p.SpiritStones = 0
	}
	p.Contribution += d.Contribution
	if p.Contribution < 0 {
		p.Contribution = 0
	}
	p.InnerDemon += d.InnerDemon
	if p.InnerDemon < 0 {
		p.InnerDemon = 0
	}
	if len(d.Items) > 0 {
		p.Inventory = append(p.Inventory, d.Items...)
	}
}

// resolveOutcome draws the outcome for a choice and produces its narration,
// preferring the generation pipeline and falling back to the drawn static
// line when the pipeline is disabled or exhausted.
func (s *EventService) resolveOutcome(ctx context.Context, event *models.GameEvent, choiceIndex int) (models.EventDeltas, string) {
	deltas, narration, favorable := drawOutcome(s.Rand, choiceIndex)
	if s.Content.Enabled() {
		if text, err := s.Content.GenerateNarration(ctx, event, event.Choices[choiceIndex], favorable); err == nil {
			narration = text
		} else {
			log.Printf("[Event] narration generation failed, using static line: %v", err)
		}
	}
	return deltas, narration
}

// errResolutionLost signals that another request claimed the event between
// our unlocked read and the conditional update.
var errResolutionLost = errors.New("event resolved concurrently")

// ResolveChoice resolves an event exactly once. The resolved_at IS NULL
// conditional update is the guard: the winning request applies deltas and
// stores the result; a replay of the same choice returns the stored result
// without re-applying anything; a different choice on a resolved event is
// an illegal-state error. The narration round trip can take tens of
// seconds, so it happens before the transaction opens and before any row
// lock is taken.
func (s *EventService) ResolveChoice(ctx context.Context, playerID, eventID string, choiceIndex int) (*models.GameEvent, *models.Player, error) {
	var event models.GameEvent
	if err := s.DB.Where("id = ? AND player_id = ?", eventID, playerID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	if choiceIndex < 0 || choiceIndex >= len(event.Choices) {
		return nil, nil, fmt.Errorf("choice index %d out of range (event has %d choices)", choiceIndex, len(event.Choices))
	}

	if event.Resolved() {
		if event.ResolvedChoice != nil && *event.ResolvedChoice == choiceIndex {
			// Idempotent replay: same choice, stored result, no deltas.
			return &event, nil, nil
		}
		return nil, nil, &IllegalStateError{Entity: "event", State: "RESOLVED", Action: "resolve"}
	}

	deltas, narration := s.resolveOutcome(ctx, &event, choiceIndex)

	now := time.Now().UTC()
	var player *models.Player
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.GameEvent{}).
			Where("id = ? AND resolved_at IS NULL", event.ID).
			Updates(map[string]interface{}{
				"resolved_choice":  choiceIndex,
				"resolved_at":      now,
				"result_narration": narration,
				"result_deltas":    &deltas,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errResolutionLost
		}

		var p models.Player
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", event.PlayerID).First(&p).Error; err != nil {
			return err
		}
		applyEventDeltas(&p, &deltas)
		if err := tx.Model(&models.Player{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"qi":            p.Qi,
			"spirit_stones": p.SpiritStones,
			"contribution":  p.Contribution,
			"inner_demon":   p.InnerDemon,
			"inventory":     p.Inventory,
		}).Error; err != nil {
			return err
		}

		if deltas.Effect != nil {
			effect := models.StatusEffect{
				ID:        uuid.NewString(),
				PlayerID:  p.ID,
				Name:      deltas.Effect.Name,
				Modifier:  deltas.Effect.Modifier,
				ExpiresAt: now.Add(time.Duration(deltas.Effect.Minutes) * time.Minute),
			}
			if err := tx.Create(&effect).Error; err != nil {
				return err
			}
		}

		if err := tx.Create(&models.EventLog{
			ID:       uuid.NewString(),
			PlayerID: p.ID,
			Kind:     "event",
			Message:  fmt.Sprintf("%s — %s", event.Title, narration),
		}).Error; err != nil {
			return err
		}

		player = &p
		return nil
	})
	if errors.Is(err, errResolutionLost) {
		var latest models.GameEvent
		if err := s.DB.Where("id = ?", event.ID).First(&latest).Error; err != nil {
			return nil, nil, err
		}
		if latest.ResolvedChoice != nil && *latest.ResolvedChoice == choiceIndex {
			return &latest, nil, nil
		}
		return nil, nil, &IllegalStateError{Entity: "event", State: "RESOLVED", Action: "resolve"}
	}
	if err != nil {
		return nil, nil, err
	}

	event.ResolvedChoice = &choiceIndex
	event.ResolvedAt = &now
	event.ResultNarration = narration
	event.ResultDeltas = &deltas
	return &event, player, nil
}
