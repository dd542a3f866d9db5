package models

import (
	"time"
)

// EventChoice is one selectable option on an offered event. The outcome
// mapping lives server-side only; clients never see deltas up front.
type EventChoice struct {
	Text string `json:"text" validate:"required"`
	Hint string `json:"hint,omitempty"`
}

// EventDeltas are the player-state changes a resolved choice applies.
// Qi deltas are capped at the player's capacity on application; stone
// and contribution debits floor the balance at zero.
type EventDeltas struct {
	Qi           float64         `json:"qi,omitempty"`
	SpiritStones int64           `json:"spirit_stones,omitempty"`
	Contribution int64           `json:"contribution,omitempty"`
	InnerDemon   int64           `json:"inner_demon,omitempty"`
	Items        []InventoryItem `json:"items,omitempty"`
	// Effect, when set, grants a timed cultivation modifier.
	Effect *EventEffect `json:"effect,omitempty"`
}

type EventEffect struct {
	Name     string  `json:"name"`
	Modifier float64 `json:"modifier"`
	Minutes  int     `json:"minutes"`
}

// GameEvent is a persisted narrative event instance. ResolvedChoice and
// ResolvedAt implement the resolved-once guard: resolution is claimed by
// a conditional update on resolved_at IS NULL, so a resubmitted choice can
// only ever replay the stored result.
type GameEvent struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	PlayerID string `gorm:"index;not null" json:"player_id"`

	Title       string        `gorm:"not null" json:"title"`
	Description string        `gorm:"type:text" json:"description"`
	Choices     []EventChoice `gorm:"type:jsonb;serializer:json" json:"choices"`

	ResolvedChoice  *int         `json:"resolved_choice,omitempty"`
	ResolvedAt      *time.Time   `json:"resolved_at,omitempty"`
	ResultNarration string       `gorm:"type:text" json:"result_narration,omitempty"`
	ResultDeltas    *EventDeltas `gorm:"type:jsonb;serializer:json" json:"result_deltas,omitempty"`

	Timestamps
}

func (e *GameEvent) Resolved() bool {
	return e.ResolvedAt != nil
}
