package models

import (
	"time"

	"gorm.io/gorm"
)

// Realm is the player's major cultivation tier. Ordering matters:
// breakthroughs only ever move forward through this sequence.
type Realm string

const (
	RealmMortal         Realm = "MORTAL"
	RealmQiRefining     Realm = "QI_REFINING"
	RealmFoundation     Realm = "FOUNDATION"
	RealmGoldenCore     Realm = "GOLDEN_CORE"
	RealmNascentSoul    Realm = "NASCENT_SOUL"
	RealmSpiritSevering Realm = "SPIRIT_SEVERING"
	RealmVoidRefining   Realm = "VOID_REFINING"
	RealmImmortal       Realm = "IMMORTAL"
)

// RealmOrder is the canonical progression sequence, lowest first.
var RealmOrder = []Realm{
	RealmMortal,
	RealmQiRefining,
	RealmFoundation,
	RealmGoldenCore,
	RealmNascentSoul,
	RealmSpiritSevering,
	RealmVoidRefining,
	RealmImmortal,
}

var realmOrdinals = func() map[Realm]int {
	m := make(map[Realm]int, len(RealmOrder))
	for i, r := range RealmOrder {
		m[r] = i
	}
	return m
}()

// Ordinal returns the realm's position in the progression sequence
// (MORTAL=0). Unknown realms map to 0 so callers never index negatively.
func (r Realm) Ordinal() int {
	return realmOrdinals[r]
}

func (r Realm) IsValid() bool {
	_, ok := realmOrdinals[r]
	return ok
}

// Next returns the following realm and true, or the same realm and false
// when already at IMMORTAL (or unknown).
func (r Realm) Next() (Realm, bool) {
	ord, ok := realmOrdinals[r]
	if !ok || ord >= len(RealmOrder)-1 {
		return r, false
	}
	return RealmOrder[ord+1], true
}

func (r Realm) DisplayName() string {
	switch r {
	case RealmMortal:
		return "Mortal"
	case RealmQiRefining:
		return "Qi Refining"
	case RealmFoundation:
		return "Foundation Establishment"
	case RealmGoldenCore:
		return "Golden Core"
	case RealmNascentSoul:
		return "Nascent Soul"
	case RealmSpiritSevering:
		return "Spirit Severing"
	case RealmVoidRefining:
		return "Void Refining"
	case RealmImmortal:
		return "Immortal"
	default:
		return string(r)
	}
}

// SpiritRoot selects the player's cultivation-speed multiplier. Fixed at
// character creation.
type SpiritRoot string

const (
	SpiritRootHeavenly     SpiritRoot = "HEAVENLY"
	SpiritRootFiveElements SpiritRoot = "FIVE_ELEMENTS"
	SpiritRootFourElements SpiritRoot = "FOUR_ELEMENTS"
	SpiritRootTriple       SpiritRoot = "TRIPLE"
	SpiritRootDual         SpiritRoot = "DUAL"
	SpiritRootSingle       SpiritRoot = "SINGLE"
)

var spiritRootMultipliers = map[SpiritRoot]float64{
	SpiritRootHeavenly:     2.0,
	SpiritRootFiveElements: 1.5,
	SpiritRootFourElements: 1.2,
	SpiritRootTriple:       1.0,
	SpiritRootDual:         0.9,
	SpiritRootSingle:       0.8,
}

func (sr SpiritRoot) IsValid() bool {
	_, ok := spiritRootMultipliers[sr]
	return ok
}

// Multiplier returns the cultivation-speed factor for the root. Unknown
// roots fall back to 1.0 rather than zeroing out a player's progress.
func (sr SpiritRoot) Multiplier() float64 {
	if m, ok := spiritRootMultipliers[sr]; ok {
		return m
	}
	return 1.0
}

// InventoryItem is one entry in the player's jsonb item bags.
type InventoryItem struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Quality  string `json:"quality,omitempty"`
}

// Player is the authoritative progression row. All resource fields on it
// (qi, spirit stones, contribution, inner demon) are only ever mutated
// inside a transaction or via a conditional single-statement update.
type Player struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // auth provider identity
	DisplayName    string `gorm:"not null" json:"display_name"`

	Realm      Realm      `gorm:"type:varchar(32);not null;default:'MORTAL'" json:"realm"`
	Level      int        `gorm:"default:1" json:"level"`
	SpiritRoot SpiritRoot `gorm:"type:varchar(32);not null;default:'TRIPLE'" json:"spirit_root"`

	Qi           float64 `gorm:"default:0" json:"qi"`
	MaxQi        float64 `gorm:"default:100" json:"max_qi"`
	SpiritStones int64   `gorm:"default:0" json:"spirit_stones"`
	Contribution int64   `gorm:"default:0" json:"contribution"`
	InnerDemon   int64   `gorm:"default:0" json:"inner_demon"`
	CaveLevel    int     `gorm:"default:1" json:"cave_level"`

	Inventory []InventoryItem `gorm:"type:jsonb;serializer:json" json:"inventory"`
	Equipment []InventoryItem `gorm:"type:jsonb;serializer:json" json:"equipment"`
	Materials []InventoryItem `gorm:"type:jsonb;serializer:json" json:"materials"`

	// LastCultivatedAt anchors time-delta idle accrual; settlement computes
	// elapsed time from here, so missed ticks still pay out.
	LastCultivatedAt time.Time `json:"last_cultivated_at"`

	Tasks         []Task         `gorm:"foreignKey:PlayerID;constraint:OnDelete:CASCADE" json:"-"`
	StatusEffects []StatusEffect `gorm:"foreignKey:PlayerID;constraint:OnDelete:CASCADE" json:"-"`

	Timestamps
}

// StatusEffect is a timed cultivation-speed modifier gained from events.
// Expired effects are ignored at read time, not reaped by a job.
type StatusEffect struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PlayerID  string    `gorm:"index;not null" json:"player_id"`
	Name      string    `gorm:"not null" json:"name"`
	Modifier  float64   `json:"modifier"` // additive on top of the base 1.0 multiplier
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (e StatusEffect) ActiveAt(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// BreakthroughRecord is an append-only history row for every attempt,
// successful or not.
type BreakthroughRecord struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PlayerID  string    `gorm:"index;not null" json:"player_id"`
	FromRealm Realm     `gorm:"type:varchar(32)" json:"from_realm"`
	ToRealm   Realm     `gorm:"type:varchar(32)" json:"to_realm"`
	Success   bool      `json:"success"`
	Chance    float64   `json:"chance"`
	QiBefore  float64   `json:"qi_before"`
	QiAfter   float64   `json:"qi_after"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// EventLog is the append-only audit trail shown in the player's journal.
type EventLog struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PlayerID  string    `gorm:"index;not null" json:"player_id"`
	Kind      string    `gorm:"type:varchar(32);index" json:"kind"` // breakthrough, task, event, purchase
	Message   string    `gorm:"type:text" json:"message"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
