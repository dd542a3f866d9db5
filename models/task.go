package models

import (
	"time"
)

// TaskType partitions tasks by how they are completed and how fast they
// expire. DAILY/WEEKLY drive the expiry window; LINK/BATTLE/GAME carry a
// type-specific payload.
type TaskType string

const (
	TaskTypeDaily  TaskType = "DAILY"
	TaskTypeWeekly TaskType = "WEEKLY"
	TaskTypeLink   TaskType = "LINK"
	TaskTypeBattle TaskType = "BATTLE"
	TaskTypeGame   TaskType = "GAME"
	TaskTypeSect   TaskType = "SECT"
)

var taskTypes = map[TaskType]bool{
	TaskTypeDaily:  true,
	TaskTypeWeekly: true,
	TaskTypeLink:   true,
	TaskTypeBattle: true,
	TaskTypeGame:   true,
	TaskTypeSect:   true,
}

func (t TaskType) IsValid() bool { return taskTypes[t] }

// ExpiryWindow is how long an accepted task of this type stays completable.
// Weekly-class tasks get 7 days, everything else the daily 24h window.
func (t TaskType) ExpiryWindow() time.Duration {
	if t == TaskTypeWeekly {
		return 7 * 24 * time.Hour
	}
	return 24 * time.Hour
}

// TaskStatus state machine: PENDING → IN_PROGRESS → COMPLETED | FAILED.
// COMPLETED and FAILED are terminal.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusFailed     TaskStatus = "FAILED"
)

func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// LinkPayload for LINK tasks: read/summarize an external page.
type LinkPayload struct {
	URL string `json:"url" validate:"required,url"`
}

// BattlePayload for BATTLE tasks.
type BattlePayload struct {
	EnemyName  string `json:"enemy_name" validate:"required"`
	EnemyPower int    `json:"enemy_power" validate:"gt=0"`
	EnemyHP    int    `json:"enemy_hp" validate:"gt=0"`
}

// QuizPayload for GAME tasks: a single generated question.
type QuizPayload struct {
	Question    string   `json:"question" validate:"required"`
	Options     []string `json:"options" validate:"required,min=2,max=4,dive,required"`
	AnswerIndex int      `json:"answer_index" validate:"gte=0"`
}

// TaskPayload is the jsonb union column; exactly one branch is set,
// matching the task's type.
type TaskPayload struct {
	Link   *LinkPayload   `json:"link,omitempty"`
	Battle *BattlePayload `json:"battle,omitempty"`
	Quiz   *QuizPayload   `json:"quiz,omitempty"`
}

// Task belongs to exactly one player. Rewards are fixed at creation and
// credited exactly once, atomically with the COMPLETED transition.
type Task struct {
	ID       string     `gorm:"primaryKey;type:uuid" json:"id"`
	PlayerID string     `gorm:"index;not null" json:"player_id"`
	Type     TaskType   `gorm:"type:varchar(16);not null" json:"type"`
	Status   TaskStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Difficulty  int    `gorm:"default:1" json:"difficulty"` // 1..5

	RewardQi           float64 `json:"reward_qi"`
	RewardContribution int64   `json:"reward_contribution"`
	RewardStones       int64   `json:"reward_stones"`

	Payload *TaskPayload `gorm:"type:jsonb;serializer:json" json:"payload,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Timestamps
}

// Expired reports whether the task's completion window has passed. Expiry
// is a read-time predicate only; no job flips expired tasks to FAILED.
func (t *Task) Expired(now time.Time) bool {
	if t.StartedAt == nil || t.Status.Terminal() {
		return false
	}
	return now.Sub(*t.StartedAt) > t.Type.ExpiryWindow()
}
