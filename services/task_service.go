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

type TaskService struct {
	DB      *gorm.DB
	Content *ContentService
	Rand    Rand
}

func NewTaskService(db *gorm.DB, content *ContentService, r Rand) *TaskService {
	return &TaskService{DB: db, Content: content, Rand: r}
}

// seedTasks is the static catalog used when no generation backend is
// configured (and as the fallback of last resort).
var seedTasks = []models.Task{
	{
		Type: models.TaskTypeDaily, Title: "Sweep the Outer Courtyard",
		Description: "The sect's courtyard gathers leaves and spiritual dust alike.",
		Difficulty:  1, RewardQi: 10, RewardContribution: 5, RewardStones: 2,
	},
	{
		Type: models.TaskTypeDaily, Title: "Meditate at Dawn",
		Description: "Absorb the morning's purest qi before the mortal world wakes.",
		Difficulty:  1, RewardQi: 15, RewardContribution: 2, RewardStones: 1,
	},
	{
		Type: models.TaskTypeWeekly, Title: "Gather Moonpetal Herbs",
		Description: "The alchemy hall needs thirty moonpetal stalks from the back mountain.",
		Difficulty:  3, RewardQi: 60, RewardContribution: 25, RewardStones: 15,
	},
	{
		Type: models.TaskTypeBattle, Title: "Drive Off the Corpse Puppet",
		Description: "Something shambles near the spirit fields at night.",
		Difficulty:  4, RewardQi: 80, RewardContribution: 40, RewardStones: 20,
		Payload: &models.TaskPayload{Battle: &models.BattlePayload{
			EnemyName: "Corpse Puppet", EnemyPower: 120, EnemyHP: 300,
		}},
	},
	{
		Type: models.TaskTypeSect, Title: "Copy the Foundation Scriptures",
		Description: "The archive hall wants a fresh hand copy of the third scroll.",
		Difficulty:  2, RewardQi: 25, RewardContribution: 20, RewardStones: 5,
	},
}

// GenerateTask creates and persists a new PENDING task for the player:
// pipeline-generated when a backend is configured, seed catalog otherwise.
func (s *TaskService) GenerateTask(ctx context.Context, p *models.Player) (*models.Task, error) {
	if s.Content.Enabled() {
		task, err := s.Content.GenerateTask(ctx, p)
		if err != nil {
			return nil, err
		}
		if err := s.DB.Create(task).Error; err != nil {
			return nil, err
		}
		return task, nil
	}

	seed := seedTasks[s.Rand.Intn(len(seedTasks))]
	task := seed // copy
	task.ID = uuid.NewString()
	task.PlayerID = p.ID
	task.Status = models.TaskStatusPending
	if err := s.DB.Create(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasks returns the player's tasks, newest first. Expired tasks are
// filtered out unless asked for; expiry stays a read-time predicate.
func (s *TaskService) ListTasks(playerID string, includeExpired bool) ([]models.Task, error) {
	var tasks []models.Task
	if err := s.DB.Where("player_id = ?", playerID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	if includeExpired {
		return tasks, nil
	}
	now := time.Now().UTC()
	fresh := tasks[:0]
	for _, t := range tasks {
		if !t.Expired(now) {
			fresh = append(fresh, t)
		}
	}
	return fresh, nil
}

// validateAccept enforces the one-way state machine: only PENDING accepts.
func validateAccept(t *models.Task) error {
	if t.Status != models.TaskStatusPending {
		return &IllegalStateError{Entity: "task", State: string(t.Status), Action: "accept"}
	}
	return nil
}

// validateComplete: only IN_PROGRESS completes, and not past its window.
func validateComplete(t *models.Task, now time.Time) error {
	if t.Status != models.TaskStatusInProgress {
		return &IllegalStateError{Entity: "task", State: string(t.Status), Action: "complete"}
	}
	if t.Expired(now) {
		return &IllegalStateError{Entity: "task", State: "EXPIRED", Action: "complete"}
	}
	return nil
}

// AcceptTask transitions PENDING → IN_PROGRESS and stamps the start time.
func (s *TaskService) AcceptTask(playerID, taskID string) (*models.Task, error) {
	var accepted *models.Task
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var t models.Task
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND player_id = ?", taskID, playerID).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := validateAccept(&t); err != nil {
			return err
		}

		now := time.Now().UTC()
		t.Status = models.TaskStatusInProgress
		t.StartedAt = &now
		if err := tx.Model(&models.Task{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
			"status":     t.Status,
			"started_at": t.StartedAt,
		}).Error; err != nil {
			return err
		}
		accepted = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

// CompleteTask marks the task COMPLETED and credits the owning player's
// qi/contribution/stones in the same transaction; the status write and
// the credit succeed or fail together.
func (s *TaskService) CompleteTask(playerID, taskID string) (*models.Task, *models.Player, error) {
	var completed *models.Task
	var credited *models.Player
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var t models.Task
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND player_id = ?", taskID, playerID).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		now := time.Now().UTC()
		if err := validateComplete(&t, now); err != nil {
			return err
		}

		t.Status = models.TaskStatusCompleted
		t.CompletedAt = &now
		if err := tx.Model(&models.Task{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
			"status":       t.Status,
			"completed_at": t.CompletedAt,
		}).Error; err != nil {
			return err
		}

		var p models.Player
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", t.PlayerID).First(&p).Error; err != nil {
			return err
		}
		p.Qi = ApplyQiGain(p.Qi, p.MaxQi, t.RewardQi)
		p.Contribution += t.RewardContribution
		p.SpiritStones += t.RewardStones
		if err := tx.Model(&models.Player{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"qi":            p.Qi,
			"contribution":  p.Contribution,
			"spirit_stones": p.SpiritStones,
		}).Error; err != nil {
			return err
		}

		if err := tx.Create(&models.EventLog{
			ID:       uuid.NewString(),
			PlayerID: p.ID,
			Kind:     "task",
			Message:  fmt.Sprintf("Completed %q (+%.0f qi, +%d contribution, +%d stones)", t.Title, t.RewardQi, t.RewardContribution, t.RewardStones),
		}).Error; err != nil {
			return err
		}

		completed = &t
		credited = &p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	log.Printf("📜 Task completed: %s by player %s", completed.Title, playerID)
	return completed, credited, nil
}

// FailTask marks an in-progress task FAILED with no credit.
func (s *TaskService) FailTask(playerID, taskID string) (*models.Task, error) {
	var failed *models.Task
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var t models.Task
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND player_id = ?", taskID, playerID).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if t.Status != models.TaskStatusInProgress {
			return &IllegalStateError{Entity: "task", State: string(t.Status), Action: "fail"}
		}
		t.Status = models.TaskStatusFailed
		if err := tx.Model(&models.Task{}).Where("id = ?", t.ID).
			Update("status", t.Status).Error; err != nil {
			return err
		}
		failed = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return failed, nil
}
