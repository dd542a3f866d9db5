package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"reflect"
	"strings"

	"cultivation-system/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefaultMaxRetries bounds consecutive pipeline failures before the
// terminal error is surfaced.
const DefaultMaxRetries = 3

// ContentService is the generation-and-validation pipeline: build prompt,
// call the backend, strip wrappers, parse, validate, retry with a freshly
// built prompt on any failure. Side-effect free until the caller persists
// the result.
type ContentService struct {
	Gen        TextGenerator
	MaxRetries int
	Validate   *validator.Validate
}

func NewContentService(gen TextGenerator) *ContentService {
	return &ContentService{
		Gen:        gen,
		MaxRetries: DefaultMaxRetries,
		Validate:   validator.New(),
	}
}

// Enabled reports whether a backend is configured; without one, callers
// fall back to the seed catalog.
func (s *ContentService) Enabled() bool {
	return s != nil && s.Gen != nil
}

// stripCodeFences removes markdown fencing the backend tends to wrap JSON
// in (```json ... ```).
func stripCodeFences(raw string) string {
	out := strings.TrimSpace(raw)
	if strings.HasPrefix(out, "```") {
		out = strings.TrimPrefix(out, "```json")
		out = strings.TrimPrefix(out, "```")
		if idx := strings.LastIndex(out, "```"); idx >= 0 {
			out = out[:idx]
		}
	}
	return strings.TrimSpace(out)
}

// generateJSON runs the bounded retry loop. buildPrompt is re-invoked on
// every attempt so a retry is a fresh round trip, never a reparse of the
// failed text. check runs after struct-tag validation for rules tags
// cannot express.
func (s *ContentService) generateJSON(ctx context.Context, label string, buildPrompt func() string, out interface{}, check func() error) error {
	retries := s.MaxRetries
	if retries < 1 {
		retries = DefaultMaxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		raw, err := s.Gen.GenerateText(ctx, buildPrompt())
		if err != nil {
			lastErr = err
			log.Printf("[Content] %s attempt %d/%d: backend call failed: %v", label, attempt, retries, err)
			continue
		}

		// Zero the decode target so fields from a rejected attempt
		// cannot bleed into the next parse.
		reflect.ValueOf(out).Elem().Set(reflect.Zero(reflect.TypeOf(out).Elem()))
		if err := json.Unmarshal([]byte(stripCodeFences(raw)), out); err != nil {
			lastErr = fmt.Errorf("parse failure: %w", err)
			log.Printf("[Content] %s attempt %d/%d: %v", label, attempt, retries, lastErr)
			continue
		}

		if err := s.Validate.Struct(out); err != nil {
			lastErr = fmt.Errorf("schema validation failure: %w", err)
			log.Printf("[Content] %s attempt %d/%d: %v", label, attempt, retries, lastErr)
			continue
		}

		if check != nil {
			if err := check(); err != nil {
				lastErr = fmt.Errorf("content validation failure: %w", err)
				log.Printf("[Content] %s attempt %d/%d: %v", label, attempt, retries, lastErr)
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("%w after %d attempts (%s): %v", ErrGenerationExhausted, retries, label, lastErr)
}

// taskContent is the schema the backend must produce for a task.
type taskContent struct {
	Title              string              `json:"title" validate:"required"`
	Description        string              `json:"description" validate:"required"`
	Type               models.TaskType     `json:"type" validate:"required"`
	Difficulty         int                 `json:"difficulty" validate:"gte=1,lte=5"`
	RewardQi           float64             `json:"reward_qi" validate:"gt=0"`
	RewardContribution int64               `json:"reward_contribution" validate:"gte=0"`
	RewardStones       int64               `json:"reward_stones" validate:"gte=0"`
	Payload            *models.TaskPayload `json:"payload,omitempty"`
}

func taskPrompt(p *models.Player) string {
	return fmt.Sprintf(`You are the quest master of an immortal cultivation sect.
Create one task for a disciple at the %s realm, level %d, with a %s spirit root.

Respond with ONLY a JSON object, no prose, matching:
{"title": string, "description": string, "type": one of "DAILY"|"WEEKLY"|"LINK"|"BATTLE"|"GAME"|"SECT", "difficulty": 1-5, "reward_qi": number > 0, "reward_contribution": number >= 0, "reward_stones": number >= 0, "payload": optional object}

For BATTLE tasks include payload.battle = {"enemy_name": string, "enemy_power": int, "enemy_hp": int}.
For GAME tasks include payload.quiz = {"question": string, "options": [2-4 strings], "answer_index": int}.
Scale rewards to the disciple's realm.`,
		p.Realm.DisplayName(), p.Level, strings.ToLower(string(p.SpiritRoot)))
}

// GenerateTask produces a schema-valid task for the player, or the terminal
// exhaustion error after the retry budget.
func (s *ContentService) GenerateTask(ctx context.Context, p *models.Player) (*models.Task, error) {
	var content taskContent
	err := s.generateJSON(ctx, "task", func() string { return taskPrompt(p) }, &content, func() error {
		if !content.Type.IsValid() {
			return fmt.Errorf("unknown task type %q", content.Type)
		}
		if content.Type == models.TaskTypeBattle && (content.Payload == nil || content.Payload.Battle == nil) {
			return fmt.Errorf("battle task missing battle payload")
		}
		if content.Type == models.TaskTypeGame && (content.Payload == nil || content.Payload.Quiz == nil) {
			return fmt.Errorf("game task missing quiz payload")
		}
		if content.Payload != nil && content.Payload.Quiz != nil &&
			content.Payload.Quiz.AnswerIndex >= len(content.Payload.Quiz.Options) {
			return fmt.Errorf("quiz answer index out of range")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.Task{
		ID:                 uuid.NewString(),
		PlayerID:           p.ID,
		Type:               content.Type,
		Status:             models.TaskStatusPending,
		Title:              content.Title,
		Description:        content.Description,
		Difficulty:         content.Difficulty,
		RewardQi:           content.RewardQi,
		RewardContribution: content.RewardContribution,
		RewardStones:       content.RewardStones,
		Payload:            content.Payload,
	}, nil
}

// eventContent is the schema for a narrative event offer.
type eventContent struct {
	Title       string               `json:"title" validate:"required"`
	Description string               `json:"description" validate:"required"`
	Choices     []models.EventChoice `json:"choices" validate:"required,min=2,max=4,dive"`
}

func eventPrompt(p *models.Player) string {
	return fmt.Sprintf(`You are the narrator of an immortal cultivation world.
Create one short encounter for a cultivator at the %s realm, level %d.

Respond with ONLY a JSON object, no prose, matching:
{"title": string, "description": string, "choices": [{"text": string, "hint": optional string}]}

Provide between 2 and 4 choices. Do not reveal outcomes.`,
		p.Realm.DisplayName(), p.Level)
}

// GenerateEvent produces an unresolved event instance for the player.
func (s *ContentService) GenerateEvent(ctx context.Context, p *models.Player) (*models.GameEvent, error) {
	var content eventContent
	err := s.generateJSON(ctx, "event", func() string { return eventPrompt(p) }, &content, nil)
	if err != nil {
		return nil, err
	}
	return &models.GameEvent{
		ID:          uuid.NewString(),
		PlayerID:    p.ID,
		Title:       content.Title,
		Description: content.Description,
		Choices:     content.Choices,
	}, nil
}

// narrationContent is the schema for resolution narration.
type narrationContent struct {
	Narration string `json:"narration" validate:"required"`
}

func narrationPrompt(event *models.GameEvent, choice models.EventChoice, favorable bool) string {
	tone := "a setback"
	if favorable {
		tone = "a fortunate turn"
	}
	return fmt.Sprintf(`You are the narrator of an immortal cultivation world.
The encounter: %s — %s
The cultivator chose: %q
The result is %s.

Respond with ONLY a JSON object: {"narration": string} — 2-3 sentences of narration.`,
		event.Title, event.Description, choice.Text, tone)
}

// GenerateNarration narrates a resolved choice. Callers fall back to a
// static line when the pipeline is exhausted or disabled.
func (s *ContentService) GenerateNarration(ctx context.Context, event *models.GameEvent, choice models.EventChoice, favorable bool) (string, error) {
	var content narrationContent
	err := s.generateJSON(ctx, "narration", func() string {
		return narrationPrompt(event, choice, favorable)
	}, &content, nil)
	if err != nil {
		return "", err
	}
	return content.Narration, nil
}

// GenerateQuiz produces one standalone quiz question on a topic.
func (s *ContentService) GenerateQuiz(ctx context.Context, topic string) (*models.QuizPayload, error) {
	var quiz models.QuizPayload
	err := s.generateJSON(ctx, "quiz", func() string {
		return fmt.Sprintf(`Write one multiple-choice question about %q.
Respond with ONLY a JSON object: {"question": string, "options": [2-4 strings], "answer_index": int (0-based)}`, topic)
	}, &quiz, func() error {
		if quiz.AnswerIndex >= len(quiz.Options) {
			return fmt.Errorf("quiz answer index out of range")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

// summaryContent is the schema for URL summarization.
type summaryContent struct {
	Summary string `json:"summary" validate:"required"`
}

// SummarizeURL asks the backend for a short summary of a page the player
// was sent to by a LINK task.
func (s *ContentService) SummarizeURL(ctx context.Context, url string) (string, error) {
	var content summaryContent
	err := s.generateJSON(ctx, "summary", func() string {
		return fmt.Sprintf(`Summarize the content at %s in 3 sentences or fewer.
Respond with ONLY a JSON object: {"summary": string}`, url)
	}, &content, nil)
	if err != nil {
		return "", err
	}
	return content.Summary, nil
}
