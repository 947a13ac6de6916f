package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/vcscsvcscs/runcoach/internal/azure"
	"github.com/vcscsvcscs/runcoach/internal/plan"
	"github.com/vcscsvcscs/runcoach/pkg/model"
	"go.uber.org/zap"
)

// ChatFallbackReply is used when the coach answers with nothing
const ChatFallbackReply = "Sorry, I couldn't process that."

// DefaultPlanWeeks is the length of a freshly generated plan
const DefaultPlanWeeks = 4

const (
	planSystemPrompt   = "You are a world-class running coach creating JSON training plans."
	adjustSystemPrompt = "You are an expert running coach adjusting an existing plan based on feedback."
	chatSystemPrompt   = "You are a helpful, motivating, and brief running coach. Answer questions about running form, " +
		"nutrition, injury prevention, and strategy. Keep answers under 100 words unless asked for detail."
)

// PlanGenerator is the generation service boundary: full plans, adjustments and coach chat
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, profile model.UserProfile) (*model.PlanSkeleton, error)
	AdjustPlan(ctx context.Context, current *model.TrainingPlan, feedback string, fromIndex int) ([]model.WeekSkeleton, error)
	Chat(ctx context.Context, history []model.ChatMessage, message string) (string, error)
}

// Completer sends a chat completion request and returns the reply text
type Completer interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error)
}

var _ Completer = (*azure.OpenAIClient)(nil)

// AIPlanGenerator implements PlanGenerator on top of a chat completion model
type AIPlanGenerator struct {
	ai        Completer
	planWeeks int
	logger    *zap.Logger
}

// NewAIPlanGenerator creates a new AIPlanGenerator
func NewAIPlanGenerator(ai Completer, planWeeks int, logger *zap.Logger) *AIPlanGenerator {
	if planWeeks <= 0 {
		planWeeks = DefaultPlanWeeks
	}
	return &AIPlanGenerator{
		ai:        ai,
		planWeeks: planWeeks,
		logger:    logger,
	}
}

// GeneratePlan asks the model for a complete progressive plan
func (g *AIPlanGenerator) GeneratePlan(ctx context.Context, profile model.UserProfile) (*model.PlanSkeleton, error) {
	g.logger.Info("requesting plan generation",
		zap.String("level", string(profile.Level)),
		zap.String("goal", string(profile.Goal)),
		zap.Int("weeks", g.planWeeks),
	)

	response, err := g.ai.Complete(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(planSystemPrompt),
		openai.UserMessage(g.buildPlanPrompt(profile)),
	})
	if err != nil {
		return nil, g.generationError("plan generation", err)
	}

	body := stripCodeFence(response)
	if body == "" {
		return nil, plan.ErrEmptyGenerationResult
	}

	var skeleton model.PlanSkeleton
	if err := json.Unmarshal([]byte(body), &skeleton); err != nil {
		g.logger.Error("failed to parse generated plan", zap.Error(err), zap.String("response", response))
		return nil, fmt.Errorf("%w: failed to unmarshal plan: %v", plan.ErrMalformedPlanData, err)
	}
	if len(skeleton.Weeks) == 0 {
		return nil, plan.ErrEmptyGenerationResult
	}

	g.logger.Info("plan generation completed", zap.Int("weeks", len(skeleton.Weeks)))
	return &skeleton, nil
}

// AdjustPlan asks the model to regenerate every week after fromIndex
func (g *AIPlanGenerator) AdjustPlan(ctx context.Context, current *model.TrainingPlan, feedback string, fromIndex int) ([]model.WeekSkeleton, error) {
	if current == nil {
		return nil, plan.ErrNoPlan
	}
	remaining := len(current.Weeks) - (fromIndex + 1)

	g.logger.Info("requesting plan adjustment",
		zap.String("plan_id", current.ID),
		zap.Int("from_index", fromIndex),
		zap.Int("remaining_weeks", remaining),
	)

	prompt, err := g.buildAdjustPrompt(current, feedback, fromIndex)
	if err != nil {
		return nil, err
	}

	response, err := g.ai.Complete(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(adjustSystemPrompt),
		openai.UserMessage(prompt),
	})
	if err != nil {
		return nil, g.generationError("plan adjustment", err)
	}

	weeks, err := parseWeekSkeletons(stripCodeFence(response))
	if err != nil {
		g.logger.Error("failed to parse adjusted weeks", zap.Error(err), zap.String("response", response))
		return nil, err
	}

	g.logger.Info("plan adjustment completed",
		zap.Int("returned_weeks", len(weeks)),
		zap.Int("remaining_weeks", remaining),
	)
	return weeks, nil
}

// Chat sends the whole conversation plus the new message and returns one reply
func (g *AIPlanGenerator) Chat(ctx context.Context, history []model.ChatMessage, message string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, openai.SystemMessage(chatSystemPrompt))
	for _, m := range history {
		switch m.Role {
		case model.ChatRoleCoach:
			messages = append(messages, openai.AssistantMessage(m.Text))
		default:
			messages = append(messages, openai.UserMessage(m.Text))
		}
	}
	messages = append(messages, openai.UserMessage(message))

	reply, err := g.ai.Complete(ctx, messages)
	if err != nil {
		if errors.Is(err, azure.ErrEmptyResponse) {
			return ChatFallbackReply, nil
		}
		return "", g.generationError("coach chat", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return ChatFallbackReply, nil
	}
	return reply, nil
}

// generationError maps provider failures onto the plan error taxonomy
func (g *AIPlanGenerator) generationError(op string, err error) error {
	g.logger.Error(op+" failed", zap.Error(err))
	if errors.Is(err, azure.ErrEmptyResponse) {
		return plan.ErrEmptyGenerationResult
	}
	return fmt.Errorf("%w: %s: %v", plan.ErrGenerationUnavailable, op, err)
}

func (g *AIPlanGenerator) buildPlanPrompt(profile model.UserProfile) string {
	notes := strings.TrimSpace(profile.Notes)
	if notes == "" {
		notes = "none"
	}

	return fmt.Sprintf(`Act as an expert running coach. Create a %d-week training plan for a runner with the following profile:
Name: %s
Age: %d
Level: %s
Goal: %s
Days available per week: %d
Current weekly distance: %gkm
Notes: %s

The plan should be progressive and schedule exactly %d training days per week.

Return ONLY valid JSON with this shape:
{
  "goalSummary": "one sentence describing the goal of the plan",
  "weeks": [
    {
      "weekNumber": 1,
      "focus": "main focus of the week (e.g. Volume, Speed)",
      "workouts": [
        {
          "dayName": "Monday",
          "type": "%s",
          "distanceKm": 0,
          "durationMinutes": 0,
          "description": "detailed description of the workout structure",
          "paceTarget": "target pace range (e.g. 5:00-5:15 min/km) or N/A"
        }
      ]
    }
  ]
}

Rules:
- "type" must be exactly one of: %s
- distanceKm is 0 for Rest and Strength
- every field of every workout is required
- no text outside the JSON`,
		g.planWeeks,
		profile.Name,
		profile.Age,
		profile.Level,
		profile.Goal.Label(),
		profile.DaysPerWeek,
		profile.CurrentWeeklyDistance,
		notes,
		profile.DaysPerWeek,
		model.WorkoutEasyRun,
		workoutTypeList(),
	)
}

func (g *AIPlanGenerator) buildAdjustPrompt(current *model.TrainingPlan, feedback string, fromIndex int) (string, error) {
	start := fromIndex + 1
	if start < 0 {
		start = 0
	}
	var remaining []model.WeekPlan
	if start < len(current.Weeks) {
		remaining = current.Weeks[start:]
	}
	remainingJSON, err := json.Marshal(remaining)
	if err != nil {
		return "", fmt.Errorf("failed to encode remaining weeks: %w", err)
	}

	return fmt.Sprintf(`The user is following a running plan. They have provided feedback and need adjustments for the REMAINING weeks starting from Week %d.

Current Goal: %s
User Feedback: %q
Remaining weeks (%d):
%s

Regenerate the remaining weeks based on this feedback.
If they are injured or tired, reduce volume and intensity. If it is too easy, increase slightly.

Return ONLY valid JSON of the form {"weeks": [...]} with one entry per remaining week, in order.
Each week has "weekNumber", "focus" and "workouts"; each workout has "dayName", "type", "distanceKm",
"durationMinutes", "description" and "paceTarget". "type" must be exactly one of: %s`,
		start+1,
		current.Goal,
		feedback,
		len(remaining),
		remainingJSON,
		workoutTypeList(),
	), nil
}

// parseWeekSkeletons accepts {"weeks": [...]} or a bare array
func parseWeekSkeletons(body string) ([]model.WeekSkeleton, error) {
	if body == "" {
		return nil, plan.ErrEmptyGenerationResult
	}

	var weeks []model.WeekSkeleton
	if strings.HasPrefix(body, "[") {
		if err := json.Unmarshal([]byte(body), &weeks); err != nil {
			return nil, fmt.Errorf("%w: failed to unmarshal weeks: %v", plan.ErrMalformedPlanData, err)
		}
	} else {
		var wrapper struct {
			Weeks []model.WeekSkeleton `json:"weeks"`
		}
		if err := json.Unmarshal([]byte(body), &wrapper); err != nil {
			return nil, fmt.Errorf("%w: failed to unmarshal weeks: %v", plan.ErrMalformedPlanData, err)
		}
		weeks = wrapper.Weeks
	}

	if len(weeks) == 0 {
		return nil, plan.ErrEmptyGenerationResult
	}
	return weeks, nil
}

// stripCodeFence removes the markdown code block models sometimes wrap JSON in
func stripCodeFence(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```JSON")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}

func workoutTypeList() string {
	labels := make([]string, len(model.WorkoutTypes))
	for i, t := range model.WorkoutTypes {
		labels[i] = string(t)
	}
	return strings.Join(labels, ", ")
}
