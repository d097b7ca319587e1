package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rahul/campaigner/internal/campaign"
	"github.com/rahul/campaigner/internal/observability"
	"github.com/rahul/campaigner/internal/tone"
	"github.com/tmc/langchaingo/llms"
)

// Brain defines the conversational interface chat gateways talk to.
type Brain interface {
	Think(ctx context.Context, chatID string, input string) (string, error)
}

var ErrEmptyResponse = errors.New("model returned no choices")

const proposePlanTool = "propose_plan"

// planTools describes the propose_plan function the planner model calls.
var planTools = []llms.Tool{
	{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        proposePlanTool,
			Description: "Submit the campaign plan as an ordered list of email and SMS steps.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"steps": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"n": map[string]any{
									"type":    "integer",
									"minimum": 1,
								},
								"type": map[string]any{
									"type": "string",
									"enum": []string{"email", "sms"},
								},
								"delay": map[string]any{
									"type":    "integer",
									"minimum": 0,
								},
								"purpose": map[string]any{
									"type": "string",
								},
							},
							"required": []string{"n", "type", "delay", "purpose"},
						},
					},
				},
				"required": []string{"steps"},
			},
		},
	},
}

// PlanBrain asks a model for a campaign plan.
type PlanBrain struct {
	Model       llms.Model
	ModelName   string
	Prompts     *PromptManager
	Logger      *observability.Logger
	Temperature float64
	// UseTools offers the propose_plan tool. Without it the model is put
	// in JSON mode and the plan is read from its text.
	UseTools bool
}

func NewPlanBrain(model llms.Model, modelName string, prompts *PromptManager, logger *observability.Logger) *PlanBrain {
	return &PlanBrain{
		Model:       model,
		ModelName:   modelName,
		Prompts:     prompts,
		Logger:      logger,
		Temperature: 0.2,
		UseTools:    true,
	}
}

// Propose returns the raw steps the model suggested. The steps are
// schema-checked but not normalized.
func (b *PlanBrain) Propose(ctx context.Context, intake campaign.Intake) ([]campaign.Step, error) {
	systemPrompt, err := b.Prompts.GetSystemPrompt()
	if err != nil {
		return nil, err
	}
	plannerPrompt, err := b.Prompts.GetPlannerPrompt(intake)
	if err != nil {
		return nil, err
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, plannerPrompt),
	}
	opts := []llms.CallOption{llms.WithTemperature(b.Temperature)}
	if b.UseTools {
		opts = append(opts, llms.WithTools(planTools))
	} else {
		opts = append(opts, llms.WithJSONMode())
	}

	choice, err := generate(ctx, b.Model, b.ModelName, b.Logger, "plan", plannerPrompt, messages, opts...)
	if err != nil {
		return nil, err
	}

	var payload string
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall != nil && tc.FunctionCall.Name == proposePlanTool {
			payload = tc.FunctionCall.Arguments
			break
		}
	}
	if payload == "" {
		payload, err = ExtractJSON(choice.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to read plan: %w", err)
		}
	}

	steps, err := decodeSteps(payload)
	if err != nil {
		return nil, err
	}
	if err := campaign.ValidateSteps(steps); err != nil {
		return nil, err
	}
	return steps, nil
}

// decodeSteps accepts {"steps": [...]} or a bare step array.
func decodeSteps(payload string) ([]campaign.Step, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "[") {
		var steps []campaign.Step
		if err := json.Unmarshal([]byte(payload), &steps); err != nil {
			return nil, fmt.Errorf("failed to parse plan steps: %w", err)
		}
		return steps, nil
	}
	var plan campaign.Plan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	return plan.Steps, nil
}

// WriterBrain asks a model for the finished campaign copy.
type WriterBrain struct {
	Model       llms.Model
	ModelName   string
	Prompts     *PromptManager
	Logger      *observability.Logger
	Temperature float64
}

func NewWriterBrain(model llms.Model, modelName string, prompts *PromptManager, logger *observability.Logger) *WriterBrain {
	return &WriterBrain{
		Model:       model,
		ModelName:   modelName,
		Prompts:     prompts,
		Logger:      logger,
		Temperature: 0.6,
	}
}

// Write renders the writer prompt and returns the model's text with any
// stray markup stripped. The text is not validated here.
func (b *WriterBrain) Write(ctx context.Context, intake campaign.Intake, plan campaign.Plan, snippets []tone.Snippet, ab bool) (string, error) {
	systemPrompt, err := b.Prompts.GetSystemPrompt()
	if err != nil {
		return "", err
	}
	writerPrompt, err := b.Prompts.GetWriterPrompt(intake, plan, snippets, ab)
	if err != nil {
		return "", err
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, writerPrompt),
	}
	choice, err := generate(ctx, b.Model, b.ModelName, b.Logger, "write", writerPrompt, messages, llms.WithTemperature(b.Temperature))
	if err != nil {
		return "", err
	}
	return Sanitize(choice.Content), nil
}

var copyPolicy = bluemonday.StrictPolicy()

// Sanitize removes HTML tags from model copy while keeping its text,
// line breaks and merge tokens intact.
func Sanitize(text string) string {
	return strings.TrimSpace(html.UnescapeString(copyPolicy.Sanitize(text)))
}

func generate(ctx context.Context, model llms.Model, modelName string, logger *observability.Logger, stage, prompt string, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentChoice, error) {
	requestID := observability.RequestID(ctx)

	resp, err := model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		log.Printf("[%s] model call failed: %v", stage, err)
		return nil, fmt.Errorf("%s: %w", stage, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s: %w", stage, ErrEmptyResponse)
	}

	choice := resp.Choices[0]
	logger.LogLLM(requestID, stage, prompt, choice.Content, choice.ToolCalls)
	if in, out := tokenUsage(choice.GenerationInfo); in+out > 0 {
		logger.LogCost(requestID, in, out, modelName)
	}
	return choice, nil
}

// tokenUsage reads prompt and completion token counts from provider
// generation info. OpenAI and Anthropic report them under different keys.
func tokenUsage(info map[string]any) (prompt, completion int) {
	read := func(keys ...string) int {
		for _, k := range keys {
			if v, ok := info[k].(int); ok {
				return v
			}
		}
		return 0
	}
	return read("PromptTokens", "InputTokens"), read("CompletionTokens", "OutputTokens")
}
