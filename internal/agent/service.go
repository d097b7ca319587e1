package agent

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/rahul/campaigner/internal/campaign"
	"github.com/rahul/campaigner/internal/compliance"
	"github.com/rahul/campaigner/internal/observability"
	"github.com/rahul/campaigner/internal/planner"
	"github.com/rahul/campaigner/internal/tone"
)

var (
	// ErrNoModel is returned by Write when no language model is configured.
	ErrNoModel = errors.New("no language model configured")
	// ErrInvalidOutput matches any *OutputError.
	ErrInvalidOutput = errors.New("generated content failed validation")
)

// Plan sources.
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

// OutputError carries the copy that failed validation and its issues.
type OutputError struct {
	Text   string
	Issues []campaign.Issue
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("%s: %d issue(s)", ErrInvalidOutput, len(e.Issues))
}

func (e *OutputError) Is(target error) bool {
	return target == ErrInvalidOutput
}

// PlanResult is a normalized plan and where it came from.
type PlanResult struct {
	Steps  []campaign.Step `json:"steps"`
	Source string          `json:"source"`
}

func (r PlanResult) Plan() campaign.Plan {
	return campaign.Plan{Steps: r.Steps}
}

// WriteRequest is everything the writer needs. Snippets may be empty.
type WriteRequest struct {
	Intake     campaign.Intake
	Plan       campaign.Plan
	Snippets   []tone.Snippet
	ABSubjects bool
}

// Service ties the planners, the writer and the validator together. Planner
// and Writer are nil when no model is configured.
type Service struct {
	Planner    *PlanBrain
	Writer     *WriterBrain
	Normalizer *planner.Normalizer
	Fallback   *planner.Planner
	Validator  *compliance.Validator
	DefaultSMS []int
	Logger     *observability.Logger
}

func NewService(planBrain *PlanBrain, writer *WriterBrain, normalizer *planner.Normalizer, validator *compliance.Validator, logger *observability.Logger) *Service {
	return &Service{
		Planner:    planBrain,
		Writer:     writer,
		Normalizer: normalizer,
		Fallback:   normalizer.Fallback,
		Validator:  validator,
		DefaultSMS: campaign.DefaultSMSSteps,
		Logger:     logger,
	}
}

// Plan validates the intake and produces a normalized plan. Model failures
// never surface as errors; they select the fallback plan instead. The only
// error is an invalid intake.
func (s *Service) Plan(ctx context.Context, intake campaign.Intake) (PlanResult, error) {
	if err := intake.Validate(); err != nil {
		return PlanResult{}, err
	}
	intake = intake.Normalize(s.DefaultSMS)
	requestID := observability.RequestID(ctx)

	observability.SetStatus(observability.StagePlanning, intake.Goal)
	defer observability.SetStatus(observability.StageIdle, "")

	result := PlanResult{Source: SourceFallback}
	reason := "no model configured"
	if s.Planner != nil {
		steps, err := s.Planner.Propose(ctx, intake)
		switch {
		case err != nil:
			log.Printf("[plan] model plan rejected: %v", err)
			reason = err.Error()
		case !campaign.HasEmail(steps):
			log.Printf("[plan] model plan rejected: no email steps")
			reason = "model plan has no email steps"
		default:
			result.Steps = s.Normalizer.Normalize(steps, intake).Steps
			result.Source = SourceModel
		}
	}
	if result.Source == SourceFallback {
		s.Logger.LogFallback(requestID, reason)
		result.Steps = s.Fallback.Build(intake).Steps
	}

	plan := result.Plan()
	s.Logger.LogPlan(requestID, result.Source, len(plan.Steps), plan.EmailCount())
	observability.Count(func(c *observability.Counters) {
		c.Plans++
		if result.Source == SourceFallback {
			c.Fallbacks++
		}
	})
	return result, nil
}

// Write generates campaign copy for req.Plan and validates it. Invalid copy
// is reported as an *OutputError.
func (s *Service) Write(ctx context.Context, req WriteRequest) (string, error) {
	if s.Writer == nil {
		return "", ErrNoModel
	}
	if err := req.Intake.Validate(); err != nil {
		return "", err
	}
	if err := campaign.ValidateSteps(req.Plan.Steps); err != nil {
		return "", err
	}
	requestID := observability.RequestID(ctx)

	observability.SetStatus(observability.StageWriting, req.Intake.Goal)
	defer observability.SetStatus(observability.StageIdle, "")

	text, err := s.Writer.Write(ctx, req.Intake, req.Plan, req.Snippets, req.ABSubjects)
	if err != nil {
		return "", fmt.Errorf("failed to generate campaign copy: %w", err)
	}

	observability.SetStatus(observability.StageValidating, req.Intake.Goal)
	result := s.Validate(requestID, text, compliance.Options{
		ABSubjects:    req.ABSubjects,
		ExpectedSteps: req.Plan.EmailCount(),
	})
	observability.Count(func(c *observability.Counters) {
		c.Writes++
		if !result.IsValid {
			c.InvalidOutputs++
		}
	})
	if !result.IsValid {
		return text, &OutputError{Text: text, Issues: result.Issues}
	}
	return text, nil
}

// Validate runs the compliance validator and logs the outcome.
func (s *Service) Validate(requestID, text string, opts compliance.Options) campaign.Result {
	result := s.Validator.Validate(text, opts)
	s.Logger.LogValidation(requestID, result.IsValid, result.Issues)
	return result
}
