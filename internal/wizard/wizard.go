// Package wizard collects a campaign intake one chat message at a time and
// hands the finished brief to the campaign service.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/rahul/campaigner/internal/agent"
	"github.com/rahul/campaigner/internal/campaign"
	"github.com/rahul/campaigner/internal/store"
	"github.com/rahul/campaigner/internal/tone"
)

type DraftStore interface {
	SaveDraft(ctx context.Context, d store.Draft) error
	GetDraft(ctx context.Context, chatID string) (store.Draft, error)
	ClearDraft(ctx context.Context, chatID string) error
}

// Transcript records chat messages. Optional.
type Transcript interface {
	AddMessage(ctx context.Context, chatID string, role string, content string) error
}

// Wizard walks a chat through Questions. It satisfies agent.Brain.
type Wizard struct {
	Drafts     DraftStore
	Service    *agent.Service
	Snippets   tone.Library
	Transcript Transcript
}

func New(drafts DraftStore, service *agent.Service, snippets tone.Library) *Wizard {
	return &Wizard{Drafts: drafts, Service: service, Snippets: snippets}
}

const resetCommand = "/reset"

const greeting = "Let's build a campaign. Send /reset at any time to start over."

func (w *Wizard) Think(ctx context.Context, chatID string, input string) (string, error) {
	input = strings.TrimSpace(input)
	w.record(ctx, chatID, "human", input)

	reply, err := w.handle(ctx, chatID, input)
	if err != nil {
		return "", err
	}
	w.record(ctx, chatID, "ai", reply)
	return reply, nil
}

func (w *Wizard) handle(ctx context.Context, chatID string, input string) (string, error) {
	if strings.EqualFold(input, resetCommand) || strings.EqualFold(input, "/start") {
		return w.start(ctx, chatID)
	}

	draft, err := w.Drafts.GetDraft(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return w.start(ctx, chatID)
	}
	if err != nil {
		return "", fmt.Errorf("load draft: %w", err)
	}
	if draft.Step < 0 || draft.Step >= len(Questions) {
		return w.start(ctx, chatID)
	}
	if draft.Answers == nil {
		draft.Answers = make(map[string]string)
	}

	q := Questions[draft.Step]
	value, problem := q.Accept(input)
	if problem != "" {
		return problem + "\n" + q.Prompt, nil
	}
	draft.Answers[q.Key] = value

	next := nextQuestion(draft.Step+1, draft.Answers)
	if next < len(Questions) {
		draft.Step = next
		if err := w.Drafts.SaveDraft(ctx, draft); err != nil {
			return "", fmt.Errorf("save draft: %w", err)
		}
		return Questions[next].Prompt, nil
	}

	if err := w.Drafts.ClearDraft(ctx, chatID); err != nil {
		return "", fmt.Errorf("clear draft: %w", err)
	}
	return w.finish(ctx, BuildIntake(draft.Answers))
}

func (w *Wizard) start(ctx context.Context, chatID string) (string, error) {
	if err := w.Drafts.SaveDraft(ctx, store.Draft{ChatID: chatID, Answers: map[string]string{}}); err != nil {
		return "", fmt.Errorf("save draft: %w", err)
	}
	return greeting + "\n\n" + Questions[0].Prompt, nil
}

func (w *Wizard) finish(ctx context.Context, intake campaign.Intake) (string, error) {
	result, err := w.Service.Plan(ctx, intake)
	if err != nil {
		return fmt.Sprintf("That brief didn't pass validation (%v). Send /reset to try again.", err), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here's your plan (%s):\n", result.Source)
	b.WriteString(FormatPlan(result.Plan()))

	var snippets []tone.Snippet
	if w.Snippets != nil {
		snippets, err = tone.ForPlan(ctx, w.Snippets, intake.Audience, result.Plan())
		if err != nil {
			log.Printf("[wizard] %v", err)
		}
	}

	text, err := w.Service.Write(ctx, agent.WriteRequest{
		Intake:     intake,
		Plan:       result.Plan(),
		Snippets:   snippets,
		ABSubjects: intake.ABSubjects,
	})
	var outErr *agent.OutputError
	switch {
	case err == nil:
		b.WriteString("\n\n")
		b.WriteString(text)
	case errors.Is(err, agent.ErrNoModel):
		b.WriteString("\n\nCopy generation is off because no model is configured.")
	case errors.As(err, &outErr):
		b.WriteString("\n\nThe drafted copy failed compliance checks:\n")
		b.WriteString(FormatIssues(outErr.Issues))
	default:
		log.Printf("[wizard] write failed: %v", err)
		b.WriteString("\n\nI couldn't draft the copy this time. Send /reset to try again.")
	}
	return b.String(), nil
}

func (w *Wizard) record(ctx context.Context, chatID, role, content string) {
	if w.Transcript == nil || content == "" {
		return
	}
	if err := w.Transcript.AddMessage(ctx, chatID, role, content); err != nil {
		log.Printf("[wizard] failed to record message: %v", err)
	}
}

func nextQuestion(from int, answers map[string]string) int {
	for i := from; i < len(Questions); i++ {
		if Questions[i].Skip == nil || !Questions[i].Skip(answers) {
			return i
		}
	}
	return len(Questions)
}

// FormatPlan lists one step per line.
func FormatPlan(plan campaign.Plan) string {
	lines := make([]string, len(plan.Steps))
	for i, s := range plan.Steps {
		channel := "Email"
		if s.Type == campaign.StepSMS {
			channel = "SMS"
		}
		lines[i] = fmt.Sprintf("Step %d • %s • Delay: %d • %s", s.N, channel, s.Delay, s.Purpose)
	}
	return strings.Join(lines, "\n")
}

// FormatIssues lists validation issues as bullet lines.
func FormatIssues(issues []campaign.Issue) string {
	lines := make([]string, len(issues))
	for i, is := range issues {
		where := string(is.Field)
		if is.Step != nil {
			where = fmt.Sprintf("step %d %s", *is.Step, is.Field)
		}
		lines[i] = fmt.Sprintf("- %s: %s", where, is.Message)
	}
	return strings.Join(lines, "\n")
}
