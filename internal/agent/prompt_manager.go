package agent

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/rahul/campaigner/internal/cadence"
	"github.com/rahul/campaigner/internal/campaign"
	"github.com/rahul/campaigner/internal/compliance"
	"github.com/rahul/campaigner/internal/planner"
	"github.com/rahul/campaigner/internal/tone"
)

//go:embed prompts/*.md
var builtinPrompts embed.FS

// PromptSettings are the values shared by every prompt.
type PromptSettings struct {
	Brand      string
	Convention cadence.Convention
	Defaults   cadence.Defaults
	Rules      planner.Rules
	Limits     compliance.Limits
}

// PromptManager renders the system, planner and writer prompts. A file with
// the same name in Directory overrides the built-in template.
type PromptManager struct {
	Directory string
	Settings  PromptSettings
}

func NewPromptManager(dir string, settings PromptSettings) *PromptManager {
	if settings.Brand == "" {
		settings.Brand = "our team"
	}
	return &PromptManager{Directory: dir, Settings: settings}
}

func (pm *PromptManager) load(name string) (*template.Template, error) {
	var (
		data []byte
		err  error
	)
	if pm.Directory != "" {
		data, err = os.ReadFile(filepath.Join(pm.Directory, name))
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read prompt %s: %w", name, err)
		}
	}
	if data == nil {
		data, err = builtinPrompts.ReadFile("prompts/" + name)
		if err != nil {
			return nil, fmt.Errorf("no prompt named %s: %w", name, err)
		}
	}
	return template.New(name).Option("missingkey=error").Parse(string(data))
}

func (pm *PromptManager) render(name string, data any) (string, error) {
	tmpl, err := pm.load(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func (pm *PromptManager) common() map[string]any {
	s := pm.Settings
	return map[string]any{
		"Brand":        s.Brand,
		"Convention":   s.Convention,
		"DefaultCount": s.Defaults.EmailCount,
		"DefaultDays":  s.Defaults.TotalDays,
		"Schedule":     joinInts(s.Rules.Schedule),
		"DefaultSMS":   joinInts(s.Rules.DefaultSMS),
		"MergeToken":   s.Limits.MergeToken,
		"SubjectMax":   s.Limits.SubjectMax,
		"PreheaderMax": s.Limits.PreheaderMax,
	}
}

func (pm *PromptManager) GetSystemPrompt() (string, error) {
	return pm.render("system.md", pm.common())
}

func (pm *PromptManager) GetPlannerPrompt(intake campaign.Intake) (string, error) {
	intakeJSON, err := json.MarshalIndent(intake, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode intake: %w", err)
	}
	data := pm.common()
	data["Intake"] = intake
	data["IntakeJSON"] = string(intakeJSON)
	data["SMSSteps"] = joinInts(intake.SMSPlacement)
	return pm.render("planner.md", data)
}

func (pm *PromptManager) GetWriterPrompt(intake campaign.Intake, plan campaign.Plan, snippets []tone.Snippet, ab bool) (string, error) {
	planJSON, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode plan: %w", err)
	}
	data := pm.common()
	data["Intake"] = intake
	data["PlanJSON"] = string(planJSON)
	data["Snippets"] = tone.Serialize(snippets)
	data["AB"] = ab
	data["Location"] = ExtractLocation(intake.Audience)
	return pm.render("writer.md", data)
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

var (
	statePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(MA|Massachusetts)\b`),
		regexp.MustCompile(`(?i)\b(NY|New York)\b`),
		regexp.MustCompile(`(?i)\b(CA|California)\b`),
		regexp.MustCompile(`(?i)\b(TX|Texas)\b`),
		regexp.MustCompile(`(?i)\b(FL|Florida)\b`),
	}
	cityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(Boston|Cambridge|Worcester|Springfield)\b`),
		regexp.MustCompile(`(?i)\b(New York City|NYC|Manhattan|Brooklyn)\b`),
		regexp.MustCompile(`(?i)\b(Los Angeles|San Francisco|San Diego)\b`),
		regexp.MustCompile(`(?i)\b(Houston|Dallas|Austin|San Antonio)\b`),
		regexp.MustCompile(`(?i)\b(Miami|Orlando|Tampa)\b`),
	}
	prepositionLocation = regexp.MustCompile(`(?i)(?:in|from|around|near)\s+([A-Z][a-zA-Z\s]+?)(?:\s+(?:home|house|property|real estate)|,|\.|$)`)
	leadingLocation     = regexp.MustCompile(`(?i)^([A-Z][a-zA-Z\s]+?)\s+(?:home|house|property|real estate|first[- ]time)`)
)

// ExtractLocation picks a state or city out of an audience description, or
// returns "" when none is found.
func ExtractLocation(audience string) string {
	for _, group := range [][]*regexp.Regexp{statePatterns, cityPatterns} {
		for _, re := range group {
			if m := re.FindStringSubmatch(audience); m != nil {
				return m[1]
			}
		}
	}
	for _, re := range []*regexp.Regexp{prepositionLocation, leadingLocation} {
		if m := re.FindStringSubmatch(audience); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
