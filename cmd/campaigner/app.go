package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"gopkg.in/yaml.v3"

	"github.com/rahul/campaigner/internal/agent"
	"github.com/rahul/campaigner/internal/cadence"
	"github.com/rahul/campaigner/internal/campaign"
	"github.com/rahul/campaigner/internal/compliance"
	"github.com/rahul/campaigner/internal/observability"
	"github.com/rahul/campaigner/internal/planner"
	"github.com/rahul/campaigner/pkg/config"
)

// buildService wires the planners, writer and validator described by cfg.
// model may be nil, in which case planning uses the fallback tables and
// copy generation is disabled.
func buildService(cfg *config.Config, model llms.Model, modelName string, logger *observability.Logger) (*agent.Service, error) {
	convention, err := cadence.ParseConvention(cfg.Campaign.DelayConvention)
	if err != nil {
		return nil, err
	}
	defaults := cadence.Defaults{
		EmailCount: cfg.Campaign.DefaultEmails,
		TotalDays:  cfg.Campaign.DefaultDays,
	}
	limits := compliance.Limits{
		SubjectMax:   cfg.Compliance.SubjectMax,
		PreheaderMax: cfg.Compliance.PreheaderMax,
		MergeToken:   cfg.Compliance.MergeToken,
	}
	ruleset, err := buildRuleset(cfg.Compliance.ExtraPatterns)
	if err != nil {
		return nil, err
	}

	rules := planner.DefaultRules
	fallback := planner.NewPlanner(cadence.NewResolver(defaults), rules)
	normalizer := planner.NewNormalizer(convention, fallback)
	validator := compliance.NewValidator(limits, ruleset)

	var (
		planBrain *agent.PlanBrain
		writer    *agent.WriterBrain
	)
	if model != nil {
		prompts := agent.NewPromptManager(cfg.App.Prompts, agent.PromptSettings{
			Brand:      cfg.App.Brand,
			Convention: convention,
			Defaults:   defaults,
			Rules:      rules,
			Limits:     limits,
		})
		planBrain = agent.NewPlanBrain(model, modelName, prompts, logger)
		planBrain.UseTools = cfg.UsePlanTools()
		writer = agent.NewWriterBrain(model, modelName, prompts, logger)
	}

	service := agent.NewService(planBrain, writer, normalizer, validator, logger)
	service.DefaultSMS = rules.DefaultSMS
	return service, nil
}

// buildRuleset extends the default banned-language rules with the configured
// patterns, applied in name order.
func buildRuleset(extra map[string]string) (*compliance.Ruleset, error) {
	ruleset := compliance.DefaultRuleset()
	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := ruleset.DenyPattern(name, extra[name]); err != nil {
			return nil, fmt.Errorf("compliance pattern %q: %w", name, err)
		}
	}
	return ruleset, nil
}

// loadModel returns the default provider's model, or nil when no provider is
// enabled.
func loadModel(cfg *config.Config) (llms.Model, string, error) {
	name, provider := cfg.GetDefaultProvider()
	if name == "" {
		return nil, "", nil
	}
	model, err := agent.NewModel(name, provider)
	if err != nil {
		return nil, "", fmt.Errorf("init provider %s: %w", name, err)
	}
	return model, provider.Model, nil
}

// readInput reads path, or stdin when path is "-" or empty.
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// decodeFile decodes JSON, or YAML for .yaml/.yml paths.
func decodeFile(path string, data []byte, dst any) error {
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return yaml.Unmarshal(data, dst)
	}
	return json.Unmarshal(data, dst)
}

// intakeFlags collect an intake from the command line.
type intakeFlags struct {
	file      string
	goal      string
	audience  string
	length    int
	cadence   string
	sms       bool
	smsSteps  string
	emphasize string
	avoid     string
	ab        bool
}

func (f *intakeFlags) intake(stdin io.Reader) (campaign.Intake, error) {
	var in campaign.Intake
	if f.file != "" {
		data, err := readInput(f.file, stdin)
		if err != nil {
			return in, fmt.Errorf("read intake: %w", err)
		}
		if err := decodeFile(f.file, data, &in); err != nil {
			return in, fmt.Errorf("decode intake: %w", err)
		}
		return in, nil
	}

	in = campaign.Intake{
		Goal:       f.goal,
		Audience:   f.audience,
		IncludeSMS: f.sms || f.smsSteps != "",
		Emphasize:  f.emphasize,
		Avoid:      f.avoid,
		ABSubjects: f.ab,
	}
	if f.length > 0 {
		length := f.length
		in.Length = &length
	}
	if f.cadence != "" {
		c := f.cadence
		in.Cadence = &c
	}
	if f.smsSteps != "" {
		in.SMSPlacement = campaign.ParseSMSPlacement(f.smsSteps)
	}
	return in, nil
}

func writeOutput(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
