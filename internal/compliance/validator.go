// Package compliance checks generated campaign copy against format limits
// and banned language.
package compliance

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rahul/campaigner/internal/blocks"
	"github.com/rahul/campaigner/internal/campaign"
)

// Limits are the per-field constraints checked on every block.
type Limits struct {
	SubjectMax   int
	PreheaderMax int
	MergeToken   string
}

var DefaultLimits = Limits{
	SubjectMax:   55,
	PreheaderMax: 90,
	MergeToken:   "{{recipient.f_name}}",
}

var linkPattern = regexp.MustCompile(`(?i)https?://`)

// Options describe what the caller expects the output to contain.
type Options struct {
	ABSubjects bool
	// ExpectedSteps is the number of email blocks expected; zero skips the
	// count check.
	ExpectedSteps int
}

type Validator struct {
	Limits Limits
	Rules  *Ruleset
}

func NewValidator(limits Limits, rules *Ruleset) *Validator {
	if rules == nil {
		rules = DefaultRuleset()
	}
	return &Validator{Limits: limits, Rules: rules}
}

// Validate parses text into blocks and reports every problem found. It never
// panics on malformed input; problems become issues.
func (v *Validator) Validate(text string, opts Options) campaign.Result {
	var issues []campaign.Issue

	parsed := blocks.Parse(text)
	if len(parsed) == 0 {
		issues = append(issues, campaign.Issue{
			Field:   campaign.FieldFormat,
			Message: "Campaign output appears to be empty.",
		})
		return campaign.Result{IsValid: false, Issues: issues}
	}

	if opts.ExpectedSteps > 0 && len(parsed) != opts.ExpectedSteps {
		issues = append(issues, campaign.Issue{
			Field:   campaign.FieldFormat,
			Message: fmt.Sprintf("Expected %d steps, received %d.", opts.ExpectedSteps, len(parsed)),
		})
	}

	for _, b := range parsed {
		issues = append(issues, v.checkBlock(b, opts)...)
	}

	for _, rule := range v.Rules.Evaluate(text) {
		issues = append(issues, campaign.Issue{
			Field:   campaign.FieldCompliance,
			Message: fmt.Sprintf("Output failed compliance check for %s (pattern %s).", rule.Name, rule.Pattern),
		})
	}

	if issues == nil {
		issues = []campaign.Issue{}
	}
	return campaign.Result{IsValid: len(issues) == 0, Issues: issues}
}

func (v *Validator) checkBlock(b campaign.ParsedBlock, opts Options) []campaign.Issue {
	if b.Malformed() {
		return []campaign.Issue{{
			Field:   campaign.FieldFormat,
			Message: fmt.Sprintf("Each block must start with 'Step N %s Email %s Delay: X'.", blocks.Bullet, blocks.Bullet),
		}}
	}

	step := *b.StepNumber
	var issues []campaign.Issue
	add := func(field campaign.Field, format string, args ...any) {
		s := step
		issues = append(issues, campaign.Issue{Step: &s, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// preheader
	if b.Preheader == nil {
		add(campaign.FieldPreheader, "Missing preheader line.")
	} else {
		value := blocks.StripPreheaderLabel(*b.Preheader)
		if value == "" {
			add(campaign.FieldPreheader, "Preheader cannot be empty.")
		}
		if utf8.RuneCountInString(value) > v.Limits.PreheaderMax {
			add(campaign.FieldPreheader, "Preheader exceeds %d characters.", v.Limits.PreheaderMax)
		}
		if ContainsEmoji(value) {
			add(campaign.FieldPreheader, "Preheader must not contain emojis.")
		}
		if strings.Contains(value, v.Limits.MergeToken) {
			add(campaign.FieldPreheader, "Preheader must not contain merge variables.")
		}
	}

	// subjects
	switch {
	case len(b.Subjects) == 0:
		add(campaign.FieldSubject, "Missing subject line.")
	case opts.ABSubjects && len(b.Subjects) != 2:
		add(campaign.FieldSubject, "Expected two subject variants (A/B).")
	case !opts.ABSubjects && len(b.Subjects) != 1:
		add(campaign.FieldSubject, "Expected a single subject line.")
	}
	for _, s := range b.Subjects {
		label := "Subject"
		if opts.ABSubjects {
			label = s.Label
		}
		value := blocks.StripSubjectLabel(s.Line)
		if value == "" {
			add(campaign.FieldSubject, "%s cannot be empty.", label)
		}
		if utf8.RuneCountInString(value) > v.Limits.SubjectMax {
			add(campaign.FieldSubject, "%s exceeds %d characters.", label, v.Limits.SubjectMax)
		}
		if ContainsEmoji(value) {
			add(campaign.FieldSubject, "%s must not contain emojis.", label)
		}
	}

	// body
	if b.Body == nil {
		add(campaign.FieldBody, "Missing body copy.")
	} else {
		body := blocks.StripBodyLabel(*b.Body)
		if !strings.Contains(body, v.Limits.MergeToken) {
			add(campaign.FieldBody, "Body must include %s.", v.Limits.MergeToken)
		}
		if linkPattern.MatchString(body) {
			add(campaign.FieldBody, "Body must not include links.")
		}
	}

	return issues
}
