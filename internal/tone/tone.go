// Package tone selects voice samples ("tone snippets") that steer the
// copywriting model toward the brand's phrasing.
package tone

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rahul/campaigner/internal/campaign"
)

// General marks a snippet that fits any audience or purpose.
const General = "general"

// DefaultLimit is the number of snippets handed to the writer by default.
const DefaultLimit = 6

// minSelection is the floor Select tops up to.
const minSelection = 3

type Snippet struct {
	ID        string   `json:"id" yaml:"id"`
	Text      string   `json:"text" yaml:"text"`
	Audiences []string `json:"audiences" yaml:"audiences"`
	Purposes  []string `json:"purposes" yaml:"purposes"`
}

var tokenSplit = regexp.MustCompile(`[,\s]+`)

// Select scores snippets against an audience description and the plan's
// purposes. A direct audience or purpose match scores 2, a "general" tag
// scores 1. Results are ordered by score and topped up to three snippets
// with unscored ones when too few match.
func Select(snippets []Snippet, audience string, purposes []string, limit int) []Snippet {
	if limit <= 0 {
		limit = DefaultLimit
	}

	audienceTokens := make(map[string]bool)
	for _, tok := range tokenSplit.Split(audience, -1) {
		if tok = strings.ToLower(tok); tok != "" {
			audienceTokens[tok] = true
		}
	}
	purposeTokens := make(map[string]bool, len(purposes))
	for _, p := range purposes {
		purposeTokens[strings.ToLower(p)] = true
	}

	type scored struct {
		snippet Snippet
		score   int
	}
	var ranked []scored
	for _, s := range snippets {
		score := tagScore(s.Audiences, audienceTokens) + tagScore(s.Purposes, purposeTokens)
		if score > 0 {
			ranked = append(ranked, scored{snippet: s, score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	var out []Snippet
	for i := 0; i < len(ranked) && i < limit; i++ {
		out = append(out, ranked[i].snippet)
	}
	if len(out) >= minSelection {
		return out
	}

	chosen := make(map[string]bool, len(out))
	for _, s := range out {
		chosen[s.ID] = true
	}
	for _, s := range snippets {
		if len(out) >= minSelection || len(out) >= limit {
			break
		}
		if !chosen[s.ID] {
			out = append(out, s)
			chosen[s.ID] = true
		}
	}
	return out
}

func tagScore(tags []string, tokens map[string]bool) int {
	general := false
	for _, t := range tags {
		t = strings.ToLower(t)
		if tokens[t] {
			return 2
		}
		if t == General {
			general = true
		}
	}
	if general {
		return 1
	}
	return 0
}

// Library is anything that can list stored snippets.
type Library interface {
	ListSnippets(ctx context.Context) ([]Snippet, error)
}

// ForPlan selects snippets from lib for the audience and the purposes of the
// plan's email steps.
func ForPlan(ctx context.Context, lib Library, audience string, plan campaign.Plan) ([]Snippet, error) {
	snippets, err := lib.ListSnippets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tone snippets: %w", err)
	}
	var purposes []string
	for _, s := range plan.Emails() {
		purposes = append(purposes, s.Purpose)
	}
	return Select(snippets, audience, purposes, DefaultLimit), nil
}

// Serialize renders snippets as the numbered list used in writer prompts.
func Serialize(snippets []Snippet) string {
	lines := make([]string, len(snippets))
	for i, s := range snippets {
		lines[i] = fmt.Sprintf("%d. %q (audiences: %s; purposes: %s)",
			i+1, s.Text, strings.Join(orGeneral(s.Audiences), ", "), strings.Join(orGeneral(s.Purposes), ", "))
	}
	return strings.Join(lines, "\n")
}

func orGeneral(tags []string) []string {
	if len(tags) == 0 {
		return []string{General}
	}
	return tags
}

// LoadYAML reads a list of snippets from a YAML file. Missing tags default
// to "general".
func LoadYAML(path string) ([]Snippet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tone file %s: %w", path, err)
	}
	var snippets []Snippet
	if err := yaml.Unmarshal(data, &snippets); err != nil {
		return nil, fmt.Errorf("parse tone file %s: %w", path, err)
	}
	for i := range snippets {
		snippets[i].Audiences = orGeneral(snippets[i].Audiences)
		snippets[i].Purposes = orGeneral(snippets[i].Purposes)
		if snippets[i].ID == "" {
			snippets[i].ID = fmt.Sprintf("seed-%d", i+1)
		}
	}
	return snippets, nil
}
