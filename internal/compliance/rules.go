package compliance

import (
	"fmt"
	"regexp"
)

// Rule is a banned pattern and the kind of language it catches.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Ruleset evaluates whole-text compliance against a list of banned patterns.
type Ruleset struct {
	Rules []Rule
}

func NewRuleset() *Ruleset {
	return &Ruleset{Rules: make([]Rule, 0)}
}

// DefaultRuleset returns the banned patterns for lending copy: no
// guarantees, no pre-approval claims and no quoted rates.
func DefaultRuleset() *Ruleset {
	rs := NewRuleset()
	rs.Rules = append(rs.Rules,
		Rule{Name: "guarantee language", Pattern: regexp.MustCompile(`(?i)\bguarantee(d)?\b`)},
		Rule{Name: "pre-approval language", Pattern: regexp.MustCompile(`(?i)\bpre-?approved\b`)},
		Rule{Name: "quoted percentage", Pattern: regexp.MustCompile(`\b\d+(\.\d+)?\s?%`)},
		Rule{Name: "quoted APR", Pattern: regexp.MustCompile(`(?i)\bAPR\s?\d`)},
	)
	return rs
}

// DenyPattern adds a named banned pattern.
func (r *Ruleset) DenyPattern(name, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("compile rule %q: %w", name, err)
	}
	r.Rules = append(r.Rules, Rule{Name: name, Pattern: re})
	return nil
}

// Evaluate returns every rule that matches anywhere in text, in rule order.
func (r *Ruleset) Evaluate(text string) []Rule {
	var matched []Rule
	for _, rule := range r.Rules {
		if rule.Pattern.MatchString(text) {
			matched = append(matched, rule)
		}
	}
	return matched
}
