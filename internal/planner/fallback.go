// Package planner builds and normalizes campaign step plans.
package planner

import (
	"fmt"
	"sort"

	"github.com/rahul/campaigner/internal/cadence"
	"github.com/rahul/campaigner/internal/campaign"
)

// Rules are the fixed tables the fallback planner draws from.
type Rules struct {
	// Schedule holds relative delays for the canonical cadence. Campaigns
	// with at most len(Schedule) emails take a prefix of it.
	Schedule       []int
	Purposes       []string
	GenericPurpose string
	DefaultSMS     []int
}

var DefaultRules = Rules{
	Schedule: []int{1, 4, 7, 11, 17, 24, 33, 45},
	Purposes: []string{
		"set-expectations",
		"deliver-value",
		"ask-for-reply",
		"educate",
		"social-proof",
		"objection-handoff",
		"value-recap",
		"direct-invite",
	},
	GenericPurpose: "nurture",
	DefaultSMS:     campaign.DefaultSMSSteps,
}

// Planner synthesizes a complete plan without any model involved.
type Planner struct {
	Resolver *cadence.Resolver
	Rules    Rules
}

func NewPlanner(resolver *cadence.Resolver, rules Rules) *Planner {
	return &Planner{Resolver: resolver, Rules: rules}
}

// Build always returns a plan with at least one email step.
func (p *Planner) Build(intake campaign.Intake) campaign.Plan {
	c := p.Resolver.Resolve(intake.Length, intake.Cadence)
	delays := p.delays(c)

	emails := make([]campaign.Step, len(delays))
	for i, d := range delays {
		emails[i] = campaign.Step{
			N:       i + 1,
			Type:    campaign.StepEmail,
			Delay:   d,
			Purpose: p.purpose(i),
		}
	}

	steps := append([]campaign.Step{}, emails...)
	if intake.IncludeSMS {
		steps = append(steps, p.smsCompanions(emails, intake)...)
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].N < steps[j].N })

	return campaign.Plan{Steps: steps}
}

func (p *Planner) delays(c cadence.Cadence) []int {
	count := c.EmailCount
	if count <= 0 {
		count = 1
	}
	if count <= len(p.Rules.Schedule) {
		out := make([]int, count)
		copy(out, p.Rules.Schedule[:count])
		return out
	}
	// Long campaigns are spread evenly; offsets become deltas so the whole
	// plan shares the relative convention.
	return cadence.OffsetsToDeltas(cadence.EvenOffsets(count, c.TotalDays))
}

func (p *Planner) purpose(i int) string {
	if i < len(p.Rules.Purposes) {
		return p.Rules.Purposes[i]
	}
	return p.Rules.GenericPurpose
}

// smsCompanions pairs each placement with the email step of the same number.
// Placements with no matching email are dropped.
func (p *Planner) smsCompanions(emails []campaign.Step, intake campaign.Intake) []campaign.Step {
	placements := intake.SMSPlacement
	if len(placements) == 0 {
		placements = p.Rules.DefaultSMS
	}

	byN := make(map[int]campaign.Step, len(emails))
	for _, e := range emails {
		byN[e.N] = e
	}

	var out []campaign.Step
	seen := make(map[int]bool)
	for _, n := range placements {
		base, ok := byN[n]
		if !ok || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, campaign.Step{
			N:       n,
			Type:    campaign.StepSMS,
			Delay:   base.Delay,
			Purpose: fmt.Sprintf("%s-sms", base.Purpose),
		})
	}
	return out
}
