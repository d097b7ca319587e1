package planner

import (
	"sort"

	"github.com/rahul/campaigner/internal/cadence"
	"github.com/rahul/campaigner/internal/campaign"
)

// DuplicatePolicy decides which of two steps sharing an (n, type) key is
// kept. existing is the step already accepted.
type DuplicatePolicy func(existing, incoming campaign.Step) campaign.Step

// FirstWins keeps the first occurrence and drops later ones silently.
func FirstWins(existing, _ campaign.Step) campaign.Step { return existing }

// LastWins keeps the most recent occurrence in the original position.
func LastWins(_, incoming campaign.Step) campaign.Step { return incoming }

// Normalizer turns an untrusted step list into a canonical plan.
type Normalizer struct {
	// Convention is the delay convention the plan generator was told to use.
	Convention cadence.Convention
	Duplicates DuplicatePolicy
	Fallback   *Planner
}

func NewNormalizer(convention cadence.Convention, fallback *Planner) *Normalizer {
	return &Normalizer{
		Convention: convention,
		Duplicates: FirstWins,
		Fallback:   fallback,
	}
}

// Normalize dedupes, converts delays to the relative convention and sorts by
// step number. A list without any email step is replaced by the fallback
// plan for intake.
func (n *Normalizer) Normalize(raw []campaign.Step, intake campaign.Intake) campaign.Plan {
	if !campaign.HasEmail(raw) {
		return n.Fallback.Build(intake)
	}

	steps := Dedupe(raw, n.policy())
	if n.Convention == cadence.Cumulative {
		steps = cadence.ToRelative(steps)
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].N < steps[j].N })

	return campaign.Plan{Steps: steps}
}

func (n *Normalizer) policy() DuplicatePolicy {
	if n.Duplicates == nil {
		return FirstWins
	}
	return n.Duplicates
}

// Dedupe collapses steps sharing an (n, type) key using policy, keeping the
// position of the first occurrence.
func Dedupe(steps []campaign.Step, policy DuplicatePolicy) []campaign.Step {
	index := make(map[campaign.Key]int, len(steps))
	out := make([]campaign.Step, 0, len(steps))
	for _, s := range steps {
		if i, ok := index[s.Key()]; ok {
			out[i] = policy(out[i], s)
			continue
		}
		index[s.Key()] = len(out)
		out = append(out, s)
	}
	return out
}
