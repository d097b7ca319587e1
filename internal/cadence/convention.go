package cadence

import (
	"fmt"
	"sort"

	"github.com/rahul/campaigner/internal/campaign"
)

// Convention is how a plan source expresses step delays. Stored plans are
// always relative; the convention only describes incoming delays.
type Convention string

const (
	// Relative delays count days since the previous step.
	Relative Convention = "relative"
	// Cumulative delays count days since the campaign start.
	Cumulative Convention = "cumulative"
)

func ParseConvention(s string) (Convention, error) {
	switch Convention(s) {
	case "", Relative:
		return Relative, nil
	case Cumulative:
		return Cumulative, nil
	}
	return "", fmt.Errorf("unknown delay convention %q", s)
}

// Instruction is the sentence handed to the plan generator so that its
// output matches what the normalizer expects.
func (c Convention) Instruction() string {
	if c == Cumulative {
		return "Delays are cumulative: each delay is the number of days since the campaign start; first send is Day 1."
	}
	return "Delays are relative to the previous step; first send is Day 1."
}

// Unit is the short phrase used next to the delay field in the plan schema.
func (c Convention) Unit() string {
	if c == Cumulative {
		return "days since campaign start"
	}
	return "days relative to previous step"
}

// ToRelative converts steps carrying cumulative offsets into relative
// deltas. Steps are ordered by offset (stable) and each delay becomes the gap
// to the step before it; the first step keeps its offset.
func ToRelative(steps []campaign.Step) []campaign.Step {
	sorted := make([]campaign.Step, len(steps))
	copy(sorted, steps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Delay < sorted[j].Delay
	})

	out := make([]campaign.Step, len(sorted))
	for i, s := range sorted {
		if i > 0 {
			s.Delay = sorted[i].Delay - sorted[i-1].Delay
		}
		out[i] = s
	}
	return out
}

// OffsetsToDeltas is ToRelative for bare, ascending day offsets.
func OffsetsToDeltas(offsets []int) []int {
	out := make([]int, len(offsets))
	for i, o := range offsets {
		if i == 0 {
			out[i] = o
			continue
		}
		out[i] = o - offsets[i-1]
	}
	return out
}
