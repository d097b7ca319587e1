// Package cadence turns loose cadence descriptions into concrete touchpoint
// counts and day spans, and owns the delay conventions plans are expressed in.
package cadence

import (
	"regexp"
	"strconv"
	"strings"
)

// Defaults are used whenever the intake does not pin a value.
type Defaults struct {
	EmailCount int
	TotalDays  int
}

// DefaultDefaults is the 8-touch, 45-day default cadence.
var DefaultDefaults = Defaults{EmailCount: 8, TotalDays: 45}

// Unit maps a span phrase ("<n> week") to a number of days per unit.
type Unit struct {
	Name    string
	Pattern *regexp.Regexp
	Days    int
}

// Units are checked in order; the first unit with a match wins.
var Units = []Unit{
	{Name: "week", Pattern: regexp.MustCompile(`(?i)(\d+)\s*week`), Days: 7},
	{Name: "month", Pattern: regexp.MustCompile(`(?i)(\d+)\s*month`), Days: 30},
	{Name: "day", Pattern: regexp.MustCompile(`(?i)(\d+)\s*day`), Days: 1},
}

// Cadence is a resolved touchpoint count and campaign span.
type Cadence struct {
	EmailCount int `json:"emailCount"`
	TotalDays  int `json:"totalDays"`
}

type Resolver struct {
	Defaults Defaults
	Units    []Unit
}

func NewResolver(defaults Defaults) *Resolver {
	return &Resolver{Defaults: defaults, Units: Units}
}

// Resolve never fails: anything it cannot read falls back to the defaults.
func (r *Resolver) Resolve(lengthHint *int, cadenceText *string) Cadence {
	c := Cadence{EmailCount: r.Defaults.EmailCount, TotalDays: r.Defaults.TotalDays}
	if lengthHint != nil && *lengthHint > 0 {
		c.EmailCount = *lengthHint
	}
	if cadenceText != nil {
		c.TotalDays = r.TotalDays(*cadenceText)
	}
	return c
}

// TotalDays extracts the campaign span in days from a description such as
// "10 weeks" or "over 3 months".
func (r *Resolver) TotalDays(text string) int {
	text = strings.TrimSpace(text)
	for _, u := range r.Units {
		m := u.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return n * u.Days
	}
	return r.Defaults.TotalDays
}

// EvenOffsets spreads count touches across totalDays, returning day offsets
// from the campaign start. The spacing is floor(totalDays/(count-1)).
func EvenOffsets(count, totalDays int) []int {
	if count <= 0 {
		return nil
	}
	if count == 1 {
		return []int{0}
	}
	spacing := totalDays / (count - 1)
	out := make([]int, count)
	for i := range out {
		out[i] = i * spacing
	}
	return out
}
