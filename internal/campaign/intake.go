package campaign

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultSMSSteps are the step numbers that receive an SMS companion when the
// intake asks for SMS without naming placements.
var DefaultSMSSteps = []int{3, 7}

// Intake is the structured brief a campaign is generated from.
type Intake struct {
	Goal         string  `json:"goal" yaml:"goal" validate:"min=3"`
	Audience     string  `json:"audience" yaml:"audience" validate:"min=3"`
	Length       *int    `json:"length" yaml:"length" validate:"omitempty,gte=1,lte=30"`
	Cadence      *string `json:"cadence" yaml:"cadence" validate:"omitempty,min=2,max=120"`
	IncludeSMS   bool    `json:"includeSms" yaml:"includeSms"`
	SMSPlacement []int   `json:"smsPlacement" yaml:"smsPlacement" validate:"dive,gte=1"`
	Emphasize    string  `json:"emphasize" yaml:"emphasize"`
	Avoid        string  `json:"avoid" yaml:"avoid"`
	ABSubjects   bool    `json:"abSubjects" yaml:"abSubjects"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the intake against its schema and returns a single error
// listing every failing field.
func (in Intake) Validate() error {
	in.Goal = strings.TrimSpace(in.Goal)
	in.Audience = strings.TrimSpace(in.Audience)
	return structError("intake", validate.Struct(in))
}

// ValidateSteps checks untrusted steps (typically decoded from a model
// response) against the step schema.
func ValidateSteps(steps []Step) error {
	if len(steps) == 0 {
		return &ValidationError{Subject: "plan", Problems: []string{"steps must not be empty"}}
	}
	return structError("plan", validate.Struct(Plan{Steps: steps}))
}

// ValidationError lists the schema problems found in an intake or plan.
type ValidationError struct {
	Subject  string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Subject, strings.Join(e.Problems, "; "))
}

func structError(prefix string, err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := e.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		switch e.Tag() {
		case "min", "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, e.Param()))
		case "max", "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, e.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, e.Tag()))
		}
	}
	return &ValidationError{Subject: prefix, Problems: msgs}
}

// Normalize applies the placement rules used before planning: with SMS on,
// placements are deduplicated and sorted, falling back to defaultSMS when
// empty. With SMS off, placements are cleared.
func (in Intake) Normalize(defaultSMS []int) Intake {
	out := in
	if !in.IncludeSMS {
		out.SMSPlacement = nil
		return out
	}
	placements := in.SMSPlacement
	if len(placements) == 0 {
		placements = defaultSMS
	}
	out.SMSPlacement = dedupeNumbers(placements)
	return out
}

func dedupeNumbers(values []int) []int {
	seen := make(map[int]bool, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

var (
	decideRe      = regexp.MustCompile(`(?i)decide\s*for\s*me`)
	firstNumberRe = regexp.MustCompile(`\d+`)
)

// BalancedCadence is the cadence recorded when the user defers the choice.
const BalancedCadence = "balanced"

// ParseLengthCadence turns free-form length and cadence notes into intake
// fields. "decide for me" in either note selects the defaults.
func ParseLengthCadence(lengthNotes, cadenceNotes string) (length *int, cadence *string) {
	lengthNotes = strings.TrimSpace(lengthNotes)
	cadenceNotes = strings.TrimSpace(cadenceNotes)

	if decideRe.MatchString(lengthNotes) || decideRe.MatchString(cadenceNotes) {
		c := BalancedCadence
		return nil, &c
	}

	if m := firstNumberRe.FindString(lengthNotes); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			length = &n
		}
	}
	if cadenceNotes != "" {
		cadence = &cadenceNotes
	}
	return length, cadence
}

// ParseSMSPlacement reads a comma separated list of step numbers. Tokens that
// are not positive integers are ignored.
func ParseSMSPlacement(notes string) []int {
	var out []int
	for _, tok := range strings.Split(notes, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil || n <= 0 {
			continue
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
