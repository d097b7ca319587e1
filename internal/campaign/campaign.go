package campaign

// StepType is the channel of a single touchpoint.
type StepType string

const (
	StepEmail StepType = "email"
	StepSMS   StepType = "sms"
)

// Step represents one scheduled touchpoint in a campaign plan.
// Delay is in days relative to the previous step once a plan is normalized.
type Step struct {
	N       int      `json:"n" yaml:"n" validate:"gte=1"`
	Type    StepType `json:"type" yaml:"type" validate:"oneof=email sms"`
	Delay   int      `json:"delay" yaml:"delay" validate:"gte=0"`
	Purpose string   `json:"purpose" yaml:"purpose" validate:"min=2"`
}

// Key identifies a step inside a plan. (n, type) is unique per plan.
type Key struct {
	N    int
	Type StepType
}

func (s Step) Key() Key {
	return Key{N: s.N, Type: s.Type}
}

// Plan is an ordered sequence of steps, ascending by N.
type Plan struct {
	Steps []Step `json:"steps" yaml:"steps" validate:"dive"`
}

// HasEmail reports whether at least one email step exists.
func (p Plan) HasEmail() bool {
	return HasEmail(p.Steps)
}

// Emails returns the email steps in plan order.
func (p Plan) Emails() []Step {
	var out []Step
	for _, s := range p.Steps {
		if s.Type == StepEmail {
			out = append(out, s)
		}
	}
	return out
}

func (p Plan) EmailCount() int {
	return len(p.Emails())
}

func HasEmail(steps []Step) bool {
	for _, s := range steps {
		if s.Type == StepEmail {
			return true
		}
	}
	return false
}
