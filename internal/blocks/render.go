package blocks

import (
	"fmt"
	"strings"
)

// RenderableStep is the decoded content of one email step.
type RenderableStep struct {
	N         int      `json:"n"`
	Delay     int      `json:"delay"`
	Preheader string   `json:"preheader"`
	Subjects  []string `json:"subjects"`
	Body      string   `json:"body"`
}

// Render writes steps in the block format Parse reads. Two or more subjects
// are written as an A/B pair.
func Render(steps []RenderableStep) string {
	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		parts = append(parts, renderStep(s))
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

func renderStep(s RenderableStep) string {
	subject := func(i int) string {
		if i < len(s.Subjects) {
			return s.Subjects[i]
		}
		return ""
	}

	subjects := fmt.Sprintf("Subject: %s", subject(0))
	if len(s.Subjects) > 1 {
		subjects = fmt.Sprintf("Subject A: %s\nSubject B: %s", subject(0), subject(1))
	}

	return strings.Join([]string{
		fmt.Sprintf("Step %d %s Email %s Delay: %d", s.N, Bullet, Bullet, s.Delay),
		"Preheader: " + s.Preheader,
		subjects,
		"Body:\n" + strings.TrimSpace(s.Body),
	}, "\n")
}
