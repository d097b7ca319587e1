// Package blocks decodes generated campaign copy into per-step blocks.
//
// The expected shape of one email step is:
//
//	Step 1 • Email • Delay: 1
//	Preheader: ...
//	Subject A: ...
//	Subject B: ...
//	Body:
//	...
//
// Blocks are separated by at least one blank line.
package blocks

import "regexp"

// Bullet is the separator glyph used in step headers.
const Bullet = "•"

// Pattern names a regular expression and what a match means.
type Pattern struct {
	Name    string
	Meaning string
	Regexp  *regexp.Regexp
}

var (
	// BoundaryPattern marks a line that may open a new block when it follows
	// a blank line.
	BoundaryPattern = Pattern{
		Name:    "boundary",
		Meaning: "start of a new email step",
		Regexp:  regexp.MustCompile(`^Step \d+\s*` + Bullet + `\s*(?i:Email)`),
	}

	// HeaderPattern extracts the step number and delay from a block header.
	HeaderPattern = Pattern{
		Name:    "header",
		Meaning: "step number and delay of an email step",
		Regexp:  regexp.MustCompile(`(?i)Step\s+(\d+)\s*` + Bullet + `\s*Email\s*` + Bullet + `\s*Delay:\s*(\d+)`),
	}

	// SubjectPattern matches a subject line, optionally tagged A or B.
	SubjectPattern = Pattern{
		Name:    "subject",
		Meaning: "subject line with optional A/B tag",
		Regexp:  regexp.MustCompile(`(?i)^Subject(?:\s+([AB]))?:`),
	}

	// BodyLabelPattern matches the label that opens the body.
	BodyLabelPattern = Pattern{
		Name:    "body-label",
		Meaning: "label prefix of the body section",
		Regexp:  regexp.MustCompile(`(?i)^Body:\s*`),
	}
)

const (
	// PreheaderPrefix opens the preheader line. Matching is case-sensitive.
	PreheaderPrefix = "Preheader:"
	// BodyPrefix opens the body. Matching is case-insensitive.
	BodyPrefix = "body:"
)

// Patterns lists every pattern the parser relies on.
var Patterns = []Pattern{BoundaryPattern, HeaderPattern, SubjectPattern, BodyLabelPattern}
