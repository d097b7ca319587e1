package campaign

// Subject is one subject line found in a generated block.
type Subject struct {
	Label string `json:"label"` // "Subject", "Subject A" or "Subject B"
	Line  string `json:"line"`
}

// ParsedBlock is one decoded step of generated campaign copy. A nil
// StepNumber or Delay marks a block whose header did not match.
type ParsedBlock struct {
	Header     string    `json:"header"`
	StepNumber *int      `json:"stepNumber"`
	Delay      *int      `json:"delay"`
	Preheader  *string   `json:"preheader,omitempty"`
	Subjects   []Subject `json:"subjects"`
	Body       *string   `json:"body,omitempty"`
}

// Malformed reports whether the block header could not be decoded.
func (b ParsedBlock) Malformed() bool {
	return b.StepNumber == nil || b.Delay == nil
}

// Field categorizes a validation issue.
type Field string

const (
	FieldPreheader  Field = "preheader"
	FieldSubject    Field = "subject"
	FieldBody       Field = "body"
	FieldFormat     Field = "format"
	FieldCompliance Field = "compliance"
)

// Issue is a single problem found in generated output. Step is nil for
// issues that are not tied to a block.
type Issue struct {
	Step    *int   `json:"step,omitempty"`
	Field   Field  `json:"field,omitempty"`
	Message string `json:"message"`
}

// Result is the outcome of validating generated output.
type Result struct {
	IsValid bool    `json:"isValid"`
	Issues  []Issue `json:"issues"`
}

// HasField reports whether any issue is tagged with f.
func (r Result) HasField(f Field) bool {
	for _, is := range r.Issues {
		if is.Field == f {
			return true
		}
	}
	return false
}
