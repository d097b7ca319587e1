package blocks

import (
	"strconv"
	"strings"

	"github.com/rahul/campaigner/internal/campaign"
)

// Parse splits text into blocks and decodes each block's fields. Parsing is
// purely textual; a block whose header does not match is returned with nil
// StepNumber and Delay.
func Parse(text string) []campaign.ParsedBlock {
	var out []campaign.ParsedBlock
	for _, raw := range Split(text) {
		out = append(out, parseBlock(raw))
	}
	return out
}

// Split cuts text into raw blocks on a blank line followed by a step header.
// Empty blocks are dropped and each block is trimmed.
func Split(text string) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return nil
	}

	var (
		blocks  []string
		current []string
	)
	flush := func() {
		if b := strings.TrimSpace(strings.Join(current, "\n")); b != "" {
			blocks = append(blocks, b)
		}
		current = current[:0]
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 && lines[i-1] == "" && BoundaryPattern.Regexp.MatchString(line) {
			flush()
		}
		current = append(current, line)
	}
	flush()

	return blocks
}

func parseBlock(block string) campaign.ParsedBlock {
	lines := strings.Split(block, "\n")
	pb := campaign.ParsedBlock{Header: lines[0]}

	if m := HeaderPattern.Regexp.FindStringSubmatch(pb.Header); m != nil {
		n, errN := strconv.Atoi(m[1])
		d, errD := strconv.Atoi(m[2])
		if errN == nil && errD == nil {
			pb.StepNumber = &n
			pb.Delay = &d
		}
	}

	bodyIndex := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if pb.Preheader == nil && strings.HasPrefix(trimmed, PreheaderPrefix) {
			l := line
			pb.Preheader = &l
		}
		if m := SubjectPattern.Regexp.FindStringSubmatch(trimmed); m != nil {
			pb.Subjects = append(pb.Subjects, campaign.Subject{
				Label: subjectLabel(m[1]),
				Line:  line,
			})
		}
		if bodyIndex < 0 && strings.HasPrefix(strings.ToLower(trimmed), BodyPrefix) {
			bodyIndex = i
		}
	}

	if bodyIndex >= 0 {
		body := strings.Join(lines[bodyIndex:], "\n")
		pb.Body = &body
	}
	return pb
}

func subjectLabel(tag string) string {
	if tag == "" {
		return "Subject"
	}
	return "Subject " + strings.ToUpper(tag)
}

// StripSubjectLabel returns the text after a subject label, trimmed.
func StripSubjectLabel(line string) string {
	line = strings.TrimSpace(line)
	if loc := SubjectPattern.Regexp.FindStringIndex(line); loc != nil {
		line = line[loc[1]:]
	}
	return strings.TrimSpace(line)
}

// StripPreheaderLabel returns the text after the preheader label, trimmed.
func StripPreheaderLabel(line string) string {
	return strings.TrimSpace(strings.Replace(line, PreheaderPrefix, "", 1))
}

// StripBodyLabel removes the leading "Body:" label.
func StripBodyLabel(body string) string {
	return BodyLabelPattern.Regexp.ReplaceAllString(strings.TrimLeft(body, " \t"), "")
}
