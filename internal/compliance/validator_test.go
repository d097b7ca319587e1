package compliance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul/campaigner/internal/campaign"
)

const sample = `Step 1 • Email • Delay: 1
Preheader: Welcome to the process
Subject A: Let's map out your next steps
Subject B: Map out your next steps together
Body:
Hi {{recipient.f_name}},

We're here to outline what the next few weeks will look like and answer questions along the way.

Step 2 • Email • Delay: 4
Preheader: Keep exploring at your pace
Subject A: You're free to explore at your pace
Subject B: Explore each option at your pace
Body:
Hi {{recipient.f_name}},

Here's a quick way to think about what comes next so you can move forward when the time is right.`

func newValidator() *Validator {
	return NewValidator(DefaultLimits, DefaultRuleset())
}

func issuesFor(r campaign.Result, f campaign.Field) []campaign.Issue {
	var out []campaign.Issue
	for _, is := range r.Issues {
		if is.Field == f {
			out = append(out, is)
		}
	}
	return out
}

func TestValidate_WellFormed(t *testing.T) {
	r := newValidator().Validate(sample, Options{ABSubjects: true, ExpectedSteps: 2})
	assert.True(t, r.IsValid)
	assert.Empty(t, r.Issues)
	assert.NotNil(t, r.Issues)
}

func TestValidate_LongSubject(t *testing.T) {
	text := strings.Replace(sample,
		"Subject A: Let's map out your next steps",
		"Subject A: This subject line is definitely going to be way too long to pass compliance", 1)

	r := newValidator().Validate(text, Options{ABSubjects: true})
	assert.False(t, r.IsValid)
	subj := issuesFor(r, campaign.FieldSubject)
	require.Len(t, subj, 1)
	assert.Equal(t, "Subject A exceeds 55 characters.", subj[0].Message)
	require.NotNil(t, subj[0].Step)
	assert.Equal(t, 1, *subj[0].Step)
}

func TestValidate_MissingMergeToken(t *testing.T) {
	text := strings.Replace(sample, "Hi {{recipient.f_name}},", "Hi there,", 1)

	r := newValidator().Validate(text, Options{ABSubjects: true})
	assert.False(t, r.IsValid)
	assert.True(t, r.HasField(campaign.FieldBody))
}

func TestValidate_LinkInBody(t *testing.T) {
	text := strings.Replace(sample, "so you can move forward", "at https://example.com so you can move forward", 1)

	r := newValidator().Validate(text, Options{ABSubjects: true, ExpectedSteps: 2})
	body := issuesFor(r, campaign.FieldBody)
	require.Len(t, body, 1)
	assert.Equal(t, "Body must not include links.", body[0].Message)
	assert.Equal(t, 2, *body[0].Step)
}

func TestValidate_BannedPatterns(t *testing.T) {
	for _, phrase := range []string{"rates at 3.99% today", "only APR5 this week", "you're pre-approved", "guaranteed savings"} {
		t.Run(phrase, func(t *testing.T) {
			text := strings.Replace(sample, "answer questions along the way", phrase, 1)
			r := newValidator().Validate(text, Options{ABSubjects: true, ExpectedSteps: 2})
			assert.False(t, r.IsValid)
			c := issuesFor(r, campaign.FieldCompliance)
			require.Len(t, c, 1)
			assert.Nil(t, c[0].Step)
		})
	}
}

func TestValidate_Empty(t *testing.T) {
	for _, text := range []string{"", "   \n\n  "} {
		r := newValidator().Validate(text, Options{ABSubjects: true, ExpectedSteps: 3})
		assert.False(t, r.IsValid)
		require.Len(t, r.Issues, 1)
		assert.Equal(t, campaign.FieldFormat, r.Issues[0].Field)
	}
}

func TestValidate_NoHeaderIsFormatIssue(t *testing.T) {
	r := newValidator().Validate("Here is your campaign, enjoy!", Options{ABSubjects: true})
	assert.False(t, r.IsValid)
	require.Len(t, r.Issues, 1)
	assert.Equal(t, campaign.FieldFormat, r.Issues[0].Field)
	assert.Contains(t, r.Issues[0].Message, "Step N • Email • Delay: X")
}

func TestValidate_ExpectedStepsMismatchContinues(t *testing.T) {
	text := strings.Replace(sample, "Hi {{recipient.f_name}},", "Hi there,", 1)
	r := newValidator().Validate(text, Options{ABSubjects: true, ExpectedSteps: 3})

	format := issuesFor(r, campaign.FieldFormat)
	require.Len(t, format, 1)
	assert.Equal(t, "Expected 3 steps, received 2.", format[0].Message)
	assert.True(t, r.HasField(campaign.FieldBody))
}

func TestValidate_SubjectCount(t *testing.T) {
	single := `Step 1 • Email • Delay: 1
Preheader: Welcome
Subject: Let's map out your next steps
Body:
Hi {{recipient.f_name}}`

	r := newValidator().Validate(single, Options{ABSubjects: false, ExpectedSteps: 1})
	assert.True(t, r.IsValid, "%v", r.Issues)

	r = newValidator().Validate(single, Options{ABSubjects: true})
	subj := issuesFor(r, campaign.FieldSubject)
	require.Len(t, subj, 1)
	assert.Equal(t, "Expected two subject variants (A/B).", subj[0].Message)

	r = newValidator().Validate(sample, Options{ABSubjects: false})
	assert.Len(t, issuesFor(r, campaign.FieldSubject), 2)
}

func TestValidate_PreheaderRules(t *testing.T) {
	block := func(preheader string) string {
		return "Step 1 • Email • Delay: 1\n" + preheader + "\nSubject: Hello\nBody:\nHi {{recipient.f_name}}"
	}

	tests := []struct {
		name      string
		preheader string
		want      []string
	}{
		{"missing", "", []string{"Missing preheader line."}},
		{"empty", "Preheader:   ", []string{"Preheader cannot be empty."}},
		{"long", "Preheader: " + strings.Repeat("a", 91), []string{"Preheader exceeds 90 characters."}},
		{"at limit", "Preheader: " + strings.Repeat("é", 90), nil},
		{"emoji", "Preheader: Hello 🎉", []string{"Preheader must not contain emojis."}},
		{"merge", "Preheader: Hi {{recipient.f_name}}", []string{"Preheader must not contain merge variables."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newValidator().Validate(block(tt.preheader), Options{})
			var got []string
			for _, is := range issuesFor(r, campaign.FieldPreheader) {
				got = append(got, is.Message)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_MissingSections(t *testing.T) {
	r := newValidator().Validate("Step 4 • Email • Delay: 2\nnothing else here", Options{ABSubjects: true})

	assert.False(t, r.IsValid)
	assert.Len(t, r.Issues, 3)
	for _, is := range r.Issues {
		require.NotNil(t, is.Step)
		assert.Equal(t, 4, *is.Step)
	}
	assert.True(t, r.HasField(campaign.FieldPreheader))
	assert.True(t, r.HasField(campaign.FieldSubject))
	assert.True(t, r.HasField(campaign.FieldBody))
}

func TestValidate_EmojiSubject(t *testing.T) {
	text := strings.Replace(sample, "Subject B: Map out your next steps together", "Subject B: Map it out 🏡", 1)
	r := newValidator().Validate(text, Options{ABSubjects: true})

	subj := issuesFor(r, campaign.FieldSubject)
	require.Len(t, subj, 1)
	assert.Equal(t, "Subject B must not contain emojis.", subj[0].Message)
}
