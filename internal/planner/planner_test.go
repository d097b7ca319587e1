package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul/campaigner/internal/cadence"
	"github.com/rahul/campaigner/internal/campaign"
)

func ptr[T any](v T) *T { return &v }

func newPlanner() *Planner {
	return NewPlanner(cadence.NewResolver(cadence.DefaultDefaults), DefaultRules)
}

func delays(steps []campaign.Step) []int {
	out := make([]int, len(steps))
	for i, s := range steps {
		out[i] = s.Delay
	}
	return out
}

func baseIntake() campaign.Intake {
	return campaign.Intake{Goal: "Nurture leads", Audience: "First-time buyers"}
}

func TestPlanner_Build_Default(t *testing.T) {
	plan := newPlanner().Build(baseIntake())

	require.Len(t, plan.Steps, 8)
	assert.Equal(t, []int{1, 4, 7, 11, 17, 24, 33, 45}, delays(plan.Steps))
	assert.Equal(t, "set-expectations", plan.Steps[0].Purpose)
	assert.Equal(t, "direct-invite", plan.Steps[7].Purpose)
	for i, s := range plan.Steps {
		assert.Equal(t, i+1, s.N)
		assert.Equal(t, campaign.StepEmail, s.Type)
	}
}

func TestPlanner_Build_ShortCampaignTruncatesSchedule(t *testing.T) {
	for count := 1; count <= 8; count++ {
		in := baseIntake()
		in.Length = ptr(count)
		in.Cadence = ptr("2 weeks")

		plan := newPlanner().Build(in)
		assert.Equal(t, DefaultRules.Schedule[:count], delays(plan.Steps), "count=%d", count)
	}
}

func TestPlanner_Build_LongCampaignIsEvenlySpaced(t *testing.T) {
	in := baseIntake()
	in.Length = ptr(10)
	in.Cadence = ptr("90 days")

	plan := newPlanner().Build(in)

	require.Len(t, plan.Steps, 10)
	assert.Equal(t, []int{0, 10, 10, 10, 10, 10, 10, 10, 10, 10}, delays(plan.Steps))

	offset := 0
	var offsets []int
	for _, s := range plan.Steps {
		offset += s.Delay
		offsets = append(offsets, offset)
	}
	assert.Equal(t, []int{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}, offsets)

	assert.Equal(t, "nurture", plan.Steps[8].Purpose)
	assert.Equal(t, "nurture", plan.Steps[9].Purpose)
}

func TestPlanner_Build_SMSCompanions(t *testing.T) {
	in := baseIntake()
	in.IncludeSMS = true
	in.SMSPlacement = []int{3, 7, 12}

	plan := newPlanner().Build(in)

	require.Len(t, plan.Steps, 10)
	var sms []campaign.Step
	for _, s := range plan.Steps {
		if s.Type == campaign.StepSMS {
			sms = append(sms, s)
		}
	}
	require.Len(t, sms, 2)
	assert.Equal(t, campaign.Step{N: 3, Type: campaign.StepSMS, Delay: 7, Purpose: "ask-for-reply-sms"}, sms[0])
	assert.Equal(t, campaign.Step{N: 7, Type: campaign.StepSMS, Delay: 33, Purpose: "value-recap-sms"}, sms[1])

	for i := 1; i < len(plan.Steps); i++ {
		assert.LessOrEqual(t, plan.Steps[i-1].N, plan.Steps[i].N)
	}
	// email comes before its companion
	assert.Equal(t, campaign.StepEmail, plan.Steps[2].Type)
	assert.Equal(t, campaign.StepSMS, plan.Steps[3].Type)
}

func TestPlanner_Build_SMSDefaultsWhenNoPlacement(t *testing.T) {
	in := baseIntake()
	in.IncludeSMS = true

	plan := newPlanner().Build(in)
	assert.Len(t, plan.Steps, 10)
}

func TestPlanner_Build_AlwaysHasEmail(t *testing.T) {
	intakes := []campaign.Intake{
		{},
		{Length: ptr(1)},
		{Length: ptr(30), Cadence: ptr("1 day")},
		{Length: ptr(-1), IncludeSMS: true, SMSPlacement: []int{99}},
	}
	for _, in := range intakes {
		plan := newPlanner().Build(in)
		assert.NotEmpty(t, plan.Steps)
		assert.True(t, plan.HasEmail())
	}
}

func TestNormalizer_DedupeFirstWins(t *testing.T) {
	n := NewNormalizer(cadence.Relative, newPlanner())
	raw := []campaign.Step{
		{N: 2, Type: campaign.StepEmail, Delay: 10, Purpose: "educate"},
		{N: 1, Type: campaign.StepEmail, Delay: 0, Purpose: "intro"},
		{N: 1, Type: campaign.StepEmail, Delay: 3, Purpose: "duplicate"},
		{N: 2, Type: campaign.StepSMS, Delay: 10, Purpose: "sms"},
	}

	plan := n.Normalize(raw, baseIntake())

	require.Len(t, plan.Steps, 3)
	assert.Equal(t, campaign.Step{N: 1, Type: campaign.StepEmail, Delay: 0, Purpose: "intro"}, plan.Steps[0])
	assert.Equal(t, campaign.Step{N: 2, Type: campaign.StepEmail, Delay: 10, Purpose: "educate"}, plan.Steps[1])
	assert.Equal(t, campaign.StepSMS, plan.Steps[2].Type)
}

func TestNormalizer_LastWins(t *testing.T) {
	n := NewNormalizer(cadence.Relative, newPlanner())
	n.Duplicates = LastWins
	raw := []campaign.Step{
		{N: 1, Type: campaign.StepEmail, Delay: 0, Purpose: "intro"},
		{N: 1, Type: campaign.StepEmail, Delay: 3, Purpose: "replacement"},
	}

	plan := n.Normalize(raw, baseIntake())
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "replacement", plan.Steps[0].Purpose)
}

func TestNormalizer_AllSMSFallsBack(t *testing.T) {
	p := newPlanner()
	n := NewNormalizer(cadence.Relative, p)
	raw := []campaign.Step{
		{N: 1, Type: campaign.StepSMS, Delay: 1, Purpose: "ping"},
		{N: 2, Type: campaign.StepSMS, Delay: 2, Purpose: "ping"},
	}

	in := baseIntake()
	assert.Equal(t, p.Build(in), n.Normalize(raw, in))
	assert.Equal(t, p.Build(in), n.Normalize(nil, in))
}

func TestNormalizer_RelativeKeepsDelays(t *testing.T) {
	n := NewNormalizer(cadence.Relative, newPlanner())
	raw := []campaign.Step{
		{N: 1, Type: campaign.StepEmail, Delay: 1, Purpose: "intro"},
		{N: 2, Type: campaign.StepEmail, Delay: 4, Purpose: "educate"},
		{N: 3, Type: campaign.StepEmail, Delay: 3, Purpose: "convert"},
	}

	plan := n.Normalize(raw, baseIntake())
	assert.Equal(t, []int{1, 4, 3}, delays(plan.Steps))
}

func TestNormalizer_CumulativeConvertsToRelative(t *testing.T) {
	n := NewNormalizer(cadence.Cumulative, newPlanner())
	raw := []campaign.Step{
		{N: 3, Type: campaign.StepEmail, Delay: 70, Purpose: "convert"},
		{N: 1, Type: campaign.StepEmail, Delay: 0, Purpose: "intro"},
		{N: 2, Type: campaign.StepEmail, Delay: 35, Purpose: "educate"},
		{N: 2, Type: campaign.StepEmail, Delay: 50, Purpose: "duplicate"},
	}

	plan := n.Normalize(raw, baseIntake())
	require.Len(t, plan.Steps, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{plan.Steps[0].N, plan.Steps[1].N, plan.Steps[2].N})
	assert.Equal(t, []int{0, 35, 35}, delays(plan.Steps))
}
