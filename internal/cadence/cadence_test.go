package cadence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul/campaigner/internal/campaign"
)

func ptr[T any](v T) *T { return &v }

func TestResolver_TotalDays(t *testing.T) {
	r := NewResolver(DefaultDefaults)

	tests := []struct {
		text string
		want int
	}{
		{"10 weeks", 70},
		{"2 weeks", 14},
		{"1 week", 7},
		{"10weeks", 70},
		{"3 months", 90},
		{"1 month", 30},
		{"6months", 180},
		{"45 days", 45},
		{"30 days", 30},
		{"7days", 7},
		{"Over 12 WEEKS please", 84},
		{"2 months or 10 weeks", 70},
		{"custom cadence", 45},
		{"", 45},
		{"quarterly", 45},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, r.TotalDays(tt.text))
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(DefaultDefaults)

	assert.Equal(t, Cadence{EmailCount: 8, TotalDays: 45}, r.Resolve(nil, nil))
	assert.Equal(t, Cadence{EmailCount: 5, TotalDays: 45}, r.Resolve(ptr(5), nil))
	assert.Equal(t, Cadence{EmailCount: 8, TotalDays: 45}, r.Resolve(ptr(0), nil))
	assert.Equal(t, Cadence{EmailCount: 8, TotalDays: 45}, r.Resolve(ptr(-3), nil))
	assert.Equal(t, Cadence{EmailCount: 10, TotalDays: 90}, r.Resolve(ptr(10), ptr("3 months")))
	assert.Equal(t, Cadence{EmailCount: 8, TotalDays: 45}, r.Resolve(nil, ptr("balanced")))
}

func TestResolver_InjectedDefaults(t *testing.T) {
	r := NewResolver(Defaults{EmailCount: 4, TotalDays: 20})
	assert.Equal(t, Cadence{EmailCount: 4, TotalDays: 20}, r.Resolve(nil, ptr("whenever")))
}

func TestEvenOffsets(t *testing.T) {
	assert.Equal(t, []int{0, 35, 70}, EvenOffsets(3, 70))
	assert.Equal(t, []int{0, 7, 14, 21, 28}, EvenOffsets(5, 30))
	assert.Equal(t, []int{0}, EvenOffsets(1, 10))
	assert.Equal(t, []int{0, 14}, EvenOffsets(2, 14))
	assert.Equal(t, []int{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}, EvenOffsets(10, 90))
	assert.Nil(t, EvenOffsets(0, 90))
}

func TestToRelative(t *testing.T) {
	cumulative := []campaign.Step{
		{N: 1, Type: campaign.StepEmail, Delay: 0, Purpose: "intro"},
		{N: 2, Type: campaign.StepEmail, Delay: 35, Purpose: "educate"},
		{N: 3, Type: campaign.StepEmail, Delay: 70, Purpose: "convert"},
	}

	got := ToRelative(cumulative)
	require.Len(t, got, 3)
	assert.Equal(t, []int{0, 35, 35}, []int{got[0].Delay, got[1].Delay, got[2].Delay})
	assert.Equal(t, 70, cumulative[2].Delay, "input must not be modified")
}

func TestToRelative_StableForEqualOffsets(t *testing.T) {
	mixed := []campaign.Step{
		{N: 1, Type: campaign.StepEmail, Delay: 0, Purpose: "intro"},
		{N: 2, Type: campaign.StepEmail, Delay: 10, Purpose: "educate"},
		{N: 2, Type: campaign.StepSMS, Delay: 10, Purpose: "reminder"},
		{N: 4, Type: campaign.StepEmail, Delay: 20, Purpose: "convert"},
	}

	got := ToRelative(mixed)
	assert.Equal(t, campaign.StepEmail, got[1].Type)
	assert.Equal(t, campaign.StepSMS, got[2].Type)
	assert.Equal(t, 0, got[2].Delay)
}

func TestOffsetsToDeltas(t *testing.T) {
	assert.Equal(t, []int{0, 10, 10, 10}, OffsetsToDeltas([]int{0, 10, 20, 30}))
	assert.Empty(t, OffsetsToDeltas(nil))
}

func TestParseConvention(t *testing.T) {
	c, err := ParseConvention("")
	require.NoError(t, err)
	assert.Equal(t, Relative, c)

	c, err = ParseConvention("cumulative")
	require.NoError(t, err)
	assert.Equal(t, Cumulative, c)
	assert.Contains(t, c.Instruction(), "since the campaign start")

	_, err = ParseConvention("sideways")
	assert.Error(t, err)
}
