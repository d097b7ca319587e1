package campaign

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestIntake_Validate(t *testing.T) {
	valid := Intake{Goal: "re-engage past leads", Audience: "first-time buyers"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Intake)
		want   string
	}{
		{"short goal", func(in *Intake) { in.Goal = "  hi  " }, "goal must be at least 3"},
		{"short audience", func(in *Intake) { in.Audience = "" }, "audience must be at least 3"},
		{"zero length", func(in *Intake) { in.Length = intPtr(0) }, "length must be at least 1"},
		{"long length", func(in *Intake) { in.Length = intPtr(31) }, "length must be at most 30"},
		{"short cadence", func(in *Intake) { in.Cadence = strPtr("x") }, "cadence must be at least 2"},
		{"bad placement", func(in *Intake) { in.SMSPlacement = []int{2, 0} }, "smsPlacement[1] must be at least 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := in.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, "intake", ve.Subject)
		})
	}
}

func TestValidateSteps(t *testing.T) {
	require.NoError(t, ValidateSteps([]Step{{N: 1, Type: StepEmail, Delay: 0, Purpose: "hi"}}))

	err := ValidateSteps(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps must not be empty")

	err = ValidateSteps([]Step{{N: 0, Type: "fax", Delay: -1, Purpose: "x"}})
	require.Error(t, err)
	for _, want := range []string{"steps[0].n", "steps[0].type must be one of [email sms]", "steps[0].delay", "steps[0].purpose"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestIntake_Normalize(t *testing.T) {
	in := Intake{IncludeSMS: true, SMSPlacement: []int{7, 3, 7}}
	assert.Equal(t, []int{3, 7}, in.Normalize(DefaultSMSSteps).SMSPlacement)

	in = Intake{IncludeSMS: true}
	assert.Equal(t, []int{3, 7}, in.Normalize(DefaultSMSSteps).SMSPlacement)

	in = Intake{IncludeSMS: false, SMSPlacement: []int{2}}
	assert.Nil(t, in.Normalize(DefaultSMSSteps).SMSPlacement)
	// the receiver is untouched
	assert.Equal(t, []int{2}, in.SMSPlacement)
}

func TestParseLengthCadence(t *testing.T) {
	length, cadence := ParseLengthCadence("Decide for me", "6 weeks")
	assert.Nil(t, length)
	require.NotNil(t, cadence)
	assert.Equal(t, BalancedCadence, *cadence)

	length, cadence = ParseLengthCadence("about 12 emails, maybe 14", " 3 months ")
	require.NotNil(t, length)
	assert.Equal(t, 12, *length)
	assert.Equal(t, "3 months", *cadence)

	length, cadence = ParseLengthCadence("", "")
	assert.Nil(t, length)
	assert.Nil(t, cadence)
}

func TestParseSMSPlacement(t *testing.T) {
	assert.Equal(t, []int{2, 5, 9}, ParseSMSPlacement("9, 2,five, 5, -1"))
	assert.Empty(t, ParseSMSPlacement(""))
}

func TestPlan_Emails(t *testing.T) {
	p := Plan{Steps: []Step{
		{N: 1, Type: StepEmail},
		{N: 1, Type: StepSMS},
		{N: 2, Type: StepEmail},
	}}
	assert.True(t, p.HasEmail())
	assert.Equal(t, 2, p.EmailCount())
	assert.Equal(t, Key{N: 1, Type: StepSMS}, p.Steps[1].Key())
	assert.False(t, Plan{Steps: []Step{{N: 1, Type: StepSMS}}}.HasEmail())
}
