package wizard

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rahul/campaigner/internal/campaign"
)

// Answer keys.
const (
	KeyGoal      = "goal"
	KeyAudience  = "audience"
	KeyLength    = "length"
	KeyCadence   = "cadence"
	KeySMS       = "sms"
	KeySMSSteps  = "sms_steps"
	KeyEmphasize = "emphasize"
	KeyAvoid     = "avoid"
	KeyAB        = "ab"
)

// Question is one wizard prompt. Accept normalizes the raw answer or
// returns a problem to show the user.
type Question struct {
	Key    string
	Prompt string
	Accept func(input string) (value string, problem string)
	// Skip hides the question given the answers so far.
	Skip func(answers map[string]string) bool
}

var Questions = []Question{
	{
		Key:    KeyGoal,
		Prompt: "What's the goal of this campaign? (e.g. re-engage past leads)",
		Accept: minLength(3),
	},
	{
		Key:    KeyAudience,
		Prompt: "Who is the audience? (e.g. first-time buyers in Boston)",
		Accept: minLength(3),
	},
	{
		Key:    KeyLength,
		Prompt: `How many emails? Send a number or "decide for me".`,
		Accept: acceptLength,
	},
	{
		Key:    KeyCadence,
		Prompt: `Over what timeframe? (e.g. "6 weeks", "3 months") or "decide for me".`,
		Accept: optional,
	},
	{
		Key:    KeySMS,
		Prompt: "Include SMS touchpoints? (yes/no)",
		Accept: acceptYesNo,
	},
	{
		Key:    KeySMSSteps,
		Prompt: `Which steps get an SMS? Send numbers like "3,7" or "default".`,
		Accept: acceptSMSSteps,
		Skip: func(answers map[string]string) bool {
			return answers[KeySMS] != "true"
		},
	},
	{
		Key:    KeyEmphasize,
		Prompt: `Anything to emphasize? ("none" to skip)`,
		Accept: optional,
	},
	{
		Key:    KeyAvoid,
		Prompt: `Anything to avoid? ("none" to skip)`,
		Accept: optional,
	},
	{
		Key:    KeyAB,
		Prompt: "A/B test subject lines? (yes/no)",
		Accept: acceptYesNo,
	},
}

func minLength(n int) func(string) (string, string) {
	return func(input string) (string, string) {
		if utf8.RuneCountInString(input) < n {
			return "", "Could you add a little more detail?"
		}
		return input, ""
	}
}

var skipWords = map[string]bool{"none": true, "no": true, "n/a": true, "-": true, "skip": true, "nothing": true}

func optional(input string) (string, string) {
	if skipWords[strings.ToLower(input)] {
		return "", ""
	}
	return input, ""
}

func acceptLength(input string) (string, string) {
	length, _ := campaign.ParseLengthCadence(input, "")
	if length == nil && !strings.Contains(strings.ToLower(input), "decide") {
		return "", "I need a number of emails."
	}
	if length != nil && (*length < 1 || *length > 30) {
		return "", "Campaigns run between 1 and 30 emails."
	}
	return input, ""
}

func acceptSMSSteps(input string) (string, string) {
	if strings.EqualFold(input, "default") {
		return "", ""
	}
	if len(campaign.ParseSMSPlacement(input)) == 0 {
		return "", "I couldn't read any step numbers."
	}
	return input, ""
}

var (
	yesWords = map[string]bool{"yes": true, "y": true, "yeah": true, "yep": true, "sure": true, "ok": true, "true": true}
	noWords  = map[string]bool{"no": true, "n": true, "nope": true, "false": true, "skip": true}
)

// ParseYesNo reads a yes/no answer. ok is false when the answer is neither.
func ParseYesNo(input string) (yes bool, ok bool) {
	word := strings.Trim(strings.ToLower(strings.TrimSpace(input)), ".!")
	switch {
	case yesWords[word]:
		return true, true
	case noWords[word]:
		return false, true
	}
	return false, false
}

func acceptYesNo(input string) (string, string) {
	yes, ok := ParseYesNo(input)
	if !ok {
		return "", "Please answer yes or no."
	}
	return strconv.FormatBool(yes), ""
}

// BuildIntake converts wizard answers into an intake.
func BuildIntake(answers map[string]string) campaign.Intake {
	length, cadence := campaign.ParseLengthCadence(answers[KeyLength], answers[KeyCadence])
	includeSMS := answers[KeySMS] == "true"

	intake := campaign.Intake{
		Goal:       answers[KeyGoal],
		Audience:   answers[KeyAudience],
		Length:     length,
		Cadence:    cadence,
		IncludeSMS: includeSMS,
		Emphasize:  answers[KeyEmphasize],
		Avoid:      answers[KeyAvoid],
		ABSubjects: answers[KeyAB] == "true",
	}
	if includeSMS {
		intake.SMSPlacement = campaign.ParseSMSPlacement(answers[KeySMSSteps])
	}
	return intake
}
