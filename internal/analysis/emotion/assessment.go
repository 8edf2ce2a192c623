package emotion

import (
	"regexp"
	"strconv"
	"strings"
)

// Label is one of the closed set of affect categories driving response and
// voice tuning.
type Label string

const (
	Neutral Label = "neutral"
	Sad     Label = "sad"
	Anxious Label = "anxious"
	Angry   Label = "angry"
	Crisis  Label = "crisis"
	Tired   Label = "tired"
	Urgent  Label = "urgent"
)

// Assessment carries the detected emotion and a continuous urgency score.
type Assessment struct {
	Emotion Label
	Urgency float64
}

// Default is the assessment used whenever classification cannot run or its
// output cannot be parsed.
func Default() Assessment {
	return Assessment{Emotion: Neutral, Urgency: 0.5}
}

// scanOrder fixes the priority when a reply mentions several categories:
// the first match wins.
var scanOrder = []Label{Neutral, Sad, Anxious, Angry, Crisis, Tired, Urgent}

var urgencyPattern = regexp.MustCompile(`urgency[:\s]+([0-9]\.[0-9]+)`)

// ParseAssessment extracts an Assessment from the free-form text a
// classification model returns. It is a pure function: keyword scan for the
// emotion, numeric pattern match after the token "urgency" for the score,
// defaults {neutral, 0.5} when either is absent.
func ParseAssessment(raw string) Assessment {
	assessment := Default()
	lowered := strings.ToLower(raw)

	for _, label := range scanOrder {
		if strings.Contains(lowered, string(label)) {
			assessment.Emotion = label
			break
		}
	}

	if matches := urgencyPattern.FindStringSubmatch(lowered); len(matches) == 2 {
		if val, err := strconv.ParseFloat(matches[1], 64); err == nil && val >= 0 && val <= 1 {
			assessment.Urgency = val
		}
	}

	return assessment
}
