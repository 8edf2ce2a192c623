package speech

import "github.com/sujith-hx/aroha/internal/analysis/emotion"

// Profile holds the synthesis parameters selected for an emotional context.
// All values are deterministic functions of the emotion category.
type Profile struct {
	Stability       float64
	SimilarityBoost float64
	Pace            float64
	VoiceID         string
}

// ProfileFor maps an emotion category to tuned voice parameters. Crisis and
// urgent share a calm, steady configuration; anger gets lower stability so
// the voice does not sound falsely cheerful.
func ProfileFor(label emotion.Label, urgency float64) Profile {
	_ = urgency // reserved: urgency currently influences generation, not prosody

	switch label {
	case emotion.Crisis, emotion.Urgent:
		return Profile{Stability: 0.8, SimilarityBoost: 0.7, Pace: 0.9}
	case emotion.Sad:
		return Profile{Stability: 0.7, SimilarityBoost: 0.8, Pace: 0.85}
	case emotion.Anxious:
		return Profile{Stability: 0.9, SimilarityBoost: 0.6, Pace: 0.95}
	case emotion.Angry:
		return Profile{Stability: 0.6, SimilarityBoost: 0.7, Pace: 1.0}
	case emotion.Tired:
		return Profile{Stability: 0.7, SimilarityBoost: 0.7, Pace: 0.9}
	default:
		return Profile{Stability: 0.7, SimilarityBoost: 0.7, Pace: 1.0}
	}
}
