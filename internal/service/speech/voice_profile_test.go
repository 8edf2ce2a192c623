package speech

import (
	"testing"

	"github.com/sujith-hx/aroha/internal/analysis/emotion"
)

func TestProfileForAllLabels(t *testing.T) {
	labels := []emotion.Label{
		emotion.Neutral, emotion.Sad, emotion.Anxious,
		emotion.Angry, emotion.Crisis, emotion.Tired, emotion.Urgent,
	}

	for _, label := range labels {
		p := ProfileFor(label, 0.5)
		if p.Stability < 0 || p.Stability > 1 {
			t.Fatalf("%s: stability %v out of range", label, p.Stability)
		}
		if p.SimilarityBoost < 0 || p.SimilarityBoost > 1 {
			t.Fatalf("%s: similarity boost %v out of range", label, p.SimilarityBoost)
		}
		if p.Pace <= 0 || p.Pace > 1.2 {
			t.Fatalf("%s: pace %v out of range", label, p.Pace)
		}
	}
}

func TestProfileForCrisisIsSteadyAndSlow(t *testing.T) {
	crisis := ProfileFor(emotion.Crisis, 0.9)
	neutral := ProfileFor(emotion.Neutral, 0.5)

	if crisis.Stability <= neutral.Stability {
		t.Fatalf("crisis stability %v should exceed neutral %v", crisis.Stability, neutral.Stability)
	}
	if crisis.Pace >= neutral.Pace {
		t.Fatalf("crisis pace %v should be slower than neutral %v", crisis.Pace, neutral.Pace)
	}
	if ProfileFor(emotion.Urgent, 1.0) != crisis {
		t.Fatal("urgent and crisis should share a profile")
	}
}

func TestProfileForIsDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		if ProfileFor(emotion.Sad, 0.6) != ProfileFor(emotion.Sad, 0.6) {
			t.Fatal("profile selection must be deterministic")
		}
	}
}
