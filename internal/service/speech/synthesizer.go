package speech

import (
	"context"
	"log"

	"github.com/sujith-hx/aroha/internal/analysis/emotion"
)

// Synthesizer renders replies as emotionally modulated speech. It rotates
// through a pool of provider API keys on auth/quota failures and falls back
// across a bounded list of known-good voices before giving up. Audio is
// always optional: every failure is converted to a false result and the
// text transcript remains the source of truth.
type Synthesizer struct {
	client       *ElevenLabsClient
	player       Player
	keys         []string
	defaultVoice string

	// keyIndex is sticky across calls so known-bad keys are not retried
	// on every synthesis.
	keyIndex int
}

// NewSynthesizer builds a Synthesizer over the given key pool. An empty
// pool is valid; SynthesizeAndPlay then reports failure immediately.
func NewSynthesizer(client *ElevenLabsClient, player Player, keys []string, defaultVoice string) *Synthesizer {
	if defaultVoice == "" {
		defaultVoice = DefaultVoiceID
	}
	return &Synthesizer{
		client:       client,
		player:       player,
		keys:         keys,
		defaultVoice: defaultVoice,
	}
}

// SynthesizeAndPlay renders text with prosody matching the emotional
// context and blocks until playback finishes. Returns false on any
// definitive failure.
func (s *Synthesizer) SynthesizeAndPlay(ctx context.Context, text string, label emotion.Label, urgency float64, voiceID string) bool {
	if len(s.keys) == 0 || s.player == nil {
		log.Printf("[speech] no synthesis keys configured, skipping audio")
		return false
	}

	if voiceID == "" {
		voiceID = s.defaultVoice
	}
	profile := ProfileFor(label, urgency)
	spoken := Humanize(text, label)

	log.Printf("[speech] synthesizing for emotional context: %s", label)

	for _, voice := range voiceCandidates(voiceID) {
		audio, ok := s.render(ctx, spoken, voice, profile)
		if !ok {
			continue
		}
		if err := s.player.Play(ctx, audio); err != nil {
			log.Printf("[speech] playback failed: %v", err)
			return false
		}
		return true
	}
	return false
}

// render tries every key in the pool at most once, advancing the sticky
// index past keys that fail with auth or quota errors.
func (s *Synthesizer) render(ctx context.Context, text, voiceID string, profile Profile) ([]byte, bool) {
	for attempt := 0; attempt < len(s.keys); attempt++ {
		audio, err := s.client.Synthesize(ctx, s.keys[s.keyIndex], text, voiceID, profile)
		if err == nil {
			return audio, true
		}
		if !isKeyError(err) {
			log.Printf("[speech] synthesis failed with voice %s: %v", voiceID, err)
			return nil, false
		}
		log.Printf("[speech] key %d rejected, rotating: %v", s.keyIndex+1, err)
		s.keyIndex = (s.keyIndex + 1) % len(s.keys)
	}
	log.Printf("[speech] all synthesis keys exhausted")
	return nil, false
}

// voiceCandidates lists the voices to try, requested voice first. When the
// request is not already one of the fallback set, each fallback voice is
// appended, keeping the retry loop bounded.
func voiceCandidates(voiceID string) []string {
	candidates := []string{voiceID}
	for _, fb := range FallbackVoiceIDs {
		if fb == voiceID {
			return candidates
		}
	}
	for _, fb := range FallbackVoiceIDs {
		candidates = append(candidates, fb)
	}
	return candidates
}
