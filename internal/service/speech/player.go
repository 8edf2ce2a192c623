package speech

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
)

// playbackSampleRate matches the PCM format requested from the synthesis
// service (16-bit mono at 24 kHz).
const playbackSampleRate = 24000

// Player turns raw PCM into audible output. Play blocks until the clip
// finishes or the context is cancelled.
type Player interface {
	Play(ctx context.Context, pcm []byte) error
}

// OtoPlayer plays PCM through the default output device.
type OtoPlayer struct {
	ctx *oto.Context
}

// NewOtoPlayer initializes the audio output context. This can fail on
// machines without an audio device; the caller degrades to text-only.
func NewOtoPlayer() (*OtoPlayer, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   playbackSampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}
	otoCtx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("init audio output: %w", err)
	}
	<-ready
	return &OtoPlayer{ctx: otoCtx}, nil
}

// Play renders the clip and waits for it to drain. Cancellation stops
// playback mid-clip and returns the context error.
func (p *OtoPlayer) Play(ctx context.Context, pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}

	player := p.ctx.NewPlayer(bytes.NewReader(pcm))
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
