package speech

import "context"

// Recognizer converts captured PCM audio into text. Implementations are
// tried in order by Capture: a networked engine first, then an
// offline-capable one.
type Recognizer interface {
	// Name identifies the engine in logs.
	Name() string
	// Recognize transcribes 16-bit little-endian mono PCM at 16 kHz.
	// An empty transcript with nil error means no speech was understood.
	Recognize(ctx context.Context, pcm []byte, language string) (string, error)
}
