package speech

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

const (
	// captureSampleRate is the recognition input format: 16-bit mono 16 kHz.
	captureSampleRate = 16000

	// phraseLimit bounds a single utterance once speech has started.
	phraseLimit = 8 * time.Second

	// calibrationWindow is how long ambient noise is sampled before
	// listening for speech.
	calibrationWindow = 1 * time.Second

	// silenceHold ends the utterance after this much trailing quiet.
	silenceHold = 700 * time.Millisecond

	frameDuration = 20 * time.Millisecond
	frameBytes    = captureSampleRate * 2 / 50 // 20ms of s16 mono
)

// Capture listens on the microphone and recognizes speech through a chain
// of engines. Timeout and "not understood" are ordinary outcomes reported
// as ("", false), never errors.
type Capture struct {
	audioCtx    *malgo.AllocatedContext
	recognizers []Recognizer
	language    string
}

// NewCapture initializes the audio input context. Failure here means the
// session continues in text-only mode.
func NewCapture(recognizers []Recognizer, language string) (*Capture, error) {
	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	return &Capture{
		audioCtx:    audioCtx,
		recognizers: recognizers,
		language:    language,
	}, nil
}

// Close releases the audio context.
func (c *Capture) Close() {
	if c != nil && c.audioCtx != nil {
		_ = c.audioCtx.Uninit()
		c.audioCtx.Free()
	}
}

// Listen waits up to timeout for an utterance, then runs recognition.
// A single phrase is additionally capped at 8 seconds.
func (c *Capture) Listen(ctx context.Context, timeout time.Duration) (string, bool) {
	if c == nil || c.audioCtx == nil {
		return "", false
	}

	pcm, ok := c.record(ctx, timeout)
	if !ok {
		return "", false
	}
	return c.transcribe(ctx, pcm)
}

// record calibrates against ambient noise, waits for speech energy, and
// returns the captured utterance.
func (c *Capture) record(ctx context.Context, timeout time.Duration) ([]byte, bool) {
	var (
		mu  sync.Mutex
		buf []byte
	)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = captureSampleRate
	deviceConfig.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			mu.Lock()
			buf = append(buf, input...)
			mu.Unlock()
		},
	}

	device, err := malgo.InitDevice(c.audioCtx.Context, deviceConfig, callbacks)
	if err != nil {
		log.Printf("[speech] open microphone failed: %v", err)
		return nil, false
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		log.Printf("[speech] start microphone failed: %v", err)
		return nil, false
	}
	defer device.Stop()

	log.Printf("[speech] listening (timeout %s)", timeout)

	ep := newEndpointer()
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()
	deadline := time.Now().Add(calibrationWindow + timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, false
		case <-ticker.C:
		}

		mu.Lock()
		snapshot := buf
		mu.Unlock()

		if done, pcm := ep.advance(snapshot); done {
			return pcm, len(pcm) > 0
		}
		if !ep.speaking() && time.Now().After(deadline) {
			log.Printf("[speech] no speech detected")
			return nil, false
		}
	}
}

// transcribe runs the engine chain in order; the first engine returning a
// non-empty transcript wins.
func (c *Capture) transcribe(ctx context.Context, pcm []byte) (string, bool) {
	for _, rec := range c.recognizers {
		text, err := rec.Recognize(ctx, pcm, c.language)
		if err != nil {
			log.Printf("[speech] %s recognition failed: %v", rec.Name(), err)
			continue
		}
		if text != "" {
			log.Printf("[speech] recognized via %s: %s", rec.Name(), text)
			return text, true
		}
	}
	log.Printf("[speech] speech not understood by any engine")
	return "", false
}

// endpointer segments continuous capture into one utterance using frame
// energy against a calibrated noise floor.
type endpointer struct {
	processed   int
	calibFrames int
	noiseSum    float64
	threshold   float64
	started     bool
	startByte   int
	lastVoiced  int
	speechLen   int
}

func newEndpointer() *endpointer {
	return &endpointer{}
}

func (e *endpointer) speaking() bool { return e.started }

// advance consumes any complete frames appended since the last call.
// It returns done=true with the utterance bytes once the phrase ends.
func (e *endpointer) advance(buf []byte) (bool, []byte) {
	calibTotal := int(calibrationWindow / frameDuration)
	silenceFrames := int(silenceHold / frameDuration)
	phraseFrames := int(phraseLimit / frameDuration)

	for e.processed+frameBytes <= len(buf) {
		frame := buf[e.processed : e.processed+frameBytes]
		energy := frameRMS(frame)
		e.processed += frameBytes

		if e.calibFrames < calibTotal {
			e.calibFrames++
			e.noiseSum += energy
			if e.calibFrames == calibTotal {
				noise := e.noiseSum / float64(calibTotal)
				e.threshold = math.Max(noise*1.8, 300)
				log.Printf("[speech] ambient noise calibrated, threshold %.0f", e.threshold)
			}
			continue
		}

		voiced := energy >= e.threshold
		if !e.started {
			if voiced {
				e.started = true
				e.startByte = e.processed - frameBytes
				e.lastVoiced = 0
				e.speechLen = 1
			}
			continue
		}

		e.speechLen++
		if voiced {
			e.lastVoiced = 0
		} else {
			e.lastVoiced++
		}

		if e.lastVoiced >= silenceFrames || e.speechLen >= phraseFrames {
			return true, buf[e.startByte:e.processed]
		}
	}
	return false, nil
}

// frameRMS computes root-mean-square energy of a 16-bit LE frame.
func frameRMS(frame []byte) float64 {
	if len(frame) < 2 {
		return 0
	}
	var sum float64
	n := len(frame) / 2
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(frame[i*2 : i*2+2]))
		sum += float64(sample) * float64(sample)
	}
	return math.Sqrt(sum / float64(n))
}
