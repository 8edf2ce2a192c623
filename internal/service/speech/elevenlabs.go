package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	elevenLabsAPIEndpoint = "https://api.elevenlabs.io/v1"
	elevenLabsModelID     = "eleven_monolingual_v1"

	// DefaultVoiceID is Rachel, a calm natural female voice.
	DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"
)

// FallbackVoiceIDs are known-good voices tried in order when the requested
// voice keeps failing: Rachel, Bella, Elli, Grace.
var FallbackVoiceIDs = []string{
	"21m00Tcm4TlvDq8ikWAM",
	"EXAVITQu4vr4xnSDxMaL",
	"MF3mGyEYCl7XYWbV9V6O",
	"D38z5RcWu1voky8WS1ja",
}

// statusError reports a non-2xx synthesis response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("synthesis status %d: %s", e.code, e.body)
}

// isKeyError reports whether the failure is attributable to the API key
// (bad auth or exhausted quota) and therefore worth a key rotation.
func isKeyError(err error) bool {
	se, ok := err.(*statusError)
	if !ok {
		return false
	}
	return se.code == http.StatusUnauthorized || se.code == http.StatusForbidden || se.code == http.StatusTooManyRequests
}

// ElevenLabsClient renders text to raw PCM audio over the ElevenLabs HTTP
// API. The API key is supplied per call so the synthesizer can rotate keys.
type ElevenLabsClient struct {
	baseURL string
	client  *http.Client
}

// NewElevenLabsClient builds a client against the public endpoint.
func NewElevenLabsClient() *ElevenLabsClient {
	return &ElevenLabsClient{
		baseURL: elevenLabsAPIEndpoint,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// NewElevenLabsClientWithBase overrides the endpoint, used by tests.
func NewElevenLabsClientWithBase(baseURL string) *ElevenLabsClient {
	c := NewElevenLabsClient()
	c.baseURL = baseURL
	return c
}

// Synthesize renders text with the given voice and profile, returning
// 16-bit little-endian PCM at 24 kHz ready for playback.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, apiKey, text, voiceID string, profile Profile) ([]byte, error) {
	payload := map[string]any{
		"text":     text,
		"model_id": elevenLabsModelID,
		"voice_settings": map[string]float64{
			"stability":        profile.Stability,
			"similarity_boost": profile.SimilarityBoost,
			"speed":            profile.Pace,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s?output_format=pcm_24000", c.baseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &statusError{code: resp.StatusCode, body: string(detail)}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio response")
	}
	return audio, nil
}
