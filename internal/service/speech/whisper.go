package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// DefaultWhisperURL points at a locally running whisper.cpp server, the
// offline-capable engine.
const DefaultWhisperURL = "http://127.0.0.1:8178/inference"

// WhisperRecognizer posts captured audio to a local whisper server. It
// works without internet access, serving as the fallback engine.
type WhisperRecognizer struct {
	endpoint string
	client   *http.Client
}

// NewWhisperRecognizer creates the offline-capable recognition engine.
func NewWhisperRecognizer(endpoint string) *WhisperRecognizer {
	if endpoint == "" {
		endpoint = DefaultWhisperURL
	}
	return &WhisperRecognizer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (r *WhisperRecognizer) Name() string { return "whisper" }

// Recognize wraps the PCM in a WAV container and posts it as multipart
// form data. The language hint is passed through; local models may ignore it.
func (r *WhisperRecognizer) Recognize(ctx context.Context, pcm []byte, language string) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", "capture.wav")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(pcmToWAV(pcm, captureSampleRate)); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	if language != "" {
		_ = form.WriteField("language", shortLanguage(language))
	}
	_ = form.WriteField("response_format", "json")
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("recognition request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("recognition status %d: %s", resp.StatusCode, detail)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode result: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}

// shortLanguage turns BCP-47 tags like "en-US" into the two-letter codes
// whisper expects.
func shortLanguage(tag string) string {
	if idx := strings.IndexByte(tag, '-'); idx > 0 {
		return strings.ToLower(tag[:idx])
	}
	return strings.ToLower(tag)
}

// pcmToWAV prepends a canonical 44-byte RIFF header to 16-bit mono PCM.
func pcmToWAV(pcm []byte, sampleRate int) []byte {
	const (
		numChannels   = 1
		bitsPerSample = 16
	)
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8

	buf := make([]byte, 0, 44+len(pcm))
	w := bytes.NewBuffer(buf)

	w.WriteString("RIFF")
	binary.Write(w, binary.LittleEndian, uint32(36+len(pcm)))
	w.WriteString("WAVE")
	w.WriteString("fmt ")
	binary.Write(w, binary.LittleEndian, uint32(16))
	binary.Write(w, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(w, binary.LittleEndian, uint16(numChannels))
	binary.Write(w, binary.LittleEndian, uint32(sampleRate))
	binary.Write(w, binary.LittleEndian, uint32(byteRate))
	binary.Write(w, binary.LittleEndian, uint16(blockAlign))
	binary.Write(w, binary.LittleEndian, uint16(bitsPerSample))
	w.WriteString("data")
	binary.Write(w, binary.LittleEndian, uint32(len(pcm)))
	w.Write(pcm)

	return w.Bytes()
}
