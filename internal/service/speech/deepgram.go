package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const deepgramWSBase = "wss://api.deepgram.com/v1/listen"

// asrChunkSize is how much PCM goes into one websocket frame (~256ms at
// 16 kHz mono 16-bit).
const asrChunkSize = 8192

// DeepgramRecognizer streams audio to the Deepgram live-listen websocket
// endpoint and collects the finalized transcript.
type DeepgramRecognizer struct {
	apiKey  string
	baseURL string
	dialer  *websocket.Dialer
}

// NewDeepgramRecognizer creates the networked recognition engine.
func NewDeepgramRecognizer(apiKey string) *DeepgramRecognizer {
	return &DeepgramRecognizer{
		apiKey:  apiKey,
		baseURL: deepgramWSBase,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// NewDeepgramRecognizerWithBase overrides the endpoint, used by tests.
func NewDeepgramRecognizerWithBase(apiKey, baseURL string) *DeepgramRecognizer {
	r := NewDeepgramRecognizer(apiKey)
	r.baseURL = baseURL
	return r
}

func (r *DeepgramRecognizer) Name() string { return "deepgram" }

type deepgramMessage struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// Recognize sends the clip in binary frames, closes the stream, and reads
// result messages until the server finishes.
func (r *DeepgramRecognizer) Recognize(ctx context.Context, pcm []byte, language string) (string, error) {
	if r.apiKey == "" {
		return "", fmt.Errorf("no recognition key configured")
	}

	query := url.Values{}
	query.Set("encoding", "linear16")
	query.Set("sample_rate", "16000")
	query.Set("channels", "1")
	query.Set("language", language)
	query.Set("punctuate", "true")

	header := http.Header{}
	header.Set("Authorization", "Token "+r.apiKey)

	conn, resp, err := r.dialer.DialContext(ctx, r.baseURL+"?"+query.Encode(), header)
	if err != nil {
		if resp != nil {
			return "", fmt.Errorf("dial recognition endpoint (status %d): %w", resp.StatusCode, err)
		}
		return "", fmt.Errorf("dial recognition endpoint: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		conn.SetWriteDeadline(deadline)
	} else {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
	}

	for off := 0; off < len(pcm); off += asrChunkSize {
		end := off + asrChunkSize
		if end > len(pcm) {
			end = len(pcm)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, pcm[off:end]); err != nil {
			return "", fmt.Errorf("send audio: %w", err)
		}
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		return "", fmt.Errorf("close stream: %w", err)
	}

	var transcript strings.Builder
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				break
			}
			// The server may simply hang up once it has said everything.
			if transcript.Len() > 0 {
				break
			}
			return "", fmt.Errorf("read result: %w", err)
		}

		var msg deepgramMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "Metadata" {
			break
		}
		if !msg.IsFinal || len(msg.Channel.Alternatives) == 0 {
			continue
		}
		piece := strings.TrimSpace(msg.Channel.Alternatives[0].Transcript)
		if piece == "" {
			continue
		}
		if transcript.Len() > 0 {
			transcript.WriteString(" ")
		}
		transcript.WriteString(piece)
	}

	return strings.TrimSpace(transcript.String()), nil
}
