package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/joho/godotenv"

	"github.com/sujith-hx/aroha/internal/analysis/emotion"
	"github.com/sujith-hx/aroha/internal/config"
	"github.com/sujith-hx/aroha/internal/service/speech"
)

// voicecheck exercises each external collaborator in isolation so a broken
// credential can be spotted before starting a counseling session.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] failed to load .env, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	mode := flag.String("mode", "", "check to run: chat, tts, or listen")
	text := flag.String("text", "Hello, this is a connectivity check.", "text for -mode=tts or -mode=chat")
	voice := flag.String("voice", "", "voice id for -mode=tts, defaults to configuration")
	out := flag.String("out", "", "write raw PCM to this file instead of playing it (-mode=tts)")
	timeout := flag.Duration("timeout", 45*time.Second, "overall check timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "chat":
		checkChat(ctx, cfg, *text)
	case "tts":
		checkTTS(ctx, cfg, *text, *voice, *out)
	case "listen":
		checkListen(ctx, cfg)
	default:
		flag.Usage()
		log.Fatal("specify a check with -mode=chat, -mode=tts, or -mode=listen")
	}
}

func checkChat(ctx context.Context, cfg *config.Config, text string) {
	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		log.Fatalf("generation service unavailable: %v", err)
	}

	reply, err := chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(text)})
	if err != nil {
		log.Fatalf("generation roundtrip failed: %v", err)
	}
	fmt.Printf("generation OK: %s\n", reply.Content)
}

func checkTTS(ctx context.Context, cfg *config.Config, text, voice, out string) {
	if !cfg.Speech.Enabled() {
		log.Fatal("no ELEVENLABS_API_KEY_* configured")
	}

	if voice == "" {
		voice = cfg.Speech.VoiceID
	}
	if voice == "" {
		voice = speech.DefaultVoiceID
	}

	client := speech.NewElevenLabsClient()
	audio, err := client.Synthesize(ctx, cfg.Speech.APIKeys[0], text, voice, speech.ProfileFor(emotion.Neutral, 0.5))
	if err != nil {
		log.Fatalf("synthesis failed: %v", err)
	}
	log.Printf("synthesis OK: %d bytes of PCM", len(audio))

	if out != "" {
		if err := os.WriteFile(out, audio, 0o644); err != nil {
			log.Fatalf("write %s: %v", out, err)
		}
		log.Printf("wrote %s", out)
		return
	}

	player, err := speech.NewOtoPlayer()
	if err != nil {
		log.Fatalf("audio output unavailable: %v", err)
	}
	if err := player.Play(ctx, audio); err != nil {
		log.Fatalf("playback failed: %v", err)
	}
	log.Println("playback OK")
}

func checkListen(ctx context.Context, cfg *config.Config) {
	var recognizers []speech.Recognizer
	if cfg.Recognition.DeepgramAPIKey != "" {
		recognizers = append(recognizers, speech.NewDeepgramRecognizer(cfg.Recognition.DeepgramAPIKey))
	}
	recognizers = append(recognizers, speech.NewWhisperRecognizer(cfg.Recognition.WhisperURL))

	capture, err := speech.NewCapture(recognizers, cfg.Recognition.Language)
	if err != nil {
		log.Fatalf("microphone unavailable: %v", err)
	}
	defer capture.Close()

	fmt.Println("Speak now...")
	text, ok := capture.Listen(ctx, cfg.Recognition.ListenTimeout)
	if !ok {
		log.Fatal("no speech recognized")
	}
	fmt.Printf("recognition OK: %s\n", text)
}
