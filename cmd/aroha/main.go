package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sujith-hx/aroha/internal/config"
	"github.com/sujith-hx/aroha/internal/service/ai"
	"github.com/sujith-hx/aroha/internal/service/speech"
	"github.com/sujith-hx/aroha/internal/session"
	"github.com/sujith-hx/aroha/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// The generation credential is the only fatal configuration error;
	// every other subsystem degrades.
	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		log.Fatalf("failed to initialize generation service: %v", err)
	}

	cipher := initCipher(cfg.Store)

	var repo session.Repository
	sqlRepo, err := store.NewRepository(cfg.Store.DBPath, cipher)
	if err != nil {
		log.Printf("warning: persistence unavailable, continuing in-memory only: %v", err)
	} else {
		repo = sqlRepo
		defer sqlRepo.Close()
	}

	var synth session.Synthesizer
	if cfg.Speech.Enabled() {
		player, err := speech.NewOtoPlayer()
		if err != nil {
			log.Printf("warning: audio output unavailable, voice replies disabled: %v", err)
		} else {
			synth = speech.NewSynthesizer(speech.NewElevenLabsClient(), player, cfg.Speech.APIKeys, cfg.Speech.VoiceID)
			log.Println("speech synthesis initialized")
		}
	} else {
		log.Println("no synthesis keys configured, voice output disabled")
	}

	var listener session.Listener
	capture, err := speech.NewCapture(buildRecognizers(cfg.Recognition), cfg.Recognition.Language)
	if err != nil {
		log.Printf("warning: microphone unavailable, voice input disabled: %v", err)
	} else {
		listener = capture
		defer capture.Close()
		log.Println("speech capture initialized")
	}

	orchestrator := session.New(
		listener,
		ai.NewClassifier(chatModel),
		ai.NewGenerator(chatModel, ai.SystemPrompt),
		repo,
		synth,
		session.Options{
			VoiceMode:     cfg.Session.VoiceMode,
			HistoryWindow: cfg.Session.HistoryWindow,
			ListenTimeout: cfg.Recognition.ListenTimeout,
			VoiceID:       cfg.Speech.VoiceID,
			In:            os.Stdin,
			Out:           os.Stdout,
		},
	)

	orchestrator.Run(ctx)
}

// initCipher derives the field-encryption key, or generates a throwaway
// key when no secret is configured. In the latter case anything stored in
// previous runs stays ciphertext on read.
func initCipher(cfg config.StoreConfig) *store.Cipher {
	if cfg.EncryptionSecret == "" {
		log.Println("no encryption key found, generating a temporary key; prior ciphertext will be unreadable this session")
		cipher, err := store.NewRandomCipher()
		if err != nil {
			log.Printf("warning: encryption unavailable, storing plaintext: %v", err)
			return nil
		}
		return cipher
	}

	cipher, err := store.NewCipher(store.DeriveKey(cfg.EncryptionSecret, cfg.Salt, cfg.KeyIterations))
	if err != nil {
		log.Printf("warning: failed to initialize encryption, storing plaintext: %v", err)
		return nil
	}
	log.Println("encryption key validated")
	return cipher
}

func buildRecognizers(cfg config.RecognitionConfig) []speech.Recognizer {
	var recognizers []speech.Recognizer
	if cfg.DeepgramAPIKey != "" {
		recognizers = append(recognizers, speech.NewDeepgramRecognizer(cfg.DeepgramAPIKey))
	}
	recognizers = append(recognizers, speech.NewWhisperRecognizer(cfg.WhisperURL))
	return recognizers
}
