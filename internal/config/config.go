package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting the session needs.
type Config struct {
	AI          AIConfig
	Speech      SpeechConfig
	Recognition RecognitionConfig
	Store       StoreConfig
	Session     SessionConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	ai := loadAIConfig()
	speech := loadSpeechConfig()

	recognition, err := loadRecognitionConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		AI:          ai,
		Speech:      speech,
		Recognition: recognition,
		Store:       store,
		Session:     session,
	}, nil
}

// AIConfig describes the generation service.
type AIConfig struct {
	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string
}

// Enabled reports whether the required generation credentials are present.
// A missing generation credential is the only fatal configuration error.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds the model instance shared by the response generator
// and the emotion classifier.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("generation credentials missing: set ARK_API_KEY (or AK/SK pair) and ARK_MODEL")
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:   c.BaseURL,
		Region:    c.Region,
		APIKey:    c.APIKey,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Model:     c.Model,
	}
	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() AIConfig {
	return AIConfig{
		APIKey:    strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey: strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey: strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:     strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:   getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:    getEnvOrDefault("ARK_REGION", "cn-beijing"),
	}
}

// SpeechConfig describes the synthesis side: a rotating pool of provider
// keys plus the preferred voice.
type SpeechConfig struct {
	APIKeys []string
	VoiceID string
}

// Enabled reports whether voice output can be attempted at all.
func (c SpeechConfig) Enabled() bool {
	return len(c.APIKeys) > 0
}

func loadSpeechConfig() SpeechConfig {
	var keys []string
	for _, name := range []string{"ELEVENLABS_API_KEY_1", "ELEVENLABS_API_KEY_2", "ELEVENLABS_API_KEY_3"} {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			keys = append(keys, key)
		}
	}

	return SpeechConfig{
		APIKeys: keys,
		VoiceID: strings.TrimSpace(os.Getenv("ELEVENLABS_VOICE_ID")),
	}
}

// RecognitionConfig describes the speech-to-text engines.
type RecognitionConfig struct {
	DeepgramAPIKey string
	WhisperURL     string
	Language       string
	ListenTimeout  time.Duration
}

func loadRecognitionConfig() (RecognitionConfig, error) {
	timeoutSeconds := 10
	if override, err := parseOptionalIntEnv("LISTEN_TIMEOUT_SECONDS"); err != nil {
		return RecognitionConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return RecognitionConfig{}, fmt.Errorf("LISTEN_TIMEOUT_SECONDS must be positive")
		}
		timeoutSeconds = *override
	}

	return RecognitionConfig{
		DeepgramAPIKey: strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
		WhisperURL:     strings.TrimSpace(os.Getenv("WHISPER_URL")),
		Language:       getEnvOrDefault("RECOGNITION_LANGUAGE", "en-US"),
		ListenTimeout:  time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// StoreConfig describes persistence and field encryption.
type StoreConfig struct {
	DBPath           string
	EncryptionSecret string
	Salt             string
	KeyIterations    int
}

func loadStoreConfig() (StoreConfig, error) {
	iterations := 100000
	if override, err := parseOptionalIntEnv("KEY_ITERATIONS"); err != nil {
		return StoreConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return StoreConfig{}, fmt.Errorf("KEY_ITERATIONS must be positive")
		}
		iterations = *override
	}

	return StoreConfig{
		DBPath:           getEnvOrDefault("AROHA_DB_PATH", "aroha.db"),
		EncryptionSecret: strings.TrimSpace(os.Getenv("ENCRYPTION_KEY")),
		Salt:             getEnvOrDefault("DB_SALT", "aroha_default_salt"),
		KeyIterations:    iterations,
	}, nil
}

// SessionConfig describes the interactive session defaults.
type SessionConfig struct {
	VoiceMode     bool
	HistoryWindow int
}

func loadSessionConfig() (SessionConfig, error) {
	voiceMode, err := parseBoolEnv("VOICE_MODE", true)
	if err != nil {
		return SessionConfig{}, err
	}

	window := 10
	if override, err := parseOptionalIntEnv("HISTORY_WINDOW"); err != nil {
		return SessionConfig{}, err
	} else if override != nil && *override > 0 {
		window = *override
	}

	return SessionConfig{
		VoiceMode:     voiceMode,
		HistoryWindow: window,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	switch strings.ToLower(raw) {
	case "1", "t", "true", "y", "yes":
		return true, nil
	case "0", "f", "false", "n", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid %s value %q", key, raw)
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
