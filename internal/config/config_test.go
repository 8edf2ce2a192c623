package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "ARK_MODEL",
		"ARK_BASE_URL", "ARK_REGION",
		"ELEVENLABS_API_KEY_1", "ELEVENLABS_API_KEY_2", "ELEVENLABS_API_KEY_3",
		"ELEVENLABS_VOICE_ID",
		"DEEPGRAM_API_KEY", "WHISPER_URL", "RECOGNITION_LANGUAGE",
		"LISTEN_TIMEOUT_SECONDS",
		"AROHA_DB_PATH", "ENCRYPTION_KEY", "DB_SALT", "KEY_ITERATIONS",
		"VOICE_MODE", "HISTORY_WINDOW",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AI.Enabled() {
		t.Fatal("generation should be disabled without credentials")
	}
	if cfg.Speech.Enabled() {
		t.Fatal("synthesis should be disabled without keys")
	}
	if cfg.Store.DBPath != "aroha.db" {
		t.Fatalf("db path = %q", cfg.Store.DBPath)
	}
	if cfg.Store.Salt != "aroha_default_salt" || cfg.Store.KeyIterations != 100000 {
		t.Fatalf("store defaults = %+v", cfg.Store)
	}
	if cfg.Recognition.Language != "en-US" || cfg.Recognition.ListenTimeout != 10*time.Second {
		t.Fatalf("recognition defaults = %+v", cfg.Recognition)
	}
	if !cfg.Session.VoiceMode || cfg.Session.HistoryWindow != 10 {
		t.Fatalf("session defaults = %+v", cfg.Session)
	}
}

func TestLoadSpeechKeyPool(t *testing.T) {
	clearEnv(t)
	t.Setenv("ELEVENLABS_API_KEY_1", "alpha")
	t.Setenv("ELEVENLABS_API_KEY_3", "gamma ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.Speech.Enabled() {
		t.Fatal("synthesis should be enabled")
	}
	if len(cfg.Speech.APIKeys) != 2 {
		t.Fatalf("key pool = %v, want the two set keys", cfg.Speech.APIKeys)
	}
	if cfg.Speech.APIKeys[0] != "alpha" || cfg.Speech.APIKeys[1] != "gamma" {
		t.Fatalf("key pool = %v", cfg.Speech.APIKeys)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARK_API_KEY", "ak-test")
	t.Setenv("ARK_MODEL", "model-x")
	t.Setenv("LISTEN_TIMEOUT_SECONDS", "25")
	t.Setenv("VOICE_MODE", "false")
	t.Setenv("HISTORY_WINDOW", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.AI.Enabled() {
		t.Fatal("generation should be enabled with key and model")
	}
	if cfg.Recognition.ListenTimeout != 25*time.Second {
		t.Fatalf("timeout = %v", cfg.Recognition.ListenTimeout)
	}
	if cfg.Session.VoiceMode {
		t.Fatal("voice mode should be off")
	}
	if cfg.Session.HistoryWindow != 4 {
		t.Fatalf("history window = %d", cfg.Session.HistoryWindow)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct{ key, value string }{
		{"LISTEN_TIMEOUT_SECONDS", "zero"},
		{"LISTEN_TIMEOUT_SECONDS", "0"},
		{"KEY_ITERATIONS", "-1"},
		{"VOICE_MODE", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load accepted %s=%q", tt.key, tt.value)
			}
		})
	}
}
