package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Agent.HistoryWindow != 20 {
		t.Errorf("expected history window 20, got %d", cfg.Agent.HistoryWindow)
	}
	if cfg.LLM.Provider != ProviderGemini {
		t.Errorf("expected gemini provider, got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.ClassifierModel != cfg.LLM.Model {
		t.Errorf("classifier model should default to LLM_MODEL, got %q", cfg.LLM.ClassifierModel)
	}
	if cfg.JWTSecret == "" {
		t.Error("expected development JWT secret to be filled in")
	}
	if cfg.JobsCacheTTL != 5*time.Minute {
		t.Errorf("expected jobs cache TTL 5m, got %v", cfg.JobsCacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AGENT_HISTORY_WINDOW", "8")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLM.Provider != ProviderOpenAI {
		t.Errorf("expected openai provider, got %q", cfg.LLM.Provider)
	}
	if !cfg.LLM.Configured() || cfg.LLM.APIKey() != "sk-test" {
		t.Errorf("expected openai key to be selected, got %q", cfg.LLM.APIKey())
	}
	if cfg.Agent.HistoryWindow != 8 {
		t.Errorf("expected history window 8, got %d", cfg.Agent.HistoryWindow)
	}
	if cfg.RateLimit.WindowDuration != 30*time.Second {
		t.Errorf("expected 30s window, got %v", cfg.RateLimit.WindowDuration)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.LogLevel)
	}
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT_SECRET is missing in production")
	}
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("LLM_PROVIDER", "cohere")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestLLMConfiguredWithoutKey(t *testing.T) {
	c := LLMConfig{Provider: ProviderGemini}
	if c.Configured() {
		t.Fatal("expected unconfigured LLM without key")
	}
}

func TestWebSocketOriginPatterns(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	cfg := &Config{FrontendURL: "https://app.prepai.dev/"}
	got := cfg.WebSocketOriginPatterns()
	if len(got) != 1 || got[0] != "app.prepai.dev" {
		t.Errorf("expected frontend host, got %v", got)
	}
	if origins := cfg.AllowedOrigins(); len(origins) != 1 || origins[0] != "https://app.prepai.dev" {
		t.Errorf("expected trimmed frontend origin, got %v", origins)
	}

	t.Setenv("APP_ENV", "development")
	if got := cfg.WebSocketOriginPatterns(); len(got) != 1 || got[0] != "*" {
		t.Errorf("expected wildcard in development, got %v", got)
	}
}
