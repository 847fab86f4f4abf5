package config

import (
	"testing"
	"time"
)

func TestSanitizeKey(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  AIzaKey  ", "AIzaKey"},
		{`"AIzaKey"`, "AIzaKey"},
		{"'AIzaKey'", "AIzaKey"},
		{`"AIzaKey'`, `"AIzaKey'`},
		{"your_gemini_api_key_here", ""},
		{" 'your_gemini_api_key_here'", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeKey(tc.in); got != tc.want {
			t.Fatalf("SanitizeKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ANALYSIS_PROVIDER", "")
	t.Setenv("ANALYSIS_MODEL", "")
	t.Setenv("CAPTURE_THRESHOLD", "")
	t.Setenv("INTERSTITIAL_SECONDS", "")
	t.Setenv("STORAGE_KEY", "")

	cfg := Load()
	if cfg.Provider != ProviderGemini {
		t.Fatalf("unexpected provider: %s", cfg.Provider)
	}
	if cfg.AnalysisModel != "gemini-3-flash-preview" {
		t.Fatalf("unexpected model: %s", cfg.AnalysisModel)
	}
	if cfg.CaptureThreshold != 60 {
		t.Fatalf("unexpected threshold: %v", cfg.CaptureThreshold)
	}
	if cfg.Interstitial != 10*time.Second {
		t.Fatalf("unexpected interstitial: %v", cfg.Interstitial)
	}
	if cfg.StorageKey != "sachi_baat_personality_v15" {
		t.Fatalf("unexpected storage key: %s", cfg.StorageKey)
	}
	if cfg.Ads.Slots["INTERSTITIAL"] == "" {
		t.Fatalf("expected interstitial ad slot default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ANALYSIS_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", " 'sk-test' ")
	t.Setenv("CAPTURE_THRESHOLD", "70")
	t.Setenv("ANALYSIS_TIMEOUT", "30s")
	t.Setenv("CUSTOM_ADS_ENABLED", "true")

	cfg := Load()
	if cfg.Provider != ProviderOpenAI {
		t.Fatalf("unexpected provider: %s", cfg.Provider)
	}
	if cfg.OpenAIAPIKey != "sk-test" {
		t.Fatalf("expected sanitized key, got %q", cfg.OpenAIAPIKey)
	}
	if cfg.CaptureThreshold != 70 {
		t.Fatalf("unexpected threshold: %v", cfg.CaptureThreshold)
	}
	if cfg.AnalysisTimeout != 30*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.AnalysisTimeout)
	}
	if !cfg.Ads.CustomAds {
		t.Fatalf("expected custom ads enabled")
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{Provider: ProviderGemini, CaptureThreshold: 60}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing key error")
	}
	cfg.GoogleAPIKey = "AIzaKey"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	cfg.CaptureThreshold = 100
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected threshold error")
	}
	cfg = Config{Provider: "carrier-pigeon", CaptureThreshold: 60}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown provider error")
	}
}

func TestValidateSettingsIgnoresCredentials(t *testing.T) {
	cfg := Config{Provider: ProviderGemini, CaptureThreshold: 60}
	if err := cfg.ValidateSettings(); err != nil {
		t.Fatalf("expected no error without a key, got %v", err)
	}
	for _, threshold := range []float64{0, 100, 150, -5} {
		cfg.CaptureThreshold = threshold
		if err := cfg.ValidateSettings(); err == nil {
			t.Fatalf("expected threshold %v to be rejected", threshold)
		}
	}
	cfg = Config{Provider: ProviderOpenAI, CaptureThreshold: 60, AnalysisTimeout: -time.Second}
	if err := cfg.ValidateSettings(); err == nil {
		t.Fatalf("expected negative timeout error")
	}
}
