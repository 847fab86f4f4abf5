// Package config loads configuration from environment variables.
//
// Values are resolved once at startup. Precedence, highest first: explicit CLI
// flags (applied by the caller), the process environment, a .env file in the
// working directory, then the defaults below.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderProxy  = "proxy"
)

// placeholderKey is the value shipped in sample env files.
const placeholderKey = "your_gemini_api_key_here"

// Config holds runtime settings.
type Config struct {
	Provider         string
	GoogleAPIKey     string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	AnalysisModel    string
	AnalyzeEndpoint  string
	AnalysisTimeout  time.Duration
	DatabaseURL      string
	StorageKey       string
	HTTPAddr         string
	LogLevel         string
	StaticDir        string
	CaptureThreshold float64
	Interstitial     time.Duration
	Ads              AdConfig
}

// AdConfig is the immutable ad placement configuration handed to the UI layer.
type AdConfig struct {
	ClientID    string            `json:"clientId"`
	Slots       map[string]string `json:"slots"`
	CustomAds   bool              `json:"customAdsEnabled"`
	ImageURL    string            `json:"imageUrl,omitempty"`
	RedirectURL string            `json:"redirectUrl,omitempty"`
}

// Load reads env vars and applies defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err.Error())
	}

	cfg := Config{
		Provider:        strings.ToLower(strings.TrimSpace(os.Getenv("ANALYSIS_PROVIDER"))),
		GoogleAPIKey:    SanitizeKey(os.Getenv("GOOGLE_API_KEY")),
		OpenAIAPIKey:    SanitizeKey(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		AnalysisModel:   os.Getenv("ANALYSIS_MODEL"),
		AnalyzeEndpoint: os.Getenv("ANALYZE_ENDPOINT"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		StorageKey:      os.Getenv("STORAGE_KEY"),
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		StaticDir:       os.Getenv("STATIC_DIR"),
	}

	cfg.CaptureThreshold = getEnvFloat("CAPTURE_THRESHOLD", 60)
	cfg.Interstitial = time.Duration(getEnvInt("INTERSTITIAL_SECONDS", 10)) * time.Second
	cfg.AnalysisTimeout = getEnvDuration("ANALYSIS_TIMEOUT", 0)

	if cfg.Provider == "" {
		cfg.Provider = ProviderGemini
	}
	if cfg.AnalysisModel == "" {
		cfg.AnalysisModel = "gemini-3-flash-preview"
	}
	if cfg.AnalyzeEndpoint == "" {
		cfg.AnalyzeEndpoint = "http://localhost:8080/api/analyze"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "./data/truthlab.db"
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = "sachi_baat_personality_v15"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Ads = AdConfig{
		ClientID: getEnvString("AD_CLIENT_ID", "ca-pub-placeholder"),
		Slots: map[string]string{
			"HEADER":       getEnvString("AD_SLOT_HEADER", "1234567890"),
			"MIDDLE":       getEnvString("AD_SLOT_MIDDLE", "2345678901"),
			"SIDE_LEFT":    getEnvString("AD_SLOT_SIDE_LEFT", "3456789012"),
			"SIDE_RIGHT":   getEnvString("AD_SLOT_SIDE_RIGHT", "4567890123"),
			"BOTTOM":       getEnvString("AD_SLOT_BOTTOM", "5678901234"),
			"INTERSTITIAL": getEnvString("AD_SLOT_INTERSTITIAL", "6789012345"),
		},
		CustomAds:   getEnvBool("CUSTOM_ADS_ENABLED", false),
		ImageURL:    os.Getenv("CUSTOM_ADS_IMAGE_URL"),
		RedirectURL: os.Getenv("CUSTOM_ADS_REDIRECT_URL"),
	}

	return cfg
}

// Validate checks settings that cannot be defaulted. Credential problems are
// reported here for operators; sessions surface them through the analysis errors.
func (c Config) Validate() error {
	var errs []error
	switch c.Provider {
	case ProviderGemini:
		if c.GoogleAPIKey == "" {
			errs = append(errs, fmt.Errorf("GOOGLE_API_KEY environment variable is required for the gemini provider"))
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, fmt.Errorf("OPENAI_API_KEY environment variable is required for the openai provider"))
		}
	case ProviderProxy:
		if c.AnalyzeEndpoint == "" {
			errs = append(errs, fmt.Errorf("ANALYZE_ENDPOINT is required for the proxy provider"))
		}
	}
	errs = append(errs, c.ValidateSettings())
	return errors.Join(errs...)
}

// ValidateSettings checks everything except credentials. Commands run it at
// startup so a bad value fails fast instead of stalling a scan.
func (c Config) ValidateSettings() error {
	var errs []error
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderProxy:
	default:
		errs = append(errs, fmt.Errorf("unknown ANALYSIS_PROVIDER %q", c.Provider))
	}
	if c.CaptureThreshold <= 0 || c.CaptureThreshold >= 100 {
		errs = append(errs, fmt.Errorf("CAPTURE_THRESHOLD must be between 0 and 100 (exclusive), got %v", c.CaptureThreshold))
	}
	if c.Interstitial < 0 {
		errs = append(errs, fmt.Errorf("INTERSTITIAL_SECONDS cannot be negative"))
	}
	if c.AnalysisTimeout < 0 {
		errs = append(errs, fmt.Errorf("ANALYSIS_TIMEOUT cannot be negative"))
	}
	return errors.Join(errs...)
}

// SlogLevel maps LogLevel to a slog.Level.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SanitizeKey strips whitespace and one layer of quotes pasted around a key.
// The sample placeholder counts as no key at all.
func SanitizeKey(raw string) string {
	key := strings.TrimSpace(raw)
	if len(key) >= 2 {
		first, last := key[0], key[len(key)-1]
		if (first == '"' || first == '\'') && first == last {
			key = strings.TrimSpace(key[1 : len(key)-1])
		}
	}
	if key == placeholderKey {
		return ""
	}
	return key
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}
