package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendREST  = "rest"
	BackendGenAI = "genai"
)

type Config struct {
	GeminiAPIKey     string
	GeminiBackend    string
	GeminiBaseURL    string
	GeminiAPIVersion string
	GeminiModel      string
	GeminiModelHQ    string

	WebAddr  string
	LogLevel string

	PreferIPv4            bool
	HTTPTimeout           time.Duration
	RequestTimeout        time.Duration
	GenerateRatePerMinute int
	AccessCacheTTL        time.Duration
	KeyringService        string

	TelegramToken  string
	TelegramChatID int64
	TelegramDebug  bool
}

func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

func Load() (Config, error) {
	cfg := Config{
		GeminiBackend:         strings.ToLower(strings.TrimSpace(getEnv("GEMINI_BACKEND", BackendREST))),
		GeminiBaseURL:         strings.TrimSpace(getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")),
		GeminiAPIVersion:      strings.TrimSpace(getEnv("GEMINI_API_VERSION", "v1beta")),
		GeminiModel:           strings.TrimSpace(getEnv("GEMINI_MODEL", "gemini-2.5-flash-image")),
		GeminiModelHQ:         strings.TrimSpace(getEnv("GEMINI_MODEL_HQ", "gemini-3-pro-image-preview")),
		WebAddr:               strings.TrimSpace(getEnv("WEB_ADDR", ":8080")),
		LogLevel:              strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),
		PreferIPv4:            getEnvBool("PREFER_IPV4", true),
		HTTPTimeout:           time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 180)) * time.Second,
		RequestTimeout:        time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 240)) * time.Second,
		GenerateRatePerMinute: getEnvInt("GENERATE_RATE_PER_MINUTE", 10),
		AccessCacheTTL:        time.Duration(getEnvInt("ACCESS_CACHE_SECONDS", 30)) * time.Second,
		KeyringService:        strings.TrimSpace(getEnv("KEYRING_SERVICE", "clipcanvas")),
		TelegramDebug:         getEnvBool("TELEGRAM_DEBUG", false),
	}

	cfg.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	cfg.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))

	if raw := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); raw != "" {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = chatID
	}

	switch {
	case cfg.GeminiAPIKey == "":
		return Config{}, errors.New("GEMINI_API_KEY is required")
	case cfg.GeminiBackend != BackendREST && cfg.GeminiBackend != BackendGenAI:
		return Config{}, fmt.Errorf("GEMINI_BACKEND must be %q or %q", BackendREST, BackendGenAI)
	case (cfg.TelegramToken == "") != (cfg.TelegramChatID == 0):
		return Config{}, errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 240 * time.Second
	}
	if cfg.GenerateRatePerMinute < 1 {
		cfg.GenerateRatePerMinute = 1
	}
	if cfg.AccessCacheTTL < 0 {
		cfg.AccessCacheTTL = 0
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
