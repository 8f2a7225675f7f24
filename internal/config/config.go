// Package config provides environment configuration for the bot.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported backends.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	SpeechGoogle  = "google"
	SpeechWhisper = "whisper"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	Env string

	// Telegram settings
	TelegramToken       string
	TelegramAPIEndpoint string
	AllowedUserID       int64
	TypingInterval      time.Duration

	// LLM settings
	LLMProvider     string
	LLMModel        string
	LLMMaxSteps     int
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string

	// Speech settings
	SpeechProvider   string
	SpeechLanguage   string
	SpeechSampleRate int

	// ClickUp settings
	ClickUpAPIKey  string
	ClickUpUserID  int64
	ClickUpListID  string
	ClickUpBaseURL string

	// Date calculation
	Timezone string

	// Ops server settings
	OpsPort         string
	OpsReadTimeout  time.Duration
	OpsWriteTimeout time.Duration
	ShutdownTimeout time.Duration

	// NATS settings
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Outbound proxy
	ProxyAddr string

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool

	// settings that were set but could not be parsed
	malformed []string
}

// LoadEnvFile loads variables from an env file into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() *Config {
	provider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI))

	cfg := &Config{
		Env: getEnv("ENV", "production"),

		// Telegram
		TelegramToken:       getEnv("TELEGRAM_TOKEN", ""),
		TelegramAPIEndpoint: getEnv("TELEGRAM_API_ENDPOINT", ""),
		TypingInterval:      getDurationEnv("TYPING_INTERVAL", 5*time.Second),

		// LLM
		LLMProvider:     provider,
		LLMModel:        getEnv("LLM_MODEL", defaultModel(provider)),
		LLMMaxSteps:     getIntEnv("LLM_MAX_STEPS", 10),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),

		// Speech
		SpeechProvider:   strings.ToLower(getEnv("SPEECH_PROVIDER", SpeechGoogle)),
		SpeechLanguage:   getEnv("SPEECH_LANGUAGE", "en-US"),
		SpeechSampleRate: getIntEnv("SPEECH_SAMPLE_RATE", 48000),

		// ClickUp
		ClickUpAPIKey:  getEnv("CLICKUP_API_KEY", ""),
		ClickUpListID:  getEnv("CLICKUP_LIST_ID", ""),
		ClickUpBaseURL: getEnv("CLICKUP_BASE_URL", "https://api.clickup.com/api/v2"),

		Timezone: getEnv("TIMEZONE", "Local"),

		// Ops server
		OpsPort:         lookupEnv("OPS_PORT", "8080"),
		OpsReadTimeout:  getDurationEnv("OPS_READ_TIMEOUT", 10*time.Second),
		OpsWriteTimeout: getDurationEnv("OPS_WRITE_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		ProxyAddr: getEnv("PROXY_ADDR", ""),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}

	// Identifiers are parsed strictly: a typo in USER_ID must not open the bot.
	cfg.AllowedUserID = cfg.strictInt64("USER_ID")
	cfg.ClickUpUserID = cfg.strictInt64("CLICKUP_USER_ID")

	return cfg
}

// strictInt64 parses key when set and records it as malformed otherwise.
// An unset key yields zero.
func (c *Config) strictInt64(key string) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return 0
	}
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		c.malformed = append(c.malformed, fmt.Sprintf("%s must be an integer, got %q", key, value))
		return 0
	}
	return i
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	problems := append([]string(nil), c.malformed...)

	if c.TelegramToken == "" {
		problems = append(problems, "TELEGRAM_TOKEN is required")
	}
	if c.ClickUpAPIKey == "" {
		problems = append(problems, "CLICKUP_API_KEY is required")
	}
	if c.ClickUpListID == "" {
		problems = append(problems, "CLICKUP_LIST_ID is required")
	}
	if c.ClickUpUserID == 0 && !c.isMalformed("CLICKUP_USER_ID") {
		problems = append(problems, "CLICKUP_USER_ID is required")
	}

	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			problems = append(problems, "OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			problems = append(problems, "ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}

	switch c.SpeechProvider {
	case SpeechGoogle:
	case SpeechWhisper:
		if c.OpenAIAPIKey == "" {
			problems = append(problems, "OPENAI_API_KEY is required for the whisper speech provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown SPEECH_PROVIDER %q", c.SpeechProvider))
	}

	if c.LLMMaxSteps < 0 {
		problems = append(problems, "LLM_MAX_STEPS cannot be negative")
	}
	if c.TypingInterval <= 0 {
		problems = append(problems, "TYPING_INTERVAL must be positive")
	}
	if _, err := c.Location(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) isMalformed(key string) bool {
	for _, m := range c.malformed {
		if strings.HasPrefix(m, key+" ") {
			return true
		}
	}
	return false
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// RestrictedToUser reports whether the bot only serves AllowedUserID.
func (c *Config) RestrictedToUser() bool {
	return c.AllowedUserID != 0
}

func defaultModel(provider string) string {
	if provider == ProviderAnthropic {
		return "claude-3-5-sonnet-20241022"
	}
	return "gpt-4"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// lookupEnv is getEnv for settings where an explicitly empty value means off.
func lookupEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
