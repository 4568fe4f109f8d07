package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the batch grader. All pipeline
// tunables live here and are passed down explicitly; nothing reads ambient state.
type Config struct {
	AppName string
	AppEnv  string
	AppPort string

	// DatabaseURL is the postgres DSN; when empty SQLitePath is used instead.
	DatabaseURL string
	SQLitePath  string
	RedisURL    string
	NATSURL     string
	NATSSubject string

	OpenAIAPIKey        string
	AssessorModel       string
	AssessorMaxTokens   int
	AssessorTemperature float32

	// ContextWindow and InputFraction together define the submission token budget.
	ContextWindow int
	InputFraction float64

	MaxConcurrency   int
	TaskTimeout      time.Duration
	TransportRetries int

	AssessmentCacheTTL time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Batch Grader")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("sqlite.path", "grader.db")
	v.SetDefault("nats.subject", "grader.progress")
	v.SetDefault("assessor.model", "gpt-4o-mini")
	v.SetDefault("assessor.max_tokens", 2048)
	v.SetDefault("assessor.temperature", 0.0)
	v.SetDefault("context_window", 128000)
	v.SetDefault("input_fraction", 0.65)
	v.SetDefault("max_concurrency", 5)
	v.SetDefault("task_timeout", "2m")
	v.SetDefault("transport_retries", 1)
	v.SetDefault("assessment_cache_ttl", "24h")

	taskTimeout, err := time.ParseDuration(v.GetString("task_timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid task timeout: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("assessment_cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid assessment cache ttl: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		DatabaseURL:         v.GetString("database.url"),
		SQLitePath:          v.GetString("sqlite.path"),
		RedisURL:            v.GetString("redis.url"),
		NATSURL:             v.GetString("nats.url"),
		NATSSubject:         v.GetString("nats.subject"),
		OpenAIAPIKey:        v.GetString("openai_api_key"),
		AssessorModel:       v.GetString("assessor.model"),
		AssessorMaxTokens:   v.GetInt("assessor.max_tokens"),
		AssessorTemperature: float32(v.GetFloat64("assessor.temperature")),
		ContextWindow:       v.GetInt("context_window"),
		InputFraction:       v.GetFloat64("input_fraction"),
		MaxConcurrency:      v.GetInt("max_concurrency"),
		TaskTimeout:         taskTimeout,
		TransportRetries:    v.GetInt("transport_retries"),
		AssessmentCacheTTL:  cacheTTL,
	}

	if cfg.ContextWindow <= 0 {
		return Config{}, fmt.Errorf("context window must be positive")
	}

	if cfg.InputFraction <= 0 || cfg.InputFraction >= 1 {
		return Config{}, fmt.Errorf("input fraction must be between 0 and 1")
	}

	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 5
	}

	if cfg.TransportRetries < 0 {
		cfg.TransportRetries = 0
	}

	return cfg, nil
}
