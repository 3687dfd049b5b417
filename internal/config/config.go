package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Captioner backends
const (
	CaptionerOllama   = "ollama"
	CaptionerGemini   = "gemini"
	CaptionerDisabled = "disabled"
)

type Config struct {
	Host               string
	Port               string
	LogLevel           string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	MaxRequestBodySize int64

	// Analysis
	WorkerPoolSize  int
	TargetImageSize int
	ColorSeed       int64

	// Object detector collaborator
	DetectorURL           string
	DetectorMinConfidence float64
	DetectorTimeout       time.Duration

	// Caption generator collaborator
	CaptionerBackend string
	OllamaURL        string
	OllamaModel      string
	GeminiAPIKey     string
	GeminiModel      string

	// Remote image sources
	AzureStorageAccount string
	AzureStorageKey     string

	// Analysis event stream
	KafkaBrokers []string
	KafkaTopic   string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob storage credentials were provided
func (c *Config) AzureEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB

		WorkerPoolSize:  int(parseIntOrDefault("WORKER_POOL_SIZE", 0)),
		TargetImageSize: int(parseIntOrDefault("TARGET_IMAGE_SIZE", 512)),
		ColorSeed:       parseIntOrDefault("COLOR_SEED", 0),

		DetectorURL:           strings.TrimSpace(os.Getenv("DETECTOR_URL")),
		DetectorMinConfidence: parseFloatOrDefault("DETECTOR_MIN_CONFIDENCE", 0.4),
		DetectorTimeout:       parseDurationOrDefault("DETECTOR_TIMEOUT", 60*time.Second),

		CaptionerBackend: strings.ToLower(getEnvOrDefault("CAPTIONER_BACKEND", CaptionerOllama)),
		OllamaURL:        getEnvOrDefault("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:      getEnvOrDefault("OLLAMA_MODEL", "llava"),
		GeminiAPIKey:     strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:      getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),

		AzureStorageAccount: strings.TrimSpace(os.Getenv("AZURE_STORAGE_ACCOUNT")),
		AzureStorageKey:     strings.TrimSpace(os.Getenv("AZURE_STORAGE_KEY")),

		KafkaBrokers: parseListOrDefault("KAFKA_BROKERS"),
		KafkaTopic:   getEnvOrDefault("KAFKA_TOPIC", "clothing-analysis-events"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field requirements
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.DetectorTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, detector=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.DetectorTimeout)
	}
	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("WORKER_POOL_SIZE must be >= 0 (got %d)", c.WorkerPoolSize)
	}
	if c.TargetImageSize < 1 {
		return fmt.Errorf("TARGET_IMAGE_SIZE must be >= 1 (got %d)", c.TargetImageSize)
	}
	if c.DetectorMinConfidence < 0 || c.DetectorMinConfidence > 1 {
		return fmt.Errorf("DETECTOR_MIN_CONFIDENCE must be within [0,1] (got %g)", c.DetectorMinConfidence)
	}
	switch c.CaptionerBackend {
	case CaptionerOllama, CaptionerDisabled:
	case CaptionerGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for CAPTIONER_BACKEND=gemini")
		}
	default:
		return fmt.Errorf("unsupported CAPTIONER_BACKEND: %q", c.CaptionerBackend)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseListOrDefault(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
