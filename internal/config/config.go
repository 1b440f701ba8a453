package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// LLM provider
	LLMBaseURL  string
	LLMModel    string
	LLMAPIKey   string
	LLMTimeout  time.Duration
	HistorySize int

	// Front-end credentials passed through /config
	AppID        string
	AppSecret    string
	ASRAppID     string
	ASRSecretID  string
	ASRSecretKey string

	// Optional sinks
	DatabaseURL string
	RedisURL    string
	TurnWorkers int

	// Logging
	LogLevel  string
	LogFormat string
}

// PublicConfig is the credential bundle served to the front-end.
type PublicConfig struct {
	AppID        string `json:"appId"`
	AppSecret    string `json:"appSecret"`
	ASRAppID     string `json:"asrAppId"`
	ASRSecretID  string `json:"asrSecretId"`
	ASRSecretKey string `json:"asrSecretKey"`
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:         getEnvOrDefault("PORT", "5000"),
		Env:          getEnvOrDefault("ENV", "development"),
		LLMBaseURL:   getEnvOrDefault("LLM_BASE_URL", "https://api-inference.modelscope.cn/v1"),
		LLMModel:     getEnvOrDefault("LLM_MODEL", "Qwen/Qwen3-235B-A22B-Instruct-2507"),
		LLMAPIKey:    os.Getenv("DASHSCOPE_API_KEY"),
		LLMTimeout:   getEnvAsDurationOrDefault("LLM_TIMEOUT", 0),
		HistorySize:  getEnvAsIntOrDefault("HISTORY_LIMIT", 20),
		AppID:        os.Getenv("APP_ID"),
		AppSecret:    os.Getenv("APP_SECRET"),
		ASRAppID:     os.Getenv("ASR_APP_ID"),
		ASRSecretID:  os.Getenv("ASR_SECRET_ID"),
		ASRSecretKey: os.Getenv("ASR_SECRET_KEY"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		TurnWorkers:  getEnvAsIntOrDefault("TURN_WORKERS", 2),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:    getEnvOrDefault("LOG_FORMAT", "text"),
	}

	return cfg
}

// Public returns the values exposed by GET /config, unmodified.
func (c *Config) Public() PublicConfig {
	return PublicConfig{
		AppID:        c.AppID,
		AppSecret:    c.AppSecret,
		ASRAppID:     c.ASRAppID,
		ASRSecretID:  c.ASRSecretID,
		ASRSecretKey: c.ASRSecretKey,
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvAsDurationOrDefault accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return time.Duration(n) * time.Second
}
