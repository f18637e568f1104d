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

const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderDisabled = "disabled"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	AI        AIConfig
	Image     ImageConfig
	Storage   StorageConfig
	Worker    WorkerConfig
	Redis     RedisConfig
	Qdrant    QdrantConfig
	Logging   LoggingConfig
	Valuation ValuationConfig

	// EnvFileLoaded is false when no .env file was found.
	EnvFileLoaded bool
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

type AIConfig struct {
	Provider     string
	Fallback     string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string
	Timeout      time.Duration
	MaxRetries   int
	Temperature  float32
	MaxTokens    int32
}

type ImageConfig struct {
	MaxSide  int
	Quality  int
	MaxPosts int
	Workers  int
}

type StorageConfig struct {
	UploadPath  string
	MaxFileSize int64
}

type WorkerConfig struct {
	Concurrency  int
	QueueSize    int
	PollInterval time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Limit      int
}

type LoggingConfig struct {
	Level string
	File  string
}

type ValuationConfig struct {
	ConfigPath     string
	ReviewMaxRunes int
}

func Load() *Config {
	loaded := godotenv.Load() == nil

	return &Config{
		EnvFileLoaded: loaded,
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", "postgres"),
			DBName:     getEnv("DB_NAME", "ig_value_estimator"),
			SQLitePath: getEnv("SQLITE_PATH", "./data/ig-value.sqlite3"),
		},
		AI: AIConfig{
			Provider:     strings.ToLower(getEnv("AI_PROVIDER", ProviderGemini)),
			Fallback:     strings.ToLower(getEnv("AI_FALLBACK_PROVIDER", "")),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o"),
			Timeout:      getEnvAsDuration("AI_TIMEOUT", "90s"),
			MaxRetries:   getEnvAsInt("AI_MAX_RETRIES", 1),
			Temperature:  float32(getEnvAsFloat("AI_TEMPERATURE", 0.7)),
			MaxTokens:    int32(getEnvAsInt("AI_MAX_TOKENS", 4096)),
		},
		Image: ImageConfig{
			MaxSide:  getEnvAsInt("IMAGE_MAX_SIDE", 1280),
			Quality:  getEnvAsInt("IMAGE_JPEG_QUALITY", 72),
			MaxPosts: getEnvAsInt("IMAGE_MAX_POSTS", 6),
			Workers:  getEnvAsInt("IMAGE_WORKERS", 3),
		},
		Storage: StorageConfig{
			UploadPath:  getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
		},
		Worker: WorkerConfig{
			Concurrency:  getEnvAsInt("WORKER_CONCURRENCY", 3),
			QueueSize:    getEnvAsInt("WORKER_QUEUE_SIZE", 100),
			PollInterval: getEnvAsDuration("WORKER_POLL_INTERVAL", "10s"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("REDIS_LAST_AI_TTL", "24h"),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", ""),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "ig_pricing_references"),
			Limit:      getEnvAsInt("QDRANT_LIMIT", 3),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
		Valuation: ValuationConfig{
			ConfigPath:     getEnv("VALUATION_CONFIG", ""),
			ReviewMaxRunes: getEnvAsInt("REVIEW_MAX_RUNES", 60),
		},
	}
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}

	if err := c.checkProvider("AI_PROVIDER", c.AI.Provider); err != nil {
		errs = append(errs, err)
	}
	if c.AI.Fallback != "" {
		if c.AI.Fallback == c.AI.Provider {
			errs = append(errs, errors.New("AI_FALLBACK_PROVIDER must differ from AI_PROVIDER"))
		} else if err := c.checkProvider("AI_FALLBACK_PROVIDER", c.AI.Fallback); err != nil {
			errs = append(errs, err)
		}
	}

	if c.AI.Timeout <= 0 {
		errs = append(errs, errors.New("AI_TIMEOUT must be positive"))
	}
	if c.AI.MaxRetries < 0 {
		errs = append(errs, errors.New("AI_MAX_RETRIES must not be negative"))
	}
	if c.Image.Quality < 1 || c.Image.Quality > 100 {
		errs = append(errs, fmt.Errorf("IMAGE_JPEG_QUALITY %d out of range 1-100", c.Image.Quality))
	}
	if c.Worker.Concurrency < 1 {
		errs = append(errs, errors.New("WORKER_CONCURRENCY must be at least 1"))
	}

	return errors.Join(errs...)
}

func (c *Config) checkProvider(name, provider string) error {
	switch provider {
	case ProviderGemini:
		if c.AI.GeminiAPIKey == "" {
			return fmt.Errorf("%s=gemini requires GEMINI_API_KEY", name)
		}
	case ProviderOpenAI:
		if c.AI.OpenAIAPIKey == "" {
			return fmt.Errorf("%s=openai requires OPENAI_API_KEY", name)
		}
	case ProviderDisabled:
	default:
		return fmt.Errorf("unsupported %s %q", name, provider)
	}
	return nil
}

func (c *Config) GetDatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func (c *Config) RedisAddr() string {
	return c.Redis.Host + ":" + c.Redis.Port
}

// Summary is the redacted view served by /debug/config.
func (c *Config) Summary() map[string]any {
	return map[string]any{
		"env":                c.Server.Env,
		"db_driver":          c.Database.Driver,
		"ai_provider":        c.AI.Provider,
		"ai_fallback":        c.AI.Fallback,
		"gemini_model":       c.AI.GeminiModel,
		"openai_model":       c.AI.OpenAIModel,
		"gemini_key_set":     c.AI.GeminiAPIKey != "",
		"openai_key_set":     c.AI.OpenAIAPIKey != "",
		"ai_timeout":         c.AI.Timeout.String(),
		"ai_max_retries":     c.AI.MaxRetries,
		"image_max_side":     c.Image.MaxSide,
		"image_jpeg_quality": c.Image.Quality,
		"image_max_posts":    c.Image.MaxPosts,
		"worker_concurrency": c.Worker.Concurrency,
		"redis_enabled":      c.Redis.Host != "",
		"qdrant_enabled":     c.Qdrant.URL != "",
		"valuation_config":   c.Valuation.ConfigPath,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
