package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// APIToken enables static bearer auth; the API runs open when unset.
	APIToken string `envconfig:"API_TOKEN"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	ChunkWindowTokens  int           `envconfig:"CHUNK_WINDOW_TOKENS" default:"500"`
	ChunkOverlapTokens int           `envconfig:"CHUNK_OVERLAP_TOKENS" default:"50"`
	EmbedMaxRetries    int           `envconfig:"EMBED_MAX_RETRIES" default:"3"`
	EmbedRetryBackoff  time.Duration `envconfig:"EMBED_RETRY_BACKOFF" default:"500ms"`
	EmbedConcurrency   int           `envconfig:"EMBED_CONCURRENCY" default:"4"`

	InsightThreshold   float64       `envconfig:"INSIGHT_THRESHOLD" default:"0.6"`
	RecentMemoryWindow time.Duration `envconfig:"RECENT_MEMORY_WINDOW" default:"720h"`

	JobPollInterval time.Duration `envconfig:"JOB_POLL_INTERVAL" default:"5s"`

	// Optional archive of raw uploads.
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"careerbase-uploads"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("CAREERBASE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
