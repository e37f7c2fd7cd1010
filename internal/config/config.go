package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// Registry database. The chunk store runs on its own connection so
	// the two stores fail independently; when VECTOR_DATABASE_URL is
	// unset both live in the same instance.
	DatabaseURL       string `envconfig:"DATABASE_URL" required:"true"`
	VectorDatabaseURL string `envconfig:"VECTOR_DATABASE_URL"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"docvault-originals"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// Structure-aware parser for PDF and office formats. Without it,
	// only plain-text uploads are accepted.
	ParserURL string `envconfig:"PARSER_URL"`

	SentryDSN string `envconfig:"SENTRY_DSN"`

	ReindexPollIntervalSeconds int `envconfig:"REINDEX_POLL_INTERVAL_SECONDS" default:"10"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("DOCVAULT", &cfg); err != nil {
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

// VectorURL returns the chunk store DSN, falling back to the registry's.
func (c *Config) VectorURL() string {
	if c.VectorDatabaseURL != "" {
		return c.VectorDatabaseURL
	}
	return c.DatabaseURL
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasParser() bool {
	return c.ParserURL != ""
}
