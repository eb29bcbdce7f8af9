package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultJWTSecret is the JWT_SECRET used when none is configured. It is only
// fit for local development.
const DefaultJWTSecret = "secret"

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Port    string `env:"PORT" env-default:"5001"`
	LogMode string `env:"LOG_MODE" env-default:"development"`

	StorageDriver  string `env:"STORAGE_DRIVER" env-default:"sqlite"`
	Database       string `env:"DATABASE_PATH" env-default:"./data/kuma.db"`
	MongoURI       string `env:"MONGODB_URI" env-default:"mongodb://localhost:27017"`
	MongoDatabase  string `env:"MONGODB_DATABASE" env-default:"edu_platform"`
	UploadDir      string `env:"UPLOAD_DIR" env-default:"./data/uploads"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" env-default:"10485760"`

	JWTSecret string        `env:"JWT_SECRET" env-default:"secret"`
	JWTTTL    time.Duration `env:"JWT_TTL" env-default:"168h"`

	LLMProvider    string        `env:"LLM_PROVIDER" env-default:"gemini"`
	LLMTimeout     time.Duration `env:"LLM_TIMEOUT" env-default:"60s"`
	GeminiKey      string        `env:"GEMINI_API_KEY"`
	GeminiModel    string        `env:"GEMINI_MODEL" env-default:"gemini-2.0-flash"`
	OpenAIKey      string        `env:"OPENAI_API_KEY"`
	OpenAIEndpoint string        `env:"OPENAI_API_ENDPOINT" env-default:"https://api.openai.com/v1"`
	OpenAIModel    string        `env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
	AnthropicKey   string        `env:"ANTHROPIC_API_KEY"`
	AnthropicModel string        `env:"ANTHROPIC_MODEL" env-default:"claude-haiku"`
}

// Load reads configuration from the environment, providing sensible defaults.
func Load() (*Config, error) {
	// Load .env file if it exists (useful for development)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.ensureDirs(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// InsecureJWTSecret reports whether tokens are signed with the built-in secret.
func (c *Config) InsecureJWTSecret() bool {
	return c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret
}

func (c *Config) ensureDirs() error {
	if err := os.MkdirAll(c.UploadDir, 0o755); err != nil {
		return fmt.Errorf("ensure upload dir %s: %w", c.UploadDir, err)
	}
	if c.StorageDriver == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(c.Database), 0o755); err != nil {
			return fmt.Errorf("ensure database dir %s: %w", c.Database, err)
		}
	}
	return nil
}
