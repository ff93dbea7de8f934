package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"mysns"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"require"`

	ServerPort      string        `env:"SERVER_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Identity tokens are issued by the external provider and verified with a shared secret.
	AuthJWTSecret string `env:"AUTH_JWT_SECRET"`
	AuthIssuer    string `env:"AUTH_ISSUER"`

	RedisURL         string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	IdentityCacheTTL time.Duration `env:"IDENTITY_CACHE_TTL" envDefault:"24h"`

	R2AccountID       string `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `env:"R2_BUCKET_NAME"`
	R2PublicURL       string `env:"R2_PUBLIC_URL"`

	DefaultAvatarKey string `env:"DEFAULT_AVATAR_KEY"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	// Writes per second allowed for one authenticated user, with burst.
	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND" envDefault:"10"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`

	WorkerCount        int           `env:"WORKER_COUNT" envDefault:"2"`
	WorkerBatchSize    int64         `env:"WORKER_BATCH_SIZE" envDefault:"10"`
	WorkerBlockTimeout time.Duration `env:"WORKER_BLOCK_TIMEOUT" envDefault:"5s"`
	// Runs the media cleanup consumers inside the serve process.
	EmbeddedWorker bool `env:"EMBEDDED_WORKER" envDefault:"true"`
}

// LoadDotEnv loads a .env file from the working directory into the process
// environment. A missing file is not fatal; the caller logs the error once its
// logger is configured.
func LoadDotEnv(filenames ...string) error {
	return godotenv.Load(filenames...)
}

// LoadConfig parses the process environment. Call LoadDotEnv first to pick up
// a .env file.
func LoadConfig() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return &cfg, nil
}

// DSN builds the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// MediaConfigured reports whether every R2 setting needed by the media store is present.
func (c *Config) MediaConfigured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicURL != ""
}
