package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	LogLevel    string

	JWTSecret       string
	JWTAccessExpiry time.Duration

	// RedisURL is optional; without it row locks are held in process.
	RedisURL   string
	RowLockTTL time.Duration

	RoleQualifiersFile string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	accessExpiry, err := time.ParseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	lockTTL, err := time.ParseDuration(getEnv("ROW_LOCK_TTL", "30s"))
	if err != nil {
		lockTTL = 30 * time.Second
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		JWTSecret:       getEnvOrPanic("JWT_SECRET"),
		JWTAccessExpiry: accessExpiry,

		RedisURL:   getEnv("REDIS_URL", ""),
		RowLockTTL: lockTTL,

		RoleQualifiersFile: getEnv("ROLE_QUALIFIERS_FILE", ""),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

type qualifierFile struct {
	Qualifiers []string `yaml:"qualifiers"`
}

// LoadQualifiers reads the seniority vocabulary used for sub-role
// suggestions. An empty path yields nil, which selects the built-in list.
func LoadQualifiers(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read qualifiers file: %w", err)
	}

	var f qualifierFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse qualifiers file: %w", err)
	}
	if len(f.Qualifiers) == 0 {
		return nil, fmt.Errorf("qualifiers file %s lists no qualifiers", path)
	}
	return f.Qualifiers, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}
