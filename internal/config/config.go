package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Host     string `mapstructure:"DB_HOST"`
	User     string `mapstructure:"DB_USER"`
	Password string `mapstructure:"DB_PASSWORD"`
	Name     string `mapstructure:"DB_NAME"`
	DBPort   string `mapstructure:"DB_PORT"`
	SSLMode  string `mapstructure:"DB_SSLMODE"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	S3Endpoint     string `mapstructure:"S3_ENDPOINT"`
	S3Region       string `mapstructure:"S3_REGION"`
	S3AccessKey    string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey    string `mapstructure:"S3_SECRET_KEY"`
	Bucket         string `mapstructure:"S3_BUCKET"`
	PublicEndpoint string `mapstructure:"PUBLIC_ENDPOINT"`
	ProjectID      string `mapstructure:"PROJECT_ID"`

	JWTKey        string        `mapstructure:"JWT_KEY"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`
	CodeTTL       time.Duration `mapstructure:"CODE_TTL"`
	CodeAttempts  int           `mapstructure:"CODE_MAX_ATTEMPTS"`
	MailFrom      string        `mapstructure:"MAIL_FROM"`
	SecureCookies bool          `mapstructure:"SECURE_COOKIES"`

	StorageCapacity int64         `mapstructure:"STORAGE_CAPACITY"`
	MaxUploadSize   int64         `mapstructure:"MAX_UPLOAD_SIZE"`
	UsageCacheTTL   time.Duration `mapstructure:"USAGE_CACHE_TTL"`
	ViewURLExpiry   time.Duration `mapstructure:"VIEW_URL_EXPIRY"`
	DefaultAvatar   string        `mapstructure:"DEFAULT_AVATAR_URL"`

	SearchDebounce    time.Duration `mapstructure:"SEARCH_DEBOUNCE"`
	SearchConnections int           `mapstructure:"SEARCH_MAX_CONNECTIONS"`
	AllowedOrigins    []string      `mapstructure:"ALLOWED_ORIGINS"`

	Environment string `mapstructure:"ENVIRONMENT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	ServerPort  string `mapstructure:"SERVER_PORT"`
}

var defaults = map[string]any{
	"DB_HOST":                "",
	"DB_USER":                "",
	"DB_PASSWORD":            "",
	"DB_NAME":                "",
	"DB_PORT":                "5432",
	"DB_SSLMODE":             "disable",
	"REDIS_ADDR":             "localhost:6379",
	"REDIS_PASSWORD":         "",
	"REDIS_DB":               0,
	"S3_ENDPOINT":            "",
	"S3_REGION":              "us-east-1",
	"S3_ACCESS_KEY":          "",
	"S3_SECRET_KEY":          "",
	"S3_BUCKET":              "",
	"PUBLIC_ENDPOINT":        "",
	"PROJECT_ID":             "filestash",
	"JWT_KEY":                "",
	"SESSION_TTL":            "720h",
	"CODE_TTL":               "10m",
	"CODE_MAX_ATTEMPTS":      5,
	"MAIL_FROM":              "noreply@filestash.local",
	"SECURE_COOKIES":         true,
	"STORAGE_CAPACITY":       int64(2 * 1024 * 1024 * 1024),
	"MAX_UPLOAD_SIZE":        int64(50 * 1024 * 1024),
	"USAGE_CACHE_TTL":        "5m",
	"VIEW_URL_EXPIRY":        "15m",
	"DEFAULT_AVATAR_URL":     "/assets/images/avatar.png",
	"SEARCH_DEBOUNCE":        "300ms",
	"SEARCH_MAX_CONNECTIONS": 5,
	"ALLOWED_ORIGINS":        "http://localhost:3000",
	"ENVIRONMENT":            "production",
	"LOG_LEVEL":              "info",
	"SERVER_PORT":            "8080",
}

// Load reads the configuration from the environment. A .env file in the
// working directory, when present, fills in variables that are not set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.AllowedOrigins = splitList(cfg.AllowedOrigins)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitList accepts both a list and a single comma separated value.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) validate() error {
	required := []struct {
		key, value string
	}{
		{"DB_HOST", c.Host},
		{"DB_USER", c.User},
		{"DB_PASSWORD", c.Password},
		{"DB_NAME", c.Name},
		{"DB_PORT", c.DBPort},
		{"S3_BUCKET", c.Bucket},
		{"PUBLIC_ENDPOINT", c.PublicEndpoint},
		{"JWT_KEY", c.JWTKey},
		{"SERVER_PORT", c.ServerPort},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.key)
		}
	}

	if c.StorageCapacity <= 0 {
		return fmt.Errorf("STORAGE_CAPACITY must be positive")
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}
	return nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.DBPort, c.SSLMode)
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
