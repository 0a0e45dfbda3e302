package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database       DatabaseConfig
	JWT            JWTConfig
	App            AppConfig
	OAuth2GitHub   OAuth2ProviderConfig
	OAuth2LinkedIn OAuth2ProviderConfig
	AI             AIConfig
	Enrichment     EnrichmentConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	SMTP           SMTPConfig
	Policy         PolicyConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	FrontendURL string
}

type OAuth2ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// Enabled reports whether the provider has client credentials configured.
func (c OAuth2ProviderConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type AIConfig struct {
	Endpoint string
	APIKey   string
	Model    string
}

// EnrichmentConfig bounds the enrichment pipeline.
type EnrichmentConfig struct {
	Timeout       time.Duration
	LockTTL       time.Duration
	SweepInterval time.Duration
	CollectRate   float64
	CollectBurst  int
}

// RedisConfig is optional; an empty Addr selects the in-process locker.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type PolicyConfig struct {
	CacheSize int
	CacheTTL  time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, using process environment")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs-talent"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// OAuth2 provider configuration
	config.OAuth2GitHub = OAuth2ProviderConfig{
		ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		RedirectURL:  getEnv("GITHUB_REDIRECT_URL", ""),
		Scopes:       getEnvSlice("GITHUB_SCOPES", "read:user,user:email"),
	}
	config.OAuth2LinkedIn = OAuth2ProviderConfig{
		ClientID:     getEnv("LINKEDIN_CLIENT_ID", ""),
		ClientSecret: getEnv("LINKEDIN_CLIENT_SECRET", ""),
		RedirectURL:  getEnv("LINKEDIN_REDIRECT_URL", ""),
		Scopes:       getEnvSlice("LINKEDIN_SCOPES", "openid,profile,email"),
	}

	config.AI = AIConfig{
		Endpoint: getEnv("AI_ENDPOINT", ""),
		APIKey:   getEnv("AI_API_KEY", ""),
		Model:    getEnv("AI_MODEL", "default"),
	}

	// Enrichment configuration
	timeout, err := getEnvDuration("ENRICHMENT_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}
	lockTTL, err := getEnvDuration("ENRICHMENT_LOCK_TTL", "2m")
	if err != nil {
		return nil, err
	}
	sweep, err := getEnvDuration("ENRICHMENT_SWEEP_INTERVAL", "1m")
	if err != nil {
		return nil, err
	}
	collectRate, err := strconv.ParseFloat(getEnv("ENRICHMENT_COLLECT_RATE", "0.2"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ENRICHMENT_COLLECT_RATE: %w", err)
	}
	collectBurst, err := strconv.Atoi(getEnv("ENRICHMENT_COLLECT_BURST", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENRICHMENT_COLLECT_BURST: %w", err)
	}
	config.Enrichment = EnrichmentConfig{
		Timeout:       timeout,
		LockTTL:       lockTTL,
		SweepInterval: sweep,
		CollectRate:   collectRate,
		CollectBurst:  collectBurst,
	}

	// Redis configuration
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}

	config.Kafka = KafkaConfig{
		Brokers: getEnvSlice("KAFKA_BROKERS", ""),
		Topic:   getEnv("KAFKA_TOPIC", "talent.events"),
	}

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	config.SMTP = SMTPConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     smtpPort,
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "no-reply@cmlabs.co"),
		FromName: getEnv("SMTP_FROM_NAME", "CMLABS Talent"),
	}

	cacheSize, err := strconv.Atoi(getEnv("POLICY_CACHE_SIZE", "1024"))
	if err != nil {
		return nil, fmt.Errorf("invalid POLICY_CACHE_SIZE: %w", err)
	}
	cacheTTL, err := getEnvDuration("POLICY_CACHE_TTL", "1m")
	if err != nil {
		return nil, err
	}
	config.Policy = PolicyConfig{
		CacheSize: cacheSize,
		CacheTTL:  cacheTTL,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.OAuth2GitHub.Enabled() && c.OAuth2GitHub.RedirectURL == "" {
		return fmt.Errorf("GITHUB_REDIRECT_URL is required when GitHub OAuth is enabled")
	}
	if c.OAuth2LinkedIn.Enabled() && c.OAuth2LinkedIn.RedirectURL == "" {
		return fmt.Errorf("LINKEDIN_REDIRECT_URL is required when LinkedIn OAuth is enabled")
	}
	if c.AI.Endpoint == "" {
		return fmt.Errorf("AI_ENDPOINT is required")
	}
	if c.Enrichment.LockTTL <= c.Enrichment.Timeout {
		return fmt.Errorf("ENRICHMENT_LOCK_TTL must be greater than ENRICHMENT_TIMEOUT")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env, fallback string) []string {
	value := getEnv(env, fallback)
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func getEnvDuration(env, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(env, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", env, err)
	}
	return d, nil
}
