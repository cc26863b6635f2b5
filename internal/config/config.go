package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

// Telegram accepts 1-256 characters from this set as a webhook secret.
var webhookSecretPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,256}$`)

type Config struct {
	Development bool
	// API configuration
	APIPort int

	// Telegram configuration
	TelegramBotToken      string
	TelegramWebhookURL    string
	TelegramWebhookSecret string

	// Data provider configuration
	EtherscanAPIKey    string
	EtherscanAPIURL    string
	EtherscanChainID   int
	EtherscanRateLimit float64
	ExplorerURL        string
	EthereumRPCURL     string

	// Postgres configuration
	DatabaseURL      string
	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     int
	PostgresDB       string

	// Monitor configuration
	PollInterval       time.Duration
	MonitorConcurrency int

	// Conversation state
	RedisURL  string
	IntentTTL time.Duration

	// Activity stream
	KafkaBrokers []string
	KafkaTopic   string

	// values that were set but could not be parsed
	parseErrs error
}

// Load reads the environment without validating, so CLI flags can fill in
// values before Validate runs. Unparsable values fall back to their default
// and are reported by Validate.
func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	env := &envReader{}
	cfg := &Config{
		Development: env.getEnvAsBool("DEVELOPMENT", false),
		APIPort:     env.getEnvAsInt("API_PORT", 3000),

		TelegramBotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramWebhookURL:    getEnv("TELEGRAM_WEBHOOK_URL", ""),
		TelegramWebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),

		EtherscanAPIKey:    getEnv("ETHERSCAN_API_KEY", ""),
		EtherscanAPIURL:    getEnv("ETHERSCAN_API_URL", "https://api.etherscan.io/v2/api"),
		EtherscanChainID:   env.getEnvAsInt("ETHERSCAN_CHAIN_ID", 1),
		EtherscanRateLimit: env.getEnvAsFloat("ETHERSCAN_RATE_LIMIT", 5),
		ExplorerURL:        strings.TrimRight(getEnv("EXPLORER_URL", "https://etherscan.io"), "/"),
		EthereumRPCURL:     getEnv("ETHEREUM_RPC_URL", ""),

		DatabaseURL:      getEnv("DATABASE_URL", ""),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "password"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     env.getEnvAsInt("POSTGRES_PORT", 5432),
		PostgresDB:       getEnv("POSTGRES_DB", "shadowbot"),

		PollInterval:       env.getEnvAsDuration("POLL_INTERVAL", 30*time.Second),
		MonitorConcurrency: env.getEnvAsInt("MONITOR_CONCURRENCY", 8),

		RedisURL:  getEnv("REDIS_URL", ""),
		IntentTTL: env.getEnvAsDuration("INTENT_TTL", 10*time.Minute),

		KafkaBrokers: getEnvAsList("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "wallet-activity"),
	}
	cfg.parseErrs = env.errs
	return cfg
}

// Validate checks that all required configuration fields are properly set
func (c *Config) Validate() error {
	if c.parseErrs != nil {
		return c.parseErrs
	}

	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	if c.EtherscanAPIKey == "" {
		return fmt.Errorf("ETHERSCAN_API_KEY is required")
	}

	if _, err := url.ParseRequestURI(c.EtherscanAPIURL); err != nil {
		return fmt.Errorf("invalid ETHERSCAN_API_URL: %w", err)
	}

	if c.DatabaseURL == "" {
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required")
		}
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}

	if c.MonitorConcurrency <= 0 {
		return fmt.Errorf("MONITOR_CONCURRENCY must be positive")
	}

	if c.EtherscanRateLimit <= 0 {
		return fmt.Errorf("ETHERSCAN_RATE_LIMIT must be positive")
	}

	if c.TelegramWebhookSecret != "" && !webhookSecretPattern.MatchString(c.TelegramWebhookSecret) {
		return fmt.Errorf("TELEGRAM_WEBHOOK_SECRET must be 1-256 characters of A-Z, a-z, 0-9, _ or -")
	}

	return nil
}

// PostgresDSN returns DATABASE_URL when set, otherwise a DSN assembled from
// the POSTGRES_* settings.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort)
}

// Helper functions to read environment variables
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// envReader parses typed environment values and collects the ones that are
// set but malformed.
type envReader struct {
	errs error
}

func lookupEnv(name string) (string, bool) {
	value, exists := os.LookupEnv(name)
	return value, exists && strings.TrimSpace(value) != ""
}

func (r *envReader) invalid(name, value string, err error) {
	r.errs = multierr.Append(r.errs, fmt.Errorf("invalid %s %q: %w", name, value, err))
}

func (r *envReader) getEnvAsInt(name string, defaultValue int) int {
	if valueStr, exists := lookupEnv(name); exists {
		value, err := strconv.Atoi(strings.TrimSpace(valueStr))
		if err == nil {
			return value
		}
		r.invalid(name, valueStr, err)
	}
	return defaultValue
}

func (r *envReader) getEnvAsFloat(name string, defaultValue float64) float64 {
	if valueStr, exists := lookupEnv(name); exists {
		value, err := strconv.ParseFloat(strings.TrimSpace(valueStr), 64)
		if err == nil {
			return value
		}
		r.invalid(name, valueStr, err)
	}
	return defaultValue
}

func (r *envReader) getEnvAsBool(name string, defaultValue bool) bool {
	if valueStr, exists := lookupEnv(name); exists {
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err == nil {
			return value
		}
		r.invalid(name, valueStr, err)
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("45s") or a bare number of seconds.
func (r *envReader) getEnvAsDuration(name string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := lookupEnv(name); exists {
		value, err := ParseDuration(valueStr)
		if err == nil {
			return value
		}
		r.invalid(name, valueStr, err)
	}
	return defaultValue
}

func getEnvAsList(name string) []string {
	valueStr, exists := os.LookupEnv(name)
	if !exists {
		return nil
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseDuration parses a Go duration string or a plain number of seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}
