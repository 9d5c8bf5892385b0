package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Stripe    StripeConfig
	Kafka     KafkaConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
	PublicURL   string // base URL used for public menu links and QR codes
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type StorageConfig struct {
	Driver    string // local, s3
	LocalRoot string
	LocalURL  string
	S3        S3Config
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	// ConfirmPaymentURL receives the payment intent id as its last path segment
	ConfirmPaymentURL string
	Plans             []PlanConfig
}

// PlanConfig maps a Stripe price to the role it grants.
type PlanConfig struct {
	Role      string
	PriceID   string
	TrialDays int64
}

type KafkaConfig struct {
	Brokers     []string
	VisitsTopic string
	GroupID     string
}

type SchedulerConfig struct {
	GracePeriodSpec string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	plans, err := parsePlans(getEnv("STRIPE_PLANS", ""))
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
			PublicURL:   strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:3000"), "/"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "mynu"),
			Password: getEnv("DB_PASSWORD", "mynu"),
			DBName:   getEnv("DB_NAME", "mynu"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "15m")),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h")),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Redis: RedisConfig{
			Enabled:  parseBool(getEnv("REDIS_ENABLED", "false")),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0")),
		},
		Storage: StorageConfig{
			Driver:    getEnv("STORAGE_DRIVER", "local"),
			LocalRoot: getEnv("STORAGE_LOCAL_ROOT", "./uploads"),
			LocalURL:  getEnv("STORAGE_LOCAL_URL", "http://localhost:8080/uploads"),
			S3: S3Config{
				Region:          getEnv("AWS_REGION", "sa-east-1"),
				Bucket:          getEnv("AWS_S3_BUCKET", "mynu-uploads"),
				AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
				BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
			},
		},
		Stripe: StripeConfig{
			SecretKey:         getEnv("STRIPE_SECRET", ""),
			WebhookSecret:     getEnv("STRIPE_WEBHOOK_SECRET", ""),
			ConfirmPaymentURL: strings.TrimRight(getEnv("STRIPE_CONFIRM_PAYMENT_URL", "http://localhost:3000/billing/payment"), "/"),
			Plans:             plans,
		},
		Kafka: KafkaConfig{
			Brokers:     parseSlice(getEnv("KAFKA_BROKERS", "")),
			VisitsTopic: getEnv("KAFKA_VISITS_TOPIC", "mynu.visits"),
			GroupID:     getEnv("KAFKA_GROUP_ID", "mynu-visits"),
		},
		Scheduler: SchedulerConfig{
			GracePeriodSpec: getEnv("GRACE_PERIOD_CRON", "@hourly"),
		},
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default 15m", s)
		return 15 * time.Minute
	}
	return duration
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// parsePlans reads "role:price_id:trial_days" entries separated by commas.
func parsePlans(s string) ([]PlanConfig, error) {
	var plans []PlanConfig
	for _, entry := range parseSlice(s) {
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("invalid STRIPE_PLANS entry %q", entry)
		}
		plan := PlanConfig{Role: parts[0], PriceID: parts[1]}
		if len(parts) == 3 {
			days, err := strconv.ParseInt(parts[2], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid trial days in STRIPE_PLANS entry %q: %w", entry, err)
			}
			plan.TrialDays = days
		}
		plans = append(plans, plan)
	}
	return plans, nil
}
