package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string        `mapstructure:"APP_PORT"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DatabaseName      string        `mapstructure:"DATABASE_NAME"`
	DataBackend       string        `mapstructure:"DATA_BACKEND"`
	Env               string        `mapstructure:"ENV"`
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	SessionTTL        time.Duration `mapstructure:"SESSION_TTL"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int           `mapstructure:"MAX_REQUESTS_PER_MIN"`
	PublicBaseURL     string        `mapstructure:"PUBLIC_BASE_URL"`

	// Proposal lifecycle.
	ProposalTokenSecret  string        `mapstructure:"PROPOSAL_TOKEN_SECRET"`
	ProposalTokenTTL     time.Duration `mapstructure:"PROPOSAL_TOKEN_TTL"`
	UsedTokenStore       string        `mapstructure:"USED_TOKEN_STORE"`
	DriverResponseWindow time.Duration `mapstructure:"DRIVER_RESPONSE_WINDOW"`
	HelperResponseWindow time.Duration `mapstructure:"HELPER_RESPONSE_WINDOW"`
	CancellationCutoff   time.Duration `mapstructure:"CANCELLATION_CUTOFF"`
	ExpiryScheduler      string        `mapstructure:"EXPIRY_SCHEDULER"`

	// Mail delivery.
	SendGridAPIKey string `mapstructure:"SENDGRID_API_KEY"`
	MailFrom       string `mapstructure:"MAIL_FROM"`
	MailFromName   string `mapstructure:"MAIL_FROM_NAME"`

	// Booking events.
	AMQPURL        string `mapstructure:"AMQP_URL"`
	EventsExchange string `mapstructure:"EVENTS_EXCHANGE"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`
	RedisTokenDB  int    `mapstructure:"REDIS_TOKEN_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// A token must outlive the longest response window it can be redeemed in.
	longest := AppConfig.DriverResponseWindow
	if AppConfig.HelperResponseWindow > longest {
		longest = AppConfig.HelperResponseWindow
	}
	if AppConfig.ProposalTokenTTL < longest {
		AppConfig.ProposalTokenTTL = longest
	}
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "3001")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:3001")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "smovers")
	viper.SetDefault("DATA_BACKEND", "mongo")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("SESSION_TTL", "24h")

	viper.SetDefault("PROPOSAL_TOKEN_SECRET", "")
	viper.SetDefault("PROPOSAL_TOKEN_TTL", "2h")
	viper.SetDefault("USED_TOKEN_STORE", "mongo")
	viper.SetDefault("DRIVER_RESPONSE_WINDOW", "15m")
	viper.SetDefault("HELPER_RESPONSE_WINDOW", "1h")
	viper.SetDefault("CANCELLATION_CUTOFF", "48h")
	viper.SetDefault("EXPIRY_SCHEDULER", "asynq")

	viper.SetDefault("SENDGRID_API_KEY", "")
	viper.SetDefault("MAIL_FROM", "no-reply@smovers.app")
	viper.SetDefault("MAIL_FROM_NAME", "S_Movers")

	viper.SetDefault("AMQP_URL", "")
	viper.SetDefault("EVENTS_EXCHANGE", "smovers.bookings")

	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("REDIS_TOKEN_DB", 2)
	viper.SetDefault("REDIS_QUEUE_DB", 3)
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// UsesMemoryBackend reports whether persistence runs in-process.
func UsesMemoryBackend() bool {
	return AppConfig.DataBackend == "memory"
}
