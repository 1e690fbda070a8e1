package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	APIBaseURL  string `mapstructure:"API_BASE_URL"`
	AppPort     string `mapstructure:"APP_PORT"`
	Env         string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	UserEmail   string `mapstructure:"USER_EMAIL"`
	UserPhone   string `mapstructure:"USER_PHONE"`
	HTTPTimeout int    `mapstructure:"HTTP_TIMEOUT_SECONDS"`
	RequestsPS  int    `mapstructure:"REQUESTS_PER_SECOND"`

	// Durable slot for the latest reservation snapshot.
	SnapshotStore string `mapstructure:"SNAPSHOT_STORE"`
	SnapshotKey   string `mapstructure:"SNAPSHOT_KEY"`
	SQLitePath    string `mapstructure:"SQLITE_PATH"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	RefreshSchedule string `mapstructure:"REFRESH_SCHEDULE"`

	// Receipt delivery.
	SendGridAPIKey    string `mapstructure:"SENDGRID_API_KEY"`
	SendGridFromEmail string `mapstructure:"SENDGRID_FROM_EMAIL"`
	SendGridFromName  string `mapstructure:"SENDGRID_FROM_NAME"`
	TwilioAccountSID  string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken   string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber  string `mapstructure:"TWILIO_FROM_NUMBER"`
}

var keys = []string{
	"API_BASE_URL", "APP_PORT", "ENV", "LOG_LEVEL", "USER_EMAIL", "USER_PHONE",
	"HTTP_TIMEOUT_SECONDS", "REQUESTS_PER_SECOND", "SNAPSHOT_STORE", "SNAPSHOT_KEY",
	"SQLITE_PATH", "DATABASE_URL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"REFRESH_SCHEDULE", "SENDGRID_API_KEY", "SENDGRID_FROM_EMAIL", "SENDGRID_FROM_NAME",
	"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_FROM_NUMBER",
}

// Load reads .env, config.yaml and the environment, in increasing priority.
func Load() (*Config, error) {
	godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	// Unmarshal only sees env values for keys viper already knows about.
	for _, k := range keys {
		v.BindEnv(k)
	}

	v.SetDefault("API_BASE_URL", "http://localhost:8080")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_TIMEOUT_SECONDS", 15)
	v.SetDefault("REQUESTS_PER_SECOND", 5)
	v.SetDefault("SNAPSHOT_STORE", "sqlite")
	v.SetDefault("SNAPSHOT_KEY", "latestReservation")
	v.SetDefault("SQLITE_PATH", "data/bikeshare.db")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REFRESH_SCHEDULE", "@every 30s")
	v.SetDefault("SENDGRID_FROM_NAME", "Bikeshare")

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) Timeout() time.Duration {
	if c.HTTPTimeout <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.HTTPTimeout) * time.Second
}
