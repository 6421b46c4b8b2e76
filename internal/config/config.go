package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting the service reads from the environment.
type Config struct {
	ServerAddress  string        `mapstructure:"SERVER_ADDRESS"`
	Environment    string        `mapstructure:"ENVIRONMENT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	DBHost           string `mapstructure:"DB_HOST"`
	DBPort           uint   `mapstructure:"DB_PORT"`
	DBName           string `mapstructure:"DB_NAME"`
	DBUsername       string `mapstructure:"DB_USERNAME"`
	DBPassword       string `mapstructure:"DB_PASSWORD"`
	DBSecretID       string `mapstructure:"DB_SECRET_ID"`
	DBSSLModeDisable bool   `mapstructure:"DB_SSL_MODE_DISABLE"`
	MigrationURL     string `mapstructure:"MIGRATION_URL"`

	JWTSecret     string `mapstructure:"JWT_SECRET"`
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
	WebhookSecret string `mapstructure:"WEBHOOK_SECRET"`
	LinkSecret    string `mapstructure:"LINK_SECRET"`

	PublicBaseURL      string `mapstructure:"PUBLIC_BASE_URL"`
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	EmailAPIURL  string        `mapstructure:"EMAIL_API_URL"`
	EmailAPIKey  string        `mapstructure:"EMAIL_API_KEY"`
	EmailFrom    string        `mapstructure:"EMAIL_FROM"`
	EmailTimeout time.Duration `mapstructure:"EMAIL_TIMEOUT"`

	ContractPrefix  string `mapstructure:"CONTRACT_PREFIX"`
	ContractTTLDays int    `mapstructure:"CONTRACT_TTL_DAYS"`
	AgencyName      string `mapstructure:"AGENCY_NAME"`
}

var keys = []string{
	"SERVER_ADDRESS", "ENVIRONMENT", "LOG_LEVEL", "REQUEST_TIMEOUT",
	"DB_HOST", "DB_PORT", "DB_NAME", "DB_USERNAME", "DB_PASSWORD", "DB_SECRET_ID",
	"DB_SSL_MODE_DISABLE", "MIGRATION_URL",
	"JWT_SECRET", "ADMIN_EMAIL", "ADMIN_PASSWORD", "WEBHOOK_SECRET", "LINK_SECRET",
	"PUBLIC_BASE_URL", "CORS_ALLOWED_ORIGINS",
	"EMAIL_API_URL", "EMAIL_API_KEY", "EMAIL_FROM", "EMAIL_TIMEOUT",
	"CONTRACT_PREFIX", "CONTRACT_TTL_DAYS", "AGENCY_NAME",
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (Config, error) {
	// a missing .env is fine outside development
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REQUEST_TIMEOUT", 10*time.Second)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_NAME", "speakers")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:3000")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("EMAIL_FROM", "bookings@example.com")
	v.SetDefault("EMAIL_TIMEOUT", 5*time.Second)
	v.SetDefault("CONTRACT_PREFIX", "SPK")
	v.SetDefault("CONTRACT_TTL_DAYS", 90)
	v.SetDefault("AGENCY_NAME", "Speaker Agency")

	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.WebhookSecret == "" {
		errs = append(errs, errors.New("WEBHOOK_SECRET is required"))
	}
	if len(c.LinkSecret) < 32 {
		errs = append(errs, errors.New("LINK_SECRET must be at least 32 characters"))
	}
	if c.ContractTTLDays <= 0 {
		errs = append(errs, errors.New("CONTRACT_TTL_DAYS must be positive"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether human-friendly logging should be used.
func (c Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// ContractTTL is the signing window for new contracts.
func (c Config) ContractTTL() time.Duration {
	return time.Duration(c.ContractTTLDays) * 24 * time.Hour
}
