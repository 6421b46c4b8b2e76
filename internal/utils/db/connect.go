package db

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KromaEnergia/speaker-booking/internal/config"
)

// Settings is the subset of config needed to reach Postgres.
type Settings struct {
	Host, Name, Username, Password, SecretID string
	Port                                     uint
	SSLModeDisable                           bool
}

func SettingsFrom(cfg config.Config) Settings {
	return Settings{
		Host:           cfg.DBHost,
		Port:           cfg.DBPort,
		Name:           cfg.DBName,
		Username:       cfg.DBUsername,
		Password:       cfg.DBPassword,
		SecretID:       cfg.DBSecretID,
		SSLModeDisable: cfg.DBSSLModeDisable,
	}
}

// DSN renders the keyword/value form understood by the pgx driver.
func (s Settings) DSN() string {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d", s.Host, s.Username, s.Password, s.Name, s.Port)
	if s.SSLModeDisable {
		dsn += " sslmode=disable"
	}
	return dsn
}

// URL renders the postgres:// form used by golang-migrate.
func (s Settings) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(s.Username, s.Password),
		Host:   s.Host + ":" + strconv.FormatUint(uint64(s.Port), 10),
		Path:   "/" + s.Name,
	}
	if s.SSLModeDisable {
		u.RawQuery = "sslmode=disable"
	}
	return u.String()
}

// Connect resolves credentials and opens the gorm connection.
func Connect(ctx context.Context, s Settings) (*gorm.DB, Settings, error) {
	user, pass, err := retrieveCredentials(ctx, s.Username, s.Password, s.SecretID)
	if err != nil {
		return nil, s, err
	}
	s.Username, s.Password = user, pass

	database, err := gorm.Open(postgres.Open(s.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true,
	})
	if err != nil {
		return nil, s, fmt.Errorf("db: open: %w", err)
	}
	return database, s, nil
}
