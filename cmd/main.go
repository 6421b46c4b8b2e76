package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/KromaEnergia/speaker-booking/internal/activity"
	"github.com/KromaEnergia/speaker-booking/internal/config"
	"github.com/KromaEnergia/speaker-booking/internal/contract"
	"github.com/KromaEnergia/speaker-booking/internal/deal"
	"github.com/KromaEnergia/speaker-booking/internal/firmoffer"
	"github.com/KromaEnergia/speaker-booking/internal/logger"
	"github.com/KromaEnergia/speaker-booking/internal/project"
	"github.com/KromaEnergia/speaker-booking/internal/proposal"
	"github.com/KromaEnergia/speaker-booking/internal/staff"
	"github.com/KromaEnergia/speaker-booking/internal/utils/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, settings, err := db.Connect(ctx, db.SettingsFrom(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	err = db.Migrate(database, settings, cfg.MigrationURL,
		&deal.Deal{},
		&activity.Activity{},
		&staff.Staff{},
		&proposal.Proposal{},
		&contract.Contract{},
		&firmoffer.FirmOffer{},
		&project.Project{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	if err := staff.EnsureAdmin(ctx, database, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("bootstrap admin")
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           newRouter(cfg, database, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("bye")
}
