package main

import (
	"encoding/hex"
	"errors"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	adapthttp "wearsync/internal/adapter/http"
	"wearsync/internal/adapter/postgres"
	"wearsync/internal/app"
	"wearsync/internal/provider"
	"wearsync/internal/provider/garmin"
	"wearsync/internal/provider/withings"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	addr := env("ADDR", ":8080")
	baseURL := env("APP_BASE_URL", "http://localhost:8080")

	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	key, err := hex.DecodeString(os.Getenv("TOKEN_ENCRYPTION_KEY"))
	if err != nil {
		log.Fatal().Err(err).Msg("TOKEN_ENCRYPTION_KEY must be hex")
	}
	cipher, err := app.NewTokenCipher(key)
	if err != nil {
		log.Fatal().Err(err).Msg("TOKEN_ENCRYPTION_KEY invalid")
	}

	db, err := postgres.Open(connStr)
	if err != nil {
		log.Fatal().Err(err).Msg("db open")
	}
	defer func() { _ = db.Close() }()

	registry := provider.NewRegistry(garmin.New(), withings.New())

	connSvc := app.NewConnectionService(db, cipher, log)
	syncSvc := app.NewSyncService(db, db, db, db, log)

	h := adapthttp.New(connSvc, syncSvc, registry, log, baseURL).Handler()
	log.Info().Str("addr", addr).Msg("listening")
	if err := http.ListenAndServe(addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Send()
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
