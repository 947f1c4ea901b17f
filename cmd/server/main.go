package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mkosyrev/product-store/internal/config"
	"github.com/mkosyrev/product-store/internal/es"
	"github.com/mkosyrev/product-store/internal/handlers"
	"github.com/mkosyrev/product-store/internal/logging"
	authmw "github.com/mkosyrev/product-store/internal/middleware/auth"
	loggingmw "github.com/mkosyrev/product-store/internal/middleware/logging"
	"github.com/mkosyrev/product-store/internal/mykafka"
	"github.com/mkosyrev/product-store/internal/tokens"
	httpserver "github.com/mkosyrev/product-store/internal/transport/http"
	"github.com/mkosyrev/product-store/internal/users"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLogger := logging.New("info", false)
		bootLogger.Fatal().Err(err).Msg("load config")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogPretty)

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("init database")
	}
	if err := config.SeedAdmin(db, cfg); err != nil {
		logger.Fatal().Err(err).Msg("seed admin")
	}

	tokenService, err := tokens.NewService(cfg.AccessPhrase, cfg.RefreshPhrase)
	if err != nil {
		logger.Fatal().Err(err).Msg("init token service")
	}

	producer := mykafka.NewProducer(cfg.KafkaAddress)

	esClient, err := es.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("init elasticsearch")
	}

	userService := &users.Service{DB: db}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		DB: db,
		AuthHandler: &handlers.AuthHandler{
			DB:       db,
			Tokens:   tokenService,
			Users:    userService,
			Producer: producer,
		},
		ProductHandler: &handlers.ProductHandler{DB: db, Producer: producer, ES: esClient},
		Filter:         &authmw.Filter{Tokens: tokenService, Users: userService},
	}
	if esClient != nil {
		deps.SearchHandler = &handlers.SearchHandler{ES: esClient}
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error().Err(err).Msg("db close error")
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error().Err(err).Msg("kafka close error")
	}

	logger.Info().Msg("shutdown complete")
}
