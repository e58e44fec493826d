package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookstore/config"
	"bookstore/controllers"
	"bookstore/database"
	"bookstore/events"
	"bookstore/services"
	"bookstore/store"

	"github.com/gorilla/handlers"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration from .env and the environment
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	logger := newLogger(cfg)

	// Handle migrations
	if err := database.Migrate(cfg.DatabaseDriver, cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	// Connect to the database
	db, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	tokens, err := services.NewTokenMaker(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("token maker")
	}

	router := controllers.NewRouter(controllers.Dependencies{
		Logger:     logger,
		DB:         db,
		Auth:       services.NewAuthService(db, tokens),
		Carts:      services.NewCartService(db),
		Orders:     services.NewOrderService(db, publisher, logger),
		Catalog:    services.NewCatalogService(db, cfg.UploadsDir, cfg.PublicBaseURL),
		UploadsDir: cfg.UploadsDir,
	})

	// Enable CORS
	corsOptions := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSAllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           corsOptions(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("driver", cfg.DatabaseDriver).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen and serve")
		}
	}()

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
		return
	}
	logger.Info().Msg("server stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return newLoggerTo(cfg, os.Stdout)
}

func newLoggerTo(cfg *config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.IsDevelopment() {
		out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "bookstore").Logger()
}

// newPublisher connects to RabbitMQ when configured. A broker that is down
// at startup does not stop the server, events are then dropped.
func newPublisher(cfg *config.Config, logger zerolog.Logger) events.Publisher {
	if cfg.RabbitURL == "" {
		return events.NopPublisher{}
	}

	rabbit, err := events.NewRabbitPublisher(cfg.RabbitURL, cfg.RabbitExchange)
	if err != nil {
		logger.Warn().Err(err).Msg("rabbitmq unavailable, order events disabled")
		return events.NopPublisher{}
	}
	logger.Info().Str("exchange", cfg.RabbitExchange).Msg("publishing order events")
	return rabbit
}
