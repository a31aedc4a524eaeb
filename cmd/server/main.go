package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/campusbooks/marketplace/internal/checkout"
	"github.com/campusbooks/marketplace/internal/config"
	"github.com/campusbooks/marketplace/internal/cover"
	"github.com/campusbooks/marketplace/internal/es"
	"github.com/campusbooks/marketplace/internal/events"
	"github.com/campusbooks/marketplace/internal/handlers"
	"github.com/campusbooks/marketplace/internal/handlers/cart"
	"github.com/campusbooks/marketplace/internal/logging"
	"github.com/campusbooks/marketplace/internal/middleware/csrf"
	"github.com/campusbooks/marketplace/internal/seed"
	"github.com/campusbooks/marketplace/internal/service/token"
	httpserver "github.com/campusbooks/marketplace/internal/transport/http"
)

const productIndex = "product"

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	if err := seed.Run(db, configuration.ADMIN_PASSWORD); err != nil {
		log.Fatalf("seed error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	prod, err := events.NewProducer([]string{configuration.KAFKA_ADDRESS})
	if err != nil {
		logger.Warn("kafka disabled", "error", err)
		prod = nil
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		logger.Warn("search disabled", "error", err)
		esClient = nil
	}

	var llm llms.Model
	if configuration.OPENAI_API_KEY != "" {
		llm, err = openai.New(
			openai.WithModel(configuration.OPENAI_MODEL),
			openai.WithToken(configuration.OPENAI_API_KEY),
		)
		if err != nil {
			log.Fatalf("openai init error: %v", err)
		}
	} else {
		logger.Warn("listing generation will use the fallback template: OPENAI_API_KEY not set")
	}

	covers := &cover.Resolver{
		Client:         &http.Client{Timeout: 10 * time.Second},
		GoogleBooksKey: configuration.GOOGLE_BOOKS_API_KEY,
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(csrf.Middleware(csrf.Config{
		Secure:    true,
		SkipPaths: []string{"/api/register", "/api/login", "/health/live", "/health/ready"},
	}))

	deps := httpserver.Deps{
		DB:              db,
		AuthHandler:     &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod},
		ProductHandler:  &handlers.ProductHandler{DB: db, Producer: prod, ES: esClient, Index: productIndex},
		GenerateHandler: &handlers.GenerateHandler{DB: db, LLM: llm, Covers: covers, Producer: prod, ES: esClient, Index: productIndex},
		OrderHandler:    &handlers.OrderHandler{DB: db, Producer: prod},
		CartHandler:     &cart.CartHandler{DB: db, Producer: prod, Checkout: &checkout.Service{DB: db, Producer: prod}},
		SearchHandler:   &handlers.SearchHandler{ES: esClient, Index: productIndex},
		TokenService:    &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
