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

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/avolkov/bookstore/internal/apperr"
	"github.com/avolkov/bookstore/internal/config"
	"github.com/avolkov/bookstore/internal/es"
	"github.com/avolkov/bookstore/internal/handlers"
	"github.com/avolkov/bookstore/internal/handlers/cart"
	"github.com/avolkov/bookstore/internal/logging"
	"github.com/avolkov/bookstore/internal/mykafka"
	cartservice "github.com/avolkov/bookstore/internal/service/cart"
	"github.com/avolkov/bookstore/internal/session"
	httpserver "github.com/avolkov/bookstore/internal/transport/http"
	"github.com/avolkov/bookstore/internal/validation"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	if err := config.SeedUsers(db, configuration, logger); err != nil {
		log.Fatalf("user seeding failed: %v", err)
	}

	var prod *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		brokers := []string{configuration.KAFKA_ADDRESS}
		topics := []string{"user_events", "book_events", "cart_events"}
		prod, err = mykafka.NewProducer(brokers, topics)
		if err != nil {
			log.Fatal(err)
		}
	}

	var searchHandler *handlers.SearchHandler
	var esClient *elasticsearch.Client
	if configuration.ES_URL != "" {
		esClient, err = es.NewClient(configuration)
		if err != nil {
			log.Fatal(err)
		}
		searchHandler = &handlers.SearchHandler{ES: esClient, Index: configuration.ES_INDEX}
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Validator = validation.New()
	e.HTTPErrorHandler = apperr.ErrorHandler()

	sessions := &session.Store{DB: db, TTL: configuration.SessionTTL()}

	deps := httpserver.Deps{
		DB:       db,
		Sessions: sessions,
		AuthHandler: &handlers.AuthHandler{
			DB:       db,
			Sessions: sessions,
			Producer: prod,
		},
		BookHandler: &handlers.BookHandler{
			DB:       db,
			Producer: prod,
			ES:       esClient,
			Index:    configuration.ES_INDEX,
		},
		CartHandler: &cart.CartHandler{
			Service:  &cartservice.Service{DB: db, Log: logger},
			Producer: prod,
		},
		SearchHandler: searchHandler,
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
