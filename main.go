package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"productapi/internal/config"
	"productapi/internal/database"
	"productapi/internal/repositories"
	"productapi/internal/server"
	"productapi/internal/services"
	"productapi/pkg/rabbitmq"

	"github.com/sirupsen/logrus"
)

func main() {
	// --- Configuration ---
	cfg := config.Load()
	log := cfg.Logger()

	// --- Database ---
	// A malformed connection string is fatal; an unreachable server is not.
	// Requests then fail at the persistence layer with 500.
	db, err := database.Open(cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("invalid database configuration")
	}
	defer database.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.Bootstrap(ctx, db); err != nil {
		log.WithError(err).Error("database connection failed")
	} else {
		log.Info("database connected and schema synchronized")
	}
	cancel()

	// --- Product events (optional) ---
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			log.WithError(err).Warn("RabbitMQ unavailable, product events disabled")
		} else {
			defer mqClient.Close()
			publisher = mqClient
			if err := mqClient.ConsumeProductEvents(rabbitmq.LogProductEvent(log)); err != nil {
				log.WithError(err).Warn("failed to start product event consumer")
			}
		}
	}

	// --- HTTP ---
	app, err := server.New(server.Options{
		Repository:  repositories.NewGORMProductRepository(db),
		Publisher:   publisher,
		Ping:        func(ctx context.Context) error { return database.Ping(ctx, db) },
		Logger:      log,
		DocsEnabled: cfg.DocsEnabled,
		AccessLog:   true,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to build application")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.WithField("addr", cfg.AppPort).Info("starting server")
		if err := app.Listen(cfg.AppPort); err != nil {
			log.WithError(err).Fatal("server failed to start")
		}
	}()

	<-quit
	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
	log.WithFields(logrus.Fields{"addr": cfg.AppPort}).Info("server stopped")
}
