package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ldelattre/microgest/internal/applog"
	"github.com/ldelattre/microgest/internal/config"
	"github.com/ldelattre/microgest/internal/db"
	"github.com/ldelattre/microgest/internal/events"
	"github.com/ldelattre/microgest/internal/server"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()
	cfg := config.Load()

	level := slog.LevelInfo
	if cfg.Env == "development" {
		level = slog.LevelDebug
	}
	applog.Default = applog.New(level)
	logger := applog.Default.WithComponent("main")

	dbConn, err := db.ConnectAndMigrate(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("erreur connexion DB: %v", err)
	}
	if *migrateOnlyFlag {
		logger.Info("migrations completed; exiting as requested")
		return
	}

	hub := events.NewHub()
	handler := server.New(dbConn, hub, applog.Default)
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		// generous write timeout: /api/events holds its connection open
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
	logger.Info("server gracefully stopped")
}
