package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-flock-quadtree/internal/server"
	"github.com/lao-tseu-is-alive/go-flock-quadtree/internal/tracing"
	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/simulation"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func logLevel(name string) golog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return golog.DebugLevel
	case "warn", "warning":
		return golog.WarningLevel
	case "error":
		return golog.ErrorLevel
	default:
		return golog.InfoLevel
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found (falling back to system env)")
	}

	cfg := simulation.DefaultConfig()
	if path := os.Getenv("FLOCK_CONFIG"); path != "" {
		var err error
		if cfg, err = simulation.LoadConfig(path); err != nil {
			log.Fatalf("💥 %v", err)
		}
	}
	rate, err := strconv.ParseFloat(getEnv("FLOCK_BROADCAST_RATE", "20"), 64)
	if err != nil {
		log.Fatalf("💥 FLOCK_BROADCAST_RATE: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := golog.New(logLevel(getEnv("FLOCK_LOG_LEVEL", "info")), os.Stdout)

	shutdownTracing, err := tracing.Init(ctx, "flock-server", tracing.FromEnv())
	if err != nil {
		log.Fatalf("💥 %v", err)
	}
	defer shutdownTracing(context.Background())

	engine, err := simulation.NewEngine(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("💥 %v", err)
	}
	defer engine.Stop(context.Background())

	srv := server.New(engine, server.Options{TickRate: cfg.TickRate, BroadcastRate: rate}, logger)
	httpServer := &http.Server{
		Addr:              getEnv("FLOCK_ADDR", ":8000"),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Run(ctx); err != nil {
			logger.Errorf("simulation loop stopped: %v", err)
		}
		stop()
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Infof("🚀 Server running at http://localhost%s", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
