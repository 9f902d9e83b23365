package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"

	"github.com/jason-s-yu/onecard/internal/ai"
	"github.com/jason-s-yu/onecard/internal/auth"
	"github.com/jason-s-yu/onecard/internal/cache"
	"github.com/jason-s-yu/onecard/internal/database"
	"github.com/jason-s-yu/onecard/internal/gamestore"
	"github.com/jason-s-yu/onecard/internal/handlers"
	"github.com/jason-s-yu/onecard/internal/inference"
	"github.com/jason-s-yu/onecard/internal/middleware"
)

func main() {
	logger := log.StandardLogger()
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if err := auth.Init(); err != nil {
		logger.Fatalf("failed to init auth: %v", err)
	}

	// Postgres and Redis are optional; the service runs fully in memory
	// without them.
	if err := database.ConnectDB(); err != nil {
		logger.WithError(err).Warn("postgres unavailable, game results will not be persisted")
	} else {
		defer database.DB.Close()
	}
	if err := cache.ConnectRedis(); err != nil {
		logger.WithError(err).Warn("redis unavailable, snapshots and action records disabled")
	}

	policy := inference.NewPolicyService("")
	orchestrator := ai.New(policy, logger)
	store := gamestore.NewStore()

	handler := middleware.LogMiddleware(logger)(handlers.NewServer(store, orchestrator, policy, logger))

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: time.Second * 10,
	}

	port := os.Getenv("ONECARD_SERVICE_PORT")
	if port == "" {
		port = "8080"
	}
	l, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		logger.Fatalf("failed to listen: %v", err)
	}

	logger.Infof("listening on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		logger.Errorf("failed to serve: %v", err)
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
}
