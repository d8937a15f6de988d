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

	"quix/internal/auth"
	"quix/internal/config"
	"quix/internal/handler"
	"quix/internal/middleware"
	"quix/internal/repository"
	authsvc "quix/internal/service/auth"
	"quix/internal/service/eventsourcing"
	"quix/internal/service/workspace"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, logCloser, err := config.NewLogger(cfg, "server")
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"store_driver", cfg.StoreDriver,
		"table_prefix", cfg.TablePrefix,
	)

	// Without a JWKS URL the X-User-ID header is trusted (dev only)
	var jwtVerifier auth.JWTVerifier
	if cfg.JWKSURL != "" {
		jwtVerifier, err = auth.NewJWTVerifier(cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
	} else {
		logger.Warn("DEV MODE: no JWKS_URL, trusting the " + middleware.DevUserHeader + " header")
	}

	ctx := context.Background()
	backend, err := repository.Open(ctx, cfg, cfg.Environment != "prod", logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer backend.Close()

	bus := eventsourcing.NewEventBus(backend.Store, backend.TxManager, eventsourcing.Config{
		MaxBatchSize:      cfg.MaxBatchSize,
		NotifyMaxAttempts: cfg.NotifyMaxAttempts,
		NotifyRetryDelay:  cfg.NotifyRetryDelay,
		NotifyTimeout:     cfg.NotifyTimeout,
	}, logger)
	bus.Subscribe(&eventsourcing.LogSubscriber{Logger: logger})

	workspaceService := workspace.NewService(backend.Store, authsvc.NewOwnerBasedAuthorizer(backend.Store), logger)

	eventsHandler := handler.NewEventsHandler(bus, logger)
	workspaceHandler := handler.NewWorkspaceHandler(workspaceService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	handler.Routes(mux, eventsHandler, workspaceHandler)

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Auth → Recovery → Routes
	var h http.Handler = mux
	h = middleware.Recovery(logger)(h)
	h = middleware.AuthMiddleware(jwtVerifier, logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Origins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.DevUserHeader},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
