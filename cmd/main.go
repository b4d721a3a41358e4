package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/ecomkit/gateway/infra/config"
	"github.com/ecomkit/gateway/infra/conn"
	"github.com/ecomkit/gateway/infra/logger"
	"github.com/ecomkit/gateway/infra/middle"
	"github.com/ecomkit/gateway/infra/opensearch"
	"github.com/ecomkit/gateway/infra/response"
	"github.com/ecomkit/gateway/provider"
	"github.com/ecomkit/gateway/router"
)

var (
	cfg     *config.AppConfig
	search  *opensearch.Client
	auditor *opensearch.Auditor
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg = config.GetAppConfig()

	if cfg.EnableAudit {
		var err error
		search, err = opensearch.NewClient(cfg)
		if err != nil {
			log.Printf("Failed to initialize OpenSearch client: %v", err)
			log.Println("Continuing without OpenSearch audit logging...")
			search = nil
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := search.Ping(ctx); err != nil {
				log.Printf("OpenSearch is not reachable: %v", err)
				log.Println("Continuing without OpenSearch audit logging...")
				search = nil
			}
		}
	}
	auditor = opensearch.NewAuditor(search)
}

func main() {
	db, err := conn.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	encryptor, err := provider.NewEncryptor(cfg.EncryptKey)
	if err != nil {
		log.Fatalf("Failed to initialize credential encryption: %v", err)
	}

	credentials, err := provider.NewCredentialStore(db, encryptor, provider.DefaultRegistry)
	if err != nil {
		log.Fatalf("Failed to initialize credential store: %v", err)
	}
	settings, err := provider.NewSettingStore(db)
	if err != nil {
		log.Fatalf("Failed to initialize setting store: %v", err)
	}
	orders, err := provider.NewOrderStore(db)
	if err != nil {
		log.Fatalf("Failed to initialize order store: %v", err)
	}
	paymentLogs, err := provider.NewPaymentLogStore(db)
	if err != nil {
		log.Fatalf("Failed to initialize payment log store: %v", err)
	}
	webhooks, err := provider.NewWebhookStore(db)
	if err != nil {
		log.Fatalf("Failed to initialize webhook store: %v", err)
	}
	otps, err := provider.NewOTPStore(db, nil)
	if err != nil {
		log.Fatalf("Failed to initialize OTP store: %v", err)
	}

	service := provider.NewService(provider.DefaultRegistry, credentials, settings,
		orders, paymentLogs, webhooks, otps, auditor)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middle.SecurityHeadersMiddleware())
	r.Use(middle.RequestValidationMiddleware())
	r.Use(middle.RequestLoggingMiddleware())

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Routes(r, &router.Deps{
		Service: service,
		DB:      db,
		Search:  search,
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.Error(w, http.StatusNotFound, "Route not found", nil)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server starting", logger.LogContext{Fields: map[string]any{"port": cfg.Port}})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}
