package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pesio-ai/be-procurement/internal/client"
	"github.com/pesio-ai/be-procurement/internal/common/auth"
	"github.com/pesio-ai/be-procurement/internal/common/authz"
	"github.com/pesio-ai/be-procurement/internal/common/config"
	"github.com/pesio-ai/be-procurement/internal/common/database"
	"github.com/pesio-ai/be-procurement/internal/common/logger"
	"github.com/pesio-ai/be-procurement/internal/common/middleware"
	"github.com/pesio-ai/be-procurement/internal/handler"
	"github.com/pesio-ai/be-procurement/internal/migrations"
	"github.com/pesio-ai/be-procurement/internal/repository"
	"github.com/pesio-ai/be-procurement/internal/routing"
	"github.com/pesio-ai/be-procurement/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       os.Getenv("LOG_LEVEL"),
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Msg("Starting Procurement Service")

	authzMode, err := authz.ParseMode(cfg.Authz.Mode)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid authorization mode")
	}
	authorizer, err := authz.NewDefaultAuthorizer(authzMode)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load authorization policy")
	}
	if authzMode != authz.ModeEnforce {
		log.Warn().Str("mode", string(authzMode)).Msg("Authorization is not enforced")
	}

	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.New(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		Database:    cfg.Database.Database,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxConnTime: cfg.Database.MaxConnTime,
		MaxIdleTime: cfg.Database.MaxIdleTime,
		HealthCheck: cfg.Database.HealthCheck,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	if cfg.Service.MigrateOnStart {
		applied, err := migrations.Up(ctx, db.SQL())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		log.Info().Int("applied", len(applied)).Msg("Migrations applied")
	}

	// Initialize repositories
	requestRepo := repository.NewRequestRepository(db)
	stagesRepo := repository.NewStagesRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	rulesRepo := repository.NewApprovalRulesRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	poRepo := repository.NewPurchaseOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	store := repository.NewStore(db)

	// Initialize notifications. Without NATS_URL events are dropped.
	var conn client.MessagePublisher
	if cfg.NATS.URL != "" {
		nc, err := client.ConnectNATS(cfg.NATS.URL, cfg.Service.Name, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		defer nc.Drain()
		conn = nc
		log.Info().Str("url", cfg.NATS.URL).Msg("NATS connection established")
	} else {
		log.Warn().Msg("NATS_URL not set, notifications disabled")
	}
	notifier := client.NewNotificationPublisher(conn, cfg.NATS.SubjectPrefix, log.Logger)

	// Initialize services
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	router := routing.NewRouter(cfg.Routing.FallbackRole, log)

	services := handler.Services{
		Requests: service.NewRequestService(service.RequestServiceDeps{
			Store:      store,
			Requests:   requestRepo,
			Stages:     stagesRepo,
			Audit:      auditRepo,
			Vendors:    vendorRepo,
			Categories: categoryRepo,
			Router:     router,
			Directory:  userRepo,
			Notifier:   notifier,
			Perms:      authorizer,
		}, log),
		Approvals:      service.NewApprovalService(store, stagesRepo, notifier, log),
		Catalog:        service.NewCatalogService(rulesRepo, vendorRepo, categoryRepo, log),
		PurchaseOrders: service.NewPurchaseOrderService(poRepo, requestRepo, vendorRepo, notifier, log),
		Users:          service.NewUserService(userRepo, tokens, authorizer, log),
		Dashboard:      service.NewDashboardService(requestRepo, stagesRepo, authorizer),
	}

	// Setup HTTP routes
	httpHandler := handler.NewHTTPHandler(services, log)
	mux := httpHandler.Routes(tokens, authorizer, log.Logger)

	// Apply middleware
	var h http.Handler = mux
	h = middleware.Timeout(cfg.Server.WriteTimeout)(h)
	h = middleware.CORS(cfg.Server.AllowedOrigins)(h)
	h = middleware.Recovery(&log.Logger)(h)
	h = middleware.Logger(&log.Logger)(h)
	h = middleware.RequestID(h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Start gRPC server
	grpcHandler := handler.NewGRPCHandler(cfg.Service.Name, db, 15*time.Second, log.Logger)
	grpcServer := grpcHandler.NewServer()
	go grpcHandler.Run(ctx)

	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create gRPC listener")
	}

	go func() {
		log.Info().Int("port", cfg.GRPC.Port).Msg("Starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Error().Err(err).Msg("gRPC server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	// Stop gRPC server gracefully
	grpcServer.GracefulStop()

	log.Info().Msg("Server stopped")
}
