// Copyright 2026 The SereneBook Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/serenebook/serenebook/internal/audit"
	"github.com/serenebook/serenebook/internal/config"
	"github.com/serenebook/serenebook/internal/identity"
	"github.com/serenebook/serenebook/internal/observability/logger"
	"github.com/serenebook/serenebook/internal/observability/metrics"
	"github.com/serenebook/serenebook/internal/observability/tracing"
	"github.com/serenebook/serenebook/internal/permission"
	"github.com/serenebook/serenebook/internal/role"
	"github.com/serenebook/serenebook/internal/store/postgres"
	"github.com/serenebook/serenebook/internal/tenant"
	transportHTTP "github.com/serenebook/serenebook/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting serenebook platform core")

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg); err != nil {
			fmt.Printf("Migration failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Initialize context
	ctx := context.Background()

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	// Initialize meter
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
		os.Exit(1)
	}

	// Initialize database
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	// Initialize repositories
	tenantRepo := postgres.NewTenantRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	userRepo := postgres.NewUserRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)

	// Audit trail goes to both the log stream and the append-only table.
	auditLogger := audit.Multi{audit.NewSlogLogger(), postgres.NewAuditLogger(db)}

	passwordHasher := identity.NewPasswordHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)

	// Initialize services
	tenantService := tenant.NewService(tenantRepo, auditLogger)
	roleService := role.NewService(roleRepo, auditLogger)
	identityService := identity.NewService(userRepo, roleRepo, passwordHasher, auditLogger)
	catalog := permission.NewCatalog(catalogRepo)

	// Provision the initial platform operator (ENV driven, idempotent)
	if err := identityService.Bootstrap(ctx); err != nil {
		slog.Error("bootstrap failed", logger.Error(err))
		os.Exit(1)
	}

	// Rate limiter and token verification
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	verifier := transportHTTP.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Leeway)

	// Initialize HTTP handler
	handler := transportHTTP.NewHandler(
		tenantService,
		roleService,
		identityService,
		catalog,
		verifier,
		auditLogger,
		meter,
	)

	// Create router
	router := transportHTTP.NewRouter(handler, rateLimiter)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Applying initial schema...")
	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		return err
	}
	fmt.Println("Migration successful.")
	return nil
}
