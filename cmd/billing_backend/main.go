package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/soadesk/billing_backoffice/internal/adapters/pdf"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
	"github.com/soadesk/billing_backoffice/internal/core/services"
	"github.com/soadesk/billing_backoffice/internal/handlers"
	"github.com/soadesk/billing_backoffice/internal/middleware"
	"github.com/soadesk/billing_backoffice/internal/platform/config"
	"github.com/soadesk/billing_backoffice/internal/repositories/database/pgsql"
	"github.com/soadesk/billing_backoffice/pkg/database"
)

// @title Billing Back Office API
// @version 1.0
// @description Statements of account, payments and collections for a services firm.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		os.Exit(1)
	}

	// PDF renderer (statement artifacts)
	renderer, err := pdf.NewRenderer(pdf.Config{
		MediaRoot: cfg.MediaRoot,
		RemoteURL: cfg.ChromeRemoteURL,
		NoSandbox: cfg.ChromeNoSandbox,
	})
	if err != nil {
		logger.Error("Failed to initialize PDF renderer", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer renderer.Close()

	svcContainer := buildServices(dbPool, renderer)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS, rate limiting)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid rate limit configuration", slog.String("rate", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}
	r.Use(middleware.RateLimit(limiter.New(memory.NewStore(), rate)))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, svcContainer)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// buildServices wires the repository layer into the service container
// consumed by the HTTP handlers.
func buildServices(dbPool *pgxpool.Pool, renderer *pdf.Renderer) *portssvc.ServiceContainer {
	repos := pgsql.NewRepositoryProvider(dbPool)

	auditor := services.NewAuditService(repos.AuditRepo)
	sequenceSvc := services.NewSequenceService(repos.SequenceRepo)

	return &portssvc.ServiceContainer{
		Client:        services.NewClientService(repos.ClientRepo, auditor),
		Engagement:    services.NewEngagementService(repos.EngagementRepo, repos.ClientRepo, auditor),
		Statement:     services.NewStatementService(repos.StatementRepo, repos.EngagementRepo, repos.ClientRepo, sequenceSvc, renderer, auditor),
		Payment:       services.NewPaymentService(repos.PaymentRepo, repos.StatementRepo, auditor),
		Sequence:      sequenceSvc,
		RetainerCycle: services.NewRetainerCycleService(repos.EngagementRepo, repos.StatementRepo, auditor),
		Reporting:     services.NewReportingService(repos.ReportingRepo, repos.AuditRepo),
		User:          services.NewUserService(repos.UserRepo, auditor),
		Capabilities:  services.NewCapabilityResolver(repos.UserRepo),
	}
}

// runMigrations applies all pending SQL migrations from ./migrations.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")
	// Open a temporary standard sql.DB connection for migrations
	// using the pgx/v5/stdlib driver to stay compatible with the pool.
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		return err
	}
	if err := migrationDB.Ping(); err != nil {
		logger.Error("Failed to ping database for migrations", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance for migrations", slog.String("error", err.Error()))
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		return err
	}

	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", upErr.Error()))
		return upErr
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		logger.Error("Migration source error", slog.String("error", sourceErr.Error()))
		return sourceErr
	}
	if dbErr != nil {
		logger.Error("Migration database error", slog.String("error", dbErr.Error()))
		return dbErr
	}

	if upErr == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
