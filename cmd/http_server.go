package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eslam-almahdy/RSS-1.0/internal"
	"github.com/eslam-almahdy/RSS-1.0/internal/audit"
	auditPostgres "github.com/eslam-almahdy/RSS-1.0/internal/audit/postgres"
	"github.com/eslam-almahdy/RSS-1.0/internal/auth"
	authPostgres "github.com/eslam-almahdy/RSS-1.0/internal/auth/postgres"
	"github.com/eslam-almahdy/RSS-1.0/internal/core/events"
	"github.com/eslam-almahdy/RSS-1.0/internal/dependency"
	dependencyPostgres "github.com/eslam-almahdy/RSS-1.0/internal/dependency/postgres"
	"github.com/eslam-almahdy/RSS-1.0/internal/prioritizer"
	"github.com/eslam-almahdy/RSS-1.0/internal/risk"
	riskPostgres "github.com/eslam-almahdy/RSS-1.0/internal/risk/postgres"
	"github.com/eslam-almahdy/RSS-1.0/internal/transport/rest"
	"github.com/eslam-almahdy/RSS-1.0/internal/user"
	userPostgres "github.com/eslam-almahdy/RSS-1.0/internal/user/postgres"
	"github.com/eslam-almahdy/RSS-1.0/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Router   *chi.Mux
	Handlers rest.Handlers
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.Handlers, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	bus := events.NewEventBus(lg)
	subscribeNotifiers(bus, lg)

	ledger := auditPostgres.NewLedger(gormDB)
	vault := auth.NewCredentialVault(config.Security.KDFIterations)

	userRepo := authPostgres.NewUserRepository(gormDB)
	sessionRepo := authPostgres.NewSessionRepository(gormDB)
	authService := auth.NewService(gormDB, userRepo, sessionRepo, vault, ledger, bus, lg)

	adminRepo := userPostgres.NewUserRepository(gormDB)
	userService := user.NewService(gormDB, adminRepo, vault, ledger, lg)

	riskRepo := riskPostgres.NewRiskRepository(gormDB)
	riskService := risk.NewService(gormDB, riskRepo, ledger, bus, lg)

	dependencyRepo := dependencyPostgres.NewDependencyRepository(gormDB)
	dependencyService := dependency.NewService(gormDB, dependencyRepo, riskRepo, ledger, lg)

	prioritizerService := prioritizer.NewService(riskService, lg)
	auditService := audit.NewService(ledger, lg)

	return &Dependencies{
		Config: config,
		DB:     db,
		Gorm:   gormDB,
		Router: chi.NewRouter(),
		Logger: lg,
		Handlers: rest.Handlers{
			Auth:        auth.NewHandler(authService),
			User:        user.NewHandler(userService),
			Risk:        risk.NewHandler(riskService),
			Dependency:  dependency.NewHandler(dependencyService),
			Prioritizer: prioritizer.NewHandler(prioritizerService),
			Audit:       audit.NewHandler(auditService),
		},
	}, nil
}

// subscribeNotifiers attaches the log-based notification handlers. A failed
// handler never affects the mutation that published the event.
func subscribeNotifiers(bus *events.EventBus, lg *slog.Logger) {
	bus.Subscribe(events.EventRiskEscalation, func(ctx context.Context, event events.Event) error {
		lg.Warn("risk flagged for management escalation",
			"event_id", event.EventID(),
			"payload", event.Payload())
		return nil
	})
	bus.Subscribe(events.EventAccountLocked, func(ctx context.Context, event events.Event) error {
		lg.Warn("account locked after repeated failed logins",
			"event_id", event.EventID(),
			"payload", event.Payload())
		return nil
	})
}

// initDB opens the pgx-backed connection pool used for health checks and
// migrations.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers the ORM over the already-open pool so both views share
// one set of connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
}
