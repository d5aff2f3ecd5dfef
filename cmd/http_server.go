package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/activity"
	activityPostgres "github.com/frahmantamala/bizanalytics/internal/activity/postgres"
	"github.com/frahmantamala/bizanalytics/internal/analytics"
	analyticsPostgres "github.com/frahmantamala/bizanalytics/internal/analytics/postgres"
	"github.com/frahmantamala/bizanalytics/internal/auth"
	authPostgres "github.com/frahmantamala/bizanalytics/internal/auth/postgres"
	"github.com/frahmantamala/bizanalytics/internal/company"
	companyPostgres "github.com/frahmantamala/bizanalytics/internal/company/postgres"
	"github.com/frahmantamala/bizanalytics/internal/core/events"
	"github.com/frahmantamala/bizanalytics/internal/dashboard"
	dashboardPostgres "github.com/frahmantamala/bizanalytics/internal/dashboard/postgres"
	"github.com/frahmantamala/bizanalytics/internal/subscription"
	"github.com/frahmantamala/bizanalytics/internal/transport"
	"github.com/frahmantamala/bizanalytics/internal/transport/middleware"
	"github.com/frahmantamala/bizanalytics/internal/transport/rest"
	"github.com/frahmantamala/bizanalytics/internal/transport/swagger"
	"github.com/frahmantamala/bizanalytics/internal/user"
	userPostgres "github.com/frahmantamala/bizanalytics/internal/user/postgres"
	"github.com/frahmantamala/bizanalytics/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
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
	DB       *gorm.DB
	ReadDB   *sqlx.DB
	Router   *chi.Mux
	EventBus *events.EventBus
	Recorder *activity.AsyncRecorder
	Users    *user.Service
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		deps.Logger.Error("failed to set up routes", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runPresenceSweep(ctx, deps.Users, deps.Config.Presence, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		deps.Logger.Info("Received signal, shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		// drain queued activity before the pool goes away
		if err := deps.Recorder.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Error("Activity recorder shutdown error", "error", err)
		}
		closeDatabases(deps)
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	lg := deps.Logger
	base := transport.NewBaseHandler(lg)
	cfg := deps.Config

	companyRepo := companyPostgres.NewCompanyRepository(deps.DB)
	dashboardRepo := dashboardPostgres.NewDashboardRepository(deps.DB)
	activityRepo := activityPostgres.NewActivityRepository(deps.DB)
	snapshotRepo := analyticsPostgres.NewSnapshotRepository(deps.ReadDB)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.JWTAccessSecret,
		cfg.Security.JWTRefreshSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(deps.DB), tokens, deps.Recorder, cfg.Security.BCryptCost, lg)
	activityService := activity.NewService(activityRepo, lg)
	limiter := subscription.NewLimiter(dashboardRepo, lg)

	companyService := company.NewService(companyRepo, company.Dependencies{
		Users:       deps.Users,
		Dashboards:  dashboardRepo,
		Activities:  activityService,
		Recorder:    deps.Recorder,
		Broadcaster: deps.EventBus,
	}, lg)
	dashboardService := dashboard.NewService(dashboardRepo, dashboard.Dependencies{
		Companies:   companyService,
		Quota:       limiter,
		Recorder:    deps.Recorder,
		Broadcaster: deps.EventBus,
	}, lg)
	analyticsService := analytics.NewService(snapshotRepo, lg)

	sqlDB, err := deps.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	var openAPI *swagger.Document
	if cfg.Server.OpenAPIPath != "" {
		openAPI, err = swagger.Load(context.Background(), cfg.Server.OpenAPIPath)
		if err != nil {
			return err
		}
		lg.Info("openapi document loaded", "title", openAPI.Title(), "operations", openAPI.Operations())
	}

	rest.RegisterAllRoutes(deps.Router, rest.Handlers{
		Auth: auth.NewHandler(base, authService, auth.CookieConfig{
			Name:   cfg.Security.CookieName,
			Secure: cfg.Security.CookieSecure,
		}),
		User:      user.NewHandler(base, deps.Users),
		Company:   company.NewHandler(base, companyService),
		Dashboard: dashboard.NewHandler(base, dashboardService),
		Activity:  activity.NewHandler(base, activityService),
		Analytics: analytics.NewHandler(base, analyticsService),
		Events:    rest.NewEventStreamHandler(base, deps.EventBus),
		Health: rest.NewHealthHandler(map[string]rest.Pinger{
			"postgres":  sqlDB,
			"analytics": deps.ReadDB,
		}),
		Access:   middleware.NewAccessControl(base, companyService, dashboardRepo, limiter),
		Presence: deps.Users,
		OpenAPI:  openAPI,
	}, cfg.Server.Origins(), lg)

	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	if err := auth.ValidateRoleTable(); err != nil {
		return nil, fmt.Errorf("invalid role table: %w", err)
	}

	db, err := initGorm(config.Database, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	readDB, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize read database: %w", err)
	}

	bus := events.NewEventBus(lg)
	recorder := activity.NewAsyncRecorder(
		activityPostgres.NewActivityRepository(db),
		activity.RecorderConfig{Workers: config.Activity.Workers, QueueSize: config.Activity.QueueSize},
		lg,
	)

	return &Dependencies{
		Config:   config,
		DB:       db,
		ReadDB:   readDB,
		Router:   chi.NewRouter(),
		EventBus: bus,
		Recorder: recorder,
		Users:    user.NewService(userPostgres.NewUserRepository(db), bus, lg),
		Logger:   lg,
	}, nil
}

// initGorm opens the write-path pool. Constraint violations come back as gorm.ErrDuplicatedKey.
func initGorm(cfg internal.DatabaseConfig, lg *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Source), &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(
			slog.NewLogLogger(lg.Handler(), slog.LevelWarn),
			gormlogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

// initDB opens the sqlx pool used by the analytics read path.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return dbConn, nil
}

func closeDatabases(deps *Dependencies) {
	if sqlDB, err := deps.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	}
	if err := deps.ReadDB.Close(); err != nil {
		deps.Logger.Error("Read database close error", "error", err)
	}
}
