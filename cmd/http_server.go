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

	"github.com/frahmantamala/access-audit-reports/internal"
	"github.com/frahmantamala/access-audit-reports/internal/catalog"
	"github.com/frahmantamala/access-audit-reports/internal/console"
	"github.com/frahmantamala/access-audit-reports/internal/core/events"
	"github.com/frahmantamala/access-audit-reports/internal/datasource"
	"github.com/frahmantamala/access-audit-reports/internal/export"
	"github.com/frahmantamala/access-audit-reports/internal/template"
	templatePostgres "github.com/frahmantamala/access-audit-reports/internal/template/postgres"
	"github.com/frahmantamala/access-audit-reports/internal/transport"
	"github.com/frahmantamala/access-audit-reports/internal/transport/rest"
	"github.com/frahmantamala/access-audit-reports/internal/transport/swagger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
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
	Redis    *redis.Client
	Bus      *events.EventBus
	Router   *chi.Mux
	Handlers rest.Handlers
	Logger   *slog.Logger

	closers []func() error
}

func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.Logger.Error("failed to release resource", "error", err)
		}
	}
	d.Bus.Wait()
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.Handlers, deps.Config.Server.Origins(), deps.Logger)

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

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		deps.Close()
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.Close()
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := setupLogger(config)

	if _, err := swagger.Load(context.Background()); err != nil {
		return nil, err
	}

	deps := &Dependencies{
		Config: config,
		Logger: lg,
		Router: chi.NewRouter(),
		Bus:    events.NewEventBus(lg),
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.DB = db
	deps.closers = append(deps.closers, db.Close)

	gormDB, err := initGorm(db)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	provider, redisClient, closeCache, err := buildProvider(config, lg)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Redis = redisClient
	if closeCache != nil {
		deps.closers = append(deps.closers, closeCache)
	}

	cat, err := catalog.Default()
	if err != nil {
		deps.Close()
		return nil, err
	}

	deps.Bus.Subscribe(events.EventTypeNotification, console.LogNotifications(lg))

	exporter := export.NewExporter(provider, export.Config{
		Timeout:      config.Export.Timeout,
		FieldAliases: config.Export.FieldAliases,
	}, lg)

	registry := console.NewRegistry(console.Deps{
		Catalog:  cat,
		Provider: provider,
		Exporter: exporter,
		Sink:     export.NewFileSink(config.Export.OutputDir),
		Logger:   lg,
	}, deps.Bus)

	templateService := template.NewService(templatePostgres.NewTemplateRepository(gormDB), cat, lg)

	health := rest.NewHealthHandler().WithCheck("postgres", db.PingContext)
	if redisClient != nil {
		health.WithCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	base := transport.NewBaseHandler(lg)
	deps.Handlers = rest.Handlers{
		Health:   health,
		Catalog:  catalog.NewHandler(base, cat),
		Console:  console.NewHandler(base, registry, templateService),
		Template: template.NewHandler(base, templateService),
	}

	return deps, nil
}

// buildProvider creates the remote report client, wrapped in the redis cache
// when caching is enabled. The returned close function may be nil.
func buildProvider(cfg *internal.Config, lg *slog.Logger) (datasource.Provider, *redis.Client, func() error, error) {
	client := datasource.NewClient(datasource.Config{
		BaseURL:        cfg.DataSource.BaseURL,
		APIKey:         cfg.DataSource.APIKey,
		RequestTimeout: cfg.DataSource.RequestTimeout,
	}, lg)

	if !cfg.Cache.Enabled {
		return client, nil, nil, nil
	}

	redisClient, closeFn, err := datasource.NewRedisClient(cfg.Cache)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	lg.Info("report cache enabled", "mode", cfg.Cache.Mode, "ttl", cfg.Cache.TTL)
	return datasource.NewCachedProvider(client, redisClient, cfg.Cache.TTL, lg), redisClient, closeFn, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
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

// initGorm reuses the pooled connection for the gorm repositories.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{})
}
