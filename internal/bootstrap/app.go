package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"cv-backend/internal/analyses"
	"cv-backend/internal/analyses/cache"
	"cv-backend/internal/documents"
	"cv-backend/internal/extract"
	"cv-backend/internal/scoring"
	"cv-backend/internal/services/health"
	"cv-backend/internal/shared/config"
	"cv-backend/internal/shared/server"
	"cv-backend/internal/shared/storage/db"
	"cv-backend/internal/shared/storage/object"
	localstore "cv-backend/internal/shared/storage/object/local"
	s3store "cv-backend/internal/shared/storage/object/s3"
	"cv-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Dialect          db.Dialect
	Store            object.ObjectStore
	Cache            cache.Cache
	Pipeline         *scoring.Pipeline
	DocumentsRepo    documents.DocumentsRepo
	DocumentsService *documents.Service
	AnalysesService  *analyses.Service
	DocumentsHandler *documents.Handler
	AnalysisHandler  *analyses.Handler
	Health           *health.Service
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, dialect, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, DB: sqlDB, Dialect: dialect}

	if err := app.buildInfra(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	if err := buildServices(app); err != nil {
		_ = app.Close()
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		DocumentHandler: app.DocumentsHandler,
		AnalysisHandler: app.AnalysisHandler,
		Health:          app.Health,
	})

	return app, nil
}

func (a *App) buildInfra(ctx context.Context) error {
	store, err := buildStore(ctx, a.Config)
	if err != nil {
		return err
	}
	a.Store = store

	resultCache, err := buildCache(a.Config)
	if err != nil {
		return err
	}
	a.Cache = resultCache

	pipeline, err := BuildPipeline(a.Config)
	if err != nil {
		return err
	}
	a.Pipeline = pipeline
	return nil
}

// BuildPipeline loads the scoring tables and assembles the analysis pipeline.
func BuildPipeline(cfg config.Config) (*scoring.Pipeline, error) {
	tables, err := scoring.LoadTables(cfg.TablesFile)
	if err != nil {
		return nil, fmt.Errorf("load analysis tables: %w", err)
	}
	analyzer, err := scoring.NewAnalyzer(tables)
	if err != nil {
		return nil, fmt.Errorf("build analyzer: %w", err)
	}

	limits := extract.DefaultLimits()
	if cfg.MaxUploadBytes > 0 {
		limits.MaxBytes = cfg.MaxUploadBytes
	}
	if cfg.MaxPages > 0 {
		limits.MaxPages = cfg.MaxPages
	}

	telemetry.Info("analysis.tables", map[string]any{
		"source":      tablesSource(cfg.TablesFile),
		"fingerprint": analyzer.Fingerprint(),
		"keywords":    len(tables.Keywords),
		"max_bytes":   limits.MaxBytes,
		"max_pages":   limits.MaxPages,
	})
	return scoring.NewPipeline(extract.New(limits), analyzer), nil
}

func tablesSource(path string) string {
	if strings.TrimSpace(path) == "" {
		return "builtin"
	}
	return path
}

// Close releases the database and cache connections.
func (a *App) Close() error {
	var errs []error
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if closer, ok := a.Cache.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, db.Dialect, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("DATABASE_URL is required")
	}

	dialect := db.DialectOf(cfg.DatabaseURL)
	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "connect failed", "err": err})
			return nil, "", nil
		}
		return nil, "", err
	}

	// Single-node sqlite deployments have no separate migrate step.
	if dialect == db.DialectSQLite {
		if err := db.RunMigrations(ctx, sqlDB, dialect); err != nil {
			sqlDB.Close()
			return nil, "", fmt.Errorf("run migrations: %w", err)
		}
	}

	return sqlDB, dialect, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildCache(cfg config.Config) (cache.Cache, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return cache.NewMemory(cfg.CacheTTL, cache.WithMaxEntries(cfg.CacheMaxEntries)), nil
	}
	redisCache, err := cache.NewRedisFromURL(cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		return nil, err
	}
	return redisCache, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var docRepo documents.DocumentsRepo
	if app.DB != nil {
		docRepo = documents.NewSQLRepo(app.DB, app.Dialect)
	} else {
		docRepo = documents.NewMemoryRepo()
	}

	docSvc := &documents.Service{
		Store:    app.Store,
		Repo:     docRepo,
		MaxBytes: app.Config.MaxUploadBytes,
	}
	analysisSvc := &analyses.Service{
		Docs:     docSvc,
		Pipeline: app.Pipeline,
		Cache:    app.Cache,
	}

	checks := map[string]health.Checker{
		"cache": app.Cache,
		"db":    nil,
	}
	if app.DB != nil {
		checks["db"] = health.CheckerFunc(app.DB.PingContext)
	}

	app.DocumentsRepo = docRepo
	app.DocumentsService = docSvc
	app.AnalysesService = analysisSvc
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.AnalysisHandler = analyses.NewHandler(analysisSvc, app.Config.MaxUploadBytes)
	app.Health = health.NewService(checks)

	if app.DocumentsHandler == nil || app.AnalysisHandler == nil {
		return errors.New("failed to initialize handlers")
	}

	return nil
}
