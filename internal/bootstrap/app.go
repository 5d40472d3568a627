package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"jobboard-backend/internal/applications"
	googleauth "jobboard-backend/internal/auth"
	"jobboard-backend/internal/jobs"
	"jobboard-backend/internal/services/health"
	"jobboard-backend/internal/shared/auth"
	"jobboard-backend/internal/shared/config"
	"jobboard-backend/internal/shared/server"
	"jobboard-backend/internal/shared/server/middleware"
	"jobboard-backend/internal/shared/storage/db"
	"jobboard-backend/internal/shared/telemetry"
	"jobboard-backend/internal/uploads"
	"jobboard-backend/internal/users"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config              config.Config
	Router              *gin.Engine
	DB                  *sql.DB
	Signer              *auth.Signer
	UsersRepo           users.Repo
	JobsRepo            jobs.Repo
	ApplicationsRepo    applications.Repo
	UsersService        *users.Service
	JobsService         *jobs.Service
	ApplicationsService *applications.Service
	UploadsService      *uploads.Service
	HealthService       *health.Service
	GoogleAuth          *googleauth.GoogleService
}

// Build connects storage, constructs services and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if sqlDB != nil && cfg.AutoMigrate {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Signer: signer,
	}
	if sqlDB != nil {
		app.HealthService = health.NewService(sqlDB)
	} else {
		app.HealthService = health.NewService(nil)
	}

	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:              cfg,
		Verifier:            signer,
		RateLimiter:         middleware.NewRateLimiter(nil),
		Health:              app.HealthService,
		UsersHandler:        users.NewHandler(app.UsersService),
		JobsHandler:         jobs.NewHandler(app.JobsService),
		ApplicationsHandler: applications.NewHandler(app.ApplicationsService),
		UploadsHandler:      uploads.NewHandler(app.UploadsService),
		GoogleAuth:          app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db.memory", map[string]any{
				"reason": "connect failed",
				"error":  err.Error(),
			})
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildServices(ctx context.Context, app *App) error {
	var (
		userRepo users.Repo
		jobRepo  jobs.Repo
		appRepo  applications.Repo
	)

	// The memory repos are linked after the services exist: applying moves
	// the job counter through the catalog and deleting a job purges its
	// applications.
	var (
		memJobs *jobs.MemoryRepo
		memApps *applications.MemoryRepo
	)
	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		jobRepo = &jobs.PGRepo{DB: app.DB}
		appRepo = &applications.PGRepo{DB: app.DB}
	} else {
		memJobs = jobs.NewMemoryRepo()
		memApps = applications.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
		jobRepo = memJobs
		appRepo = memApps
	}

	userSvc := users.NewService(userRepo, app.Signer)
	jobSvc := jobs.NewService(jobRepo, userSvc, appRepo)
	appSvc := applications.NewService(appRepo, jobSvc, userSvc)

	if memApps != nil {
		memApps.Counter = jobSvc
		memJobs.Purger = memApps
	}

	uploadSvc, err := uploads.NewService(ctx,
		app.Config.AWSRegion,
		app.Config.UploadsBucket,
		app.Config.UploadsPrefix,
		app.Config.UploadsPublicBaseURL,
	)
	if err != nil {
		return fmt.Errorf("init uploads: %w", err)
	}
	if uploadSvc == nil {
		telemetry.Info("bootstrap.uploads.disabled", map[string]any{"reason": "UPLOADS_S3_BUCKET empty"})
	}

	app.UsersRepo = userRepo
	app.JobsRepo = jobRepo
	app.ApplicationsRepo = appRepo
	app.UsersService = userSvc
	app.JobsService = jobSvc
	app.ApplicationsService = appSvc
	app.UploadsService = uploadSvc
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)
	return nil
}
