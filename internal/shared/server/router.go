package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard-backend/internal/applications"
	googleauth "jobboard-backend/internal/auth"
	"jobboard-backend/internal/jobs"
	"jobboard-backend/internal/services/health"
	"jobboard-backend/internal/shared/config"
	"jobboard-backend/internal/shared/metrics"
	"jobboard-backend/internal/shared/server/middleware"
	"jobboard-backend/internal/shared/server/respond"
	"jobboard-backend/internal/uploads"
	"jobboard-backend/internal/users"
)

const (
	rateGroupRead  = "READ"
	rateGroupWrite = "WRITE"
)

type RouterDeps struct {
	Config              config.Config
	Verifier            middleware.TokenVerifier
	RateLimiter         *middleware.RateLimiter
	Health              *health.Service
	UsersHandler        *users.Handler
	JobsHandler         *jobs.Handler
	ApplicationsHandler *applications.Handler
	UploadsHandler      *uploads.Handler
	GoogleAuth          *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.IsDevLike() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		metrics.Middleware(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Authenticate(deps.Verifier),
		middleware.RateLimit(rateLimitConfig(deps)),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(api)
	}
	if deps.JobsHandler != nil {
		deps.JobsHandler.RegisterRoutes(api)
	}
	if deps.ApplicationsHandler != nil {
		deps.ApplicationsHandler.RegisterRoutes(api)
	}
	if deps.UploadsHandler != nil {
		deps.UploadsHandler.RegisterRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})

	return r
}

func rateLimitConfig(deps RouterDeps) middleware.RateLimitConfig {
	rps := deps.Config.RateLimitRPS
	burst := deps.Config.RateLimitBurst
	writeBurst := burst / 2
	if writeBurst < 1 {
		writeBurst = 1
	}
	return middleware.RateLimitConfig{
		DefaultGroup: rateGroupRead,
		GroupFor: func(c *gin.Context) string {
			switch c.Request.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return rateGroupRead
			}
			return rateGroupWrite
		},
		Limiter: deps.RateLimiter,
		Rules: map[string]middleware.RateLimitRule{
			rateGroupRead:  {Rate: rps, Burst: burst},
			rateGroupWrite: {Rate: rps / 2, Burst: writeBurst},
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
