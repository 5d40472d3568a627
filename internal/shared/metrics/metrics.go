package metrics

import (
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jobboard"

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	applicationsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "applications",
		Name:      "created_total",
		Help:      "Applications submitted.",
	})

	applicationsWithdrawn = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "applications",
		Name:      "withdrawn_total",
		Help:      "Applications withdrawn by applicants.",
	})

	statusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "status_changes_total",
			Help:      "Reviewer status updates by target status.",
		},
		[]string{"status"},
	)

	counterAdjustFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "application_count_adjust_failures_total",
		Help:      "Failed denormalized application counter updates.",
	})

	viewIncrementFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "view_increment_failures_total",
		Help:      "Failed best-effort view counter increments.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests,
		httpDuration,
		applicationsCreated,
		applicationsWithdrawn,
		statusChanges,
		counterAdjustFailures,
		viewIncrementFailures,
	)
}

func IncApplicationCreated()        { applicationsCreated.Inc() }
func IncApplicationWithdrawn()      { applicationsWithdrawn.Inc() }
func IncCounterAdjustFailure()      { counterAdjustFailures.Inc() }
func IncViewIncrementFailure()      { viewIncrementFailures.Inc() }
func IncStatusChange(status string) { statusChanges.WithLabelValues(status).Inc() }

// RegisterDB exports connection pool stats for db under the given name.
// Registering the same name twice is a no-op.
func RegisterDB(db *sql.DB, name string) error {
	err := Registry.Register(collectors.NewDBStatsCollector(db, name))
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return err
}

// Middleware records request counts and latency keyed by route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
