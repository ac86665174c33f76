package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_hub_submissions_total",
			Help: "Total feedback submissions accepted",
		},
		[]string{"department", "type"},
	)

	SyncLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_hub_sync_loads_total",
			Help: "Load cycles by winning source",
		},
		[]string{"source"},
	)

	SheetAppendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_hub_sheet_appends_total",
			Help: "Best-effort sheet appends by outcome",
		},
		[]string{"status"},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_hub_notifications_total",
			Help: "Telegram notifications by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_hub_ai_requests_total",
			Help: "Assist gateway invocations by capability",
		},
		[]string{"capability"},
	)

	StatusChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_hub_status_changes_total",
			Help: "Administrator status transitions",
		},
		[]string{"status"},
	)

	CSVExportsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "feedback_hub_csv_exports_total",
			Help: "CSV backup downloads",
		},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedback_hub_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "route", "status"},
	)
)

func Init() {
	prometheus.MustRegister(SubmissionsTotal)
	prometheus.MustRegister(SyncLoadsTotal)
	prometheus.MustRegister(SheetAppendsTotal)
	prometheus.MustRegister(NotificationsTotal)
	prometheus.MustRegister(AIRequestsTotal)
	prometheus.MustRegister(StatusChangesTotal)
	prometheus.MustRegister(CSVExportsTotal)
	prometheus.MustRegister(RequestDuration)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// Middleware records per-route request durations. Route() is used over
// the raw path so ids do not explode the label set.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := strconv.Itoa(c.Response().StatusCode())
		RequestDuration.WithLabelValues(c.Method(), route, status).
			Observe(time.Since(start).Seconds())

		return err
	}
}
