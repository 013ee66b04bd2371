// Package metrics holds the Prometheus collectors of the API process.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// ExamRequests counts exam requests by the resulting attempt state.
	ExamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_environment_exam_requests_total",
			Help: "Exam requests by outcome (generated, resumed, cooldown, rejected)",
		},
		[]string{"outcome"},
	)

	// AttemptSubmissions counts attempt updates by outcome.
	AttemptSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_environment_attempt_submissions_total",
			Help: "Attempt submissions by outcome (partial, complete, invalid, expired)",
		},
		[]string{"outcome"},
	)

	// GeneratedExamUnwinds counts generated exams deleted after their attempt could not be stored.
	GeneratedExamUnwinds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exam_environment_generated_exam_unwinds_total",
			Help: "Generated exams deleted because the attempt could not be created",
		},
	)
)

// Init registers every collector with the default registry.
// Call once from main.
func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ExamRequests)
	prometheus.MustRegister(AttemptSubmissions)
	prometheus.MustRegister(GeneratedExamUnwinds)
}

// Middleware records the count and latency of every request by route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
