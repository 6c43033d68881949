package monitoring

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
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// PlanCounter 学习路径编排结果统计（ok/partial/error）
	PlanCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_requests_total",
			Help: "Total number of plan orchestrations by outcome",
		},
		[]string{"outcome"},
	)

	// DownstreamCounter 下游服务调用统计
	DownstreamCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downstream_requests_total",
			Help: "Total number of downstream service calls by outcome",
		},
		[]string{"service", "outcome"},
	)

	// QuizGradeCounter 测验判分次数统计
	QuizGradeCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_submissions_total",
			Help: "Total number of graded quiz submissions",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(PlanCounter)
	prometheus.MustRegister(DownstreamCounter)
	prometheus.MustRegister(QuizGradeCounter)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
