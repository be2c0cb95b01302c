package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "company_register_total",
			Help: "Total number of company registration attempts",
		},
	)

	// Login counters
	LoginCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "company_login_total",
			Help: "Total number of login attempts by method",
		},
		[]string{"method"}, // method is "password" or "otp"
	)

	// OTP lifecycle counter
	OTPCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "company_otp_total",
			Help: "Total number of OTP operations",
		},
		[]string{"operation"}, // operation is "issued", "verified", "delivery_failed"
	)

	// Directory read counter
	DirectoryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "company_directory_reads_total",
			Help: "Total number of directory read operations",
		},
		[]string{"operation"}, // operation is "list", "get_by_id", "get_by_code", "search"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "company_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "company_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "invalid_credentials", "account_inactive", "otp_expired" etc.
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "company_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "company_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update"
	)
)

// Gauge metrics
var (
	// Registered companies
	CompaniesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "company_registered_total",
			Help: "Number of registered companies",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "company_service_info",
			Help: "Information about the company service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(OTPCounter)
	prometheus.MustRegister(DirectoryCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(CompaniesGauge)
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordLogin records a login attempt by method
func RecordLogin(method string) {
	LoginCounter.With(prometheus.Labels{"method": method}).Inc()
}

// RecordOTPOperation records an OTP lifecycle event
func RecordOTPOperation(operation string) {
	OTPCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordDirectoryRead records a directory read operation
func RecordDirectoryRead(operation string) {
	DirectoryCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// UpdateCompanyCount updates the registered companies gauge
func UpdateCompanyCount(count int64) {
	CompaniesGauge.Set(float64(count))
}
