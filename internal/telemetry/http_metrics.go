package telemetry

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// unmatchedRoute labels requests that reached no registered route
const unmatchedRoute = "unmatched"

// HTTPMetrics records request counts, latency and in-flight requests
type HTTPMetrics struct {
	requestDuration  metric.Float64Histogram
	requestCounter   metric.Int64Counter
	requestsInFlight metric.Int64UpDownCounter
	responseSize     metric.Int64Histogram
	slowRequests     metric.Int64Counter

	slowThreshold time.Duration
}

// NewHTTPMetrics creates the HTTP instruments on the given meter
func NewHTTPMetrics(meter metric.Meter, slowThreshold time.Duration) (*HTTPMetrics, error) {
	mb := newMetricBuilder(meter)

	h := &HTTPMetrics{slowThreshold: slowThreshold}
	h.requestDuration = mb.Float64Histogram(
		"http_server_request_duration_seconds",
		"Duration of HTTP requests",
		"s",
		[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10})
	h.requestCounter = mb.Int64Counter(
		"http_server_requests",
		"Total number of HTTP requests",
		"1")
	h.requestsInFlight = mb.Int64UpDownCounter(
		"http_server_requests_in_flight",
		"Number of HTTP requests currently being processed",
		"1")
	h.responseSize = mb.Int64Histogram(
		"http_server_response_size_bytes",
		"Size of HTTP responses",
		"By",
		[]float64{64, 256, 1024, 4096, 16384, 65536, 262144})
	h.slowRequests = mb.Int64Counter(
		"http_server_slow_requests",
		"Requests slower than the configured threshold",
		"1")

	if err := mb.Error(); err != nil {
		return nil, err
	}
	return h, nil
}

// Middleware records metrics for every request passing through it
func (h *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		h.requestsInFlight.Add(ctx, 1)
		defer h.requestsInFlight.Add(ctx, -1)

		c.Next()

		duration := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		attrs := metric.WithAttributes(
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.String("http.response.status_code", strconv.Itoa(c.Writer.Status())),
		)

		h.requestCounter.Add(ctx, 1, attrs)
		h.requestDuration.Record(ctx, duration.Seconds(), attrs)
		if size := c.Writer.Size(); size > 0 {
			h.responseSize.Record(ctx, int64(size), attrs)
		}
		if h.slowThreshold > 0 && duration > h.slowThreshold {
			h.slowRequests.Add(ctx, 1, attrs)
		}
	}
}

// GinMiddleware returns the tracing and metrics handlers for the router,
// outermost first
func (s *Service) GinMiddleware(slowThreshold time.Duration) ([]gin.HandlerFunc, error) {
	var handlers []gin.HandlerFunc

	if s.tracerProvider != nil {
		handlers = append(handlers, otelgin.Middleware(
			s.config.ServiceName,
			otelgin.WithTracerProvider(s.tracerProvider),
		))
	}

	httpMetrics, err := NewHTTPMetrics(s.meter, slowThreshold)
	if err != nil {
		return nil, err
	}
	return append(handlers, httpMetrics.Middleware()), nil
}
