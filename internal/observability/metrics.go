package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsync_http_requests_total",
			Help: "Total number of HTTP requests processed by the debug server.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatsync_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	busEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsync_bus_events_total",
			Help: "Total number of events published on the session bus.",
		},
		[]string{"event"},
	)
	busHandlerPanicsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatsync_bus_handler_panics_total",
			Help: "Total number of recovered panics in bus subscribers.",
		},
	)
	openChannels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatsync_open_channels",
			Help: "Number of currently open realtime channel subscriptions.",
		},
	)
	channelErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsync_channel_errors_total",
			Help: "Total number of channel subscribe failures.",
		},
		[]string{"kind"},
	)
	wsFramesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsync_ws_frames_total",
			Help: "Total number of websocket frames, by direction.",
		},
		[]string{"direction"},
	)
	notificationEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatsync_notification_evictions_total",
			Help: "Total number of notifications dropped on queue overflow.",
		},
	)
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsync_api_requests_total",
			Help: "Total number of server API calls, by operation and status.",
		},
		[]string{"operation", "status"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatsync_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		busEventsTotal,
		busHandlerPanicsTotal,
		openChannels,
		channelErrorsTotal,
		wsFramesTotal,
		notificationEvictionsTotal,
		apiRequestsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncBusEvent(event string) {
	busEventsTotal.WithLabelValues(event).Inc()
}

func IncBusHandlerPanic() {
	busHandlerPanicsTotal.Inc()
}

func IncOpenChannels() {
	openChannels.Inc()
}

func DecOpenChannels() {
	openChannels.Dec()
}

func IncChannelError(kind string) {
	channelErrorsTotal.WithLabelValues(kind).Inc()
}

func IncWSFrame(direction string) {
	wsFramesTotal.WithLabelValues(direction).Inc()
}

func IncNotificationEviction() {
	notificationEvictionsTotal.Inc()
}

func IncAPIRequest(operation string, status int) {
	apiRequestsTotal.WithLabelValues(operation, strconv.Itoa(status)).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
