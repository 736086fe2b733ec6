package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.25.0"

	"chatsync/internal/api"
	"chatsync/internal/handlers"
	"chatsync/internal/observability"
	"chatsync/internal/rabbitmq"
	"chatsync/internal/session"
	"chatsync/internal/telemetry"
	"chatsync/internal/ws"
)

func main() {
	ctx := context.Background()

	apiBaseURL := getEnv("API_BASE_URL", "http://localhost:8080")
	apiToken := os.Getenv("API_TOKEN")
	wsURL := getEnv("WS_URL", "ws://localhost:8080/ws")
	environment := getEnv("ENVIRONMENT", "dev")

	shutdownTracing := setupTracing(ctx, os.Getenv("OTLP_GRPC_ADDR"))
	defer shutdownTracing()

	publisher := rabbitmq.NewPublisher(os.Getenv("AMQP_URL"), getEnv("AUDIT_EXCHANGE", "audit"))
	defer publisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(publisher))

	sessionID := uuid.NewString()
	emitter := telemetry.NewAuditEmitter(publisher, "audit_log.chatsync", "chatsync", environment, sessionID)

	client := api.NewClient(apiBaseURL, apiToken)
	snapshot, err := client.FetchSnapshot(ctx)
	if err != nil {
		log.Fatalf("failed to fetch session snapshot: %v", err)
	}

	transport, err := ws.Dial(wsURL, apiToken)
	if err != nil {
		log.Fatalf("failed to connect websocket: %v", err)
	}
	defer transport.Close()

	sess := session.New(snapshot, transport, client, emitter)
	defer sess.Close()
	log.Printf("session started user_id=%d conversations=%d", snapshot.CurrentUser.ID, len(snapshot.Conversations))

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("chatsync"))
	router.Use(observability.HTTPMetricsMiddleware())

	handlers.Register(router, sess, emitter, getEnv("DEBUG_ROUTES", "true") == "true")

	port := getEnv("PORT", "8086")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// setupTracing installs the OTLP exporter when an address is configured.
// Without one the global tracer stays a noop and spans cost nothing.
func setupTracing(ctx context.Context, addr string) func() {
	if addr == "" {
		return func() {}
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(addr), otlptracegrpc.WithInsecure())
	if err != nil {
		log.Printf("tracing disabled: %v", err)
		return func() {}
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("chatsync"),
		)),
	)
	otel.SetTracerProvider(provider)

	return func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			log.Printf("tracer shutdown: %v", err)
		}
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
