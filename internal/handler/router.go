package handler

import (
	"net/http"

	"github.com/garagem/seminovos-assistant-go/internal/dialog"
	"github.com/garagem/seminovos-assistant-go/internal/infra/observability"
	"github.com/garagem/seminovos-assistant-go/internal/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// AuthConfig configures the optional JWT gate on the /v1 API.
type AuthConfig struct {
	Secret   string
	Required bool
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc *dialog.Service, sessions port.SessionStore, auth AuthConfig, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(JWTAuthMiddleware(auth, logger))

		// =============================================
		// Conversa — o turno é a operação central
		// POST   /v1/conversations/{conversationId}/messages
		// GET    /v1/conversations/{conversationId}
		// DELETE /v1/conversations/{conversationId}
		// =============================================
		r.Post("/conversations/{conversationId}/messages", postMessageHandler(svc, sessions, logger))
		r.Get("/conversations/{conversationId}", getConversationHandler(sessions, logger))
		r.Delete("/conversations/{conversationId}", deleteConversationHandler(sessions, logger))

		// =============================================
		// Métricas de turno
		// GET /v1/metrics/turns
		// =============================================
		r.Get("/metrics/turns", turnMetricsHandler(metrics))
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func turnMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetTurnSnapshot())
	}
}
