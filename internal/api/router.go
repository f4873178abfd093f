// Package api is a thin HTTP/JSON shim around fib.Core, in the shape of the
// control-plane chi router convention: request-ID and recoverer middleware,
// structured request logging through internal/logger, and RFC 7807 problem
// responses for every error the core's orchestration API returns.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/routingfib/corefib/internal/fib"
	"github.com/routingfib/corefib/internal/logger"
)

// NewRouter builds the chi router exposing core's orchestration API.
//
// Routes:
//   - GET  /health         - liveness probe
//   - GET  /health/ready   - readiness probe (node store present)
//   - POST /api/v1/routes           - install a route
//   - PUT  /api/v1/routes           - update a route's resolution root
//   - DELETE /api/v1/routes         - withdraw a route
//   - GET  /api/v1/store/stats      - node store size
//   - GET  /api/v1/store/nodes/{handle} - node introspection
//   - POST /api/v1/events/link      - inject an IGP link up/down event
//   - POST /api/v1/events/bfd/down  - inject a BFD session-down event
//   - POST /api/v1/events/bfd/up    - inject a BFD session-up event
//   - POST /api/v1/events/interface/down - inject an interface-down event
//   - POST /api/v1/events/interface/up   - inject an interface-up event
//   - POST /api/v1/events/route-change   - inject an LPM route-table change
func NewRouter(core *fib.Core, allowOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	if len(allowOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	health := &healthHandler{core: core}
	r.Route("/health", func(r chi.Router) {
		r.Get("/", health.Liveness)
		r.Get("/ready", health.Readiness)
	})

	routes := &routeHandler{core: core}
	storeH := &storeHandler{core: core}
	events := &eventHandler{core: core}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/routes", func(r chi.Router) {
			r.Post("/", routes.Install)
			r.Put("/", routes.Update)
			r.Delete("/", routes.Withdraw)
		})

		r.Route("/store", func(r chi.Router) {
			r.Get("/stats", storeH.Stats)
			r.Get("/nodes/{handle}", storeH.Node)
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/link", events.LinkEvent)
			r.Route("/bfd", func(r chi.Router) {
				r.Post("/down", events.BfdDown)
				r.Post("/up", events.BfdUp)
			})
			r.Route("/interface", func(r chi.Router) {
				r.Post("/down", events.InterfaceDown)
				r.Post("/up", events.InterfaceUp)
			})
			r.Post("/route-change", events.RouteChange)
		})
	})

	return r
}

// requestLogger logs every request through internal/logger, at DEBUG for
// health probes and INFO otherwise so liveness polling doesn't drown
// real traffic in the log.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		args := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		}
		if r.URL.Path == "/health" || r.URL.Path == "/health/" || r.URL.Path == "/health/ready" {
			logger.Debug("api request completed", args...)
		} else {
			logger.Info("api request completed", args...)
		}
	})
}
