/*
Package handler provides the HTTP handlers and routing setup for the RoleReady API server.

This file defines the main Router, applying necessary middleware like logging, CORS,
metrics, panic recovery and IP-based rate limiting before delegating requests to
specific handlers (API and WebSocket).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"roleready/internal/app/records"
	"roleready/internal/pkg/auth/jwt"
	"roleready/internal/pkg/limiter"
	"roleready/internal/pkg/logx"
	"roleready/internal/pkg/metrics"
)

const (
	WriteRate  = 2
	WriteBurst = 20
	JoinRate   = 1
	JoinBurst  = 10
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	writeLimiter := limiter.NewIPRateLimiter(rate.Limit(WriteRate), WriteBurst)
	joinLimiter := limiter.NewIPRateLimiter(rate.Limit(JoinRate), JoinBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(metrics.Middleware)
	r.Use(Recoverer)

	r.Get("/health", HandleHealth())
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Get("/status", HandleStatus(deps))

		api.Group(func(private chi.Router) {
			private.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))
			private.Use(jwt.RequireIdentity)

			private.Get("/users/profile", HandleGetUserProfile())

			private.Get("/resumes", HandleListRecords(deps, records.KindResume))
			private.With(writeLimiter.Middleware).Post("/resumes", HandleCreateRecord(deps, records.KindResume))

			private.Get("/jobs", HandleListRecords(deps, records.KindJob))
			private.With(writeLimiter.Middleware).Post("/jobs", HandleCreateRecord(deps, records.KindJob))

			private.With(writeLimiter.Middleware).Post("/cloud/save", HandleCloudSave(deps))
			private.Get("/cloud/list", HandleCloudList(deps))
			private.Get("/cloud/download", HandleCloudDownload(deps))

			private.With(writeLimiter.Middleware).Post("/notifications", HandleNotify(deps))
		})
	})

	r.Get("/ws", HandleWebSocket(deps, wsUpgrader, joinLimiter))

	return r
}
