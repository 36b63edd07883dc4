package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/captura3d/portal-api/internal/config"
	"github.com/captura3d/portal-api/internal/gateway"
	httpmiddleware "github.com/captura3d/portal-api/internal/http/middleware"
	"github.com/captura3d/portal-api/internal/role"
)

// Handler bundles the auth routes and their collaborators.
type Handler struct {
	cfg           *config.Config
	gw            *gateway.Gateway
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter returns the configured router.
func NewRouter(cfg *config.Config, gw *gateway.Gateway) http.Handler {
	h := &Handler{
		cfg:           cfg,
		gw:            gw,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Use(httpmiddleware.IPRateLimit(h.publicLimiter))
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(httpmiddleware.Auth(gw))
			r.Use(httpmiddleware.UserRateLimit(h.authLimiter))
			r.Get("/me", h.Me)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(httpmiddleware.Auth(gw))
		r.Use(httpmiddleware.RequirePermission(role.ActionUserManage))
		r.Post("/users", h.CreateUser)
		r.Delete("/users/{id}", h.DeleteUser)
	})

	return r
}
