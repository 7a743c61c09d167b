// Package httptransport is the thin HTTP layer over the tag service. Handlers
// decode, delegate, and translate results; game and tag semantics stay in the
// service packages.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tagd/internal/platform/middleware"
	"tagd/internal/presentation"
	"tagd/internal/tags/service"
	"tagd/pkg/platform/httputil"
)

// ReloadFunc re-reads the rules source and applies it to the running service.
// It reports how many permission rules the new set carries.
type ReloadFunc func(ctx context.Context) (int, error)

// HealthFunc reports backend health, nil meaning healthy.
type HealthFunc func(ctx context.Context) error

// Handler wires tag endpoints to the tag service.
type Handler struct {
	service *service.Service
	board   *presentation.Scoreboard
	reload  ReloadFunc
	health  HealthFunc
	logger  *slog.Logger
}

// New constructs the HTTP handler with its dependencies. reload and health
// may be nil; the matching endpoints then degrade gracefully.
func New(svc *service.Service, board *presentation.Scoreboard, reload ReloadFunc, health HealthFunc, logger *slog.Logger) *Handler {
	return &Handler{
		service: svc,
		board:   board,
		reload:  reload,
		health:  health,
		logger:  logger,
	}
}

// NewRouter mounts all endpoints. Admin routes sit behind bearer-token auth.
func NewRouter(h *Handler, validator middleware.TokenValidator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Get("/healthz", h.HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/events/connect", h.HandleConnect)
		r.Post("/events/disconnect", h.HandleDisconnect)
		r.Post("/events/spawn", h.HandleSpawn)
		r.Post("/events/team", h.HandleTeamChange)

		r.Post("/chat", h.HandleChat)
		r.Get("/players/{identity}/badge", h.HandleBadge)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(validator, h.logger))
			r.Post("/reload", h.HandleReload)
			r.Get("/players/{identity}/attributes", h.HandleGetAttributes)
			r.Post("/players/{identity}/attributes", h.HandleMutateAttributes)
			r.Delete("/players/{identity}/attributes", h.HandleResetAttributes)
			r.Put("/players/{identity}/visibility", h.HandleSetVisibility)
			r.Put("/players/{identity}/chat-sound", h.HandleSetChatSound)
		})
	})

	return r
}

// HandleHealth handles GET /healthz requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			httputil.WriteError(w, http.StatusServiceUnavailable, "unhealthy", err.Error())
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// identityParam parses the {identity} URL segment. A zero return with ok false
// means the response has already been written.
func identityParam(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := chi.URLParam(r, "identity")
	identity, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || identity == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "identity must be a positive integer")
		return 0, false
	}
	return identity, true
}
