package httptransport

import (
	"net/http"

	"tagd/internal/platform/middleware"
	"tagd/pkg/platform/httputil"
)

// EventRequest is the shared payload for game lifecycle events.
type EventRequest struct {
	Identity uint64 `json:"identity"`
}

// HandleConnect handles POST /v1/events/connect requests.
func (h *Handler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[EventRequest](w, r)
	if !ok {
		return
	}
	if req.Identity == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "identity must be a positive integer")
		return
	}

	h.service.Connect(ctx, req.Identity)

	h.logger.InfoContext(ctx, "player connected",
		"request_id", middleware.GetRequestID(ctx),
		"identity", req.Identity,
	)
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// HandleDisconnect handles POST /v1/events/disconnect requests.
func (h *Handler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[EventRequest](w, r)
	if !ok {
		return
	}
	if req.Identity == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "identity must be a positive integer")
		return
	}

	h.service.Disconnect(ctx, req.Identity)
	if h.board != nil {
		h.board.Remove(req.Identity)
	}

	h.logger.InfoContext(ctx, "player disconnected",
		"request_id", middleware.GetRequestID(ctx),
		"identity", req.Identity,
	)
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// HandleSpawn handles POST /v1/events/spawn requests. Spawns never force a
// refresh; they only trigger a reapply for players whose badge may be stale.
func (h *Handler) HandleSpawn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[EventRequest](w, r)
	if !ok {
		return
	}
	if req.Identity == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "identity must be a positive integer")
		return
	}

	h.service.Spawn(ctx, req.Identity)
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// HandleTeamChange handles POST /v1/events/team requests.
func (h *Handler) HandleTeamChange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[EventRequest](w, r)
	if !ok {
		return
	}
	if req.Identity == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "identity must be a positive integer")
		return
	}

	h.service.TeamChange(ctx, req.Identity)
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// HandleBadge handles GET /v1/players/{identity}/badge requests. It reports
// the badge text currently pushed to the scoreboard, for debugging.
func (h *Handler) HandleBadge(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityParam(w, r)
	if !ok {
		return
	}
	if h.board == nil {
		httputil.WriteError(w, http.StatusNotFound, "not_found", "no scoreboard attached")
		return
	}

	text, ok := h.board.Badge(identity)
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "not_found", "no badge for identity")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"identity": identity,
		"badge":    text,
	})
}
