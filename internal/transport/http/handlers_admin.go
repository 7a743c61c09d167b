package httptransport

import (
	"net/http"

	"tagd/internal/platform/middleware"
	"tagd/internal/tags/models"
	"tagd/pkg/platform/httputil"
)

// AttributeMutation is the admin payload for changing a player's tag fields.
// Op is one of "add", "set" or "reset"; Position applies to "add" only.
type AttributeMutation struct {
	Op       string   `json:"op"`
	Kinds    []string `json:"kinds"`
	Value    string   `json:"value"`
	Position string   `json:"position"`
}

// HandleReload handles POST /v1/admin/reload requests.
func (h *Handler) HandleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reload == nil {
		httputil.WriteError(w, http.StatusNotImplemented, "not_supported", "no rules source configured")
		return
	}

	rules, err := h.reload(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "rules reload failed",
			"request_id", middleware.GetRequestID(ctx),
			"actor", middleware.GetAdminSubject(ctx),
			"error", err,
		)
		httputil.WriteError(w, http.StatusUnprocessableEntity, "reload_failed", err.Error())
		return
	}

	h.logger.InfoContext(ctx, "rules reloaded",
		"request_id", middleware.GetRequestID(ctx),
		"actor", middleware.GetAdminSubject(ctx),
		"rules", rules,
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "rules": rules})
}

// HandleGetAttributes handles GET /v1/admin/players/{identity}/attributes
// requests, returning the player's current effective tag fields.
func (h *Handler) HandleGetAttributes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityParam(w, r)
	if !ok {
		return
	}
	if !h.service.Connected(identity) {
		httputil.WriteError(w, http.StatusNotFound, "not_connected", "player is not connected")
		return
	}

	out := make(map[string]string, len(models.Kinds))
	for _, k := range models.Kinds {
		out[kindName(k)] = h.service.GetAttribute(ctx, identity, k)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"identity":   identity,
		"attributes": out,
		"visible":    h.service.Visibility(ctx, identity),
		"chat_sound": h.service.ChatSoundEnabled(ctx, identity),
	})
}

// HandleMutateAttributes handles POST /v1/admin/players/{identity}/attributes
// requests.
func (h *Handler) HandleMutateAttributes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[AttributeMutation](w, r)
	if !ok {
		return
	}

	var kinds models.Kind
	for _, name := range req.Kinds {
		k, ok := models.ParseKind(name)
		if !ok {
			httputil.WriteError(w, http.StatusBadRequest, "bad_request", "unknown attribute kind: "+name)
			return
		}
		kinds |= k
	}
	if kinds == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "at least one attribute kind is required")
		return
	}
	if !h.service.Connected(identity) {
		httputil.WriteError(w, http.StatusNotFound, "not_connected", "player is not connected")
		return
	}

	switch req.Op {
	case "add":
		h.service.AddAttribute(ctx, identity, kinds, models.ParsePosition(req.Position), req.Value)
	case "set":
		h.service.SetAttribute(ctx, identity, kinds, req.Value)
	case "reset":
		h.service.ResetAttribute(ctx, identity, kinds)
	default:
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "op must be add, set or reset")
		return
	}

	h.logger.InfoContext(ctx, "attributes mutated",
		"request_id", middleware.GetRequestID(ctx),
		"actor", middleware.GetAdminSubject(ctx),
		"identity", identity,
		"op", req.Op,
		"kinds", req.Kinds,
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleResetAttributes handles DELETE /v1/admin/players/{identity}/attributes
// requests, restoring all display fields to their resolved values.
func (h *Handler) HandleResetAttributes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityParam(w, r)
	if !ok {
		return
	}
	if !h.service.Connected(identity) {
		httputil.WriteError(w, http.StatusNotFound, "not_connected", "player is not connected")
		return
	}

	var all models.Kind
	for _, k := range models.Kinds {
		all |= k
	}
	h.service.ResetAttribute(ctx, identity, all)

	h.logger.InfoContext(ctx, "attributes reset",
		"request_id", middleware.GetRequestID(ctx),
		"actor", middleware.GetAdminSubject(ctx),
		"identity", identity,
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// VisibilityRequest is the payload for PUT .../visibility.
type VisibilityRequest struct {
	Visible bool `json:"visible"`
}

// HandleSetVisibility handles PUT /v1/admin/players/{identity}/visibility
// requests.
func (h *Handler) HandleSetVisibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[VisibilityRequest](w, r)
	if !ok {
		return
	}
	if !h.service.Connected(identity) {
		httputil.WriteError(w, http.StatusNotFound, "not_connected", "player is not connected")
		return
	}

	h.service.SetVisibility(ctx, identity, req.Visible)

	h.logger.InfoContext(ctx, "visibility set",
		"request_id", middleware.GetRequestID(ctx),
		"actor", middleware.GetAdminSubject(ctx),
		"identity", identity,
		"visible", req.Visible,
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ChatSoundRequest is the payload for PUT .../chat-sound.
type ChatSoundRequest struct {
	Enabled bool `json:"enabled"`
}

// HandleSetChatSound handles PUT /v1/admin/players/{identity}/chat-sound
// requests.
func (h *Handler) HandleSetChatSound(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[ChatSoundRequest](w, r)
	if !ok {
		return
	}
	if !h.service.Connected(identity) {
		httputil.WriteError(w, http.StatusNotFound, "not_connected", "player is not connected")
		return
	}

	h.service.SetChatSoundEnabled(ctx, identity, req.Enabled)

	h.logger.InfoContext(ctx, "chat sound set",
		"request_id", middleware.GetRequestID(ctx),
		"actor", middleware.GetAdminSubject(ctx),
		"identity", identity,
		"enabled", req.Enabled,
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func kindName(k models.Kind) string {
	switch k {
	case models.KindScoreTag:
		return "score_tag"
	case models.KindChatTag:
		return "chat_tag"
	case models.KindNameColor:
		return "name_color"
	case models.KindChatColor:
		return "chat_color"
	default:
		return "unknown"
	}
}
