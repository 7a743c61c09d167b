package httptransport

import (
	"errors"
	"net/http"

	"tagd/internal/platform/middleware"
	"tagd/internal/tags/service"
	"tagd/pkg/platform/httputil"
	"tagd/pkg/platform/sentinel"
)

// HandleChat handles POST /v1/chat requests. The response carries the fully
// formatted delivery, or 204 when a hook suppressed the message. A panic in
// a pre or process observer aborts the whole dispatch: the message is dropped
// and the failure logged, never half-delivered.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.Decode[service.ChatRequest](w, r)
	if !ok {
		return
	}
	if req.Identity == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "identity must be a positive integer")
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.ErrorContext(ctx, "chat dispatch aborted by observer panic",
				"request_id", requestID,
				"identity", req.Identity,
				"panic", rec,
			)
			httputil.WriteError(w, http.StatusInternalServerError, "dispatch_aborted", "")
		}
	}()

	delivery, result, err := h.service.ProcessChat(ctx, req)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotConnected) {
			httputil.WriteError(w, http.StatusNotFound, "not_connected", "sender is not connected")
			return
		}
		h.logger.ErrorContext(ctx, "chat dispatch failed",
			"request_id", requestID,
			"identity", req.Identity,
			"error", err,
		)
		httputil.WriteError(w, http.StatusInternalServerError, "internal", "")
		return
	}

	if delivery == nil {
		h.logger.DebugContext(ctx, "chat message suppressed",
			"request_id", requestID,
			"identity", req.Identity,
			"result", result.String(),
		)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, delivery)
}
