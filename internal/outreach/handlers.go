package outreach

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/outreach-mail/internal/common"
)

// Handler exposes the send and history endpoints.
type Handler struct {
	Engine *Engine
}

// SendEmails handles POST /v1/api/send-emails. The batch is processed
// synchronously; per-recipient outcomes are returned alongside the
// acknowledgement.
func (h Handler) SendEmails(w http.ResponseWriter, r *http.Request) {
	if h.Engine == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "dispatch engine not configured", nil)
		return
	}
	var req BatchRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	result := h.Engine.Dispatch(r.Context(), req)
	common.JSONMessage(w, http.StatusOK, "Email sending initiated", result)
}

// ListSent handles GET /v1/api/sent-emails.
func (h Handler) ListSent(w http.ResponseWriter, _ *http.Request) {
	if h.Engine == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "dispatch engine not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, h.Engine.History().All())
}

// ListSentBySender handles GET /v1/api/sent-emails/{senderId}.
func (h Handler) ListSentBySender(w http.ResponseWriter, r *http.Request) {
	if h.Engine == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "dispatch engine not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, h.Engine.History().BySender(chi.URLParam(r, "senderId")))
}

// Statuses handles GET /debug/dispatch-status.
func (h Handler) Statuses(w http.ResponseWriter, _ *http.Request) {
	if h.Engine == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "dispatch engine not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Engine.Status().Snapshot()})
}
