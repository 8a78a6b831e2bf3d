package nonprofit

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/outreach-mail/internal/common"
	"github.com/noah-isme/outreach-mail/internal/obs"
)

// Handler exposes HTTP endpoints for nonprofit registration.
type Handler struct {
	Directory *Directory
	Logger    zerolog.Logger
}

// Create handles POST /v1/api/nonprofits.
func (h Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Directory == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "nonprofit directory not configured", nil)
		return
	}
	var rec Record
	if err := common.DecodeJSON(r, &rec); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.Directory.Register(r.Context(), rec); err != nil {
		if errors.Is(err, ErrConflict) {
			countRegistration("conflict")
			common.WriteError(w, common.Conflict(fmt.Sprintf("Nonprofit with email %s already exists", rec.Email), err))
			return
		}
		common.WriteError(w, err)
		return
	}
	countRegistration("created")
	h.Logger.Info().Str("email", rec.Email).Msg("nonprofit_registered")
	common.JSONMessage(w, http.StatusCreated, fmt.Sprintf("Nonprofit with email %s added successfully", rec.Email), nil)
}

// Get handles GET /v1/api/nonprofits/{email}.
func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Directory == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "nonprofit directory not configured", nil)
		return
	}
	email := chi.URLParam(r, "email")
	rec, ok := h.Directory.Lookup(r.Context(), email)
	if !ok {
		common.WriteError(w, common.NotFound(fmt.Sprintf("Nonprofit with email %s not found", email), nil))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rec})
}

func countRegistration(result string) {
	if obs.NonprofitRegistrationsTotal != nil {
		obs.NonprofitRegistrationsTotal.WithLabelValues(result).Inc()
	}
}
