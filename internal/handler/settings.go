package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mobilityp/errorsender/internal/model"
)

type settingsStore interface {
	Load(ctx context.Context) (*model.IntegrationSettings, error)
	Save(ctx context.Context, settings *model.IntegrationSettings) error
}

// SettingsHandler exposes the Desk365 integration settings to admins.
type SettingsHandler struct {
	BaseHandler
	settings settingsStore
}

func NewSettingsHandler(logger *slog.Logger, settings settingsStore) *SettingsHandler {
	return &SettingsHandler{BaseHandler: BaseHandler{Logger: logger, MaxBodyBytes: 1 << 20}, settings: settings}
}

// Get returns the current settings with the API token masked.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Load(r.Context())
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	if err := h.writeJSON(w, http.StatusOK, envelope{"settings": s.Masked()}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// Update saves the settings. An empty token keeps the stored one.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var s model.IntegrationSettings
	if err := h.readJSON(w, r, &s); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	if s.APIToken == "" {
		current, err := h.settings.Load(r.Context())
		if err != nil {
			h.serverErrorResponse(w, r, err)
			return
		}
		s.APIToken = current.APIToken
	}

	if err := h.settings.Save(r.Context(), &s); err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	h.Logger.Info("settings: updated", "dueInBusinessDays", s.DueInBusinessDays)

	if err := h.writeJSON(w, http.StatusOK, envelope{"settings": s.Masked()}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
