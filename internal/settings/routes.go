package settings

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/settings/theme", h.GetTheme)
}

func RegisterAdminRoutes(r chi.Router, h *Handler) {
	r.Get("/settings/notifications", h.GetNotificationPreferences)
	r.Patch("/settings/notifications", h.UpdateNotificationPreferences)
	r.Patch("/settings/theme", h.UpdateTheme)
}
