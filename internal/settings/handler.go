package settings

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Vovarama1992/homecare-engage/internal/identity"
	"github.com/Vovarama1992/homecare-engage/internal/util"
)

const errNoAdminEmail = "Admin email not found"

type Handler struct {
	prefs *PreferenceStore
	theme *ThemeService
	log   *slog.Logger
}

func NewHandler(prefs *PreferenceStore, theme *ThemeService, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{prefs: prefs, theme: theme, log: log.With("component", "settings_http")}
}

func adminEmail(r *http.Request) (string, bool) {
	id, ok := identity.FromContext(r.Context())
	if !ok || id.Email == "" {
		return "", false
	}
	return id.Email, true
}

func (h *Handler) GetNotificationPreferences(w http.ResponseWriter, r *http.Request) {
	email, ok := adminEmail(r)
	if !ok {
		util.WriteError(w, http.StatusUnauthorized, errNoAdminEmail)
		return
	}
	util.WriteJSON(w, http.StatusOK, h.prefs.Get(email))
}

func (h *Handler) UpdateNotificationPreferences(w http.ResponseWriter, r *http.Request) {
	email, ok := adminEmail(r)
	if !ok {
		util.WriteError(w, http.StatusUnauthorized, errNoAdminEmail)
		return
	}
	var u PreferenceUpdate
	if err := util.DecodeJSON(r, &u); err != nil {
		util.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	p := h.prefs.Update(email, u)
	h.log.Info("notification preferences updated", "actor", email,
		"email_notifications", p.EmailNotifications, "new_chat_alerts", p.NewChatAlerts, "review_alerts", p.ReviewAlerts)
	util.WriteJSON(w, http.StatusOK, p)
}

type themeBody struct {
	Theme Theme `json:"theme"`
}

func (h *Handler) GetTheme(w http.ResponseWriter, r *http.Request) {
	util.WriteJSON(w, http.StatusOK, themeBody{Theme: h.theme.GetTheme(r.Context())})
}

func (h *Handler) UpdateTheme(w http.ResponseWriter, r *http.Request) {
	var body themeBody
	if err := util.DecodeJSON(r, &body); err != nil {
		util.WriteError(w, http.StatusBadRequest, ErrInvalidTheme.Error())
		return
	}
	saved, err := h.theme.SetTheme(r.Context(), body.Theme)
	if errors.Is(err, ErrInvalidTheme) {
		util.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.log.Error("update theme failed", "err", err)
		util.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	util.WriteJSON(w, http.StatusOK, themeBody{Theme: saved})
}
