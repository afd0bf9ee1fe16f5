package chat

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/chat/sessions", h.CreateSession)
	r.Get("/chat/sessions/{sessionId}", h.GetSession)
	r.Get("/chat/sessions/{sessionId}/messages", h.GetMessages)
	r.Post("/chat/sessions/{sessionId}/messages", h.CreateCustomerMessage)
}

// RegisterAdminRoutes expects r to already enforce admin authentication.
func RegisterAdminRoutes(r chi.Router, h *Handler) {
	r.Get("/chat/sessions", h.GetAllSessions)
	r.Get("/chat/sessions/{sessionId}/messages", h.GetMessages)
	r.Post("/chat/sessions/{sessionId}/messages", h.CreateAdminMessage)
	r.Patch("/chat/sessions/{sessionId}/status", h.UpdateStatus)
	r.Delete("/chat/sessions/{sessionId}", h.DeleteSession)
}
