package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Vovarama1992/homecare-engage/internal/identity"
	"github.com/Vovarama1992/homecare-engage/internal/util"
)

type Handler struct {
	svc Service
	log *slog.Logger
}

func NewHandler(svc Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log.With("component", "chat_http")}
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.CreateSession(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusCreated, session)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok, err := h.svc.GetSession(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		util.WriteError(w, http.StatusNotFound, ErrSessionNotFound.Error())
		return
	}
	util.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) GetAllSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.GetAllSessions(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, sessions)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status Status `json:"status"`
	}
	if err := util.DecodeJSON(r, &payload); err != nil || !payload.Status.Valid() {
		util.WriteError(w, http.StatusBadRequest, "Invalid status")
		return
	}
	session, ok, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "sessionId"), payload.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		util.WriteError(w, http.StatusNotFound, ErrSessionNotFound.Error())
		return
	}
	util.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.svc.GetMessages(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, messages)
}

// CreateCustomerMessage is the public entry point; the sender is always customer.
func (h *Handler) CreateCustomerMessage(w http.ResponseWriter, r *http.Request) {
	h.createMessage(w, r, SenderCustomer)
}

func (h *Handler) CreateAdminMessage(w http.ResponseWriter, r *http.Request) {
	h.createMessage(w, r, SenderAdmin)
}

func (h *Handler) createMessage(w http.ResponseWriter, r *http.Request, sender Sender) {
	content, ok := decodeContent(r)
	if !ok {
		util.WriteError(w, http.StatusBadRequest, "Message content is required")
		return
	}
	msg, err := h.svc.CreateMessage(r.Context(), chi.URLParam(r, "sessionId"), MessageInput{
		Content: content,
		Sender:  sender,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusCreated, msg)
}

// decodeContent accepts only a non-empty JSON string in "content".
func decodeContent(r *http.Request) (string, bool) {
	var payload struct {
		Content json.RawMessage `json:"content"`
	}
	if err := util.DecodeJSON(r, &payload); err != nil || len(payload.Content) == 0 {
		return "", false
	}
	var content string
	if err := json.Unmarshal(payload.Content, &content); err != nil || content == "" {
		return "", false
	}
	return content, true
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")
	actor := "unknown"
	if who, ok := identity.FromContext(r.Context()); ok && who.Email != "" {
		actor = who.Email
	}
	audit := h.log.With("audit", true, "action", "delete_session", "session_id", id, "actor", actor)

	audit.Info("session delete requested")
	deleted, err := h.svc.DeleteSession(r.Context(), id, actor)
	if err != nil {
		audit.Error("session delete failed", "err", err)
		util.WriteError(w, http.StatusInternalServerError, "Failed to delete chat session")
		return
	}
	if !deleted {
		audit.Warn("session delete failed", "reason", "not_found")
		util.WriteError(w, http.StatusNotFound, ErrSessionNotFound.Error())
		return
	}
	audit.Info("session deleted")
	util.WriteJSON(w, http.StatusOK, map[string]string{"message": "Chat session deleted successfully"})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrSessionNotFound) {
		util.WriteError(w, http.StatusNotFound, ErrSessionNotFound.Error())
		return
	}
	h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	util.WriteError(w, http.StatusInternalServerError, "Internal server error")
}
