package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Vovarama1992/homecare-engage/internal/identity"
)

func newTestRouter(t *testing.T, svc Service) http.Handler {
	t.Helper()
	h := NewHandler(svc, nil)
	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		RegisterRoutes(api, h)
		api.Route("/admin", func(admin chi.Router) {
			admin.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					ctx := identity.WithIdentity(r.Context(), identity.Identity{ID: "u1", Email: "owner@example.com"})
					next.ServeHTTP(w, r.WithContext(ctx))
				})
			})
			RegisterAdminRoutes(admin, h)
		})
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHandlerSessionLifecycle(t *testing.T) {
	svc := NewService(NewMemorySessionRepo(), NewMemoryMessageRepo(), nil)
	h := newTestRouter(t, svc)

	rec := do(t, h, http.MethodPost, "/api/chat/sessions", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	created := decode[map[string]any](t, rec)
	id, _ := created["_id"].(string)
	if id == "" || created["status"] != "Pending" || created["customerId"] == "" {
		t.Fatalf("unexpected create body: %v", created)
	}

	rec = do(t, h, http.MethodGet, "/api/chat/sessions/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/chat/sessions/"+id+"/messages", `{"content":"hello","sender":"admin"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("customer message status = %d", rec.Code)
	}
	if msg := decode[map[string]any](t, rec); msg["sender"] != "customer" {
		t.Fatalf("public endpoint must force customer sender, got %v", msg["sender"])
	}

	rec = do(t, h, http.MethodPost, "/api/admin/chat/sessions/"+id+"/messages", `{"content":"hi there"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin message status = %d", rec.Code)
	}
	if msg := decode[map[string]any](t, rec); msg["sender"] != "admin" {
		t.Fatalf("admin endpoint must force admin sender, got %v", msg["sender"])
	}

	rec = do(t, h, http.MethodGet, "/api/chat/sessions/"+id+"/messages", "")
	msgs := decode[[]map[string]any](t, rec)
	if len(msgs) != 2 || msgs[0]["content"] != "hello" || msgs[1]["content"] != "hi there" {
		t.Fatalf("unexpected messages: %v", msgs)
	}

	rec = do(t, h, http.MethodPatch, "/api/admin/chat/sessions/"+id+"/status", `{"status":"Confirmed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}
	if s := decode[map[string]any](t, rec); s["status"] != "Confirmed" {
		t.Fatalf("status not updated: %v", s)
	}

	rec = do(t, h, http.MethodGet, "/api/admin/chat/sessions", "")
	if all := decode[[]map[string]any](t, rec); len(all) != 1 {
		t.Fatalf("expected 1 session, got %d", len(all))
	}

	rec = do(t, h, http.MethodDelete, "/api/admin/chat/sessions/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if body := decode[map[string]string](t, rec); body["message"] != "Chat session deleted successfully" {
		t.Fatalf("unexpected delete body: %v", body)
	}

	rec = do(t, h, http.MethodGet, "/api/chat/sessions/"+id, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("deleted session get status = %d", rec.Code)
	}
	rec = do(t, h, http.MethodDelete, "/api/admin/chat/sessions/"+id, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rec.Code)
	}
}

func TestHandlerValidation(t *testing.T) {
	svc := NewService(NewMemorySessionRepo(), NewMemoryMessageRepo(), nil)
	s, _ := svc.CreateSession(context.Background())
	h := newTestRouter(t, svc)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		errMsg string
	}{
		{"missing content", http.MethodPost, "/api/chat/sessions/" + s.ID + "/messages", `{}`, 400, "Message content is required"},
		{"empty content", http.MethodPost, "/api/chat/sessions/" + s.ID + "/messages", `{"content":""}`, 400, "Message content is required"},
		{"numeric content", http.MethodPost, "/api/chat/sessions/" + s.ID + "/messages", `{"content":42}`, 400, "Message content is required"},
		{"null content", http.MethodPost, "/api/chat/sessions/" + s.ID + "/messages", `{"content":null}`, 400, "Message content is required"},
		{"malformed body", http.MethodPost, "/api/admin/chat/sessions/" + s.ID + "/messages", `{`, 400, "Message content is required"},
		{"unknown session", http.MethodPost, "/api/chat/sessions/nope/messages", `{"content":"x"}`, 404, "Chat session not found"},
		{"bad status", http.MethodPatch, "/api/admin/chat/sessions/" + s.ID + "/status", `{"status":"Archived"}`, 400, "Invalid status"},
		{"missing status", http.MethodPatch, "/api/admin/chat/sessions/" + s.ID + "/status", `{}`, 400, "Invalid status"},
		{"status on unknown session", http.MethodPatch, "/api/admin/chat/sessions/nope/status", `{"status":"Completed"}`, 404, "Chat session not found"},
		{"unknown session get", http.MethodGet, "/api/chat/sessions/nope", "", 404, "Chat session not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, tc.method, tc.path, tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if body := decode[map[string]string](t, rec); body["error"] != tc.errMsg {
				t.Fatalf("error = %q, want %q", body["error"], tc.errMsg)
			}
		})
	}
}

type brokenService struct {
	Service
}

func (brokenService) GetAllSessions(context.Context) ([]Session, error) {
	return nil, errors.New("pq: connection refused to 10.0.0.5")
}

func (brokenService) DeleteSession(context.Context, string, string) (bool, error) {
	return false, errors.New("pq: connection refused")
}

func TestHandlerHidesStoreErrors(t *testing.T) {
	h := newTestRouter(t, brokenService{})

	rec := do(t, h, http.MethodGet, "/api/admin/chat/sessions", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Fatalf("store detail leaked: %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodDelete, "/api/admin/chat/sessions/abc", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("delete status = %d", rec.Code)
	}
}
