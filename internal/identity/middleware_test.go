package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubVerifier struct {
	id  Identity
	err error
}

func (s stubVerifier) Verify(_ context.Context, _ string) (Identity, error) {
	return s.id, s.err
}

func TestRequireAdmin(t *testing.T) {
	cases := []struct {
		name       string
		header     string
		verifier   stubVerifier
		wantStatus int
		wantError  string
	}{
		{"missing header", "", stubVerifier{}, http.StatusUnauthorized, "Unauthorized: No token provided"},
		{"wrong scheme", "Basic abc", stubVerifier{}, http.StatusUnauthorized, "Unauthorized: No token provided"},
		{"empty bearer", "Bearer ", stubVerifier{}, http.StatusUnauthorized, "Unauthorized: No token provided"},
		{"invalid token", "Bearer bad", stubVerifier{err: fmt.Errorf("%w: sig", ErrInvalidToken)}, http.StatusUnauthorized, "Unauthorized: Invalid token"},
		{"verifier down", "Bearer tok", stubVerifier{err: fmt.Errorf("%w: dial", ErrUnavailable)}, http.StatusInternalServerError, "Internal server error"},
		{"valid", "Bearer tok", stubVerifier{id: Identity{ID: "u1", Email: "owner@example.com"}}, http.StatusOK, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen Identity
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, ok := FromContext(r.Context())
				if !ok {
					t.Fatalf("identity missing from context")
				}
				seen = id
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/admin/chat/sessions", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			RequireAdmin(tc.verifier)(next).ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantError != "" {
				var body map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("decode body: %v", err)
				}
				if body["error"] != tc.wantError {
					t.Fatalf("error = %q, want %q", body["error"], tc.wantError)
				}
				return
			}
			if seen.Email != "owner@example.com" {
				t.Fatalf("identity not propagated: %+v", seen)
			}
		})
	}
}

func TestFromContextEmpty(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatalf("expected no identity on empty context")
	}
}
