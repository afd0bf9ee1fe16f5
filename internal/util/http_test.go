package util

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusNotFound, "Chat session not found")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 1 || body["error"] != "Chat session not found" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestDecodeJSONRejectsOversizedBody(t *testing.T) {
	big := `{"content":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	var dst struct {
		Content string `json:"content"`
	}
	if err := DecodeJSON(req, &dst); err == nil {
		t.Fatalf("expected oversized body to fail")
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"content":"ok"}`))
	if err := DecodeJSON(req, &dst); err != nil || dst.Content != "ok" {
		t.Fatalf("decode small body: %v %q", err, dst.Content)
	}
}

func TestWithRequestLog(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	h := middleware.RequestID(WithRequestLog(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/admin/chat/sessions/x", nil))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}
	if line["msg"] != "http_request" || line["method"] != "DELETE" || line["status"] != float64(http.StatusTeapot) {
		t.Fatalf("unexpected log line: %v", line)
	}
	if id, _ := line["request_id"].(string); id == "" {
		t.Fatalf("request id missing: %v", line)
	}
}

func TestInitLoggerLevels(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		l := InitLogger(in)
		if !l.Enabled(context.Background(), want) {
			t.Fatalf("%q: level %v should be enabled", in, want)
		}
		if want > slog.LevelDebug && l.Enabled(context.Background(), want-4) {
			t.Fatalf("%q: level below %v should be disabled", in, want)
		}
	}
}
