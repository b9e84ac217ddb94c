package sitechat

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/castlebay/sitechat/dbopen"
	"github.com/castlebay/sitechat/kit"
	_ "modernc.org/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := dbopen.OpenMemory(t)
	svc, err := New(db, nil, &Config{}, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("sitechat.New: %v", err)
	}
	return svc
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChatEndpoint(t *testing.T) {
	h := newTestService(t).Handler()

	rec := postJSON(t, h, "/api/chat", map[string]any{
		"messages": []map[string]string{
			{"role": "user", "content": "How do I reset my password?"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d, body: %s", rec.Code, rec.Body)
	}

	var res ChatResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Answer == "" {
		t.Error("empty answer")
	}
	if res.ContextUsed {
		t.Error("context reported on an empty index")
	}
}

func TestChatEndpoint_NoUserMessage(t *testing.T) {
	h := newTestService(t).Handler()

	rec := postJSON(t, h, "/api/chat", map[string]any{
		"messages": []map[string]string{
			{"role": "assistant", "content": "Hello! How can I help?"},
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d, want 400", rec.Code)
	}
}

func TestChatEndpoint_MalformedBody(t *testing.T) {
	h := newTestService(t).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d, want 400", rec.Code)
	}
}

func TestLeadEndpoint(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()

	rec := postJSON(t, h, "/api/leads", map[string]any{
		"name":    "Ada Lovelace",
		"email":   "ada@example.test",
		"message": "Please call me about pricing.",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d, body: %s", rec.Code, rec.Body)
	}
	var res map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res["id"] == "" || res["status"] != "ok" {
		t.Errorf("response: %v", res)
	}

	// Invalid email: field-level 400 before any write.
	rec = postJSON(t, h, "/api/leads", map[string]any{
		"name":  "Ada",
		"email": "not-an-address",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid email status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "email") {
		t.Errorf("error does not name the field: %s", rec.Body)
	}

	stats, err := svc.Stats(t.Context())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats["leads"] != 1 {
		t.Errorf("lead count: %v, want 1", stats["leads"])
	}
}

func TestRequestContext(t *testing.T) {
	var gotID, gotAddr string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = kit.GetRequestID(r.Context())
		gotAddr = kit.GetRemoteAddr(r.Context())
	})
	h := middleware.RequestID(requestContext(inner))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "203.0.113.9:4411"
	h.ServeHTTP(httptest.NewRecorder(), req)

	if gotID == "" {
		t.Error("request id not propagated into context")
	}
	if gotAddr != "203.0.113.9" {
		t.Errorf("remote addr: got %q, want 203.0.113.9", gotAddr)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestService(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	var res map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res["status"] != "ok" {
		t.Errorf("health: %v", res)
	}
	if res["indexing"] != false {
		t.Errorf("indexing without a trigger: %v", res["indexing"])
	}
}

func TestStatsEndpoint(t *testing.T) {
	h := newTestService(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	var res map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"pages", "chunks", "leads", "embedding_model"} {
		if _, ok := res[key]; !ok {
			t.Errorf("stats missing %q: %v", key, res)
		}
	}
}
