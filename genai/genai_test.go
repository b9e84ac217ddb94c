package genai

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCannedResponderWithoutEndpoint(t *testing.T) {
	r := New(Config{Logger: slog.New(slog.DiscardHandler)})
	got, err := r.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("canned chat: %v", err)
	}
	if !strings.Contains(got, "No language model") {
		t.Errorf("canned answer: got %q", got)
	}
}

func TestChat_PlainAnswer(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("auth header: %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "Use the settings page.\n"}},
			},
		})
	}))
	defer srv.Close()

	r := New(Config{
		Endpoint: srv.URL,
		APIKey:   "sk-test",
		Model:    "test-model",
		Logger:   slog.New(slog.DiscardHandler),
	})
	got, err := r.Chat(context.Background(), []Message{
		{Role: "system", Content: "You are a support agent."},
		{Role: "user", Content: "Where do I reset my password?"},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if got != "Use the settings page." {
		t.Errorf("answer: got %q", got)
	}
	if gotReq.Model != "test-model" {
		t.Errorf("model: got %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 {
		t.Errorf("messages: got %d", len(gotReq.Messages))
	}
	if len(gotReq.Tools) != 0 {
		t.Errorf("tools advertised without a search func: %d", len(gotReq.Tools))
	}
}

func TestChat_ToolRound(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if calls == 1 {
			if len(req.Tools) != 1 || req.Tools[0].Function.Name != searchToolName {
				t.Errorf("first call tools: %+v", req.Tools)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{{
					"message": map[string]any{
						"role": "assistant", "content": "",
						"tool_calls": []map[string]any{{
							"id": "call_1", "type": "function",
							"function": map[string]any{
								"name":      searchToolName,
								"arguments": `{"query":"refund policy","top_k":2}`,
							},
						}},
					},
				}},
			})
			return
		}

		// Second round carries the tool result.
		last := req.Messages[len(req.Messages)-1]
		if last.Role != "tool" || last.ToolCallID != "call_1" {
			t.Errorf("tool reply message: %+v", last)
		}
		if !strings.Contains(last.Content, "30 days") {
			t.Errorf("tool result not forwarded: %q", last.Content)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "Refunds are accepted within 30 days."}},
			},
		})
	}))
	defer srv.Close()

	var searchedQuery string
	r := New(Config{
		Endpoint: srv.URL,
		Model:    "test-model",
		Logger:   slog.New(slog.DiscardHandler),
		Search: func(_ context.Context, query string, topK int) (string, error) {
			searchedQuery = query
			if topK != 2 {
				t.Errorf("top_k: got %d", topK)
			}
			return "Refunds are accepted within 30 days of delivery.", nil
		},
	})

	got, err := r.Chat(context.Background(), []Message{{Role: "user", Content: "What is the refund policy?"}})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if got != "Refunds are accepted within 30 days." {
		t.Errorf("answer: got %q", got)
	}
	if searchedQuery != "refund policy" {
		t.Errorf("search query: got %q", searchedQuery)
	}
	if calls != 2 {
		t.Errorf("API calls: got %d, want 2", calls)
	}
}

func TestChat_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := New(Config{Endpoint: srv.URL, Model: "m", Logger: slog.New(slog.DiscardHandler)})
	if _, err := r.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Fatal("server error did not surface")
	}
}
