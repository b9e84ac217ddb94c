package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// openaiResponder implements Responder using the OpenAI chat completions
// API format.
type openaiResponder struct {
	endpoint string
	apiKey   string
	model    string
	search   SearchFunc
	client   *http.Client
	logger   *slog.Logger
}

func newOpenAIResponder(cfg Config) *openaiResponder {
	return &openaiResponder{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		search:   cfg.Search,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   cfg.Logger,
	}
}

// searchToolName is the tool the model can call to look up site docs.
const searchToolName = "search_site_docs"

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Tools    []wireTool    `json:"tools,omitempty"`
}

type wireMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type toolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
}

var searchToolSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {"type": "string", "description": "What to look up in the site documentation"},
		"top_k": {"type": "integer", "description": "How many passages to return"}
	},
	"required": ["query"]
}`)

func (r *openaiResponder) Chat(ctx context.Context, messages []Message) (string, error) {
	wire := make([]wireMessage, len(messages))
	for i, m := range messages {
		wire[i] = wireMessage{Role: m.Role, Content: m.Content}
	}

	req := chatRequest{Model: r.model, Messages: wire}
	if r.search != nil {
		req.Tools = []wireTool{{
			Type: "function",
			Function: wireFunction{
				Name:        searchToolName,
				Description: "Search the indexed site documentation for relevant passages.",
				Parameters:  searchToolSchema,
			},
		}}
	}

	msg, err := r.callAPI(ctx, req)
	if err != nil {
		return "", err
	}

	// One tool round: resolve the model's searches and ask again.
	if len(msg.ToolCalls) > 0 && r.search != nil {
		req.Messages = append(req.Messages, *msg)
		for _, tc := range msg.ToolCalls {
			if tc.Function.Name != searchToolName {
				continue
			}
			req.Messages = append(req.Messages, r.runSearchTool(ctx, tc))
		}
		req.Tools = nil
		msg, err = r.callAPI(ctx, req)
		if err != nil {
			return "", err
		}
	}

	return strings.TrimSpace(msg.Content), nil
}

func (r *openaiResponder) runSearchTool(ctx context.Context, tc toolCall) wireMessage {
	var args struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}
	reply := wireMessage{Role: "tool", ToolCallID: tc.ID}
	if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
		reply.Content = "invalid tool arguments"
		return reply
	}
	result, err := r.search(ctx, args.Query, args.TopK)
	if err != nil {
		r.logger.Warn("genai: tool search failed", "query", args.Query, "error", err)
		reply.Content = "documentation search is unavailable"
		return reply
	}
	if result == "" {
		result = "no matching documentation found"
	}
	reply.Content = result
	return reply
}

func (r *openaiResponder) callAPI(ctx context.Context, payload chatRequest) (*wireMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("genai: marshal request: %w", err)
	}

	url := r.endpoint + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("genai: HTTP POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("genai: HTTP %d from %s: %s", resp.StatusCode, url, string(respBody))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("genai: decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("genai: no choices returned from %s", url)
	}
	return &result.Choices[0].Message, nil
}

func (r *openaiResponder) Model() string { return r.model }
