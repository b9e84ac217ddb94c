package sitechat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/castlebay/sitechat/kit"
	"github.com/castlebay/sitechat/leads"
)

// RegisterMCP registers sitechat tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerSearchTool(srv)
	s.registerLeadTool(srv)
}

// instrumented logs every invocation of a tool endpoint with its
// transport and duration.
func (s *Service) instrumented(tool string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			s.logger.Info("tool call",
				"tool", tool,
				"transport", kit.GetTransport(ctx),
				"duration_ms", time.Since(start).Milliseconds(),
				"ok", err == nil)
			return resp, err
		}
	}
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	sc := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		sc["required"] = required
	}
	return sc
}

// --- search ---

type searchReq struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

func (s *Service) registerSearchTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sitechat_search",
		Description: "Search the indexed site documentation for passages relevant to a query.",
		InputSchema: inputSchema(map[string]any{
			"query": map[string]any{"type": "string", "description": "Free-text query"},
			"top_k": map[string]any{"type": "integer", "description": "Number of passages (default: 5)"},
		}, []string{"query"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*searchReq)
		matches, err := s.retriever.Matches(ctx, r.Query, r.TopK)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, len(matches))
		for i, m := range matches {
			out[i] = map[string]any{
				"url":   m.URL,
				"text":  m.Text,
				"score": m.Score,
			}
		}
		return map[string]any{"results": out, "count": len(out)}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r searchReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	endpoint = kit.Chain(s.instrumented(tool.Name))(endpoint)
	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- lead ---

func (s *Service) registerLeadTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "sitechat_lead",
		Description: "Record a contact request captured during a conversation.",
		InputSchema: inputSchema(map[string]any{
			"name":           map[string]any{"type": "string", "description": "Contact name"},
			"email":          map[string]any{"type": "string", "description": "Contact email address"},
			"phone":          map[string]any{"type": "string"},
			"company":        map[string]any{"type": "string"},
			"inquiry_type":   map[string]any{"type": "string"},
			"message":        map[string]any{"type": "string"},
			"contact_method": map[string]any{"type": "string"},
			"best_time":      map[string]any{"type": "string"},
			"agree":          map[string]any{"type": "boolean", "description": "Consent to be contacted"},
			"newsletter":     map[string]any{"type": "boolean"},
		}, []string{"name", "email"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		l := req.(*leads.Lead)
		if err := s.SubmitLead(ctx, l); err != nil {
			return nil, err
		}
		return map[string]string{"id": l.ID, "status": "ok"}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var l leads.Lead
		if err := json.Unmarshal(req.Params.Arguments, &l); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &l}, nil
	}

	endpoint = kit.Chain(s.instrumented(tool.Name))(endpoint)
	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
