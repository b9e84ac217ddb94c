// Package sitechat is a customer-support chat backend grounded in the
// content of a single website. On first use it crawls the configured site
// with a headless browser, chunks and embeds the extracted text into
// SQLite, and answers chat queries by retrieving the most similar chunks
// and prompting a hosted language model. Contact requests submitted
// through the widget are validated and persisted as leads.
package sitechat

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/castlebay/sitechat/browse"
	"github.com/castlebay/sitechat/embed"
	"github.com/castlebay/sitechat/genai"
	"github.com/castlebay/sitechat/index"
	"github.com/castlebay/sitechat/kit"
	"github.com/castlebay/sitechat/leads"
	"github.com/castlebay/sitechat/retrieve"
	"github.com/castlebay/sitechat/store"
)

// Service wires the indexing pipeline, retrieval, generation, and lead
// capture behind one API surface.
type Service struct {
	cfg       *Config
	logger    *slog.Logger
	store     *store.Store
	leadStore *leads.Store
	embedder  embed.Embedder
	retriever *retrieve.Retriever
	responder genai.Responder
	trigger   *index.Trigger
	opener    browse.PageOpener

	// runCtx outlives individual requests; the background indexing run
	// is bound to it.
	runCtx context.Context
}

// New creates a Service over an open database handle. opener may be nil
// for deployments that serve an already-populated index without a
// browser; the indexing trigger is then disabled.
func New(db *sql.DB, opener browse.PageOpener, cfg *Config, logger *slog.Logger) (*Service, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	if err := store.ApplySchema(db); err != nil {
		return nil, fmt.Errorf("sitechat: %w", err)
	}
	st := store.NewStore(db)

	leadStore, err := leads.New(db)
	if err != nil {
		return nil, fmt.Errorf("sitechat: %w", err)
	}

	cfg.Embed.Logger = logger
	cfg.EmbedRetry.Logger = logger
	embedder := embed.NewRetrier(embed.New(cfg.Embed), cfg.EmbedRetry)

	retriever := retrieve.New(st, embedder, logger)

	cfg.GenAI.Logger = logger
	if cfg.GenAI.Search == nil {
		cfg.GenAI.Search = retriever.Search
	}
	responder := genai.New(cfg.GenAI)

	svc := &Service{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		leadStore: leadStore,
		embedder:  embedder,
		retriever: retriever,
		responder: responder,
		opener:    opener,
		runCtx:    context.Background(),
	}

	if opener != nil && cfg.SeedURL != "" {
		ix := index.New(index.Config{
			Store:    st,
			Embedder: embedder,
			Chunking: cfg.Chunk,
			Logger:   logger,
		})
		svc.trigger = index.NewTrigger(ix, opener, cfg.SeedURL, cfg.crawlOptions())
	}

	return svc, nil
}

// Start binds the background indexing run to the process context. Without
// it the run uses context.Background and never observes shutdown.
func (s *Service) Start(ctx context.Context) {
	s.runCtx = ctx
}

// ChatResult is the outcome of one chat turn.
type ChatResult struct {
	Answer      string `json:"answer"`
	ContextUsed bool   `json:"context_used"`
}

// Chat answers the conversation's last user message. The first chat of
// the process lazily triggers the crawl+index run; the answer does not
// wait for it, so early queries may retrieve few or no chunks. Retrieval
// failures degrade to answering without context rather than failing the
// request.
func (s *Service) Chat(ctx context.Context, messages []genai.Message) (*ChatResult, error) {
	query := lastUserMessage(messages)
	if query == "" {
		return nil, fmt.Errorf("%w: no user message", ErrInvalidInput)
	}

	if s.trigger != nil && s.trigger.TriggerOnce(s.runCtx) {
		s.logger.Info("indexing triggered", "seed", s.cfg.SeedURL)
	}

	docContext, err := s.retriever.Search(ctx, query, s.cfg.TopK)
	if err != nil {
		s.logger.Warn("retrieval failed, answering without context",
			"error", err, "request_id", kit.GetRequestID(ctx))
		docContext = ""
	}

	prompt := []genai.Message{{Role: "system", Content: s.buildSystemPrompt(docContext)}}
	prompt = append(prompt, messages...)

	answer, err := s.responder.Chat(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("sitechat: chat: %w", err)
	}
	return &ChatResult{Answer: answer, ContextUsed: docContext != ""}, nil
}

func (s *Service) buildSystemPrompt(docContext string) string {
	if docContext == "" {
		return s.cfg.SystemPrompt
	}
	return s.cfg.SystemPrompt + "\n\nRelevant site documentation:\n\n" + docContext
}

// lastUserMessage returns the most recent non-empty user turn.
func lastUserMessage(messages []genai.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			if q := strings.TrimSpace(messages[i].Content); q != "" {
				return q
			}
		}
	}
	return ""
}

// SubmitLead validates and persists a contact request.
func (s *Service) SubmitLead(ctx context.Context, l *leads.Lead) error {
	if err := s.leadStore.Insert(ctx, l); err != nil {
		return err
	}
	s.logger.Info("lead captured", "id", l.ID, "inquiry_type", l.InquiryType,
		"transport", kit.GetTransport(ctx), "remote_addr", kit.GetRemoteAddr(ctx))
	return nil
}

// Stats reports corpus and lead counters for the operator surface.
func (s *Service) Stats(ctx context.Context) (map[string]any, error) {
	st, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("sitechat: %w", err)
	}
	nLeads, err := s.leadStore.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("sitechat: %w", err)
	}
	return map[string]any{
		"pages":           st.Pages,
		"chunks":          st.Chunks,
		"searches":        st.Searches,
		"leads":           nLeads,
		"indexing":        s.trigger != nil && s.trigger.Started(),
		"embedding_model": s.embedder.Model(),
	}, nil
}

// IndexingDone exposes completion of the triggered run for shutdown
// draining and tests. Returns a closed channel when no trigger exists.
func (s *Service) IndexingDone() <-chan struct{} {
	if s.trigger == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.trigger.Done()
}
