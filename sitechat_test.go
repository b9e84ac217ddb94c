package sitechat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/castlebay/sitechat/browse"
	"github.com/castlebay/sitechat/dbopen"
	"github.com/castlebay/sitechat/genai"
	_ "modernc.org/sqlite"
)

type fakePage struct {
	html  string
	links []string
}

func (p *fakePage) HTML(ctx context.Context) (string, error)    { return p.html, nil }
func (p *fakePage) Links(ctx context.Context) ([]string, error) { return p.links, nil }
func (p *fakePage) Close() error                                { return nil }

type fakeOpener struct {
	mu    sync.Mutex
	pages map[string]*fakePage
}

func (o *fakeOpener) Open(ctx context.Context, url string) (browse.Page, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if p, ok := o.pages[url]; ok {
		return p, nil
	}
	return &fakePage{html: "<html></html>"}, nil
}

func sitePage(body string, links ...string) *fakePage {
	var sb strings.Builder
	sb.WriteString("<html><body><p>")
	sb.WriteString(body)
	sb.WriteString("</p>")
	for _, l := range links {
		sb.WriteString(`<a href="` + l + `">link</a>`)
	}
	sb.WriteString("</body></html>")
	return &fakePage{html: sb.String(), links: links}
}

func TestChat_TriggersIndexingOnce(t *testing.T) {
	body := strings.Repeat("Orders ship within two business days from our warehouse. ", 20)
	opener := &fakeOpener{pages: map[string]*fakePage{
		"https://shop.test/":    sitePage(body, "https://shop.test/faq"),
		"https://shop.test/faq": sitePage(body),
	}}

	db := dbopen.OpenMemory(t)
	svc, err := New(db, opener, &Config{SeedURL: "https://shop.test/"}, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("sitechat.New: %v", err)
	}
	ctx := context.Background()
	svc.Start(ctx)

	// First chat answers immediately and kicks off indexing in the
	// background.
	res, err := svc.Chat(ctx, []genai.Message{{Role: "user", Content: "When do orders ship?"}})
	if err != nil {
		t.Fatalf("first chat: %v", err)
	}
	if res.Answer == "" {
		t.Error("empty answer")
	}
	if !svc.trigger.Started() {
		t.Fatal("chat did not trigger indexing")
	}

	select {
	case <-svc.IndexingDone():
	case <-time.After(10 * time.Second):
		t.Fatal("indexing did not finish")
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats["pages"].(int) != 2 {
		t.Errorf("pages indexed: %v, want 2", stats["pages"])
	}

	// Later chats retrieve stored context and never re-trigger.
	res, err = svc.Chat(ctx, []genai.Message{{Role: "user", Content: "When do orders ship?"}})
	if err != nil {
		t.Fatalf("second chat: %v", err)
	}
	if !res.ContextUsed {
		t.Error("no context retrieved from a populated index")
	}
}

func TestChat_NoBrowserStillAnswers(t *testing.T) {
	db := dbopen.OpenMemory(t)
	svc, err := New(db, nil, &Config{SeedURL: "https://shop.test/"}, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("sitechat.New: %v", err)
	}

	res, err := svc.Chat(context.Background(), []genai.Message{{Role: "user", Content: "hello"}})
	if err != nil {
		t.Fatalf("chat without browser: %v", err)
	}
	if res.Answer == "" {
		t.Error("empty answer")
	}
}

func TestLastUserMessage(t *testing.T) {
	msgs := []genai.Message{
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "an answer"},
		{Role: "user", Content: "  follow-up  "},
	}
	if got := lastUserMessage(msgs); got != "follow-up" {
		t.Errorf("got %q", got)
	}
	if got := lastUserMessage(nil); got != "" {
		t.Errorf("nil messages: got %q", got)
	}
}
