package extract

import (
	"strings"
	"testing"

	"github.com/castlebay/sitechat/chunk"
)

const samplePage = `<!DOCTYPE html>
<html><head><title>  Help Center  </title>
<style>body { color: red }</style>
<script>console.log("tracking")</script>
</head><body>
<nav><a href="/">Home</a><a href="/docs">Docs</a></nav>
<main>
  <h1>Resetting   your password</h1>
  <p>Open the   settings page and
  choose &quot;Security&quot;.</p>
  <noscript>Enable JavaScript.</noscript>
</main>
<footer>© 2026 Example Corp</footer>
</body></html>`

func TestFromHTML_StripsNonContent(t *testing.T) {
	res, err := FromHTML(samplePage, "https://example.test/help")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if res.Title != "Help Center" {
		t.Errorf("title: got %q", res.Title)
	}
	for _, banned := range []string{"console.log", "color: red", "Enable JavaScript", "Example Corp", "Docs"} {
		if strings.Contains(res.Text, banned) {
			t.Errorf("text contains excluded content %q", banned)
		}
	}
	if !strings.Contains(res.Text, "Resetting your password") {
		t.Errorf("text missing heading: %q", res.Text)
	}
	if !strings.Contains(res.Text, `Open the settings page and choose "Security".`) {
		t.Errorf("whitespace not collapsed: %q", res.Text)
	}
	if res.Hash == "" {
		t.Error("empty content hash")
	}
}

func TestFromHTML_DocumentOrder(t *testing.T) {
	page := `<html><body><p>first</p><div><span>second</span></div><p>third</p></body></html>`
	res, err := FromHTML(page, "https://example.test/")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	first := strings.Index(res.Text, "first")
	second := strings.Index(res.Text, "second")
	third := strings.Index(res.Text, "third")
	if !(first < second && second < third) {
		t.Errorf("text not in document order: %q", res.Text)
	}
}

func TestFromHTML_EmptyBody(t *testing.T) {
	res, err := FromHTML(`<html><head><script>x()</script></head><body>   </body></html>`, "https://example.test/")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Text != "" {
		t.Errorf("text: got %q, want empty", res.Text)
	}
	if got := res.Chunks(chunk.Options{}); got != nil {
		t.Errorf("chunks from empty text: got %d", len(got))
	}
}

func TestResult_Chunks(t *testing.T) {
	body := strings.Repeat("All plans include email support with a one business day response time. ", 30)
	res, err := FromHTML("<html><body><p>"+body+"</p></body></html>", "https://example.test/pricing")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	chunks := res.Chunks(chunk.Options{Size: 400, Overlap: 100})
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want >= 2", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk[%d]: index %d", i, c.Index)
		}
	}
}

func TestToMarkdown_FallsBackToText(t *testing.T) {
	if got := toMarkdown("", "https://example.test/", "plain"); got != "plain" {
		t.Errorf("empty html: got %q, want fallback", got)
	}
}

func TestToMarkdown_Sanitises(t *testing.T) {
	md := toMarkdown(`<p>Hello <script>alert(1)</script><strong>there</strong></p>`,
		"https://example.test/", "fallback")
	if strings.Contains(md, "alert(1)") {
		t.Errorf("markdown contains script content: %q", md)
	}
	if !strings.Contains(md, "Hello") {
		t.Errorf("markdown lost content: %q", md)
	}
}

func TestCleanText(t *testing.T) {
	in := "  a\u200b b\n\n\tc  "
	if got := CleanText(in); got != "a b c" {
		t.Errorf("CleanText: got %q, want %q", got, "a b c")
	}

	invisible := "so\u200cft\u00adware\u200d do\ufeffcs"
	if got := CleanText(invisible); got != "software docs" {
		t.Errorf("CleanText: got %q, want %q", got, "software docs")
	}
}
