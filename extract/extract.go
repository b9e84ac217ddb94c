// Package extract turns a rendered browser page into normalised text ready
// for chunking.
//
// The pipeline: rendered HTML → parse → drop non-content subtrees → walk
// text nodes in document order → collapse whitespace. A sanitised markdown
// rendition is produced alongside the plain text for prompt construction.
package extract

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/castlebay/sitechat/browse"
	"github.com/castlebay/sitechat/chunk"
)

// Result is the output of page extraction.
type Result struct {
	URL      string // page URL
	Title    string // page <title> text, if any
	Text     string // clean extracted text
	Markdown string // markdown rendition of the sanitised content
	Hash     string // SHA-256 of Text
}

// excludedAtoms are subtrees that never contribute visible page content.
var excludedAtoms = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Iframe:   true,
	atom.Svg:      true,
	atom.Head:     true,
	atom.Nav:      true,
	atom.Footer:   true,
	atom.Template: true,
}

// Page extracts text from an open browser page. The page handle remains
// owned by the caller.
func Page(ctx context.Context, page browse.Page, url string) (*Result, error) {
	rawHTML, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	return FromHTML(rawHTML, url)
}

// FromHTML runs the extraction pipeline on already-rendered HTML.
func FromHTML(rawHTML, url string) (*Result, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("extract: parse HTML: %w", err)
	}

	text := CleanText(collectText(doc))
	res := &Result{
		URL:      url,
		Title:    findTitle(doc),
		Text:     text,
		Markdown: toMarkdown(rawHTML, url, text),
		Hash:     hashText(text),
	}
	return res, nil
}

// Chunks feeds the extracted text through the sliding-window chunker.
func (r *Result) Chunks(opts chunk.Options) []chunk.Chunk {
	return chunk.Split(r.Text, opts)
}

// collectText extracts all visible text from a node subtree in document
// order, skipping excluded subtrees entirely.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && excludedAtoms[n.DataAtom] {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// findTitle extracts the page <title> text.
func findTitle(doc *html.Node) string {
	var title string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			if n.FirstChild != nil {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return title
}

// hashText returns the SHA-256 hex digest of text.
func hashText(text string) string {
	h := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", h)
}
