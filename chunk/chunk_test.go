package chunk

import (
	"strings"
	"testing"
)

func TestSplit_Empty(t *testing.T) {
	if got := Split("", Options{}); got != nil {
		t.Errorf("split empty: got %v, want nil", got)
	}
	if got := Split("   \n\t  ", Options{}); got != nil {
		t.Errorf("split whitespace: got %v, want nil", got)
	}
}

func TestSplit_ShortText(t *testing.T) {
	text := strings.Repeat("support answers live here. ", 4) // > 50 chars, < one window
	chunks := Split(text, Options{})
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Text != strings.TrimSpace(text) {
		t.Errorf("text: got %q, want trimmed input", chunks[0].Text)
	}
	if chunks[0].Index != 0 {
		t.Errorf("index: got %d, want 0", chunks[0].Index)
	}
}

func TestSplit_BelowMinLen(t *testing.T) {
	if got := Split("too short to index", Options{}); got != nil {
		t.Errorf("short text: got %d chunks, want none", len(got))
	}
}

func TestSplit_WindowsAndOverlap(t *testing.T) {
	text := strings.Repeat("x", 2000)
	chunks := Split(text, Options{Size: 800, Overlap: 200})

	// Stride 600 over 2000 chars: windows at 0, 600, 1200, 1800.
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk[%d]: index=%d", i, c.Index)
		}
		if len(c.Text) > 800 {
			t.Errorf("chunk[%d]: %d chars > window size", i, len(c.Text))
		}
	}
	if len(chunks[0].Text) != 800 {
		t.Errorf("first window: got %d chars, want 800", len(chunks[0].Text))
	}
	// Last window covers the 200-char tail.
	if len(chunks[3].Text) != 200 {
		t.Errorf("last window: got %d chars, want 200", len(chunks[3].Text))
	}
}

func TestSplit_CoversInputInOrder(t *testing.T) {
	var sb strings.Builder
	for i := 0; sb.Len() < 3000; i++ {
		sb.WriteString("segment")
		sb.WriteString(strings.Repeat("abcdefghij", 3))
		sb.WriteByte(' ')
	}
	text := sb.String()

	chunks := Split(text, Options{Size: 500, Overlap: 100})
	if len(chunks) < 5 {
		t.Fatalf("got %d chunks, want >= 5", len(chunks))
	}

	// Ignoring overlap duplication, every chunk must appear in the input in
	// emission order.
	pos := 0
	for i, c := range chunks {
		idx := strings.Index(text[pos:], c.Text)
		if idx < 0 {
			t.Fatalf("chunk[%d] not found in input after offset %d", i, pos)
		}
		pos += idx + 1
	}
}

func TestSplit_OverlapClamped(t *testing.T) {
	text := strings.Repeat("y", 1000)
	// Overlap >= Size must not stall the window.
	chunks := Split(text, Options{Size: 400, Overlap: 400})
	if len(chunks) == 0 {
		t.Fatal("no chunks emitted")
	}
	seen := make(map[int]bool)
	for _, c := range chunks {
		if seen[c.Index] {
			t.Fatalf("duplicate index %d: window made no progress", c.Index)
		}
		seen[c.Index] = true
	}
}

func TestSplit_RuneSafe(t *testing.T) {
	text := strings.Repeat("héllo wörld émoji 日本語 ", 60)
	chunks := Split(text, Options{Size: 100, Overlap: 20})
	for i, c := range chunks {
		if !strings.ContainsAny(c.Text, "héöé日") && len(c.Text) > 0 {
			continue
		}
		if strings.ContainsRune(c.Text, '�') {
			t.Errorf("chunk[%d] contains replacement rune: split inside a character", i)
		}
	}
}
