// Package chunk splits extracted page text into overlapping fixed-size
// segments suitable for embedding and retrieval.
//
// A window of Size characters slides across the text advancing by
// Size-Overlap each step. Each window is trimmed and emitted only if the
// trimmed remainder is longer than MinLen — tiny fragments carry no
// retrievable signal and would pollute nearest-neighbor results.
package chunk

import "strings"

// Options configures the chunking behaviour.
type Options struct {
	// Size is the window width in characters. Default: 800.
	Size int
	// Overlap is the number of characters shared between consecutive
	// windows. Must be smaller than Size; values >= Size are clamped to
	// Size/4 so the window always makes forward progress. Default: 200.
	Overlap int
	// MinLen is the minimum trimmed length of an emitted chunk; shorter
	// windows are dropped. Default: 50.
	MinLen int
}

func (o *Options) defaults() {
	if o.Size <= 0 {
		o.Size = 800
	}
	if o.Overlap <= 0 {
		o.Overlap = 200
	}
	if o.MinLen <= 0 {
		o.MinLen = 50
	}
	if o.Overlap >= o.Size {
		o.Overlap = o.Size / 4
	}
}

// Chunk is one text segment with its position in the emission sequence.
type Chunk struct {
	Index int    // 0-based position in the sequence
	Text  string // trimmed segment text
}

// Split divides text into overlapping chunks. Empty or whitespace-only
// input yields nil. Windows are taken over runes, not bytes, so multi-byte
// text never splits inside a character.
func Split(text string, opts Options) []Chunk {
	opts.defaults()

	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	stride := opts.Size - opts.Overlap

	var chunks []Chunk
	for start := 0; start < len(runes); start += stride {
		end := start + opts.Size
		if end > len(runes) {
			end = len(runes)
		}

		seg := strings.TrimSpace(string(runes[start:end]))
		if len([]rune(seg)) > opts.MinLen {
			chunks = append(chunks, Chunk{Index: len(chunks), Text: seg})
		}

		if end >= len(runes) {
			break
		}
	}
	return chunks
}
