package chunking

import (
	"context"
	"regexp"
	"strings"

	"docproc/internal/document"
)

// HybridChunker refines hierarchical chunks against a token budget. Chunks
// whose contextualized text exceeds MaxTokens are split on sentence and then
// word boundaries. Undersized neighbours that share a heading path are merged
// back together while they fit.
type HybridChunker struct {
	Tokenizer Tokenizer
	MaxTokens int
	// SkipMerge turns off the merge pass.
	SkipMerge bool
}

var sentenceEndRe = regexp.MustCompile(`([.!?])\s+`)

func (h *HybridChunker) Chunk(ctx context.Context, doc *document.Document) ([]Chunk, error) {
	base, err := HierarchicalChunker{}.Chunk(ctx, doc)
	if err != nil {
		return nil, err
	}

	var out []Chunk
	for _, c := range base {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		parts, err := h.split(c)
		if err != nil {
			return nil, err
		}
		out = append(out, parts...)
	}

	if h.SkipMerge {
		return out, nil
	}
	return h.merge(ctx, out)
}

func (h *HybridChunker) fits(headings []string, text string) (bool, error) {
	n, err := h.Tokenizer.CountTokens(Contextualize(Chunk{Text: text, Headings: headings}))
	if err != nil {
		return false, err
	}
	return n <= h.MaxTokens, nil
}

// split breaks c into pieces that fit the budget. Line structure is kept:
// windows are packed from sentences and rejoined with the separator that
// preceded each one in the source text.
func (h *HybridChunker) split(c Chunk) ([]Chunk, error) {
	ok, err := h.fits(c.Headings, c.Text)
	if err != nil {
		return nil, err
	}
	if ok {
		return []Chunk{c}, nil
	}
	// No room for even one word under the headings: splitting cannot help.
	if fields := strings.Fields(c.Text); len(fields) > 0 {
		if ok, err := h.fits(c.Headings, fields[0]); err != nil {
			return nil, err
		} else if !ok {
			whole := c
			whole.Pages = append([]int(nil), c.Pages...)
			whole.Oversized = true
			return []Chunk{whole}, nil
		}
	}

	var out []Chunk
	emit := func(text string, oversized bool) {
		out = append(out, Chunk{
			Text:      text,
			Headings:  c.Headings,
			Pages:     append([]int(nil), c.Pages...),
			Oversized: oversized,
		})
	}

	windows, err := h.pack(c.Headings, sentenceUnits(c.Text))
	if err != nil {
		return nil, err
	}
	for _, w := range windows {
		if ok, err := h.fits(c.Headings, w); err != nil {
			return nil, err
		} else if ok {
			emit(w, false)
			continue
		}
		// A single sentence over budget: fall back to words, unless a lone
		// word cannot fit under the headings either.
		words, err := h.pack(c.Headings, wordUnits(w))
		if err != nil {
			return nil, err
		}
		allFit := true
		for _, wd := range words {
			ok, err := h.fits(c.Headings, wd)
			if err != nil {
				return nil, err
			}
			if !ok {
				allFit = false
				break
			}
		}
		if !allFit {
			emit(w, true)
			continue
		}
		for _, wd := range words {
			emit(wd, false)
		}
	}
	return out, nil
}

// unit is a piece of chunk text and the separator that joins it to the
// previous piece.
type unit struct {
	sep  string
	text string
}

// pack greedily joins units while the result fits. A unit that does not fit
// on its own is returned alone.
func (h *HybridChunker) pack(headings []string, units []unit) ([]string, error) {
	var out []string
	cur := ""
	for _, u := range units {
		if cur == "" {
			cur = u.text
			continue
		}
		candidate := cur + u.sep + u.text
		ok, err := h.fits(headings, candidate)
		if err != nil {
			return nil, err
		}
		if ok {
			cur = candidate
			continue
		}
		out = append(out, cur)
		cur = u.text
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out, nil
}

// sentenceUnits splits text into sentences, line by line. The first sentence
// of a line is joined with a newline and keeps the line's indentation.
func sentenceUnits(text string) []unit {
	var out []unit
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		indent := line[:len(line)-len(trimmed)]
		for i, s := range splitSentences(trimmed) {
			if i == 0 {
				out = append(out, unit{sep: "\n", text: indent + s})
				continue
			}
			out = append(out, unit{sep: " ", text: s})
		}
	}
	return out
}

func wordUnits(text string) []unit {
	fields := strings.Fields(text)
	out := make([]unit, len(fields))
	for i, f := range fields {
		out[i] = unit{sep: " ", text: f}
	}
	return out
}

// merge joins consecutive chunks with identical headings while they fit.
func (h *HybridChunker) merge(ctx context.Context, chunks []Chunk) ([]Chunk, error) {
	if len(chunks) == 0 {
		return chunks, nil
	}
	out := []Chunk{chunks[0]}
	for _, c := range chunks[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		last := &out[len(out)-1]
		if last.Oversized || c.Oversized || !equalHeadings(last.Headings, c.Headings) {
			out = append(out, c)
			continue
		}
		joined := last.Text + "\n" + c.Text
		ok, err := h.fits(c.Headings, joined)
		if err != nil {
			return nil, err
		}
		if !ok {
			out = append(out, c)
			continue
		}
		last.Text = joined
		last.Pages = append([]int(nil), last.Pages...)
		for _, p := range c.Pages {
			last.Pages = appendPage(last.Pages, p)
		}
	}
	return out, nil
}

// splitSentences cuts after sentence-ending punctuation followed by space.
func splitSentences(text string) []string {
	marked := sentenceEndRe.ReplaceAllString(text, "$1\x00")
	var out []string
	for _, s := range strings.Split(marked, "\x00") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
