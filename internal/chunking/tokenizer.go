package chunking

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts tokens for a reference model vocabulary.
type Tokenizer interface {
	CountTokens(text string) (int, error)
	Model() string
}

// TiktokenTokenizer counts with the BPE vocabulary of an OpenAI model. The
// vocabulary is loaded on first use and shared afterwards.
type TiktokenTokenizer struct {
	model string

	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

// NewTiktokenTokenizer creates a tokenizer for model, e.g. "gpt-4o".
func NewTiktokenTokenizer(model string) *TiktokenTokenizer {
	return &TiktokenTokenizer{model: model}
}

// Load resolves the vocabulary. It is safe to call repeatedly.
func (t *TiktokenTokenizer) Load() error {
	t.once.Do(func() {
		t.enc, t.err = tiktoken.EncodingForModel(t.model)
		if t.err != nil {
			t.err = fmt.Errorf("loading tokenizer for %s: %w", t.model, t.err)
		}
	})
	return t.err
}

func (t *TiktokenTokenizer) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	if err := t.Load(); err != nil {
		return 0, err
	}
	return len(t.enc.EncodeOrdinary(text)), nil
}

func (t *TiktokenTokenizer) Model() string { return t.model }

// WordTokenizer counts whitespace-separated words. It needs no vocabulary
// download, which makes it the tokenizer of choice in tests and air-gapped setups.
type WordTokenizer struct{}

func (WordTokenizer) CountTokens(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

func (WordTokenizer) Model() string { return "words" }
