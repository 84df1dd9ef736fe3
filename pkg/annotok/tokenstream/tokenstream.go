// Package tokenstream exposes a whole-document annotation result as a pull-based
// token stream.
//
// A Tokenizer starts empty. The first Next reads the entire input, rewrites it
// with the paraphrase rules, optionally lowercases it, annotates it in a single
// call, filters the result and buffers it. Later calls hand out the buffered
// tokens one at a time. Once the buffer is drained Next returns io.EOF and the
// Tokenizer is empty again, so the following Next starts over on whatever the
// input yields next. Reset empties the Tokenizer at any point; tokens that were
// buffered but not consumed are dropped.
//
// A Tokenizer must not be used from more than one goroutine at a time.
package tokenstream

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/annotok/pkg/annotok/annotate"
	"github.com/cognicore/annotok/pkg/annotok/internalerr"
	"github.com/cognicore/annotok/pkg/annotok/rules"
)

// Token is one emitted token.
//
// Start and End are the offsets the annotator reported against the rewritten
// text. When a paraphrase rule fired they do not line up with the caller's
// original input.
type Token struct {
	Term     string
	Type     string
	Start    int
	End      int
	Position int
}

// Source hands out the annotation service. *pipeline.Handle implements it.
type Source interface {
	Get(ctx context.Context) (annotate.Annotator, error)
}

// Config is the per-tokenizer rule set. It is not modified by the Tokenizer.
type Config struct {
	Substitutions rules.Substitutions
	Exclusions    rules.ExclusionSet
	Lowercase     bool
	Lemmatize     bool
}

// Tokenizer adapts one annotation call per document into a token stream.
type Tokenizer struct {
	src    Source
	input  io.Reader
	cfg    Config
	logger *zap.Logger

	buf      []annotate.Token
	buffered bool
	cursor   int

	rewritten string
}

// New creates a Tokenizer reading from input.
func New(src Source, input io.Reader, cfg Config, logger *zap.Logger) *Tokenizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tokenizer{src: src, input: input, cfg: cfg, logger: logger}
}

// Next returns the next token, or io.EOF once the current document is exhausted.
func (t *Tokenizer) Next(ctx context.Context) (Token, error) {
	if !t.buffered {
		if err := t.materialize(ctx); err != nil {
			return Token{}, err
		}
	}
	if t.cursor >= len(t.buf) {
		t.clear()
		return Token{}, io.EOF
	}
	at := t.buf[t.cursor]
	t.cursor++
	return Token{
		Term:     t.term(at),
		Type:     at.POS,
		Start:    at.Begin,
		End:      at.End,
		Position: t.cursor,
	}, nil
}

// Reset drops any buffered tokens. It is safe to call in any state.
func (t *Tokenizer) Reset() {
	t.clear()
}

// SetReader replaces the input used by the next materialization and resets the
// Tokenizer.
func (t *Tokenizer) SetReader(r io.Reader) {
	t.input = r
	t.clear()
}

// Rewritten returns the text submitted by the last materialization.
func (t *Tokenizer) Rewritten() string { return t.rewritten }

// Buffered reports whether a document is currently buffered.
func (t *Tokenizer) Buffered() bool { return t.buffered }

func (t *Tokenizer) clear() {
	t.buf = nil
	t.buffered = false
	t.cursor = 0
}

func (t *Tokenizer) materialize(ctx context.Context) error {
	if t.input == nil {
		return fmt.Errorf("%w: no input", internalerr.ErrInputRead)
	}
	raw, err := io.ReadAll(t.input)
	if err != nil {
		return fmt.Errorf("%w: %w", internalerr.ErrInputRead, err)
	}

	text := t.cfg.Substitutions.Apply(string(raw))
	if t.cfg.Lowercase {
		text = strings.ToLower(text)
	}

	svc, err := t.src.Get(ctx)
	if err != nil {
		return err
	}
	doc, err := svc.Annotate(ctx, text)
	if err != nil {
		return fmt.Errorf("%w: %w", internalerr.ErrAnnotation, err)
	}

	all := doc.Tokens()
	kept := all[:0]
	for _, at := range all {
		if t.cfg.Exclusions.Excludes(t.term(at), at.POS) {
			continue
		}
		kept = append(kept, at)
	}

	t.rewritten = text
	t.buf = kept
	t.buffered = true
	t.cursor = 0
	t.logger.Debug("document annotated",
		zap.Int("bytes", len(raw)),
		zap.Int("tokens", len(all)),
		zap.Int("excluded", len(all)-len(kept)))
	return nil
}

func (t *Tokenizer) term(at annotate.Token) string {
	if t.cfg.Lemmatize {
		return at.Lemma
	}
	return at.Text
}

// Collect drains t into a slice. It stops at io.EOF, which is not returned.
func Collect(ctx context.Context, t *Tokenizer) ([]Token, error) {
	var out []Token
	for {
		tok, err := t.Next(ctx)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
}
