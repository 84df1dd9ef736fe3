// Package annotatortest provides a deterministic annotator for tests. It splits on
// whitespace, ends a sentence at a "." token, and tags from a lookup table.
package annotatortest

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"

	"github.com/cognicore/annotok/pkg/annotok/annotate"
)

// Annotator is safe for concurrent use.
type Annotator struct {
	// Tags maps a lowercased surface form to its tag. Unknown words are NN,
	// numbers CD and "." is ".".
	Tags map[string]string
	// Lemmas maps a lowercased surface form to its lemma. Unknown words use the
	// lowercased surface form.
	Lemmas map[string]string
	// Err, when set, is returned by every Annotate call.
	Err error

	calls atomic.Int64
	mu    sync.Mutex
	texts []string
}

// New returns an annotator with a small English tag table.
func New() *Annotator {
	return &Annotator{
		Tags: map[string]string{
			"the": "DT", "a": "DT", "an": "DT", "these": "DT",
			"is": "VBZ", "are": "VBP", "was": "VBD", "be": "VB",
			"of": "IN", "in": "IN", "on": "IN",
			"big": "JJ", "new": "JJ",
			"nyc": "NNP", "york": "NNP",
			"and": "CC",
		},
		Lemmas: map[string]string{
			"is": "be", "are": "be", "was": "be",
			"cats": "cat", "dogs": "dog", "mice": "mouse",
		},
	}
}

// Annotate implements annotate.Annotator.
func (a *Annotator) Annotate(ctx context.Context, text string) (*annotate.Document, error) {
	a.calls.Add(1)
	a.mu.Lock()
	a.texts = append(a.texts, text)
	a.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.Err != nil {
		return nil, a.Err
	}

	doc := &annotate.Document{Text: text}
	var cur annotate.Sentence
	start := -1
	flush := func(end int) {
		word := text[start:end]
		cur.Tokens = append(cur.Tokens, a.token(word, start, end))
		if word == "." {
			doc.Sentences = append(doc.Sentences, cur)
			cur = annotate.Sentence{}
		}
		start = -1
	}
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				flush(i)
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		flush(len(text))
	}
	if len(cur.Tokens) > 0 {
		doc.Sentences = append(doc.Sentences, cur)
	}
	return doc, nil
}

func (a *Annotator) token(word string, begin, end int) annotate.Token {
	key := strings.ToLower(word)
	tag, ok := a.Tags[key]
	switch {
	case ok:
	case word == ".":
		tag = "."
	case isNumber(word):
		tag = "CD"
	default:
		tag = "NN"
	}
	lemma, ok := a.Lemmas[key]
	if !ok {
		lemma = key
	}
	return annotate.Token{Text: word, Lemma: lemma, POS: tag, Begin: begin, End: end}
}

// Calls returns how many times Annotate has been invoked.
func (a *Annotator) Calls() int { return int(a.calls.Load()) }

// Texts returns every text submitted so far, in call order.
func (a *Annotator) Texts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.texts...)
}

// LastText returns the most recently submitted text.
func (a *Annotator) LastText() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.texts) == 0 {
		return ""
	}
	return a.texts[len(a.texts)-1]
}

// Builder returns an annotate.Builder that hands out a, recording the settings
// it was asked to build with.
func (a *Annotator) Builder(seen *[]annotate.Settings) annotate.Builder {
	var mu sync.Mutex
	return func(ctx context.Context, s annotate.Settings) (annotate.Annotator, error) {
		if seen != nil {
			mu.Lock()
			*seen = append(*seen, s)
			mu.Unlock()
		}
		return a, nil
	}
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return false
		}
	}
	return s != "" && s != "." && s != ","
}
