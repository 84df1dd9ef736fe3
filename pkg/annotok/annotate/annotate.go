// Package annotate defines the contract between the token stream adapter and the
// external annotation service (tokenization, sentence splitting, part-of-speech
// tagging and optional lemmatization).
package annotate

import "context"

// Token is a single annotated token as reported by the service.
// Begin and End are byte offsets into the text that was submitted.
type Token struct {
	Text  string
	Lemma string
	POS   string
	Begin int
	End   int
}

// Sentence holds the tokens of one sentence in document order.
type Sentence struct {
	Tokens []Token
}

// Document is the result of annotating one text.
type Document struct {
	Text      string
	Sentences []Sentence
}

// Tokens flattens all sentences into a single ordered slice.
// Sentence boundaries are not preserved.
func (d *Document) Tokens() []Token {
	if d == nil {
		return nil
	}
	n := 0
	for _, s := range d.Sentences {
		n += len(s.Tokens)
	}
	out := make([]Token, 0, n)
	for _, s := range d.Sentences {
		out = append(out, s.Tokens...)
	}
	return out
}

// Annotator runs the annotation pipeline over a whole document.
// Implementations shared between adapters must be safe for concurrent use.
type Annotator interface {
	Annotate(ctx context.Context, text string) (*Document, error)
}

// AnnotatorFunc adapts a function to the Annotator interface.
type AnnotatorFunc func(ctx context.Context, text string) (*Document, error)

func (f AnnotatorFunc) Annotate(ctx context.Context, text string) (*Document, error) {
	return f(ctx, text)
}

// Builder constructs an Annotator from resolved settings. It may load models
// and is expected to be slow.
type Builder func(ctx context.Context, s Settings) (Annotator, error)
