// Package bleveplugin registers the annotation tokenizer with bleve's analysis
// registry.
//
// bleve token types are a fixed enum, so the part-of-speech tag does not cross
// into the index: tag CD becomes analysis.Numeric and every other tag becomes
// analysis.AlphaNumeric.
package bleveplugin

import (
	"bytes"
	"context"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"
	"go.uber.org/zap"

	"github.com/cognicore/annotok/pkg/annotok"
	"github.com/cognicore/annotok/pkg/annotok/annotate"
	"github.com/cognicore/annotok/pkg/annotok/config"
)

// Name is the tokenizer type used in index mappings.
const Name = config.TokenizerName

// NumericTag is the part-of-speech tag emitted as a numeric token.
const NumericTag = "CD"

// Tokenizer is a bleve tokenizer backed by a shared annotation service. It is
// safe for concurrent use because every Tokenize call gets its own stream.
type Tokenizer struct {
	factory *annotok.Factory
	logger  *zap.Logger
}

// NewConstructor returns a registry constructor that builds tokenizers over
// the given builder. The config map uses the same keys as the YAML settings.
func NewConstructor(build annotate.Builder, logger *zap.Logger) registry.TokenizerConstructor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(cfg map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
		s, err := config.FromMap(cfg)
		if err != nil {
			return nil, err
		}
		f, err := annotok.NewFactory(context.Background(), annotok.Options{
			Settings: s,
			Builder:  build,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		return &Tokenizer{factory: f, logger: logger}, nil
	}
}

// Register makes the tokenizer available under name. bleve panics when a name
// is registered twice.
func Register(name string, build annotate.Builder, logger *zap.Logger) {
	registry.RegisterTokenizer(name, NewConstructor(build, logger))
}

// Factory returns the factory behind t.
func (t *Tokenizer) Factory() *annotok.Factory { return t.factory }

// Tokenize analyzes input as one document. bleve has no error channel here, so
// a failed document is logged and yields no tokens.
func (t *Tokenizer) Tokenize(input []byte) analysis.TokenStream {
	toks, err := t.factory.Analyze(context.Background(), bytes.NewReader(input))
	if err != nil {
		t.logger.Error("tokenize document", zap.Int("bytes", len(input)), zap.Error(err))
		return analysis.TokenStream{}
	}

	rv := make(analysis.TokenStream, 0, len(toks))
	for _, tok := range toks {
		typ := analysis.AlphaNumeric
		if tok.Type == NumericTag {
			typ = analysis.Numeric
		}
		rv = append(rv, &analysis.Token{
			Term:     []byte(tok.Term),
			Start:    tok.Start,
			End:      tok.End,
			Position: tok.Position,
			Type:     typ,
		})
	}
	return rv
}
