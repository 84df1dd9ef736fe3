// Package pipeline turns declarative tokenizer options into annotation service
// settings and owns the shared, lazily built service handle.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/cognicore/annotok/pkg/annotok/annotate"
	"github.com/cognicore/annotok/pkg/annotok/internalerr"
)

// DefaultLanguage is the only language with built-in tagger model selection.
const DefaultLanguage = "en"

// Tagger models selected for DefaultLanguage.
const (
	EnglishModel         = "edu/stanford/nlp/models/pos-tagger/english-left3words/english-left3words-distsim.tagger"
	EnglishCaselessModel = "edu/stanford/nlp/models/pos-tagger/english-caseless-left3words-distsim.tagger"
)

// Options are the declarative tokenizer settings.
type Options struct {
	Language  string
	Lowercase bool
	Lemmatize bool
	Preload   bool
	// POSModel overrides model selection for any language when set.
	POSModel string
}

// WithDefaults fills in the default language.
func (o Options) WithDefaults() Options {
	o.Language = strings.TrimSpace(o.Language)
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
	o.POSModel = strings.TrimSpace(o.POSModel)
	return o
}

// BuildSettings resolves options into service settings.
//
// The lemma stage is only present when lemmatization is on. For DefaultLanguage
// Lowercase selects the caseless tagger; other languages keep the service's
// standard model and Lowercase only affects text preprocessing.
func BuildSettings(o Options) (annotate.Settings, error) {
	o = o.WithDefaults()
	if strings.ContainsAny(o.Language, " ,/\\") {
		return annotate.Settings{}, fmt.Errorf("%w: language %q", internalerr.ErrInvalidConfig, o.Language)
	}

	stages := []string{annotate.StageTokenize, annotate.StageSSplit, annotate.StagePOS}
	if o.Lemmatize {
		stages = append(stages, annotate.StageLemma)
	}

	s := annotate.Settings{
		Annotators: stages,
		Language:   o.Language,
	}
	switch {
	case o.POSModel != "":
		s.POSModel = o.POSModel
	case o.Language == DefaultLanguage && o.Lowercase:
		s.POSModel = EnglishCaselessModel
	case o.Language == DefaultLanguage:
		s.POSModel = EnglishModel
	}
	return s, nil
}

// FlagsAffectModel reports whether Lowercase changes model selection for o.
func (o Options) FlagsAffectModel() bool {
	o = o.WithDefaults()
	return o.POSModel == "" && o.Language == DefaultLanguage
}
