// Package annotok turns a whole-document annotation service into per-document
// token streams for search indexing.
package annotok

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/cognicore/annotok/pkg/annotok/annotate"
	"github.com/cognicore/annotok/pkg/annotok/config"
	"github.com/cognicore/annotok/pkg/annotok/pipeline"
	"github.com/cognicore/annotok/pkg/annotok/tokenstream"
)

// Factory creates tokenizers that share one annotation service.
type Factory struct {
	settings config.Settings
	rules    config.Rules
	handle   *pipeline.Handle
	logger   *zap.Logger
}

// Options configures a Factory.
type Options struct {
	Settings config.Settings
	// Rules, when nil, are loaded from the files named in Settings.
	Rules   *config.Rules
	Builder annotate.Builder
	Logger  *zap.Logger
}

// NewFactory loads the rule files, resolves the pipeline settings and, when
// Settings.Preload is set, builds the annotation service. Any failure aborts
// construction.
func NewFactory(ctx context.Context, opts Options) (*Factory, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var rs config.Rules
	if opts.Rules != nil {
		rs = *opts.Rules
	} else {
		loaded, err := config.LoadRules(opts.Settings, logger)
		if err != nil {
			return nil, err
		}
		rs = loaded
	}

	popts := opts.Settings.Options()
	logger.Info("tokenizer factory",
		zap.Bool("preload", popts.Preload),
		zap.String("lang", popts.Language),
		zap.String("paraphrase", rs.ParaphrasePath),
		zap.Int("paraphrase_rules", len(rs.Substitutions)),
		zap.Bool("lowercase", popts.Lowercase),
		zap.Bool("lemma", popts.Lemmatize),
		zap.String("exclude", rs.ExcludePath),
		zap.Int("exclude_patterns", rs.Exclusions.Len()))
	if popts.Lowercase && !popts.FlagsAffectModel() {
		logger.Info("lowercase folds text only, tagger model is not switched", zap.String("lang", popts.Language))
	}

	h, err := pipeline.New(ctx, popts, opts.Builder, logger)
	if err != nil {
		return nil, err
	}

	return &Factory{
		settings: opts.Settings,
		rules:    rs,
		handle:   h,
		logger:   logger,
	}, nil
}

// Create returns a new tokenizer over input bound to the shared service.
func (f *Factory) Create(input io.Reader) *tokenstream.Tokenizer {
	return tokenstream.New(f.handle, input, f.Config(), f.logger)
}

// Config returns the per-tokenizer configuration every Create uses.
func (f *Factory) Config() tokenstream.Config {
	popts := f.settings.Options()
	return tokenstream.Config{
		Substitutions: f.rules.Substitutions,
		Exclusions:    f.rules.Exclusions,
		Lowercase:     popts.Lowercase,
		Lemmatize:     popts.Lemmatize,
	}
}

// Analyze tokenizes one document to completion.
func (f *Factory) Analyze(ctx context.Context, input io.Reader) ([]tokenstream.Token, error) {
	return tokenstream.Collect(ctx, f.Create(input))
}

// Handle returns the shared service handle.
func (f *Factory) Handle() *pipeline.Handle { return f.handle }

// Settings returns the settings the factory was built with.
func (f *Factory) Settings() config.Settings { return f.settings }

// Rules returns the loaded rule sets.
func (f *Factory) Rules() config.Rules { return f.rules }
