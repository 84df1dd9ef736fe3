package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cognicore/annotok/pkg/annotok/internalerr"
	"github.com/cognicore/annotok/pkg/annotok/rules"
)

// Rules holds the loaded rule sets and the paths they came from.
type Rules struct {
	Substitutions  rules.Substitutions
	Exclusions     rules.ExclusionSet
	ParaphrasePath string
	ExcludePath    string
}

// LoadRules loads the paraphrase and exclude files named by s. Unset names are
// skipped; a named file that cannot be read is an error.
func LoadRules(s Settings, logger *zap.Logger) (Rules, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var out Rules

	if s.Paraphrase != "" {
		out.ParaphrasePath = ResolveRulePath(s.PluginPath, "paraphrase", s.Paraphrase)
		subs, err := LoadParaphrase(out.ParaphrasePath, logger)
		if err != nil {
			return Rules{}, fmt.Errorf("load paraphrase: %w", err)
		}
		out.Substitutions = subs
	}

	if s.Exclude != "" {
		out.ExcludePath = ResolveRulePath(s.PluginPath, "exclude", s.Exclude)
		es, err := LoadExclude(out.ExcludePath, logger)
		if err != nil {
			return Rules{}, fmt.Errorf("load exclude: %w", err)
		}
		out.Exclusions = es
	}

	return out, nil
}

// ResolveRulePath maps a rule file name to <pluginPath>/corenlp_tokenizer/<kind>/<name>.
// Absolute names and an empty plugin path leave the name untouched.
func ResolveRulePath(pluginPath, kind, name string) string {
	if pluginPath == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(pluginPath, TokenizerName, kind, name)
}

// LoadParaphrase reads a "FROM => TO" rule file.
func LoadParaphrase(path string, logger *zap.Logger) (rules.Substitutions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", internalerr.ErrInvalidConfig, err)
	}
	defer f.Close()

	subs, err := rules.ParseSubstitutions(f, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", internalerr.ErrInvalidConfig, path, err)
	}
	return subs, nil
}

// LoadExclude reads a file with one exclusion pattern per line.
func LoadExclude(path string, logger *zap.Logger) (rules.ExclusionSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return rules.ExclusionSet{}, fmt.Errorf("%w: %w", internalerr.ErrInvalidConfig, err)
	}
	defer f.Close()

	es, err := rules.ParseExclusions(f, logger)
	if err != nil {
		return rules.ExclusionSet{}, fmt.Errorf("%w: read %s: %w", internalerr.ErrInvalidConfig, path, err)
	}
	return es, nil
}
