package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/annotok/pkg/annotok/internalerr"
	"github.com/cognicore/annotok/pkg/annotok/pipeline"
)

// TokenizerName is the directory under the plugin path that holds rule files.
const TokenizerName = "corenlp_tokenizer"

// Settings holds the recognised tokenizer options.
type Settings struct {
	Lang       string `yaml:"lang"`
	Lowercase  bool   `yaml:"lowercase"`
	Lemma      bool   `yaml:"lemma"`
	Paraphrase string `yaml:"paraphrase"`
	Exclude    string `yaml:"exclude"`
	Preload    bool   `yaml:"preload"`
	POSModel   string `yaml:"pos_model"`
	PluginPath string `yaml:"plugin_path"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{Lang: pipeline.DefaultLanguage}
}

// Options converts the settings into pipeline options.
func (s Settings) Options() pipeline.Options {
	return pipeline.Options{
		Language:  s.Lang,
		Lowercase: s.Lowercase,
		Lemmatize: s.Lemma,
		Preload:   s.Preload,
		POSModel:  s.POSModel,
	}.WithDefaults()
}

// LoadSettings loads settings from a YAML file. Keys that are absent keep their
// defaults.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: read settings: %w", internalerr.ErrInvalidConfig, err)
	}

	s := Defaults()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("%w: parse settings %s: %w", internalerr.ErrInvalidConfig, path, err)
	}
	if strings.TrimSpace(s.Lang) == "" {
		s.Lang = pipeline.DefaultLanguage
	}
	return s, nil
}

// FromMap decodes settings from a generic option map, as handed over by an
// analyzer registry. Booleans may be given as bool or as a parseable string.
func FromMap(m map[string]interface{}) (Settings, error) {
	s := Defaults()
	var err error
	if s.Lang, err = stringOpt(m, "lang", s.Lang); err != nil {
		return Settings{}, err
	}
	if s.Paraphrase, err = stringOpt(m, "paraphrase", ""); err != nil {
		return Settings{}, err
	}
	if s.Exclude, err = stringOpt(m, "exclude", ""); err != nil {
		return Settings{}, err
	}
	if s.POSModel, err = stringOpt(m, "pos_model", ""); err != nil {
		return Settings{}, err
	}
	if s.PluginPath, err = stringOpt(m, "plugin_path", ""); err != nil {
		return Settings{}, err
	}
	if s.Lowercase, err = boolOpt(m, "lowercase"); err != nil {
		return Settings{}, err
	}
	if s.Lemma, err = boolOpt(m, "lemma"); err != nil {
		return Settings{}, err
	}
	if s.Preload, err = boolOpt(m, "preload"); err != nil {
		return Settings{}, err
	}
	if strings.TrimSpace(s.Lang) == "" {
		s.Lang = pipeline.DefaultLanguage
	}
	return s, nil
}

func stringOpt(m map[string]interface{}, key, def string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return def, nil
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", internalerr.ErrInvalidConfig, key, v)
	}
	return str, nil
}

func boolOpt(m map[string]interface{}, key string) (bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return false, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, fmt.Errorf("%w: %s: %q is not a boolean", internalerr.ErrInvalidConfig, key, b)
		}
		return parsed, nil
	default:
		return false, fmt.Errorf("%w: %s must be a boolean, got %T", internalerr.ErrInvalidConfig, key, v)
	}
}
