package annotate

import "strings"

// Annotator stage names understood by the service.
const (
	StageTokenize = "tokenize"
	StageSSplit   = "ssplit"
	StagePOS      = "pos"
	StageLemma    = "lemma"
)

// Settings is the resolved configuration handed to a Builder.
type Settings struct {
	Annotators []string
	Language   string
	// POSModel is empty when the service should use its standard model for Language.
	POSModel string
}

// HasStage reports whether the named stage is part of the pipeline.
func (s Settings) HasStage(name string) bool {
	for _, a := range s.Annotators {
		if a == name {
			return true
		}
	}
	return false
}

// Properties renders the settings as CoreNLP property keys.
func (s Settings) Properties() map[string]string {
	props := map[string]string{
		"annotators":        strings.Join(s.Annotators, ","),
		"tokenize.language": s.Language,
	}
	if s.POSModel != "" {
		props["pos.model"] = s.POSModel
	}
	return props
}
