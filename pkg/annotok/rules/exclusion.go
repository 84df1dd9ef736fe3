package rules

import (
	"fmt"
	"regexp"

	"github.com/cognicore/annotok/pkg/annotok/internalerr"
)

// ExclusionSet drops annotated tokens whose "term/TAG" string fully matches any
// of its patterns.
type ExclusionSet struct {
	patterns []*regexp.Regexp
	sources  []string
}

// NewExclusionSet compiles every pattern. Each pattern is anchored at both ends,
// so "the/DT" matches "the/DT" but not "these/DT".
func NewExclusionSet(patterns ...string) (ExclusionSet, error) {
	var es ExclusionSet
	for _, p := range patterns {
		if err := es.Add(p); err != nil {
			return ExclusionSet{}, err
		}
	}
	return es, nil
}

// Add compiles and appends one pattern.
func (es *ExclusionSet) Add(pattern string) error {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return fmt.Errorf("%w: exclude pattern %q: %v", internalerr.ErrInvalidConfig, pattern, err)
	}
	es.patterns = append(es.patterns, re)
	es.sources = append(es.sources, pattern)
	return nil
}

// Len returns the number of patterns.
func (es ExclusionSet) Len() int { return len(es.patterns) }

// Patterns returns the source patterns in load order.
func (es ExclusionSet) Patterns() []string {
	return append([]string(nil), es.sources...)
}

// Excludes reports whether term/tag matches a pattern.
func (es ExclusionSet) Excludes(term, tag string) bool {
	if len(es.patterns) == 0 {
		return false
	}
	key := Key(term, tag)
	for _, re := range es.patterns {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

// Key builds the comparison string for a token.
func Key(term, tag string) string {
	return term + "/" + tag
}
