// Package rules holds the text-level rewrite rules applied before annotation and
// the term/tag exclusion patterns applied after it.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cognicore/annotok/pkg/annotok/internalerr"
)

// Substitution is a case-insensitive phrase replacement. A match must be bounded
// by whitespace or the start/end of the text on both sides; the bounding
// whitespace is kept and the phrase itself becomes " " + To + " ".
type Substitution struct {
	From string
	To   string
	re   *regexp.Regexp
}

// NewSubstitution compiles from as a regular expression. The replacement text is
// used literally. Patterns use RE2 syntax, so lookarounds and backreferences do
// not compile.
func NewSubstitution(from, to string) (Substitution, error) {
	if from == "" {
		return Substitution{}, fmt.Errorf("%w: empty substitution pattern", internalerr.ErrInvalidConfig)
	}
	re, err := regexp.Compile(`^(?i:(` + from + `))(?:\s|$)`)
	if err != nil {
		return Substitution{}, fmt.Errorf("%w: substitution %q: %v", internalerr.ErrInvalidConfig, from, err)
	}
	return Substitution{From: from, To: to, re: re}, nil
}

// MustSubstitution is like NewSubstitution but panics on error.
func MustSubstitution(from, to string) Substitution {
	s, err := NewSubstitution(from, to)
	if err != nil {
		panic(err)
	}
	return s
}

// Apply rewrites every non-overlapping bounded match in text, scanning left to right.
func (s Substitution) Apply(text string) string {
	if s.re == nil {
		return text
	}
	var b strings.Builder
	copied, matched := 0, false
	for i := 0; i < len(text); i++ {
		if i > 0 && !isSpace(text[i-1]) {
			continue
		}
		loc := s.re.FindStringSubmatchIndex(text[i:])
		if loc == nil || loc[3] == loc[2] {
			continue
		}
		end := i + loc[3]
		if !matched {
			b.Grow(len(text) + len(s.To) + 2)
			matched = true
		}
		b.WriteString(text[copied:i])
		b.WriteByte(' ')
		b.WriteString(s.To)
		b.WriteByte(' ')
		copied = end
		i = end - 1
	}
	if !matched {
		return text
	}
	b.WriteString(text[copied:])
	return b.String()
}

func (s Substitution) String() string {
	return s.From + " => " + s.To
}

// Substitutions is an ordered rule list. Rules are applied one after another, each
// seeing the output of the previous one, so a later rule can rewrite text that an
// earlier rule produced. Reordering rules can change the result.
type Substitutions []Substitution

// Apply runs every rule in declaration order.
func (ss Substitutions) Apply(text string) string {
	for _, s := range ss {
		text = s.Apply(text)
	}
	return text
}

// isSpace matches the RE2 \s class.
func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}
