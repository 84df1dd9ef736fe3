package rules

import (
	"bufio"
	"io"
	"strings"

	"go.uber.org/zap"
)

// ParseSubstitutions reads "FROM => TO" lines. Trailing empty fields are dropped
// before counting, so "a =>" has one part and "a => b =>" has two. Lines that do
// not yield exactly two parts, or whose FROM does not compile, are skipped. Only
// read errors are returned.
func ParseSubstitutions(r io.Reader, logger *zap.Logger) (Substitutions, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var out Substitutions
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		parts := splitRule(scanner.Text())
		if len(parts) != 2 {
			continue
		}
		from, to := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		sub, err := NewSubstitution(from, to)
		if err != nil {
			logger.Warn("skipping paraphrase rule", zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		out = append(out, sub)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func splitRule(line string) []string {
	parts := strings.Split(line, "=>")
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// ParseExclusions reads one pattern per line. Blank lines and patterns that fail
// to compile are skipped.
func ParseExclusions(r io.Reader, logger *zap.Logger) (ExclusionSet, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var es ExclusionSet
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := es.Add(line); err != nil {
			logger.Warn("skipping exclude pattern", zap.Int("line", lineNo), zap.Error(err))
		}
	}
	if err := scanner.Err(); err != nil {
		return ExclusionSet{}, err
	}
	return es, nil
}
