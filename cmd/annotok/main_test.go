package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cognicore/annotok/internal/annotatortest"
	"github.com/cognicore/annotok/pkg/annotok/annotate"
)

func useFake(t *testing.T) *annotatortest.Annotator {
	t.Helper()
	fake := annotatortest.New()
	prev := newBuilder
	newBuilder = func(string, *zap.Logger) annotate.Builder { return fake.Builder(nil) }
	t.Cleanup(func() { newBuilder = prev })
	return fake
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := &app{stdin: strings.NewReader(stdin), stdout: &out, logger: zap.NewNop()}
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAnalyzeStdin(t *testing.T) {
	useFake(t)
	out, err := run(t, "the cat", "analyze")
	require.NoError(t, err)
	assert.Equal(t, "the\tDT\t0\t3\ncat\tNN\t4\t7\n", out)
}

func TestAnalyzeParaphraseAndExclude(t *testing.T) {
	fake := useFake(t)
	dir := t.TempDir()
	para := writeFile(t, dir, "para.txt", "New York => NYC\n")
	excl := writeFile(t, dir, "excl.txt", "is/VBZ\n")

	out, err := run(t, "New York is big", "analyze", "--paraphrase", para, "--exclude", excl)
	require.NoError(t, err)
	assert.Equal(t, " NYC  is big", fake.LastText())

	var terms []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		terms = append(terms, strings.Split(line, "\t")[0])
	}
	assert.Equal(t, []string{"NYC", "big"}, terms)
}

func TestAnalyzeJSONAndLemma(t *testing.T) {
	useFake(t)
	out, err := run(t, "Cats are big", "analyze", "--json", "--lemma", "--lowercase")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	var first jsonToken
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "cat", first.Term)
	assert.Equal(t, "NN", first.Tag)
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, "-", first.Source)
	assert.Len(t, first.Doc, 26, "doc id is a ULID")
}

func TestAnalyzeHTMLFiles(t *testing.T) {
	useFake(t)
	dir := t.TempDir()
	a := writeFile(t, dir, "a.html", "<p>the <b>dog</b></p><script>x()</script>")
	b := writeFile(t, dir, "b.html", "<div>big</div>")

	out, err := run(t, "", "analyze", "--html", "--workers", "2", a, b)
	require.NoError(t, err)
	// Documents print in argument order, separated by a blank line.
	assert.Equal(t, "the\tDT\t0\t3\ndog\tNN\t4\t7\n\nbig\tJJ\t0\t3\n", out)
}

func TestAnalyzeConfigFileWithOverride(t *testing.T) {
	fake := useFake(t)
	dir := t.TempDir()
	cfg := writeFile(t, dir, "annotok.yaml", "lowercase: true\nlemma: true\n")

	out, err := run(t, "Dogs WAS", "analyze", "--config", cfg, "--lemma=false")
	require.NoError(t, err)
	assert.Equal(t, "dogs was", fake.LastText())
	assert.Equal(t, "dogs\tNN\t0\t4\nwas\tVBD\t5\t8\n", out)
}

func TestAnalyzeFailedDocument(t *testing.T) {
	useFake(t)
	dir := t.TempDir()
	good := writeFile(t, dir, "good.txt", "new")

	out, err := run(t, "", "analyze", good, filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 documents failed")
	assert.Equal(t, "new\tJJ\t0\t3\n", out)
}

func TestAnalyzeBadRuleFile(t *testing.T) {
	useFake(t)
	_, err := run(t, "x", "analyze", "--exclude", filepath.Join(t.TempDir(), "none.txt"))
	assert.Error(t, err)
}

func TestAnalyzeThenStats(t *testing.T) {
	useFake(t)
	dir := t.TempDir()
	db := filepath.Join(dir, "tokens.db")
	one := writeFile(t, dir, "one.txt", "the cat and the dog")
	two := writeFile(t, dir, "two.txt", "the cat")

	_, err := run(t, "", "analyze", "--db", db, one, two)
	require.NoError(t, err)

	out, err := run(t, "", "stats", "--db", db, "--top", "2")
	require.NoError(t, err)
	assert.Equal(t, "the\tDT\t3\ncat\tNN\t2\n", out)

	out, err = run(t, "", "stats", "--db", db, "--category", "CC")
	require.NoError(t, err)
	assert.Equal(t, "and\tCC\t1\n", out)
}

func TestStatsRequiresDB(t *testing.T) {
	_, err := run(t, "", "stats")
	assert.EqualError(t, err, "--db required")
}

func TestAnalyzeNoSeparatorAfterFailedDocuments(t *testing.T) {
	useFake(t)
	dir := t.TempDir()
	good := writeFile(t, dir, "good.txt", "big")

	out, err := run(t, "", "analyze", filepath.Join(dir, "missing.txt"), good)
	require.Error(t, err)
	assert.Equal(t, "big\tJJ\t0\t3\n", out)
}
