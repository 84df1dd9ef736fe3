package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/annotok/internal/corenlp"
	"github.com/cognicore/annotok/pkg/annotok"
	"github.com/cognicore/annotok/pkg/annotok/annotate"
	"github.com/cognicore/annotok/pkg/annotok/config"
	"github.com/cognicore/annotok/pkg/annotok/htmltext"
	"github.com/cognicore/annotok/pkg/annotok/store"
	"github.com/cognicore/annotok/pkg/annotok/store/sqlite"
	"github.com/cognicore/annotok/pkg/annotok/tokenstream"
)

const defaultServer = "http://localhost:9000"

// newBuilder is replaced in tests.
var newBuilder = func(server string, logger *zap.Logger) annotate.Builder {
	return corenlp.Builder(server, nil, logger)
}

type analyzeFlags struct {
	configPath string
	server     string
	settings   config.Settings
	html       bool
	dbPath     string
	workers    int
	json       bool
}

func newAnalyzeCmd(a *app) *cobra.Command {
	f := analyzeFlags{settings: config.Defaults()}
	cmd := &cobra.Command{
		Use:   "analyze [files...]",
		Short: "Tokenize files, or stdin when no file is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.resolve(cmd)
			if err != nil {
				return err
			}
			return a.analyze(cmd.Context(), f, s, args)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "YAML settings file")
	fl.StringVar(&f.server, "server", defaultServer, "CoreNLP server URL")
	fl.StringVar(&f.settings.Lang, "lang", f.settings.Lang, "Pipeline language")
	fl.BoolVar(&f.settings.Lowercase, "lowercase", false, "Lowercase text before annotation")
	fl.BoolVar(&f.settings.Lemma, "lemma", false, "Emit lemmas instead of surface words")
	fl.StringVar(&f.settings.Paraphrase, "paraphrase", "", "Paraphrase rule file")
	fl.StringVar(&f.settings.Exclude, "exclude", "", "Exclusion pattern file")
	fl.BoolVar(&f.settings.Preload, "preload", false, "Build the pipeline before reading input")
	fl.StringVar(&f.settings.POSModel, "pos-model", "", "Explicit tagger model")
	fl.StringVar(&f.settings.PluginPath, "plugin-path", "", "Directory holding rule files")
	fl.BoolVar(&f.html, "html", false, "Extract text from HTML input")
	fl.StringVar(&f.dbPath, "db", "", "SQLite database to store analyzed documents")
	fl.IntVar(&f.workers, "workers", 4, "Documents analyzed concurrently")
	fl.BoolVar(&f.json, "json", false, "Print JSON lines")
	return cmd
}

// resolve layers explicitly set flags over the settings file.
func (f analyzeFlags) resolve(cmd *cobra.Command) (config.Settings, error) {
	if f.configPath == "" {
		return f.settings, nil
	}
	s, err := config.LoadSettings(f.configPath)
	if err != nil {
		return config.Settings{}, err
	}
	fl := cmd.Flags()
	if fl.Changed("lang") {
		s.Lang = f.settings.Lang
	}
	if fl.Changed("lowercase") {
		s.Lowercase = f.settings.Lowercase
	}
	if fl.Changed("lemma") {
		s.Lemma = f.settings.Lemma
	}
	if fl.Changed("paraphrase") {
		s.Paraphrase = f.settings.Paraphrase
	}
	if fl.Changed("exclude") {
		s.Exclude = f.settings.Exclude
	}
	if fl.Changed("preload") {
		s.Preload = f.settings.Preload
	}
	if fl.Changed("pos-model") {
		s.POSModel = f.settings.POSModel
	}
	if fl.Changed("plugin-path") {
		s.PluginPath = f.settings.PluginPath
	}
	return s, nil
}

type result struct {
	doc store.Doc
	err error
}

func (a *app) analyze(ctx context.Context, f analyzeFlags, s config.Settings, files []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	factory, err := annotok.NewFactory(ctx, annotok.Options{
		Settings: s,
		Builder:  newBuilder(f.server, a.logger),
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}

	var st store.Store
	if f.dbPath != "" {
		st, err = sqlite.OpenSQLite(ctx, f.dbPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer st.Close()
	}

	sources := files
	if len(sources) == 0 {
		sources = []string{"-"}
	}

	results := make([]result, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	if f.workers > 0 {
		g.SetLimit(f.workers)
	}
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			doc, err := a.analyzeOne(gctx, factory, src, f.html)
			if err != nil {
				a.logger.Error("analyze document", zap.String("source", src), zap.Error(err))
				results[i] = result{err: err}
				return nil
			}
			if st != nil {
				if err := st.PutDoc(gctx, doc); err != nil {
					return fmt.Errorf("store %s: %w", src, err)
				}
			}
			results[i] = result{doc: doc}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed, printed := 0, false
	for _, r := range results {
		if r.err != nil {
			failed++
			continue
		}
		if err := a.print(r.doc, f.json, printed); err != nil {
			return err
		}
		printed = true
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(sources))
	}
	return nil
}

func (a *app) analyzeOne(ctx context.Context, f *annotok.Factory, src string, html bool) (store.Doc, error) {
	data, err := a.readSource(src)
	if err != nil {
		return store.Doc{}, err
	}
	var in io.Reader = bytes.NewReader(data)
	if html {
		in = htmltext.NewReader(in)
	}

	toks, err := f.Analyze(ctx, in)
	if err != nil {
		return store.Doc{}, err
	}
	return store.Doc{
		ID:         ulid.Make().String(),
		Source:     src,
		AnalyzedAt: time.Now().UTC(),
		Tokens:     toStoreTokens(toks),
	}, nil
}

func (a *app) readSource(src string) ([]byte, error) {
	if src == "-" {
		return io.ReadAll(a.stdin)
	}
	return os.ReadFile(src)
}

func toStoreTokens(toks []tokenstream.Token) []store.Token {
	out := make([]store.Token, len(toks))
	for i, t := range toks {
		out[i] = store.Token{
			Term:     t.Term,
			Tag:      t.Type,
			Start:    t.Start,
			End:      t.End,
			Position: t.Position,
		}
	}
	return out
}

type jsonToken struct {
	Doc      string `json:"doc"`
	Source   string `json:"source"`
	Term     string `json:"term"`
	Tag      string `json:"tag"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Position int    `json:"position"`
}

func (a *app) print(doc store.Doc, asJSON, separate bool) error {
	if asJSON {
		enc := json.NewEncoder(a.stdout)
		for _, t := range doc.Tokens {
			if err := enc.Encode(jsonToken{
				Doc:      doc.ID,
				Source:   doc.Source,
				Term:     t.Term,
				Tag:      t.Tag,
				Start:    t.Start,
				End:      t.End,
				Position: t.Position,
			}); err != nil {
				return err
			}
		}
		return nil
	}

	if separate {
		if _, err := fmt.Fprintln(a.stdout); err != nil {
			return err
		}
	}
	for _, t := range doc.Tokens {
		if _, err := fmt.Fprintf(a.stdout, "%s\t%s\t%d\t%d\n", t.Term, t.Tag, t.Start, t.End); err != nil {
			return err
		}
	}
	return nil
}
