package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/annotok/pkg/annotok/internalerr"
	"github.com/cognicore/annotok/pkg/annotok/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Pragmas are per connection, and concurrent writers would otherwise
	// race for the write lock and fail with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS docs (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL DEFAULT '',
	analyzed_at TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS doc_tokens (
	doc_id TEXT NOT NULL REFERENCES docs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	term TEXT NOT NULL,
	tag TEXT NOT NULL DEFAULT '',
	start_offset INTEGER NOT NULL,
	end_offset INTEGER NOT NULL,
	PRIMARY KEY (doc_id, position)
);

CREATE INDEX IF NOT EXISTS idx_doc_tokens_tag ON doc_tokens(tag);
`

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

// PutDoc inserts or replaces a document and its tokens
func (s *sqliteStore) PutDoc(ctx context.Context, d store.Doc) error {
	if d.ID == "" {
		return errors.New("sqlite: doc id required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO docs (id, source, analyzed_at)
VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	source=excluded.source,
	analyzed_at=excluded.analyzed_at;
`
	if _, err := tx.ExecContext(ctx, stmt, d.ID, d.Source, formatTime(d.AnalyzedAt)); err != nil {
		return err
	}
	if err := replaceDocTokens(ctx, tx, d.ID, d.Tokens); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceDocTokens(ctx context.Context, tx *sql.Tx, docID string, tokens []store.Token) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM doc_tokens WHERE doc_id=?`, docID); err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO doc_tokens (doc_id, position, term, tag, start_offset, end_offset)
VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, tok := range tokens {
		// Position is the primary key; fall back to slice order when unset.
		pos := tok.Position
		if pos <= 0 {
			pos = i + 1
		}
		if _, err := stmt.ExecContext(ctx, docID, pos, tok.Term, tok.Tag, tok.Start, tok.End); err != nil {
			return err
		}
	}
	return nil
}

// GetDoc retrieves a document by ID
func (s *sqliteStore) GetDoc(ctx context.Context, id string) (store.Doc, error) {
	var (
		doc      store.Doc
		analyzed string
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, source, analyzed_at FROM docs WHERE id = ?`, id).
		Scan(&doc.ID, &doc.Source, &analyzed)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Doc{}, fmt.Errorf("%w: doc %s", internalerr.ErrNotFound, id)
	}
	if err != nil {
		return store.Doc{}, err
	}
	if analyzed != "" {
		if parsed, perr := time.Parse(time.RFC3339Nano, analyzed); perr == nil {
			doc.AnalyzedAt = parsed
		}
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT position, term, tag, start_offset, end_offset
FROM doc_tokens
WHERE doc_id = ?
ORDER BY position`, id)
	if err != nil {
		return store.Doc{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var tok store.Token
		if err := rows.Scan(&tok.Position, &tok.Term, &tok.Tag, &tok.Start, &tok.End); err != nil {
			return store.Doc{}, err
		}
		doc.Tokens = append(doc.Tokens, tok)
	}
	return doc, rows.Err()
}

// TopTerms returns the most frequent (term, tag) pairs
func (s *sqliteStore) TopTerms(ctx context.Context, category string, k int) ([]store.TermCount, error) {
	if k <= 0 {
		k = 10
	}
	query := `
SELECT term, tag, COUNT(*) AS n
FROM doc_tokens
%s
GROUP BY term, tag
ORDER BY n DESC, term ASC, tag ASC
LIMIT ?`
	var (
		rows *sql.Rows
		err  error
	)
	if category == "" {
		rows, err = s.db.QueryContext(ctx, fmt.Sprintf(query, ""), k)
	} else {
		rows, err = s.db.QueryContext(ctx, fmt.Sprintf(query, "WHERE tag = ?"), category, k)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.TermCount
	for rows.Next() {
		var tc store.TermCount
		if err := rows.Scan(&tc.Term, &tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
