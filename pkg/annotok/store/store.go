package store

import (
	"context"
	"time"
)

// Store persists analyzed documents and answers term frequency queries.
type Store interface {
	Close() error

	// PutDoc stores d, replacing any earlier version with the same ID.
	PutDoc(ctx context.Context, d Doc) error
	// GetDoc returns internalerr.ErrNotFound when id is unknown.
	GetDoc(ctx context.Context, id string) (Doc, error)
	// TopTerms returns the k most frequent terms, restricted to one tag when
	// category is not empty.
	TopTerms(ctx context.Context, category string, k int) ([]TermCount, error)
}

// Doc is one analyzed document.
type Doc struct {
	ID         string // ULID
	Source     string
	AnalyzedAt time.Time
	Tokens     []Token
}

// Token is a stored token in emission order.
type Token struct {
	Term     string
	Tag      string
	Start    int
	End      int
	Position int
}

// TermCount is a term with its number of occurrences across all documents.
type TermCount struct {
	Term  string
	Tag   string
	Count int64
}
