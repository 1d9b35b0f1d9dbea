// Package vecindex is a thin adapter over the semantic search index. The
// index stores derived data only: entries are keyed by article ID and must
// eventually agree with the content store, which stays authoritative.
package vecindex

import (
	"context"

	"github.com/m-mizutani/quill/pkg/model"
)

// Metadata is the snapshot stored alongside an embedding so search results
// can be rendered without re-reading the content store
type Metadata struct {
	Title   string
	Excerpt string
}

// Entry is one ranked search hit
type Entry struct {
	ArticleID model.ArticleID
	Metadata  Metadata
	Score     float64 // cosine similarity, higher is closer
}

// Index is the semantic index adapter
type Index interface {
	// EnsureCollection bootstraps the index for the given embedding
	// dimension. Idempotent; fails when the index was created with a
	// different dimension.
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert stores or fully replaces the entry for an article
	Upsert(ctx context.Context, id model.ArticleID, vector []float32, meta Metadata) error

	// Delete removes the entry for an article. Deleting a missing entry is
	// not an error.
	Delete(ctx context.Context, id model.ArticleID) error

	// Fetch returns the stored metadata for an article, or model.ErrNotFound
	Fetch(ctx context.Context, id model.ArticleID) (*Metadata, error)

	// Search returns up to limit entries ranked by cosine similarity
	Search(ctx context.Context, vector []float32, limit int) ([]*Entry, error)

	// List returns the IDs of all indexed articles
	List(ctx context.Context) ([]model.ArticleID, error)
}
