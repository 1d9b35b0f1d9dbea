package article

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/adapter"
	"github.com/m-mizutani/quill/pkg/model"
	"github.com/m-mizutani/quill/pkg/repository"
	"github.com/m-mizutani/quill/pkg/utils/logging"
	"github.com/m-mizutani/quill/pkg/vecindex"
)

// UseCase provides article operations over the dual store. The content
// store write is the durability point of every mutation; the index write
// is a best-effort follow-up repaired by Reconcile.
type UseCase struct {
	repo   repository.Repository
	index  vecindex.Index
	gemini adapter.Gemini
}

// New creates a new article UseCase instance
func New(repo repository.Repository, index vecindex.Index, gemini adapter.Gemini) *UseCase {
	return &UseCase{
		repo:   repo,
		index:  index,
		gemini: gemini,
	}
}

// indexArticle computes the embedding of the article body and fully
// replaces its index entry
func (u *UseCase) indexArticle(ctx context.Context, article *model.Article) error {
	vector, err := u.gemini.Embedding(ctx, article.BodyText)
	if err != nil {
		return goerr.Wrap(err, "failed to embed article body", goerr.V("articleID", article.ID))
	}

	meta := vecindex.Metadata{
		Title:   article.Title,
		Excerpt: article.Excerpt(),
	}
	if err := u.index.Upsert(ctx, article.ID, vector, meta); err != nil {
		return goerr.Wrap(err, "failed to upsert index entry", goerr.V("articleID", article.ID))
	}

	return nil
}

// warnPartialConsistency records an index follow-up failure. The store
// write already succeeded, so this is not surfaced as a caller failure.
func warnPartialConsistency(ctx context.Context, id model.ArticleID, err error) {
	logging.From(ctx).Warn("article index out of sync, run reconcile",
		"articleID", id,
		"error", err,
	)
}
