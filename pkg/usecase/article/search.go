package article

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/model"
	"github.com/m-mizutani/quill/pkg/vecindex"
)

const (
	searchLimitMin = 1
	searchLimitMax = 100
)

// Search embeds the query text and returns the nearest articles from the
// semantic index. Results are served from index metadata without
// re-reading the content store, so hits may reference articles that were
// deleted since indexing.
func (u *UseCase) Search(ctx context.Context, query string, limit int) ([]*vecindex.Entry, error) {
	if query == "" {
		return nil, goerr.Wrap(model.ErrValidation, "query must not be empty")
	}
	if limit < searchLimitMin || limit > searchLimitMax {
		return nil, goerr.Wrap(model.ErrValidation, "limit is out of range",
			goerr.V("limit", limit),
			goerr.V("min", searchLimitMin),
			goerr.V("max", searchLimitMax))
	}

	vector, err := u.gemini.Embedding(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed search query")
	}

	return u.index.Search(ctx, vector, limit)
}
