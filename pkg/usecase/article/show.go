package article

import (
	"context"

	"github.com/m-mizutani/quill/pkg/model"
)

// Get retrieves an article by ID from the content store. The store is
// authoritative: an article is readable even while its index entry is
// missing or stale.
func (u *UseCase) Get(ctx context.Context, id model.ArticleID) (*model.Article, error) {
	return u.repo.GetArticle(ctx, id)
}
