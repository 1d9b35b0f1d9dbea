package article

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/model"
)

// Delete removes an article from the content store first, then from the
// index. A failed index deletion leaves a stale entry behind; readers
// treat such dangling hits as not found and Reconcile removes them.
func (u *UseCase) Delete(ctx context.Context, id model.ArticleID, owner model.OwnerID) error {
	article, err := u.repo.GetArticle(ctx, id)
	if err != nil {
		return err
	}

	if article.OwnerID != owner {
		return goerr.Wrap(model.ErrNotAuthorized, "article is owned by another user",
			goerr.V("articleID", id),
			goerr.V("owner", owner))
	}

	if err := u.repo.DeleteArticle(ctx, id); err != nil {
		return err
	}

	if err := u.index.Delete(ctx, id); err != nil {
		warnPartialConsistency(ctx, id, err)
	}

	return nil
}
