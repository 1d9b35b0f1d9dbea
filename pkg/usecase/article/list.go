package article

import (
	"context"

	"github.com/m-mizutani/quill/pkg/model"
)

// List retrieves all articles owned by the given owner, newest first
func (u *UseCase) List(ctx context.Context, owner model.OwnerID) ([]*model.Article, error) {
	return u.repo.ListArticlesByOwner(ctx, owner)
}
