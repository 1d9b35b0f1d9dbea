package article

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/model"
)

// Update replaces the content of an existing article. Ownership is checked
// before any mutation; a mismatch leaves both stores untouched. The index
// entry is fully replaced, not patched.
func (u *UseCase) Update(ctx context.Context, id model.ArticleID, owner model.OwnerID, payload json.RawMessage) (*model.Article, error) {
	parsed, err := model.ParsePayload(payload)
	if err != nil {
		return nil, err
	}

	article, err := u.repo.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}

	if article.OwnerID != owner {
		return nil, goerr.Wrap(model.ErrNotAuthorized, "article is owned by another user",
			goerr.V("articleID", id),
			goerr.V("owner", owner))
	}

	article.Title = parsed.Title
	article.BodyText = parsed.BodyText
	article.BodyJSON = parsed.BodyJSON
	article.UpdatedAt = time.Now().UTC()

	if err := u.repo.UpdateArticle(ctx, article); err != nil {
		return nil, err
	}

	if err := u.indexArticle(ctx, article); err != nil {
		warnPartialConsistency(ctx, article.ID, err)
	}

	return article, nil
}
