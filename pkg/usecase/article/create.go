package article

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/quill/pkg/model"
)

// Create parses the structured payload and stores a new article. The
// content store write is the durability point: if it fails, the operation
// fails entirely and no index entry is produced. An index failure after
// the store commit leaves the article durable but not yet searchable.
func (u *UseCase) Create(ctx context.Context, owner model.OwnerID, payload json.RawMessage) (*model.Article, error) {
	parsed, err := model.ParsePayload(payload)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	article := &model.Article{
		ID:        model.NewArticleID(),
		OwnerID:   owner,
		Title:     parsed.Title,
		BodyText:  parsed.BodyText,
		BodyJSON:  parsed.BodyJSON,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := u.repo.PutArticle(ctx, article); err != nil {
		return nil, err
	}

	if err := u.indexArticle(ctx, article); err != nil {
		warnPartialConsistency(ctx, article.ID, err)
	}

	return article, nil
}
