package article

import (
	"context"
	"errors"

	"github.com/m-mizutani/quill/pkg/model"
	"github.com/m-mizutani/quill/pkg/utils/logging"
)

// ReconcileAction describes the repair applied to one article
type ReconcileAction string

const (
	// ReconcileNone means both stores already agree
	ReconcileNone ReconcileAction = "none"
	// ReconcileIndexed means the article was (re-)indexed
	ReconcileIndexed ReconcileAction = "indexed"
	// ReconcileRemoved means a dangling index entry was deleted
	ReconcileRemoved ReconcileAction = "removed"
)

// Reconcile restores agreement between the content store and the index
// for one article. It is idempotent: running it again with no intervening
// writes performs no further mutation.
func (u *UseCase) Reconcile(ctx context.Context, id model.ArticleID) (ReconcileAction, error) {
	article, err := u.repo.GetArticle(ctx, id)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return ReconcileNone, err
	}
	stored := err == nil

	meta, err := u.index.Fetch(ctx, id)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return ReconcileNone, err
	}
	indexed := err == nil

	switch {
	case stored && !indexed:
		if err := u.indexArticle(ctx, article); err != nil {
			return ReconcileNone, err
		}
		return ReconcileIndexed, nil

	case !stored && indexed:
		if err := u.index.Delete(ctx, id); err != nil {
			return ReconcileNone, err
		}
		return ReconcileRemoved, nil

	case stored && indexed:
		// Index metadata drifting from the store means the entry predates
		// the latest article text
		if meta.Title != article.Title || meta.Excerpt != article.Excerpt() {
			if err := u.indexArticle(ctx, article); err != nil {
				return ReconcileNone, err
			}
			return ReconcileIndexed, nil
		}
	}

	return ReconcileNone, nil
}

// ReconcileAll sweeps the union of stored and indexed article IDs
func (u *UseCase) ReconcileAll(ctx context.Context) (map[ReconcileAction]int, error) {
	storedIDs, err := u.repo.ListArticleIDs(ctx)
	if err != nil {
		return nil, err
	}

	indexedIDs, err := u.index.List(ctx)
	if err != nil {
		return nil, err
	}

	union := make(map[model.ArticleID]struct{}, len(storedIDs)+len(indexedIDs))
	for _, id := range storedIDs {
		union[id] = struct{}{}
	}
	for _, id := range indexedIDs {
		union[id] = struct{}{}
	}

	counts := make(map[ReconcileAction]int)
	for id := range union {
		action, err := u.Reconcile(ctx, id)
		if err != nil {
			logging.From(ctx).Warn("failed to reconcile article", "articleID", id, "error", err)
			continue
		}
		counts[action]++
	}

	return counts, nil
}
