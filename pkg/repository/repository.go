package repository

import (
	"context"

	"github.com/m-mizutani/quill/pkg/model"
)

// Repository is the content store and the per-session conversation log.
// Single-article mutations are atomic; the semantic index follow-up is
// explicitly outside of that boundary.
type Repository interface {
	// PutArticle creates a new article. Fails if the ID already exists.
	PutArticle(ctx context.Context, article *model.Article) error

	// GetArticle retrieves an article by ID. Returns model.ErrNotFound if absent.
	GetArticle(ctx context.Context, id model.ArticleID) (*model.Article, error)

	// UpdateArticle replaces an existing article within a single transaction
	UpdateArticle(ctx context.Context, article *model.Article) error

	// DeleteArticle removes an article by ID
	DeleteArticle(ctx context.Context, id model.ArticleID) error

	// ListArticlesByOwner retrieves all articles owned by the given owner
	ListArticlesByOwner(ctx context.Context, owner model.OwnerID) ([]*model.Article, error)

	// ListArticleIDs returns the IDs of all stored articles
	ListArticleIDs(ctx context.Context) ([]model.ArticleID, error)

	// PutMessage appends a message to the session log, assigning the next
	// sequence number. Messages are immutable once written.
	PutMessage(ctx context.Context, msg *model.Message) error

	// ListMessages returns the most recent limit messages of a session in
	// ascending sequence order. limit <= 0 returns the whole log.
	ListMessages(ctx context.Context, session model.SessionID, limit int) ([]*model.Message, error)
}
