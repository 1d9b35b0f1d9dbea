package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/model"
)

// Memory is an in-memory Repository for unit tests and local runs
type Memory struct {
	mu       sync.RWMutex
	articles map[model.ArticleID]*model.Article
	logs     map[model.SessionID][]*model.Message
	lastSeq  map[model.SessionID]int64
}

var _ Repository = &Memory{}

// NewMemory creates a new in-memory repository
func NewMemory() *Memory {
	return &Memory{
		articles: make(map[model.ArticleID]*model.Article),
		logs:     make(map[model.SessionID][]*model.Message),
		lastSeq:  make(map[model.SessionID]int64),
	}
}

func copyArticle(a *model.Article) *model.Article {
	clone := *a
	return &clone
}

func (r *Memory) PutArticle(ctx context.Context, article *model.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.articles[article.ID]; exists {
		return goerr.New("article already exists", goerr.V("articleID", article.ID))
	}

	r.articles[article.ID] = copyArticle(article)
	return nil
}

func (r *Memory) GetArticle(ctx context.Context, id model.ArticleID) (*model.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	article, ok := r.articles[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "article not found", goerr.V("articleID", id))
	}

	return copyArticle(article), nil
}

func (r *Memory) UpdateArticle(ctx context.Context, article *model.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.articles[article.ID]; !ok {
		return goerr.Wrap(model.ErrNotFound, "article not found", goerr.V("articleID", article.ID))
	}

	r.articles[article.ID] = copyArticle(article)
	return nil
}

func (r *Memory) DeleteArticle(ctx context.Context, id model.ArticleID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.articles[id]; !ok {
		return goerr.Wrap(model.ErrNotFound, "article not found", goerr.V("articleID", id))
	}

	delete(r.articles, id)
	return nil
}

func (r *Memory) ListArticlesByOwner(ctx context.Context, owner model.OwnerID) ([]*model.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	articles := make([]*model.Article, 0)
	for _, a := range r.articles {
		if a.OwnerID == owner {
			articles = append(articles, copyArticle(a))
		}
	}

	sort.Slice(articles, func(i, j int) bool {
		return articles[i].CreatedAt.After(articles[j].CreatedAt)
	})

	return articles, nil
}

func (r *Memory) ListArticleIDs(ctx context.Context) ([]model.ArticleID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]model.ArticleID, 0, len(r.articles))
	for id := range r.articles {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids, nil
}

func (r *Memory) PutMessage(ctx context.Context, msg *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.ID == "" {
		msg.ID = model.NewMessageID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	r.lastSeq[msg.SessionID]++
	msg.Seq = r.lastSeq[msg.SessionID]

	clone := *msg
	r.logs[msg.SessionID] = append(r.logs[msg.SessionID], &clone)
	return nil
}

func (r *Memory) ListMessages(ctx context.Context, session model.SessionID, limit int) ([]*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	log := r.logs[session]
	start := 0
	if limit > 0 && len(log) > limit {
		start = len(log) - limit
	}

	messages := make([]*model.Message, 0, len(log)-start)
	for _, m := range log[start:] {
		clone := *m
		messages = append(messages, &clone)
	}

	return messages, nil
}
