package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/quill/pkg/model"
	"github.com/m-mizutani/quill/pkg/repository"
)

func TestMemoryArticles(t *testing.T) {
	ctx := context.Background()

	newArticle := func(owner model.OwnerID, title string) *model.Article {
		now := time.Now().UTC()
		return &model.Article{
			ID:        model.NewArticleID(),
			OwnerID:   owner,
			Title:     title,
			BodyText:  "body of " + title,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	t.Run("put and get round-trip", func(t *testing.T) {
		repo := repository.NewMemory()
		a := newArticle("u1", "first")

		gt.NoError(t, repo.PutArticle(ctx, a))

		got, err := repo.GetArticle(ctx, a.ID)
		gt.NoError(t, err)
		gt.V(t, got.Title).Equal("first")
		gt.V(t, got.OwnerID).Equal(model.OwnerID("u1"))
	})

	t.Run("duplicate put fails", func(t *testing.T) {
		repo := repository.NewMemory()
		a := newArticle("u1", "first")

		gt.NoError(t, repo.PutArticle(ctx, a))
		gt.Error(t, repo.PutArticle(ctx, a))
	})

	t.Run("get missing returns not found", func(t *testing.T) {
		repo := repository.NewMemory()

		_, err := repo.GetArticle(ctx, "missing")
		gt.Error(t, err)
		gt.B(t, errors.Is(err, model.ErrNotFound)).True()
	})

	t.Run("update replaces content", func(t *testing.T) {
		repo := repository.NewMemory()
		a := newArticle("u1", "first")
		gt.NoError(t, repo.PutArticle(ctx, a))

		a.Title = "revised"
		gt.NoError(t, repo.UpdateArticle(ctx, a))

		got, err := repo.GetArticle(ctx, a.ID)
		gt.NoError(t, err)
		gt.V(t, got.Title).Equal("revised")
	})

	t.Run("update missing returns not found", func(t *testing.T) {
		repo := repository.NewMemory()

		err := repo.UpdateArticle(ctx, newArticle("u1", "ghost"))
		gt.Error(t, err)
		gt.B(t, errors.Is(err, model.ErrNotFound)).True()
	})

	t.Run("delete removes article", func(t *testing.T) {
		repo := repository.NewMemory()
		a := newArticle("u1", "first")
		gt.NoError(t, repo.PutArticle(ctx, a))

		gt.NoError(t, repo.DeleteArticle(ctx, a.ID))

		_, err := repo.GetArticle(ctx, a.ID)
		gt.B(t, errors.Is(err, model.ErrNotFound)).True()

		err = repo.DeleteArticle(ctx, a.ID)
		gt.B(t, errors.Is(err, model.ErrNotFound)).True()
	})

	t.Run("list by owner filters", func(t *testing.T) {
		repo := repository.NewMemory()
		gt.NoError(t, repo.PutArticle(ctx, newArticle("u1", "a")))
		gt.NoError(t, repo.PutArticle(ctx, newArticle("u1", "b")))
		gt.NoError(t, repo.PutArticle(ctx, newArticle("u2", "c")))

		articles, err := repo.ListArticlesByOwner(ctx, "u1")
		gt.NoError(t, err)
		gt.V(t, len(articles)).Equal(2)

		ids, err := repo.ListArticleIDs(ctx)
		gt.NoError(t, err)
		gt.V(t, len(ids)).Equal(3)
	})
}

func TestMemoryMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("sequence numbers are monotonic per session", func(t *testing.T) {
		repo := repository.NewMemory()

		for i := 0; i < 5; i++ {
			msg := &model.Message{
				SessionID: "s1",
				Role:      model.RoleUser,
				Content:   fmt.Sprintf("message %d", i),
			}
			gt.NoError(t, repo.PutMessage(ctx, msg))
			gt.V(t, msg.Seq).Equal(int64(i + 1))
		}

		other := &model.Message{SessionID: "s2", Role: model.RoleUser, Content: "hello"}
		gt.NoError(t, repo.PutMessage(ctx, other))
		gt.V(t, other.Seq).Equal(int64(1))
	})

	t.Run("list returns most recent limit in ascending order", func(t *testing.T) {
		repo := repository.NewMemory()
		for i := 0; i < 10; i++ {
			gt.NoError(t, repo.PutMessage(ctx, &model.Message{
				SessionID: "s1",
				Role:      model.RoleUser,
				Content:   fmt.Sprintf("message %d", i),
			}))
		}

		msgs, err := repo.ListMessages(ctx, "s1", 3)
		gt.NoError(t, err)
		gt.V(t, len(msgs)).Equal(3)
		gt.V(t, msgs[0].Content).Equal("message 7")
		gt.V(t, msgs[2].Content).Equal("message 9")
		gt.B(t, msgs[0].Seq < msgs[1].Seq && msgs[1].Seq < msgs[2].Seq).True()
	})

	t.Run("zero limit returns the whole log", func(t *testing.T) {
		repo := repository.NewMemory()
		for i := 0; i < 4; i++ {
			gt.NoError(t, repo.PutMessage(ctx, &model.Message{
				SessionID: "s1",
				Role:      model.RoleUser,
				Content:   "m",
			}))
		}

		msgs, err := repo.ListMessages(ctx, "s1", 0)
		gt.NoError(t, err)
		gt.V(t, len(msgs)).Equal(4)
	})

	t.Run("unknown session has empty log", func(t *testing.T) {
		repo := repository.NewMemory()
		msgs, err := repo.ListMessages(ctx, "nope", 10)
		gt.NoError(t, err)
		gt.V(t, len(msgs)).Equal(0)
	})
}
