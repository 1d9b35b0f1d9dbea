package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/quill/pkg/model"
	"github.com/m-mizutani/quill/pkg/repository"
)

func setupFirestore(t *testing.T) *repository.Firestore {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	repo, err := repository.NewFirestore(context.Background(), projectID, databaseID)
	gt.NoError(t, err)

	return repo
}

func TestFirestoreArticleRoundTrip(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	a := &model.Article{
		ID:        model.NewArticleID(),
		OwnerID:   "test-owner",
		Title:     "Firestore round trip",
		BodyText:  "body text",
		BodyJSON:  map[string]any{"posts": []any{}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	gt.NoError(t, repo.PutArticle(ctx, a))
	t.Cleanup(func() {
		_ = repo.DeleteArticle(ctx, a.ID)
	})

	retrieved, err := repo.GetArticle(ctx, a.ID)
	gt.NoError(t, err)
	gt.V(t, retrieved).NotNil()
	gt.V(t, retrieved.Title).Equal(a.Title)
	gt.V(t, retrieved.OwnerID).Equal(a.OwnerID)

	// duplicate create fails
	gt.Error(t, repo.PutArticle(ctx, a))

	a.Title = "updated title"
	a.UpdatedAt = time.Now().UTC()
	gt.NoError(t, repo.UpdateArticle(ctx, a))

	retrieved, err = repo.GetArticle(ctx, a.ID)
	gt.NoError(t, err)
	gt.V(t, retrieved.Title).Equal("updated title")
}

func TestFirestoreArticleNotFound(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	_, err := repo.GetArticle(ctx, model.ArticleID("non-existent-article"))
	gt.Error(t, err)
	gt.B(t, errors.Is(err, model.ErrNotFound)).True()

	err = repo.DeleteArticle(ctx, model.ArticleID("non-existent-article"))
	gt.Error(t, err)
	gt.B(t, errors.Is(err, model.ErrNotFound)).True()
}

func TestFirestoreMessages(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	session := model.SessionID("test-session-" + string(model.NewMessageID()))

	for i := 0; i < 5; i++ {
		msg := &model.Message{
			ID:        model.NewMessageID(),
			SessionID: session,
			Role:      model.RoleUser,
			Content:   fmt.Sprintf("message %d", i),
			CreatedAt: time.Now().UTC(),
		}
		gt.NoError(t, repo.PutMessage(ctx, msg))
		gt.V(t, msg.Seq).Equal(int64(i + 1))
	}

	msgs, err := repo.ListMessages(ctx, session, 3)
	gt.NoError(t, err)
	gt.V(t, len(msgs)).Equal(3)
	gt.V(t, msgs[0].Content).Equal("message 2")
	gt.V(t, msgs[2].Content).Equal("message 4")
}
