package article_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/quill/pkg/model"
	"github.com/m-mizutani/quill/pkg/repository"
	"github.com/m-mizutani/quill/pkg/usecase/article"
	"github.com/m-mizutani/quill/pkg/vecindex"
	"google.golang.org/genai"
)

// mockGemini is a mock implementation of adapter.Gemini for testing
type mockGemini struct {
	generateFunc  func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	embeddingFunc func(ctx context.Context, text string) ([]float32, error)
	embedCalls    int
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, contents, config)
	}
	return nil, errors.New("not implemented")
}

func (m *mockGemini) Embedding(ctx context.Context, text string) ([]float32, error) {
	m.embedCalls++
	if m.embeddingFunc != nil {
		return m.embeddingFunc(ctx, text)
	}
	return []float32{1, 0, 0}, nil
}

// flakyIndex wraps an Index and fails mutations on demand to simulate an
// unreachable index
type flakyIndex struct {
	vecindex.Index
	failUpsert bool
	failDelete bool
}

func (f *flakyIndex) Upsert(ctx context.Context, id model.ArticleID, vector []float32, meta vecindex.Metadata) error {
	if f.failUpsert {
		return errors.New("index unavailable")
	}
	return f.Index.Upsert(ctx, id, vector, meta)
}

func (f *flakyIndex) Delete(ctx context.Context, id model.ArticleID) error {
	if f.failDelete {
		return errors.New("index unavailable")
	}
	return f.Index.Delete(ctx, id)
}

func payload(title, body string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"posts": [{
			"postId": %q,
			"pages": [{"elements": [{"type": 0, "content": %q}]}]
		}]
	}`, title, body))
}

func setup(t *testing.T) (*article.UseCase, repository.Repository, *vecindex.Memory, *mockGemini) {
	t.Helper()

	repo := repository.NewMemory()
	index := vecindex.NewMemory()
	gt.NoError(t, index.EnsureCollection(context.Background(), 3))
	gemini := &mockGemini{}

	return article.New(repo, index, gemini), repo, index, gemini
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("round-trip through store and index", func(t *testing.T) {
		uc, _, index, _ := setup(t)

		a, err := uc.Create(ctx, "u1", payload("Kyoto", "Day one we visited Fushimi Inari."))
		gt.NoError(t, err)
		gt.V(t, a.Title).Equal("Kyoto")
		gt.V(t, a.OwnerID).Equal(model.OwnerID("u1"))

		got, err := uc.Get(ctx, a.ID)
		gt.NoError(t, err)
		gt.V(t, got.BodyText).Equal("Day one we visited Fushimi Inari.")

		meta, err := index.Fetch(ctx, a.ID)
		gt.NoError(t, err)
		gt.V(t, meta.Title).Equal("Kyoto")
	})

	t.Run("malformed payload mutates nothing", func(t *testing.T) {
		uc, repo, index, _ := setup(t)

		_, err := uc.Create(ctx, "u1", json.RawMessage(`{"posts": []}`))
		gt.Error(t, err)
		gt.B(t, errors.Is(err, model.ErrValidation)).True()

		ids, err := repo.ListArticleIDs(ctx)
		gt.NoError(t, err)
		gt.V(t, len(ids)).Equal(0)

		indexed, err := index.List(ctx)
		gt.NoError(t, err)
		gt.V(t, len(indexed)).Equal(0)
	})

	t.Run("index failure leaves article durable but unsearchable", func(t *testing.T) {
		repo := repository.NewMemory()
		base := vecindex.NewMemory()
		gt.NoError(t, base.EnsureCollection(ctx, 3))
		flaky := &flakyIndex{Index: base, failUpsert: true}
		uc := article.New(repo, flaky, &mockGemini{})

		a, err := uc.Create(ctx, "u1", payload("Kyoto", "body"))
		gt.NoError(t, err)

		// Durable in the store
		got, err := uc.Get(ctx, a.ID)
		gt.NoError(t, err)
		gt.V(t, got.Title).Equal("Kyoto")

		// Absent from the index until reconciled
		_, err = base.Fetch(ctx, a.ID)
		gt.B(t, errors.Is(err, model.ErrNotFound)).True()

		flaky.failUpsert = false
		action, err := uc.Reconcile(ctx, a.ID)
		gt.NoError(t, err)
		gt.V(t, action).Equal(article.ReconcileIndexed)

		meta, err := base.Fetch(ctx, a.ID)
		gt.NoError(t, err)
		gt.V(t, meta.Title).Equal("Kyoto")
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces content and re-indexes", func(t *testing.T) {
		uc, _, index, _ := setup(t)

		a, err := uc.Create(ctx, "u1", payload("Kyoto", "old body"))
		gt.NoError(t, err)

		updated, err := uc.Update(ctx, a.ID, "u1", payload("Kyoto revisited", "new body"))
		gt.NoError(t, err)
		gt.V(t, updated.Title).Equal("Kyoto revisited")
		gt.V(t, updated.BodyText).Equal("new body")

		meta, err := index.Fetch(ctx, a.ID)
		gt.NoError(t, err)
		gt.V(t, meta.Title).Equal("Kyoto revisited")
	})

	t.Run("other owner cannot update", func(t *testing.T) {
		uc, _, index, _ := setup(t)

		a, err := uc.Create(ctx, "u1", payload("Kyoto", "body"))
		gt.NoError(t, err)

		_, err = uc.Update(ctx, a.ID, "u2", payload("Hijacked", "evil"))
		gt.Error(t, err)
		gt.B(t, errors.Is(err, model.ErrNotAuthorized)).True()

		// Both stores untouched
		got, err := uc.Get(ctx, a.ID)
		gt.NoError(t, err)
		gt.V(t, got.Title).Equal("Kyoto")

		meta, err := index.Fetch(ctx, a.ID)
		gt.NoError(t, err)
		gt.V(t, meta.Title).Equal("Kyoto")
	})

	t.Run("missing article", func(t *testing.T) {
		uc, _, _, _ := setup(t)

		_, err := uc.Update(ctx, "missing", "u1", payload("t", "b"))
		gt.Error(t, err)
		gt.B(t, errors.Is(err, model.ErrNotFound)).True()
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes store row and index entry", func(t *testing.T) {
		uc, _, index, _ := setup(t)

		a, err := uc.Create(ctx, "u1", payload("Kyoto", "body"))
		gt.NoError(t, err)

		gt.NoError(t, uc.Delete(ctx, a.ID, "u1"))

		_, err = uc.Get(ctx, a.ID)
		gt.B(t, errors.Is(err, model.ErrNotFound)).True()

		_, err = index.Fetch(ctx, a.ID)
		gt.B(t, errors.Is(err, model.ErrNotFound)).True()
	})

	t.Run("other owner cannot delete", func(t *testing.T) {
		uc, _, _, _ := setup(t)

		a, err := uc.Create(ctx, "u1", payload("Kyoto", "body"))
		gt.NoError(t, err)

		err = uc.Delete(ctx, a.ID, "u2")
		gt.Error(t, err)
		gt.B(t, errors.Is(err, model.ErrNotAuthorized)).True()

		_, err = uc.Get(ctx, a.ID)
		gt.NoError(t, err)
	})

	t.Run("dangling index entry is repaired by reconcile", func(t *testing.T) {
		repo := repository.NewMemory()
		base := vecindex.NewMemory()
		gt.NoError(t, base.EnsureCollection(ctx, 3))
		flaky := &flakyIndex{Index: base}
		uc := article.New(repo, flaky, &mockGemini{})

		a, err := uc.Create(ctx, "u1", payload("Kyoto", "body"))
		gt.NoError(t, err)

		flaky.failDelete = true
		gt.NoError(t, uc.Delete(ctx, a.ID, "u1"))

		// Store row gone, index entry dangling
		_, err = uc.Get(ctx, a.ID)
		gt.B(t, errors.Is(err, model.ErrNotFound)).True()
		_, err = base.Fetch(ctx, a.ID)
		gt.NoError(t, err)

		flaky.failDelete = false
		action, err := uc.Reconcile(ctx, a.ID)
		gt.NoError(t, err)
		gt.V(t, action).Equal(article.ReconcileRemoved)

		_, err = base.Fetch(ctx, a.ID)
		gt.B(t, errors.Is(err, model.ErrNotFound)).True()
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("limit bounds are checked before embedding", func(t *testing.T) {
		uc, _, _, gemini := setup(t)

		for _, limit := range []int{0, -1, 101} {
			_, err := uc.Search(ctx, "query", limit)
			gt.Error(t, err)
			gt.B(t, errors.Is(err, model.ErrValidation)).True()
		}
		gt.V(t, gemini.embedCalls).Equal(0)
	})

	t.Run("empty query is rejected before embedding", func(t *testing.T) {
		uc, _, _, gemini := setup(t)

		_, err := uc.Search(ctx, "", 10)
		gt.Error(t, err)
		gt.B(t, errors.Is(err, model.ErrValidation)).True()
		gt.V(t, gemini.embedCalls).Equal(0)
	})

	t.Run("returns nearest articles", func(t *testing.T) {
		repo := repository.NewMemory()
		index := vecindex.NewMemory()
		gt.NoError(t, index.EnsureCollection(ctx, 3))

		vectors := map[string][]float32{
			"rockets body": {1, 0, 0},
			"cooking body": {0, 1, 0},
			"rockets":      {0.9, 0.1, 0},
		}
		gemini := &mockGemini{
			embeddingFunc: func(ctx context.Context, text string) ([]float32, error) {
				if v, ok := vectors[text]; ok {
					return v, nil
				}
				return []float32{0, 0, 1}, nil
			},
		}
		uc := article.New(repo, index, gemini)

		rockets, err := uc.Create(ctx, "u1", payload("Rockets", "rockets body"))
		gt.NoError(t, err)
		_, err = uc.Create(ctx, "u1", payload("Cooking", "cooking body"))
		gt.NoError(t, err)

		entries, err := uc.Search(ctx, "rockets", 2)
		gt.NoError(t, err)
		gt.V(t, len(entries)).Equal(2)
		gt.V(t, entries[0].ArticleID).Equal(rockets.ID)
		gt.V(t, entries[0].Metadata.Title).Equal("Rockets")
	})
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("agreeing stores need no repair", func(t *testing.T) {
		uc, _, _, _ := setup(t)

		a, err := uc.Create(ctx, "u1", payload("Kyoto", "body"))
		gt.NoError(t, err)

		action, err := uc.Reconcile(ctx, a.ID)
		gt.NoError(t, err)
		gt.V(t, action).Equal(article.ReconcileNone)
	})

	t.Run("metadata drift triggers re-index", func(t *testing.T) {
		repo := repository.NewMemory()
		base := vecindex.NewMemory()
		gt.NoError(t, base.EnsureCollection(ctx, 3))
		flaky := &flakyIndex{Index: base}
		uc := article.New(repo, flaky, &mockGemini{})

		a, err := uc.Create(ctx, "u1", payload("Kyoto", "body"))
		gt.NoError(t, err)

		// Update while the index is down leaves the entry stale
		flaky.failUpsert = true
		_, err = uc.Update(ctx, a.ID, "u1", payload("Kyoto revisited", "new body"))
		gt.NoError(t, err)

		meta, err := base.Fetch(ctx, a.ID)
		gt.NoError(t, err)
		gt.V(t, meta.Title).Equal("Kyoto")

		flaky.failUpsert = false
		action, err := uc.Reconcile(ctx, a.ID)
		gt.NoError(t, err)
		gt.V(t, action).Equal(article.ReconcileIndexed)

		meta, err = base.Fetch(ctx, a.ID)
		gt.NoError(t, err)
		gt.V(t, meta.Title).Equal("Kyoto revisited")
	})

	t.Run("reconcile is idempotent", func(t *testing.T) {
		uc, _, _, _ := setup(t)

		a, err := uc.Create(ctx, "u1", payload("Kyoto", "body"))
		gt.NoError(t, err)

		first, err := uc.Reconcile(ctx, a.ID)
		gt.NoError(t, err)
		second, err := uc.Reconcile(ctx, a.ID)
		gt.NoError(t, err)

		gt.V(t, first).Equal(article.ReconcileNone)
		gt.V(t, second).Equal(article.ReconcileNone)
	})

	t.Run("unknown id on both sides is a no-op", func(t *testing.T) {
		uc, _, _, _ := setup(t)

		action, err := uc.Reconcile(ctx, "ghost")
		gt.NoError(t, err)
		gt.V(t, action).Equal(article.ReconcileNone)
	})
}

func TestReconcileAll(t *testing.T) {
	ctx := context.Background()

	repo := repository.NewMemory()
	base := vecindex.NewMemory()
	gt.NoError(t, base.EnsureCollection(ctx, 3))
	flaky := &flakyIndex{Index: base}
	uc := article.New(repo, flaky, &mockGemini{})

	healthy, err := uc.Create(ctx, "u1", payload("healthy", "body"))
	gt.NoError(t, err)

	flaky.failUpsert = true
	missing, err := uc.Create(ctx, "u1", payload("missing", "body"))
	gt.NoError(t, err)
	flaky.failUpsert = false

	dangling, err := uc.Create(ctx, "u1", payload("dangling", "body"))
	gt.NoError(t, err)
	flaky.failDelete = true
	gt.NoError(t, uc.Delete(ctx, dangling.ID, "u1"))
	flaky.failDelete = false

	counts, err := uc.ReconcileAll(ctx)
	gt.NoError(t, err)
	gt.V(t, counts[article.ReconcileNone]).Equal(1)
	gt.V(t, counts[article.ReconcileIndexed]).Equal(1)
	gt.V(t, counts[article.ReconcileRemoved]).Equal(1)

	// Everything agrees now
	_, err = base.Fetch(ctx, healthy.ID)
	gt.NoError(t, err)
	_, err = base.Fetch(ctx, missing.ID)
	gt.NoError(t, err)
	_, err = base.Fetch(ctx, dangling.ID)
	gt.B(t, errors.Is(err, model.ErrNotFound)).True()
}
