package vecindex

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/model"
)

type memoryEntry struct {
	vector []float32
	meta   Metadata
}

// Memory is an in-memory Index for unit tests and local runs
type Memory struct {
	mu        sync.RWMutex
	dimension int
	entries   map[model.ArticleID]*memoryEntry
}

var _ Index = &Memory{}

// NewMemory creates a new in-memory semantic index
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[model.ArticleID]*memoryEntry),
	}
}

func (x *Memory) EnsureCollection(ctx context.Context, dimension int) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.dimension == 0 {
		x.dimension = dimension
		return nil
	}
	if x.dimension != dimension {
		return goerr.New("index dimension mismatch",
			goerr.V("expected", dimension),
			goerr.V("actual", x.dimension))
	}
	return nil
}

func (x *Memory) Upsert(ctx context.Context, id model.ArticleID, vector []float32, meta Metadata) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.dimension > 0 && len(vector) != x.dimension {
		return goerr.New("vector dimension mismatch",
			goerr.V("expected", x.dimension),
			goerr.V("actual", len(vector)))
	}

	vec := make([]float32, len(vector))
	copy(vec, vector)
	x.entries[id] = &memoryEntry{vector: vec, meta: meta}
	return nil
}

func (x *Memory) Delete(ctx context.Context, id model.ArticleID) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	delete(x.entries, id)
	return nil
}

func (x *Memory) Fetch(ctx context.Context, id model.ArticleID) (*Metadata, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	entry, ok := x.entries[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "index entry not found", goerr.V("articleID", id))
	}

	meta := entry.meta
	return &meta, nil
}

func (x *Memory) Search(ctx context.Context, vector []float32, limit int) ([]*Entry, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	entries := make([]*Entry, 0, len(x.entries))
	for id, e := range x.entries {
		entries = append(entries, &Entry{
			ArticleID: id,
			Metadata:  e.meta,
			Score:     cosineSimilarity(vector, e.vector),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })

	if len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}

func (x *Memory) List(ctx context.Context) ([]model.ArticleID, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	ids := make([]model.ArticleID, 0, len(x.entries))
	for id := range x.entries {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
