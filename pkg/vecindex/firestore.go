package vecindex

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	indexCollection   = "article_index"
	metaCollection    = "index_meta"
	metaDocID         = "config"
	distanceFieldName = "vector_distance"
)

// entryDoc is the Firestore document representation of an index entry.
// Distance is populated by FindNearest only.
type entryDoc struct {
	ArticleID string             `firestore:"ArticleID"`
	Embedding firestore.Vector32 `firestore:"Embedding"`
	Title     string             `firestore:"Title"`
	Excerpt   string             `firestore:"Excerpt"`
	Distance  float64            `firestore:"vector_distance,omitempty"`
}

type metaDoc struct {
	Dimension int `firestore:"Dimension"`
}

// Firestore implements Index using Firestore vector search
type Firestore struct {
	client *firestore.Client
}

var _ Index = &Firestore{}

// NewFirestore creates a Firestore-backed semantic index
func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client for index",
			goerr.V("projectID", projectID))
	}

	return &Firestore{client: client}, nil
}

func (x *Firestore) entries() *firestore.CollectionRef {
	return x.client.Collection(indexCollection)
}

func (x *Firestore) EnsureCollection(ctx context.Context, dimension int) error {
	metaRef := x.client.Collection(metaCollection).Doc(metaDocID)

	doc, err := metaRef.Get(ctx)
	if err != nil {
		if status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to get index meta")
		}
		if _, err := metaRef.Create(ctx, &metaDoc{Dimension: dimension}); err != nil {
			return goerr.Wrap(err, "failed to create index meta")
		}
		return nil
	}

	var meta metaDoc
	if err := doc.DataTo(&meta); err != nil {
		return goerr.Wrap(err, "failed to unmarshal index meta")
	}
	if meta.Dimension != dimension {
		return goerr.New("index dimension mismatch",
			goerr.V("expected", dimension),
			goerr.V("actual", meta.Dimension))
	}

	return nil
}

func (x *Firestore) Upsert(ctx context.Context, id model.ArticleID, vector []float32, meta Metadata) error {
	docRef := x.entries().Doc(string(id))
	_, err := docRef.Set(ctx, &entryDoc{
		ArticleID: string(id),
		Embedding: firestore.Vector32(vector),
		Title:     meta.Title,
		Excerpt:   meta.Excerpt,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to upsert index entry", goerr.V("articleID", id))
	}
	return nil
}

func (x *Firestore) Delete(ctx context.Context, id model.ArticleID) error {
	if _, err := x.entries().Doc(string(id)).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete index entry", goerr.V("articleID", id))
	}
	return nil
}

func (x *Firestore) Fetch(ctx context.Context, id model.ArticleID) (*Metadata, error) {
	doc, err := x.entries().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "index entry not found", goerr.V("articleID", id))
		}
		return nil, goerr.Wrap(err, "failed to get index entry", goerr.V("articleID", id))
	}

	var d entryDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal index entry", goerr.V("articleID", id))
	}

	return &Metadata{Title: d.Title, Excerpt: d.Excerpt}, nil
}

func (x *Firestore) Search(ctx context.Context, vector []float32, limit int) ([]*Entry, error) {
	vq := x.entries().FindNearest("Embedding", firestore.Vector32(vector), limit,
		firestore.DistanceMeasureCosine,
		&firestore.FindNearestOptions{DistanceResultField: distanceFieldName})

	iter := vq.Documents(ctx)
	defer iter.Stop()

	entries := make([]*Entry, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate vector search results")
		}

		var d entryDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal vector search result")
		}

		entries = append(entries, &Entry{
			ArticleID: model.ArticleID(d.ArticleID),
			Metadata:  Metadata{Title: d.Title, Excerpt: d.Excerpt},
			// Cosine distance is 1 - similarity
			Score: 1 - d.Distance,
		})
	}

	return entries, nil
}

func (x *Firestore) List(ctx context.Context) ([]model.ArticleID, error) {
	iter := x.entries().Select().Documents(ctx)
	defer iter.Stop()

	ids := make([]model.ArticleID, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate index entries")
		}
		ids = append(ids, model.ArticleID(doc.Ref.ID))
	}

	return ids, nil
}
