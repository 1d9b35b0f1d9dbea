package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	articlesCollection = "articles"
	sessionsCollection = "sessions"
	messagesCollection = "messages"
)

// articleDoc is the Firestore document representation of model.Article
type articleDoc struct {
	ID        string    `firestore:"ID"`
	OwnerID   string    `firestore:"OwnerID"`
	Title     string    `firestore:"Title"`
	BodyText  string    `firestore:"BodyText"`
	BodyJSON  any       `firestore:"BodyJSON"`
	CreatedAt time.Time `firestore:"CreatedAt"`
	UpdatedAt time.Time `firestore:"UpdatedAt"`
}

func toArticleDoc(a *model.Article) *articleDoc {
	return &articleDoc{
		ID:        string(a.ID),
		OwnerID:   string(a.OwnerID),
		Title:     a.Title,
		BodyText:  a.BodyText,
		BodyJSON:  a.BodyJSON,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func fromArticleDoc(d *articleDoc) *model.Article {
	return &model.Article{
		ID:        model.ArticleID(d.ID),
		OwnerID:   model.OwnerID(d.OwnerID),
		Title:     d.Title,
		BodyText:  d.BodyText,
		BodyJSON:  d.BodyJSON,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// messageDoc is the Firestore document representation of model.Message
type messageDoc struct {
	ID        string    `firestore:"ID"`
	SessionID string    `firestore:"SessionID"`
	Role      string    `firestore:"Role"`
	Content   string    `firestore:"Content"`
	ToolName  string    `firestore:"ToolName,omitempty"`
	Seq       int64     `firestore:"Seq"`
	CreatedAt time.Time `firestore:"CreatedAt"`
}

// Firestore implements Repository backed by Cloud Firestore
type Firestore struct {
	client *firestore.Client
}

var _ Repository = &Firestore{}

// NewFirestore creates a new Firestore repository
func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	return &Firestore{client: client}, nil
}

func (r *Firestore) articles() *firestore.CollectionRef {
	return r.client.Collection(articlesCollection)
}

func (r *Firestore) messages(session model.SessionID) *firestore.CollectionRef {
	return r.client.Collection(sessionsCollection).Doc(string(session)).Collection(messagesCollection)
}

func (r *Firestore) PutArticle(ctx context.Context, article *model.Article) error {
	docRef := r.articles().Doc(string(article.ID))
	if _, err := docRef.Create(ctx, toArticleDoc(article)); err != nil {
		return goerr.Wrap(err, "failed to create article", goerr.V("articleID", article.ID))
	}
	return nil
}

func (r *Firestore) GetArticle(ctx context.Context, id model.ArticleID) (*model.Article, error) {
	doc, err := r.articles().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "article not found", goerr.V("articleID", id))
		}
		return nil, goerr.Wrap(err, "failed to get article", goerr.V("articleID", id))
	}

	var d articleDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal article", goerr.V("articleID", id))
	}

	return fromArticleDoc(&d), nil
}

func (r *Firestore) UpdateArticle(ctx context.Context, article *model.Article) error {
	docRef := r.articles().Doc(string(article.ID))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(docRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(model.ErrNotFound, "article not found", goerr.V("articleID", article.ID))
			}
			return goerr.Wrap(err, "failed to get article for update")
		}
		return tx.Set(docRef, toArticleDoc(article))
	})
	if err != nil {
		return goerr.Wrap(err, "failed to update article", goerr.V("articleID", article.ID))
	}

	return nil
}

func (r *Firestore) DeleteArticle(ctx context.Context, id model.ArticleID) error {
	docRef := r.articles().Doc(string(id))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(docRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(model.ErrNotFound, "article not found", goerr.V("articleID", id))
			}
			return goerr.Wrap(err, "failed to get article for delete")
		}
		return tx.Delete(docRef)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to delete article", goerr.V("articleID", id))
	}

	return nil
}

func (r *Firestore) ListArticlesByOwner(ctx context.Context, owner model.OwnerID) ([]*model.Article, error) {
	iter := r.articles().
		Where("OwnerID", "==", string(owner)).
		OrderBy("CreatedAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	articles := make([]*model.Article, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate articles", goerr.V("owner", owner))
		}

		var d articleDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal article")
		}

		articles = append(articles, fromArticleDoc(&d))
	}

	return articles, nil
}

func (r *Firestore) ListArticleIDs(ctx context.Context) ([]model.ArticleID, error) {
	iter := r.articles().Select().Documents(ctx)
	defer iter.Stop()

	ids := make([]model.ArticleID, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate article IDs")
		}
		ids = append(ids, model.ArticleID(doc.Ref.ID))
	}

	return ids, nil
}

func (r *Firestore) PutMessage(ctx context.Context, msg *model.Message) error {
	if msg.ID == "" {
		msg.ID = model.NewMessageID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	sessionRef := r.client.Collection(sessionsCollection).Doc(string(msg.SessionID))
	msgRef := r.messages(msg.SessionID).Doc(string(msg.ID))

	// Sequence assignment and message write happen in one transaction so the
	// per-session ordering survives concurrent writers.
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var lastSeq int64
		sessionDoc, err := tx.Get(sessionRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to get session")
		}
		if err == nil {
			seq, err := sessionDoc.DataAt("LastSeq")
			if err == nil {
				if v, ok := seq.(int64); ok {
					lastSeq = v
				}
			}
		}

		msg.Seq = lastSeq + 1

		if err := tx.Set(sessionRef, map[string]any{"LastSeq": msg.Seq}, firestore.MergeAll); err != nil {
			return goerr.Wrap(err, "failed to update session sequence")
		}

		return tx.Set(msgRef, &messageDoc{
			ID:        string(msg.ID),
			SessionID: string(msg.SessionID),
			Role:      string(msg.Role),
			Content:   msg.Content,
			ToolName:  msg.ToolName,
			Seq:       msg.Seq,
			CreatedAt: msg.CreatedAt,
		})
	})
	if err != nil {
		return goerr.Wrap(err, "failed to put message",
			goerr.V("sessionID", msg.SessionID),
			goerr.V("messageID", msg.ID))
	}

	return nil
}

func (r *Firestore) ListMessages(ctx context.Context, session model.SessionID, limit int) ([]*model.Message, error) {
	q := r.messages(session).OrderBy("Seq", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	messages := make([]*model.Message, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate messages", goerr.V("sessionID", session))
		}

		var d messageDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal message")
		}

		messages = append(messages, &model.Message{
			ID:        model.MessageID(d.ID),
			SessionID: model.SessionID(d.SessionID),
			Role:      model.Role(d.Role),
			Content:   d.Content,
			ToolName:  d.ToolName,
			Seq:       d.Seq,
			CreatedAt: d.CreatedAt,
		})
	}

	// Reverse into ascending sequence order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
