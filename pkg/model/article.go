package model

import (
	"time"

	"github.com/google/uuid"
)

type ArticleID string

// NewArticleID generates a new unique ArticleID
func NewArticleID() ArticleID {
	return ArticleID(uuid.New().String())
}

type OwnerID string

// Article is a user-authored document. The content store row is the system
// of record; the semantic index entry derived from BodyText must eventually
// agree with it.
type Article struct {
	ID        ArticleID
	OwnerID   OwnerID
	Title     string
	BodyText  string
	BodyJSON  any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Excerpt returns the snippet stored alongside the index entry
func (a *Article) Excerpt() string {
	return MakeExcerpt(a.BodyText)
}

const excerptLength = 200

// MakeExcerpt truncates body text to the snippet length used in index metadata
func MakeExcerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLength {
		return text
	}
	return string(runes[:excerptLength])
}
