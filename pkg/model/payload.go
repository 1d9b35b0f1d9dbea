package model

import (
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// postPayload is the structured editor format articles are authored in.
// Only text elements (type 0) contribute to the searchable body text; the
// original payload is retained verbatim as BodyJSON.
type postPayload struct {
	Posts []struct {
		PostID string `json:"postId"`
		Pages  []struct {
			Elements []struct {
				Type    int    `json:"type"`
				Content string `json:"content"`
			} `json:"elements"`
		} `json:"pages"`
	} `json:"posts"`
}

const textElementType = 0

// ParsedPayload is the normalized form of a structured post payload
type ParsedPayload struct {
	Title    string
	BodyText string
	BodyJSON any
}

// ParsePayload extracts title and plain body text from a structured post
// payload. Malformed payloads are rejected with ErrValidation before any
// store mutation happens.
func ParsePayload(raw json.RawMessage) (*ParsedPayload, error) {
	var payload postPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, goerr.Wrap(ErrValidation, "payload is not valid JSON", goerr.V("cause", err.Error()))
	}

	if len(payload.Posts) == 0 {
		return nil, goerr.Wrap(ErrValidation, "payload has no posts")
	}

	post := payload.Posts[0]
	if post.PostID == "" {
		return nil, goerr.Wrap(ErrValidation, "post has no postId")
	}

	var texts []string
	for _, page := range post.Pages {
		for _, element := range page.Elements {
			if element.Type == textElementType && element.Content != "" {
				texts = append(texts, element.Content)
			}
		}
	}

	if len(texts) == 0 {
		return nil, goerr.Wrap(ErrValidation, "post has no text content", goerr.V("postId", post.PostID))
	}

	var bodyJSON any
	if err := json.Unmarshal(raw, &bodyJSON); err != nil {
		return nil, goerr.Wrap(ErrValidation, "failed to decode payload", goerr.V("cause", err.Error()))
	}

	return &ParsedPayload{
		Title:    post.PostID,
		BodyText: strings.Join(texts, "\n"),
		BodyJSON: bodyJSON,
	}, nil
}
