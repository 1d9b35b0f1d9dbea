package article

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/model"
	"google.golang.org/genai"
)

const updateToolName = "update_article"

func updateDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        updateToolName,
		Description: "Replace the content of an existing article with a new structured post payload",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"article_id": {
					Type:        genai.TypeString,
					Description: "ID of the article to update",
				},
				"payload": {
					Type:        genai.TypeObject,
					Description: "Structured post document replacing the current content",
				},
			},
			Required: []string{"article_id", "payload"},
		},
	}
}

func (t *Tools) execUpdate(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	id := stringArg(fc.Args, "article_id")
	if id == "" {
		return nil, goerr.Wrap(model.ErrValidation, "article_id is required")
	}

	raw, err := payloadArg(fc.Args, "payload")
	if err != nil {
		return nil, err
	}

	a, err := t.uc.Update(ctx, model.ArticleID(id), t.owner, raw)
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Updated article %q (id: %s)", a.Title, a.ID)
	return textResponse(updateToolName, msg), nil
}
