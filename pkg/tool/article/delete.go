package article

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/model"
	"google.golang.org/genai"
)

const deleteToolName = "delete_article"

func deleteDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        deleteToolName,
		Description: "Delete an article. This cannot be undone, so confirm with the user first.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"article_id": {
					Type:        genai.TypeString,
					Description: "ID of the article to delete",
				},
			},
			Required: []string{"article_id"},
		},
	}
}

func (t *Tools) execDelete(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	id := stringArg(fc.Args, "article_id")
	if id == "" {
		return nil, goerr.Wrap(model.ErrValidation, "article_id is required")
	}

	if err := t.uc.Delete(ctx, model.ArticleID(id), t.owner); err != nil {
		return nil, err
	}

	return textResponse(deleteToolName, fmt.Sprintf("Deleted article %s", id)), nil
}
