package article

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/model"
	"google.golang.org/genai"
)

const getToolName = "get_article"

func getDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        getToolName,
		Description: "Fetch the full text of one article by its ID",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"article_id": {
					Type:        genai.TypeString,
					Description: "ID of the article to fetch",
				},
			},
			Required: []string{"article_id"},
		},
	}
}

func (t *Tools) execGet(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	id := stringArg(fc.Args, "article_id")
	if id == "" {
		return nil, goerr.Wrap(model.ErrValidation, "article_id is required")
	}

	a, err := t.uc.Get(ctx, model.ArticleID(id))
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", a.Title)
	fmt.Fprintf(&b, "ID: %s\n", a.ID)
	fmt.Fprintf(&b, "Updated: %s\n\n", a.UpdatedAt.Format("2006-01-02 15:04:05"))
	b.WriteString(a.BodyText)

	return textResponse(getToolName, b.String()), nil
}
