package article

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const createToolName = "create_article"

func createDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        createToolName,
		Description: "Create a new article from a structured post payload",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"payload": {
					Type:        genai.TypeObject,
					Description: "Structured post document. posts[0].postId becomes the title and text elements of the pages become the body.",
				},
			},
			Required: []string{"payload"},
		},
	}
}

func (t *Tools) execCreate(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	raw, err := payloadArg(fc.Args, "payload")
	if err != nil {
		return nil, err
	}

	a, err := t.uc.Create(ctx, t.owner, raw)
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Created article %q (id: %s)", a.Title, a.ID)
	return textResponse(createToolName, msg), nil
}
