package article

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const searchToolName = "search_articles"

func searchDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        searchToolName,
		Description: "Search the user's articles by semantic similarity to a natural language query",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"query": {
					Type:        genai.TypeString,
					Description: "Natural language description of the content to find",
				},
				"limit": {
					Type:        genai.TypeInteger,
					Description: "Maximum number of results, between 1 and 100 (default 10)",
					Minimum:     ptrFloat(1),
					Maximum:     ptrFloat(100),
				},
			},
			Required: []string{"query"},
		},
	}
}

func (t *Tools) execSearch(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	query := stringArg(fc.Args, "query")
	limit := intArg(fc.Args, "limit", 10)

	entries, err := t.uc.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return textResponse(searchToolName, "No matching articles found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d articles:\n", len(entries))
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %s (id: %s, score: %.3f)\n", i+1, e.Metadata.Title, e.ArticleID, e.Score)
		if e.Metadata.Excerpt != "" {
			fmt.Fprintf(&b, "   %s\n", e.Metadata.Excerpt)
		}
	}

	return textResponse(searchToolName, b.String()), nil
}

func ptrFloat(v float64) *float64 {
	return &v
}
