// Package article registers the content tools the LLM uses to operate on
// the article dual store.
package article

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/model"
	usecase "github.com/m-mizutani/quill/pkg/usecase/article"
	"google.golang.org/genai"
)

// Tools exposes article operations as LLM-callable functions. Mutations
// run as the session owner; the model cannot act for another user.
type Tools struct {
	uc    *usecase.UseCase
	owner model.OwnerID
}

// New creates the article tool set for the given session owner
func New(uc *usecase.UseCase, owner model.OwnerID) *Tools {
	return &Tools{
		uc:    uc,
		owner: owner,
	}
}

func (t *Tools) Declarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		searchDeclaration(),
		getDeclaration(),
		createDeclaration(),
		updateDeclaration(),
		deleteDeclaration(),
	}
}

func (t *Tools) Prompt(ctx context.Context) string {
	return "You can search, read, create, update and delete the user's articles. " +
		"Prefer search_articles when the user asks about existing content. " +
		"Article payloads use the structured post format; pass them through unchanged."
}

func (t *Tools) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	switch fc.Name {
	case searchToolName:
		return t.execSearch(ctx, fc)
	case getToolName:
		return t.execGet(ctx, fc)
	case createToolName:
		return t.execCreate(ctx, fc)
	case updateToolName:
		return t.execUpdate(ctx, fc)
	case deleteToolName:
		return t.execDelete(ctx, fc)
	default:
		return nil, goerr.Wrap(model.ErrUnknownTool, "unexpected function name", goerr.V("name", fc.Name))
	}
}

func textResponse(name, text string) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		Name:     name,
		Response: map[string]any{"result": text},
	}
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// intArg reads an integer argument. Function call arguments arrive as JSON
// numbers, so float64 is the common representation.
func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

// payloadArg re-encodes a structured payload argument so the usecase can
// parse it with the same path as the admin CLI
func payloadArg(args map[string]any, key string) (json.RawMessage, error) {
	v, ok := args[key]
	if !ok {
		return nil, goerr.Wrap(model.ErrValidation, "payload is required")
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, goerr.Wrap(model.ErrValidation, "payload is not encodable", goerr.V("cause", err.Error()))
	}

	return raw, nil
}
