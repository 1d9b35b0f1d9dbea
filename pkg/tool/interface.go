package tool

import (
	"context"

	"google.golang.org/genai"
)

// Tool is an operation set the LLM can call through function calling
type Tool interface {
	// Declarations returns the function declarations this tool serves
	Declarations() []*genai.FunctionDeclaration

	// Execute runs the requested function and returns its response
	Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error)

	// Prompt returns additional information to be added to the system prompt.
	// Returns empty string if no additional prompt is needed.
	Prompt(ctx context.Context) string
}
