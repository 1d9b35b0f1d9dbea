package tool

import (
	"context"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/model"
	"google.golang.org/genai"
)

type registration struct {
	tool     Tool
	decl     *genai.FunctionDeclaration
	resolved *jsonschema.Resolved
}

// Registry is the catalog of functions the LLM may call. It is an explicit
// constructed object passed to the orchestrator, not a process-wide
// singleton, so tests can build isolated catalogs.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*registration
	tools   []Tool
}

// New creates a registry and registers the given tools. Fails only on a
// malformed parameter schema, which is a caller error.
func New(tools ...Tool) (*Registry, error) {
	r := &Registry{
		entries: make(map[string]*registration),
	}

	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Register adds all declarations of a tool to the catalog. Re-registration
// under an existing name overwrites the previous handler (last writer wins)
// while keeping the original catalog position.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, decl := range t.Declarations() {
		resolved, err := resolveSchema(decl)
		if err != nil {
			return err
		}

		if _, exists := r.entries[decl.Name]; !exists {
			r.order = append(r.order, decl.Name)
		}
		r.entries[decl.Name] = &registration{
			tool:     t,
			decl:     decl,
			resolved: resolved,
		}
	}

	r.tools = append(r.tools, t)
	return nil
}

// Specs returns the full catalog for the LLM tool list, in registration
// order. The order carries no meaning but is stable for testability.
func (r *Registry) Specs() []*genai.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decls := make([]*genai.FunctionDeclaration, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.entries[name].decl)
	}

	if len(decls) == 0 {
		return nil
	}

	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// Prompts returns all tool prompts concatenated
func (r *Registry) Prompts(ctx context.Context) string {
	r.mu.RLock()
	tools := make([]Tool, len(r.tools))
	copy(tools, r.tools)
	r.mu.RUnlock()

	var prompts []string
	for _, t := range tools {
		if prompt := t.Prompt(ctx); prompt != "" {
			prompts = append(prompts, prompt)
		}
	}
	return strings.Join(prompts, "\n\n")
}

// Execute validates the function call against the declared schema and
// dispatches it. The registry lock is held only for the lookup, so one
// in-flight handler never blocks dispatches of other calls.
func (r *Registry) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	r.mu.RLock()
	reg, ok := r.entries[fc.Name]
	r.mu.RUnlock()

	if !ok {
		return nil, goerr.Wrap(model.ErrUnknownTool, "tool is not registered", goerr.V("name", fc.Name))
	}

	if reg.resolved != nil {
		args := fc.Args
		if args == nil {
			args = map[string]any{}
		}
		if err := reg.resolved.Validate(args); err != nil {
			return nil, goerr.Wrap(model.ErrValidation, "arguments do not match the declared schema",
				goerr.V("name", fc.Name),
				goerr.V("cause", err.Error()))
		}
	}

	return reg.tool.Execute(ctx, fc)
}
