package tool

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/open-policy-agent/opa/v1/rego"
)

// PolicyInput is the input document for the dispatch policy
type PolicyInput struct {
	Tool  string         `json:"tool"`
	Args  map[string]any `json:"args"`
	Owner string         `json:"owner"`
}

// Policy is an optional Rego gate consulted before a tool dispatch. A
// denial becomes a textual tool result, never a crash.
type Policy struct {
	query rego.PreparedEvalQuery
}

// LoadPolicy loads all .rego files from policyDir and prepares the
// data.quill.dispatch.allow query. Returns nil when the directory holds no
// policy files, which means every dispatch is allowed.
func LoadPolicy(ctx context.Context, policyDir string) (*Policy, error) {
	files, err := filepath.Glob(filepath.Join(policyDir, "*.rego"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob policy files", goerr.V("dir", policyDir))
	}

	if len(files) == 0 {
		return nil, nil
	}

	options := make([]func(*rego.Rego), 0, len(files)+1)
	options = append(options, rego.Query("data.quill.dispatch.allow"))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", file))
		}
		options = append(options, rego.Module(file, string(data)))
	}

	query, err := rego.New(options...).PrepareForEval(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare dispatch policy")
	}

	return &Policy{query: query}, nil
}

// Allow evaluates the dispatch policy for the given input
func (p *Policy) Allow(ctx context.Context, input *PolicyInput) (bool, error) {
	results, err := p.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, goerr.Wrap(err, "failed to evaluate dispatch policy", goerr.V("tool", input.Tool))
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// Policy does not define the rule: default deny
		return false, nil
	}

	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return false, goerr.New("dispatch policy returned non-boolean",
			goerr.V("value", results[0].Expressions[0].Value))
	}

	return allowed, nil
}
