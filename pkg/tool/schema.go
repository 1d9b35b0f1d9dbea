package tool

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// convertGenaiToJSONSchema converts a Gemini function declaration schema to
// a JSON Schema so that model-supplied arguments can be validated before a
// handler runs
func convertGenaiToJSONSchema(schema *genai.Schema) (*jsonschema.Schema, error) {
	if schema == nil {
		return nil, nil
	}

	jsSchema := &jsonschema.Schema{}

	switch schema.Type {
	case genai.TypeObject:
		jsSchema.Type = "object"
	case genai.TypeString:
		jsSchema.Type = "string"
	case genai.TypeNumber:
		jsSchema.Type = "number"
	case genai.TypeInteger:
		jsSchema.Type = "integer"
	case genai.TypeBoolean:
		jsSchema.Type = "boolean"
	case genai.TypeArray:
		jsSchema.Type = "array"
	case genai.TypeUnspecified:
		// leave untyped
	default:
		return nil, goerr.New("unsupported schema type", goerr.V("type", schema.Type))
	}

	if schema.Description != "" {
		jsSchema.Description = schema.Description
	}

	if len(schema.Enum) > 0 {
		jsSchema.Enum = make([]any, len(schema.Enum))
		for i, v := range schema.Enum {
			jsSchema.Enum[i] = v
		}
	}

	if len(schema.Properties) > 0 {
		jsSchema.Properties = make(map[string]*jsonschema.Schema)
		for name, propSchema := range schema.Properties {
			converted, err := convertGenaiToJSONSchema(propSchema)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to convert property schema",
					goerr.V("property", name))
			}
			jsSchema.Properties[name] = converted
		}
	}

	if len(schema.Required) > 0 {
		jsSchema.Required = schema.Required
	}

	if schema.Items != nil {
		converted, err := convertGenaiToJSONSchema(schema.Items)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert items schema")
		}
		jsSchema.Items = converted
	}

	if schema.Minimum != nil {
		jsSchema.Minimum = schema.Minimum
	}
	if schema.Maximum != nil {
		jsSchema.Maximum = schema.Maximum
	}

	return jsSchema, nil
}

// resolveSchema compiles a declaration's parameter schema for validation.
// Declarations without parameters resolve to nil (no validation).
func resolveSchema(decl *genai.FunctionDeclaration) (*jsonschema.Resolved, error) {
	if decl.Parameters == nil {
		return nil, nil
	}

	jsSchema, err := convertGenaiToJSONSchema(decl.Parameters)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to convert parameter schema", goerr.V("name", decl.Name))
	}

	resolved, err := jsSchema.Resolve(nil)
	if err != nil {
		return nil, goerr.Wrap(err, "malformed parameter schema", goerr.V("name", decl.Name))
	}

	return resolved, nil
}
