package doctype

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var artifactSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type":    "object",
	"required": []string{
		"model_id", "model_version", "features", "imputer_medians", "scaler_mean",
		"scaler_scale", "classes", "coef", "intercept", "feature_config",
	},
	"properties": map[string]any{
		"model_id":        map[string]any{"type": "string", "minLength": 1},
		"model_version":   map[string]any{"type": "string", "minLength": 1},
		"training_rows":   map[string]any{"type": "integer", "minimum": 0},
		"features":        stringArray(1),
		"imputer_medians": numberArray(),
		"scaler_mean":     numberArray(),
		"scaler_scale":    numberArray(),
		"classes":         stringArray(2),
		"coef":            map[string]any{"type": "array", "items": numberArray()},
		"intercept":       numberArray(),
		"feature_config": map[string]any{
			"type":     "object",
			"required": []string{"pages_sampled", "dpi", "seed"},
			"properties": map[string]any{
				"pages_sampled": map[string]any{"type": "integer", "minimum": 1},
				"dpi":           map[string]any{"type": "integer", "minimum": 1},
				"seed":          map[string]any{"type": "integer"},
			},
		},
	},
}

func stringArray(minItems int) map[string]any {
	return map[string]any{"type": "array", "minItems": minItems, "items": map[string]any{"type": "string"}}
}

func numberArray() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "number"}}
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func compileArtifactSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(artifactSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("artifact.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("artifact.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// validateArtifactJSON validates a model card against the artifact schema.
func validateArtifactJSON(data []byte) error {
	schema, err := compileArtifactSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
