package mkdocs

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed replacement.schema.json
var replacementSchemaJSON []byte

var (
	replacementSchema *jsonschema.Schema
	compileOnce       sync.Once
	compileErr        error
)

// compileSchema compiles the embedded schema once.
func compileSchema() error {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(replacementSchemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal replacement schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("replacement.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("add replacement schema resource: %w", err)
			return
		}
		replacementSchema, err = compiler.Compile("replacement.schema.json")
		if err != nil {
			compileErr = fmt.Errorf("compile replacement schema: %w", err)
		}
	})
	return compileErr
}

// ValidateReplacement checks the theme and markdown_extensions values of doc
// against the embedded schema. Other keys are not inspected.
func ValidateReplacement(doc *Document) error {
	if err := compileSchema(); err != nil {
		return err
	}

	owned := map[string]any{}
	for _, key := range []string{KeyTheme, KeyMarkdownExtensions} {
		var v any
		if doc.Has(key) {
			if err := doc.Decode(key, &v); err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
		}
		owned[key] = v
	}

	// Round-trip through JSON so the validator sees JSON value types.
	data, err := json.Marshal(owned)
	if err != nil {
		return fmt.Errorf("marshal replaced blocks: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("unmarshal replaced blocks: %w", err)
	}
	if err := replacementSchema.Validate(inst); err != nil {
		return fmt.Errorf("replaced blocks failed validation: %w", err)
	}
	return nil
}
