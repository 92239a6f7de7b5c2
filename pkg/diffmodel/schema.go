package diffmodel

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaJSON is the JSON Schema (draft-07) of a serialized document.
//
//go:embed schema/document.schema.json
var SchemaJSON []byte

// ErrSchemaViolation is returned when a serialized document does not match SchemaJSON.
var ErrSchemaViolation = errors.New("document does not match schema")

// Violation is a single schema validation failure.
type Violation struct {
	Field       string
	Description string
}

// SchemaError lists every violation found in a document.
type SchemaError struct {
	Violations []Violation
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Description)
	}

	return fmt.Sprintf("%s: %s", ErrSchemaViolation, strings.Join(parts, "; "))
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaViolation
}

// Validate checks JSON-encoded document data against SchemaJSON.
// It returns a *SchemaError when the data is well-formed but invalid.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(SchemaJSON),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	schemaErr := &SchemaError{}
	for _, resultErr := range result.Errors() {
		schemaErr.Violations = append(schemaErr.Violations, Violation{
			Field:       resultErr.Field(),
			Description: resultErr.Description(),
		})
	}

	return schemaErr
}

// ValidateFile validates the document stored at path. YAML documents are
// converted to their JSON form first; .lz4 files are decompressed.
func ValidateFile(path string) error {
	rc, err := OpenFile(path)
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if FormatFromPath(path) == FormatYAML {
		data, err = yamlToJSON(data)
		if err != nil {
			return err
		}
	}

	return Validate(data)
}
