// Package main generates the JSON schema of a serialized diff document from
// the diffmodel types.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/Sumatoshi-tech/diffcore/pkg/diffmodel"
)

// Schema represents a JSON Schema.
type Schema struct {
	Schema      string      `json:"$schema,omitempty"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	Type        string      `json:"type,omitempty"`
	Pattern     string      `json:"pattern,omitempty"`
	Encoding    string      `json:"contentEncoding,omitempty"`
	Enum        []string    `json:"enum,omitempty"`
	Minimum     *int        `json:"minimum,omitempty"`
	Maximum     *int        `json:"maximum,omitempty"`
	Properties  *orderedMap `json:"properties,omitempty"`
	Items       *Schema     `json:"items,omitempty"`
	Required    []string    `json:"required,omitempty"`
	Ref         string      `json:"$ref,omitempty"`
	Definitions *orderedMap `json:"definitions,omitempty"`
}

// orderedMap keeps schemas in insertion order so the output follows the
// struct field order.
type orderedMap struct {
	keys   []string
	values map[string]*Schema
}

func newOrderedMap() *orderedMap {
	return &orderedMap{values: make(map[string]*Schema)}
}

func (m *orderedMap) set(key string, value *Schema) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}

	m.values[key] = value
}

func (m *orderedMap) has(key string) bool {
	_, ok := m.values[key]

	return ok
}

func (m *orderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}

		value, err := json.Marshal(m.values[key])
		if err != nil {
			return nil, err
		}

		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// definitionNames maps decorator types onto the names of the plain types
// they extend; a document with attachments has the same shape.
var definitionNames = map[string]string{
	"EnrichedFile": "FileDiff",
	"EnrichedHunk": "Hunk",
}

const idPattern = "^[A-Za-z0-9_-]+$"

func intPtr(v int) *int { return &v }

// constraints refines generated property schemas, keyed "Definition.property".
// Integers without an entry get minimum 0.
var constraints = map[string]func(*Schema){
	"FileDiff.id":            func(s *Schema) { s.Pattern = idPattern },
	"FileDiff.status":        func(s *Schema) { s.Enum = enumOf(diffmodel.Statuses) },
	"FileDiff.similarity":    func(s *Schema) { s.Maximum = intPtr(100) },
	"Hunk.id":                func(s *Schema) { s.Pattern = idPattern },
	"HunkLine.id":            func(s *Schema) { s.Minimum = intPtr(1) },
	"HunkLine.op":            func(s *Schema) { s.Enum = enumOf(diffmodel.Ops) },
	"HunkLine.oldLine":       func(s *Schema) { s.Minimum = intPtr(1) },
	"HunkLine.newLine":       func(s *Schema) { s.Minimum = intPtr(1) },
	"ContextSlice.firstLine": func(s *Schema) { s.Minimum = intPtr(1) },
}

// markBase64 describes a "<field>Base64" sibling, which carries the exact
// bytes of a text field that is not valid UTF-8.
func markBase64(s *Schema) {
	s.Description = "Exact bytes of the sibling field when it is not valid UTF-8"

	switch {
	case s.Type == "string":
		s.Encoding = "base64"
	case s.Items != nil:
		s.Items.Encoding = "base64"
	}
}

func enumOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}

	return out
}

var outputPath string

func main() {
	flag.StringVar(&outputPath, "o", "pkg/diffmodel/schema/document.schema.json", "Output file for the document schema")
	flag.Parse()

	data, err := render(generateSchema())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering schema: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing schema: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s\n", outputPath)
}

func generateSchema() *Schema {
	defs := newOrderedMap()
	props, required := structToProperties(reflect.TypeOf(diffmodel.EnrichedDocument{}), "Document", defs)

	return &Schema{
		Schema:      "https://json-schema.org/draft-07/schema#",
		Title:       "Diff Document",
		Description: "Structured representation of a parsed unified diff",
		Type:        "object",
		Properties:  props,
		Required:    required,
		Definitions: defs,
	}
}

func render(schema *Schema) ([]byte, error) {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return append(data, '\n'), nil
}

type field struct {
	name     string
	typ      reflect.Type
	required bool
}

// jsonFields lists the serialized fields of t, flattening embedded structs.
// A field declared on the outer struct shadows an embedded one of the same name.
func jsonFields(t reflect.Type) []field {
	var fields []field

	index := map[string]int{}

	for i := range t.NumField() {
		sf := t.Field(i)

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			for _, inner := range jsonFields(sf.Type) {
				if _, ok := index[inner.name]; !ok {
					index[inner.name] = len(fields)
					fields = append(fields, inner)
				}
			}

			continue
		}

		tag := sf.Tag.Get("json")
		if tag == "-" || tag == "" {
			continue
		}

		parts := strings.Split(tag, ",")
		f := field{name: parts[0], typ: sf.Type, required: len(parts) < 2 || parts[1] != "omitempty"}

		if pos, ok := index[f.name]; ok {
			fields[pos] = f

			continue
		}

		index[f.name] = len(fields)
		fields = append(fields, f)
	}

	return fields
}

func structToProperties(t reflect.Type, defName string, defs *orderedMap) (*orderedMap, []string) {
	props := newOrderedMap()

	var required []string

	for _, f := range jsonFields(t) {
		fieldSchema := typeToSchema(f.typ, defs)

		if fieldSchema.Type == "integer" {
			fieldSchema.Minimum = intPtr(0)
		}

		if strings.HasSuffix(f.name, "Base64") {
			markBase64(fieldSchema)
		}

		if refine, ok := constraints[defName+"."+f.name]; ok {
			refine(fieldSchema)
		}

		props.set(f.name, fieldSchema)

		if f.required {
			required = append(required, f.name)
		}
	}

	return props, required
}

func typeToSchema(t reflect.Type, defs *orderedMap) *Schema {
	switch t.Kind() {
	case reflect.String:
		return &Schema{Type: "string"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}

	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}

	case reflect.Bool:
		return &Schema{Type: "boolean"}

	case reflect.Slice:
		return &Schema{
			Type:  "array",
			Items: typeToSchema(t.Elem(), defs),
		}

	case reflect.Struct:
		defName := t.Name()
		if alias, ok := definitionNames[defName]; ok {
			defName = alias
		}

		if !defs.has(defName) {
			// Reserve the slot first so definitions appear in discovery order.
			defs.set(defName, nil)

			props, required := structToProperties(t, defName, defs)
			defs.set(defName, &Schema{Type: "object", Properties: props, Required: required})
		}

		return &Schema{Ref: "#/definitions/" + defName}

	case reflect.Ptr:
		return typeToSchema(t.Elem(), defs)

	default:
		return &Schema{Type: "object"}
	}
}
