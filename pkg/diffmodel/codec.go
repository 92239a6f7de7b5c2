package diffmodel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"
)

// Format is a serialization format for documents.
type Format string

// Supported formats. YAML output mirrors the JSON field names.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const (
	lz4Suffix  = ".lz4"
	yamlIndent = 2
	filePerm   = 0o644
)

// ErrUnknownFormat is returned for an unsupported serialization format.
var ErrUnknownFormat = errors.New("unknown document format")

// ParseFormat converts a user-supplied name into a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// FormatFromPath infers the format from a file name, ignoring a trailing .lz4.
func FormatFromPath(path string) Format {
	ext := filepath.Ext(strings.TrimSuffix(path, lz4Suffix))

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode serializes v (a *Document or *EnrichedDocument) to w. Text fields
// that are not valid UTF-8 are carried losslessly, see Escaped.
func Encode(w io.Writer, v any, format Format, pretty bool) error {
	switch doc := v.(type) {
	case *Document:
		v = Wrap(doc).Escaped()
	case *EnrichedDocument:
		v = doc.Escaped()
	}

	var (
		data []byte
		err  error
	)

	if pretty && format == FormatJSON {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	switch format {
	case FormatJSON:
		data = append(data, '\n')

		_, err = w.Write(data)
		if err != nil {
			return fmt.Errorf("write document: %w", err)
		}

		return nil
	case FormatYAML:
		return encodeYAML(w, data)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// encodeYAML re-reads canonical JSON as a YAML node tree, which keeps the
// struct field order, and emits it in block style.
func encodeYAML(w io.Writer, jsonData []byte) error {
	var node yaml.Node

	err := yaml.Unmarshal(jsonData, &node)
	if err != nil {
		return fmt.Errorf("convert document to yaml: %w", err)
	}

	resetStyle(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(yamlIndent)

	err = enc.Encode(&node)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return fmt.Errorf("flush yaml: %w", err)
	}

	return nil
}

func resetStyle(node *yaml.Node) {
	node.Style = 0

	for _, child := range node.Content {
		resetStyle(child)
	}
}

// Decode reads a document in the given format. Context attachments, when
// present, are preserved on the returned decorator.
func Decode(r io.Reader, format Format) (*EnrichedDocument, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	if format == FormatYAML {
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, err
		}
	} else if format != FormatJSON {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	var doc EnrichedDocument

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	err = dec.Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	err = doc.unescape()
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	return &doc, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var generic any

	err := yaml.Unmarshal(data, &generic)
	if err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	out, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("convert yaml to json: %w", err)
	}

	return out, nil
}

// CreateFile opens path for writing. A .lz4 suffix wraps the file in an LZ4
// frame; closing the returned writer flushes the frame and closes the file.
func CreateFile(path string) (io.WriteCloser, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	if !strings.HasSuffix(path, lz4Suffix) {
		return file, nil
	}

	return &lz4FileWriter{zw: lz4.NewWriter(file), file: file}, nil
}

// OpenFile opens path for reading, transparently decompressing .lz4 files.
func OpenFile(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if !strings.HasSuffix(path, lz4Suffix) {
		return file, nil
	}

	return &lz4FileReader{zr: lz4.NewReader(file), file: file}, nil
}

// ReadFile decodes the document stored at path, inferring its format.
func ReadFile(path string) (*EnrichedDocument, error) {
	rc, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return Decode(rc, FormatFromPath(path))
}

type lz4FileWriter struct {
	zw   *lz4.Writer
	file *os.File
}

func (w *lz4FileWriter) Write(p []byte) (int, error) {
	return w.zw.Write(p)
}

func (w *lz4FileWriter) Close() error {
	return errors.Join(w.zw.Close(), w.file.Close())
}

type lz4FileReader struct {
	zr   *lz4.Reader
	file *os.File
}

func (r *lz4FileReader) Read(p []byte) (int, error) {
	return r.zr.Read(p)
}

func (r *lz4FileReader) Close() error {
	return r.file.Close()
}
