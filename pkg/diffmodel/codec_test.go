package diffmodel_test

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/diffcore/pkg/diffmodel"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want diffmodel.Format
	}{
		{"", diffmodel.FormatJSON},
		{"json", diffmodel.FormatJSON},
		{"JSON", diffmodel.FormatJSON},
		{"yaml", diffmodel.FormatYAML},
		{"yml", diffmodel.FormatYAML},
	}

	for _, tt := range tests {
		got, err := diffmodel.ParseFormat(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := diffmodel.ParseFormat("xml")
	require.ErrorIs(t, err, diffmodel.ErrUnknownFormat)
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, diffmodel.FormatJSON, diffmodel.FormatFromPath("doc.json"))
	assert.Equal(t, diffmodel.FormatJSON, diffmodel.FormatFromPath("doc"))
	assert.Equal(t, diffmodel.FormatYAML, diffmodel.FormatFromPath("doc.yaml"))
	assert.Equal(t, diffmodel.FormatYAML, diffmodel.FormatFromPath("doc.YML"))
	assert.Equal(t, diffmodel.FormatYAML, diffmodel.FormatFromPath("doc.yaml.lz4"))
	assert.Equal(t, diffmodel.FormatJSON, diffmodel.FormatFromPath("doc.json.lz4"))
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, format := range []diffmodel.Format{diffmodel.FormatJSON, diffmodel.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()

			want := sampleEnriched()

			var buf bytes.Buffer
			require.NoError(t, diffmodel.Encode(&buf, want, format, true))

			got, err := diffmodel.Decode(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestEncode_PlainDocumentDecodesWithoutContext(t *testing.T) {
	t.Parallel()

	doc := sampleDocument()

	var buf bytes.Buffer
	require.NoError(t, diffmodel.Encode(&buf, doc, diffmodel.FormatJSON, false))

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))

	got, err := diffmodel.Decode(&buf, diffmodel.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Attached())
	assert.Equal(t, doc, got.Unwrap())
}

// latin1Enriched is the sample with Latin-1 bytes in every text field.
func latin1Enriched() *diffmodel.EnrichedDocument {
	doc := sampleEnriched()
	file := &doc.Files[0]
	file.OldPath = "src/caf\xe9.go"
	file.NewPath = "src/caf\xe9.go"
	file.Raw = "diff --git a/src/caf\xe9.go b/src/caf\xe9.go\n-caf\xe9\n"

	hunk := &file.Hunks[0]
	hunk.Heading = "func caf\xe9()"
	hunk.Header = "@@ -2,3 +2,3 @@ func caf\xe9()"
	hunk.Lines[1].Text = "caf\xe9"
	hunk.Context.Before.Lines[2] = "caf\xe9"

	return doc
}

func TestEncodeDecode_NonUTF8RoundTrip(t *testing.T) {
	t.Parallel()

	for _, format := range []diffmodel.Format{diffmodel.FormatJSON, diffmodel.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()

			want := latin1Enriched()

			var buf bytes.Buffer
			require.NoError(t, diffmodel.Encode(&buf, want, format, false))
			assert.Contains(t, buf.String(), "Y2Fm6Q==")

			got, err := diffmodel.Decode(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, "caf\xe9", got.Files[0].Hunks[0].Lines[1].Text)
			assert.Nil(t, got.Files[0].Hunks[0].Context.After.LinesBase64)
		})
	}
}

func TestEncode_NonUTF8KeepsLossyTextAndSchema(t *testing.T) {
	t.Parallel()

	doc := latin1Enriched()

	var buf bytes.Buffer
	require.NoError(t, diffmodel.Encode(&buf, doc, diffmodel.FormatJSON, false))
	require.NoError(t, diffmodel.Validate(buf.Bytes()))

	var generic struct {
		Files []struct {
			Hunks []struct {
				Lines []map[string]any `json:"lines"`
			} `json:"hunks"`
		} `json:"files"`
	}

	require.NoError(t, json.Unmarshal(buf.Bytes(), &generic))

	lines := generic.Files[0].Hunks[0].Lines
	assert.Equal(t, "caf\uFFFD", lines[1]["text"])
	assert.Equal(t, "Y2Fm6Q==", lines[1]["textBase64"])
	assert.NotContains(t, lines[0], "textBase64")

	// Encoding works on a copy.
	assert.Empty(t, doc.Files[0].Hunks[0].Lines[1].TextBase64)
	assert.Empty(t, doc.Files[0].RawBase64)
}

func TestDecode_RejectsBadBase64(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, diffmodel.Encode(&buf, sampleDocument(), diffmodel.FormatJSON, false))

	data := strings.Replace(buf.String(), `"raw":`, `"rawBase64":"%%%","raw":`, 1)

	_, err := diffmodel.Decode(strings.NewReader(data), diffmodel.FormatJSON)
	require.ErrorIs(t, err, diffmodel.ErrBadEscape)
}

func TestEncode_YAMLQuotesAmbiguousScalars(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, diffmodel.Encode(&buf, sampleDocument(), diffmodel.FormatYAML, false))

	out := buf.String()
	assert.Contains(t, out, "totals:\n")
	assert.Contains(t, out, `modeBefore: "100644"`)
	assert.Contains(t, out, `text: "true"`)
}

func TestEncode_UnknownFormat(t *testing.T) {
	t.Parallel()

	err := diffmodel.Encode(&bytes.Buffer{}, sampleDocument(), diffmodel.Format("xml"), false)
	require.ErrorIs(t, err, diffmodel.ErrUnknownFormat)

	_, err = diffmodel.Decode(strings.NewReader("{}"), diffmodel.Format("xml"))
	require.ErrorIs(t, err, diffmodel.ErrUnknownFormat)
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := diffmodel.Decode(strings.NewReader(`{"totals":{},"files":[],"extra":1}`), diffmodel.FormatJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extra")
}

func TestFiles_LZ4RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	for _, name := range []string{"doc.json", "doc.json.lz4", "doc.yaml.lz4"} {
		path := filepath.Join(dir, name)
		want := sampleEnriched()

		w, err := diffmodel.CreateFile(path)
		require.NoError(t, err)
		require.NoError(t, diffmodel.Encode(w, want, diffmodel.FormatFromPath(path), false))
		require.NoError(t, w.Close())

		got, err := diffmodel.ReadFile(path)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestFiles_LZ4IsCompressed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "doc.json.lz4")

	w, err := diffmodel.CreateFile(path)
	require.NoError(t, err)
	require.NoError(t, diffmodel.Encode(w, sampleDocument(), diffmodel.FormatJSON, false))
	require.NoError(t, w.Close())

	r, err := diffmodel.OpenFile(path)
	require.NoError(t, err)

	defer r.Close()

	var doc map[string]any
	require.NoError(t, json.NewDecoder(r).Decode(&doc))
	assert.Contains(t, doc, "totals")
}

func TestReadFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := diffmodel.ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
